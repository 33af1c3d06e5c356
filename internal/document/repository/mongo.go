package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/askdocs/askdocs/internal/document"
)

// MongoRepo implements a MongoDB-backed repository for documents.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// index on (userId, uploadDate) so owner listings and same-day duplicate
	// checks stay fast as corpora grow
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "uploadDate", Value: -1}}}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	_, err := m.col.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoRepo) ListByOwner(ctx context.Context, userID string) ([]*document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) FindByOwnerNameSince(ctx context.Context, userID, originalName string, since time.Time) (*document.Document, error) {
	filter := bson.M{
		"userId":       userID,
		"originalName": originalName,
		"uploadDate":   bson.M{"$gte": since},
	}
	var d document.Document
	if err := m.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) Delete(ctx context.Context, userID, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOneAndDelete(ctx, bson.M{"_id": id, "userId": userID}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) DeleteAllByOwner(ctx context.Context, userID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
