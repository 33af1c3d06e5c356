package history

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// unique (userId, query) backs the upsert invariant
	idxModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "query", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Upsert(ctx context.Context, rec *Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.DocumentIDs == nil {
		rec.DocumentIDs = []string{}
	}
	filter := bson.M{"userId": rec.UserID, "query": rec.Query}
	update := bson.M{"$set": bson.M{
		"userId":      rec.UserID,
		"query":       rec.Query,
		"response":    rec.Response,
		"documentIds": rec.DocumentIDs,
		"timestamp":   rec.Timestamp,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated Record
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// upsert created the document; nothing to report
			return nil
		}
		return err
	}
	rec.ID = updated.ID
	return nil
}

func (m *MongoRepo) Recent(ctx context.Context, userID string, limit int) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Record{}
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}

func (m *MongoRepo) DeleteByQuery(ctx context.Context, userID, query string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"userId": userID, "query": query})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) DeleteAllByOwner(ctx context.Context, userID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
