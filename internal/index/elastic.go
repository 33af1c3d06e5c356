package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/askdocs/askdocs/internal/document"
)

// Elastic implements Index on an Elasticsearch cluster. One shared index
// holds all documents; every query carries a must-match on userId so owners
// only ever see their own documents.
type Elastic struct {
	es    *elasticsearch.Client
	index string
}

// NewElastic connects to the cluster and pings it once so a misconfigured
// endpoint is caught at startup rather than on the first query.
func NewElastic(addresses []string, indexName string) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	res, err := es.Ping()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return &Elastic{es: es, index: indexName}, nil
}

type indexedDoc struct {
	UserID     string    `json:"userId"`
	Content    string    `json:"content"`
	Filename   string    `json:"filename"`
	UploadDate time.Time `json:"uploadDate"`
}

func (e *Elastic) Search(ctx context.Context, userID, query string, limit int) ([]Hit, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{"match": map[string]interface{}{"userId": userID}},
					map[string]interface{}{"match": map[string]interface{}{"content": query}},
				},
			},
		},
		"size": limit,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string     `json:"_id"`
				Source indexedDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("elasticsearch response: %w", err)
	}
	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Content: h.Source.Content, Filename: h.Source.Filename})
	}
	return hits, nil
}

func (e *Elastic) Add(ctx context.Context, doc *document.Document) error {
	b, err := json.Marshal(indexedDoc{
		UserID:     doc.UserID,
		Content:    doc.Content,
		Filename:   doc.OriginalName,
		UploadDate: doc.UploadDate,
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(b),
		// refresh so an upload-then-query in the same request sees the document
		Refresh: "true",
	}
	res, err := req.Do(ctx, e.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Remove(ctx context.Context, id string) error {
	res, err := e.es.Delete(e.index, id, e.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", res.Status())
	}
	return nil
}

func (e *Elastic) RemoveOwner(ctx context.Context, userID string) error {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"userId": userID},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	res, err := e.es.DeleteByQuery([]string{e.index}, &buf, e.es.DeleteByQuery.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch delete_by_query: %s", res.Status())
	}
	return nil
}
