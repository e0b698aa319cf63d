// Package search keeps courses in an Elasticsearch index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
}

// NewClient connects and checks the cluster answers.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	return client, nil
}

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	return &Index{ES: es, Name: name}
}

type courseDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (i *Index) Index(ctx context.Context, course *models.Course) error {
	var buf bytes.Buffer
	doc := courseDoc{
		ID:          course.ID.String(),
		Title:       course.Title,
		Description: course.Description,
		Tags:        course.Tags,
	}
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	res, err := i.ES.Index(i.Name, &buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(doc.ID),
		i.ES.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index course %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return fmt.Errorf("index course %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes the document. A missing document is not an error.
func (i *Index) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := i.ES.Delete(i.Name, id.String(), i.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete course %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if err := responseError(res); err != nil {
		return fmt.Errorf("delete course %s: %w", id, err)
	}
	return nil
}

// Search returns matching course ids in relevance order and the total hit count.
func (i *Index) Search(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "description", "tags"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    offset,
		"size":    limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search courses: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return 0, nil, fmt.Errorf("search courses: %w", err)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
	if len(body) == 0 {
		return errors.New(res.Status())
	}
	return fmt.Errorf("%s: %s", res.Status(), body)
}
