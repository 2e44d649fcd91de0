package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/domain"
)

const (
	pageSize  = 500
	bulkBatch = 500
)

// Every searchable field carries a wildcard sub-field so queries can match any
// substring of the stored text, case-insensitively.
const fieldProperties = `{
	"title": {"type": "text", "fields": {"raw": {"type": "wildcard"}}},
	"slug": {"type": "keyword"},
	"content": {"type": "text", "fields": {"raw": {"type": "wildcard"}}},
	"excerpt": {"type": "text", "fields": {"raw": {"type": "wildcard"}}},
	"published": {"type": "boolean"},
	"created_at": {"type": "date"}
}`

var (
	indexMapping = `{"mappings": {"properties": ` + fieldProperties + `}}`
	putMapping   = `{"properties": ` + fieldProperties + `}`
)

var searchFields = []string{"title.raw", "content.raw", "excerpt.raw"}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// PostIndex is the full-text index the post service consults for search.
type PostIndex interface {
	Index(ctx context.Context, post domain.Post) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]string, error)
	// Reindex writes every given post, replacing any existing document.
	Reindex(ctx context.Context, posts []domain.Post) error
}

type indexedPost struct {
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID   string `json:"_id"`
			Sort []any  `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
}

type elasticPostIndex struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewElasticPostIndex returns an Elasticsearch backed index, or nil when client is nil.
func NewElasticPostIndex(client *elasticsearch.Client, index string, logger *zap.Logger) PostIndex {
	if client == nil {
		return nil
	}
	if index == "" {
		index = "posts"
	}
	return &elasticPostIndex{client: client, index: index, logger: logger}
}

// EnsureIndex creates the posts index with its mapping. An index that already exists
// gets the current field mapping applied so older indexes gain the wildcard sub-fields.
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, index string) error {
	req := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(indexMapping),
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		return nil
	}
	if !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index: %s", res.String())
	}

	update := esapi.IndicesPutMappingRequest{
		Index: []string{index},
		Body:  strings.NewReader(putMapping),
	}
	mres, err := update.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("update mapping: %w", err)
	}
	defer mres.Body.Close()
	if mres.IsError() {
		return fmt.Errorf("update mapping: %s", mres.String())
	}
	return nil
}

func toIndexed(post domain.Post) indexedPost {
	return indexedPost{
		Title:     post.Title,
		Slug:      post.Slug,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
	}
}

func (i *elasticPostIndex) Index(ctx context.Context, post domain.Post) error {
	body, err := json.Marshal(toIndexed(post))
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: post.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index post %s: %w", post.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index post %s: %s", post.ID, res.String())
	}
	return nil
}

func (i *elasticPostIndex) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: id,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete post %s: %s", id, res.String())
	}
	return nil
}

// Reindex bulk-writes posts in batches.
func (i *elasticPostIndex) Reindex(ctx context.Context, posts []domain.Post) error {
	for start := 0; start < len(posts); start += bulkBatch {
		end := min(start+bulkBatch, len(posts))
		if err := i.bulkIndex(ctx, posts[start:end]); err != nil {
			return err
		}
	}
	i.logger.Info("search index rebuilt", zap.Int("posts", len(posts)))
	return nil
}

func (i *elasticPostIndex) bulkIndex(ctx context.Context, posts []domain.Post) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, post := range posts {
		action := map[string]any{"index": map[string]any{"_id": post.ID}}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(toIndexed(post)); err != nil {
			return err
		}
	}

	req := esapi.BulkRequest{
		Index:   i.index,
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}
	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		return fmt.Errorf("bulk index: some documents were rejected")
	}
	return nil
}

// Search returns the ids of every published post whose title, content or excerpt
// contains query, ignoring case, newest first. Results are paged with search_after.
func (i *elasticPostIndex) Search(ctx context.Context, query string) ([]string, error) {
	var (
		ids   []string
		after []any
	)
	for {
		page, last, err := i.searchPage(ctx, query, after)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if len(page) < pageSize || last == nil {
			break
		}
		after = last
	}
	i.logger.Debug("search served by index", zap.String("query", query), zap.Int("hits", len(ids)))
	return ids, nil
}

func (i *elasticPostIndex) searchPage(ctx context.Context, query string, after []any) ([]string, []any, error) {
	body, err := json.Marshal(buildQuery(query, after))
	if err != nil {
		return nil, nil, err
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("search posts: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, nil, fmt.Errorf("search posts: %s: %s", res.Status(), raw)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := parsed.Hits.Hits
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}
	var last []any
	if len(hits) > 0 {
		last = hits[len(hits)-1].Sort
	}
	return ids, last, nil
}

func buildQuery(query string, after []any) map[string]any {
	pattern := "*" + wildcardEscaper.Replace(query) + "*"
	should := make([]any, 0, len(searchFields))
	for _, field := range searchFields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value":            pattern,
					"case_insensitive": true,
				},
			},
		})
	}

	body := map[string]any{
		"size":    pageSize,
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"published": true}},
				},
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"sort": []any{
			map[string]any{"created_at": map[string]any{"order": "desc"}},
			map[string]any{"slug": map[string]any{"order": "asc"}},
		},
	}
	if len(after) > 0 {
		body["search_after"] = after
	}
	return body
}
