package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/config"
)

// Elastic wraps the Elasticsearch client used for full-text search.
type Elastic struct {
	Client *elasticsearch.Client
}

// NewElastic builds a client when ELASTICSEARCH_URL is set and returns nil otherwise.
// The cluster is not contacted here.
func NewElastic(cfg config.SearchConfig, logger *zap.Logger) (*Elastic, error) {
	if cfg.ElasticsearchURL == "" {
		logger.Info("ELASTICSEARCH_URL not provided; search falls back to the post store")
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Elastic{Client: client}, nil
}

// Ping verifies cluster connectivity.
func (e *Elastic) Ping(ctx context.Context) error {
	if e == nil || e.Client == nil {
		return errors.New("elasticsearch client not configured")
	}
	res, err := e.Client.Info(e.Client.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return nil
}

// Handle returns the underlying client or nil.
func (e *Elastic) Handle() *elasticsearch.Client {
	if e == nil {
		return nil
	}
	return e.Client
}
