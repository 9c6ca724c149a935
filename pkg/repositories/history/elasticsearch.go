package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
)

// ElasticsearchConfig holds configuration options for the Elasticsearch archive
type ElasticsearchConfig struct {
	URL             string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // How long archived rounds stay searchable
	BatchSize       int           // Rounds shipped per run
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:             "http://localhost:9200",
		IndexPrefix:     "egmcore",
		RetentionPeriod: 365 * 24 * time.Hour,
		BatchSize:       100,
	}
}

// ElasticsearchArchive decorates a Repository: everything is stored in the
// base repository and finished rounds are shipped to monthly indices.
type ElasticsearchArchive struct {
	baseRepo    Repository
	client      *elasticsearch.Client
	config      *ElasticsearchConfig
	indexPrefix string
	log         *logging.Logger

	mu           sync.Mutex
	knownIndices map[string]bool
}

// NewElasticsearchArchive creates a new Elasticsearch archive
func NewElasticsearchArchive(baseRepo Repository, config *ElasticsearchConfig, logger *logging.Logger) (*ElasticsearchArchive, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}

	// Add authentication if provided
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = "egmcore"
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = 365 * 24 * time.Hour
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = logging.Default
	}

	return &ElasticsearchArchive{
		baseRepo:     baseRepo,
		client:       client,
		config:       config,
		indexPrefix:  config.IndexPrefix,
		log:          logger.Named("es-archive"),
		knownIndices: make(map[string]bool),
	}, nil
}

// SaveCurrent delegates to the base repository
func (r *ElasticsearchArchive) SaveCurrent(ctx context.Context, log *entities.GameHistoryLog) error {
	return r.baseRepo.SaveCurrent(ctx, log)
}

// LoadCurrent delegates to the base repository
func (r *ElasticsearchArchive) LoadCurrent(ctx context.Context) (*entities.GameHistoryLog, error) {
	return r.baseRepo.LoadCurrent(ctx)
}

// ClearCurrent delegates to the base repository
func (r *ElasticsearchArchive) ClearCurrent(ctx context.Context) error {
	return r.baseRepo.ClearCurrent(ctx)
}

// Archive stores the round in the base repository; shipping happens later
func (r *ElasticsearchArchive) Archive(ctx context.Context, log *entities.GameHistoryLog) error {
	return r.baseRepo.Archive(ctx, log)
}

// ListUnshipped delegates to the base repository
func (r *ElasticsearchArchive) ListUnshipped(ctx context.Context, limit int) ([]*entities.GameHistoryLog, error) {
	return r.baseRepo.ListUnshipped(ctx, limit)
}

// MarkShipped delegates to the base repository
func (r *ElasticsearchArchive) MarkShipped(ctx context.Context, roundIDs []string) error {
	return r.baseRepo.MarkShipped(ctx, roundIDs)
}

// GetArchived looks in the base repository first, then in Elasticsearch
func (r *ElasticsearchArchive) GetArchived(ctx context.Context, roundID string) (*entities.GameHistoryLog, error) {
	log, err := r.baseRepo.GetArchived(ctx, roundID)
	if err == nil || !errors.Is(err, ErrRoundNotFound) {
		return log, err
	}
	return r.SearchRound(ctx, roundID)
}

func (r *ElasticsearchArchive) indexFor(t time.Time) string {
	return r.indexPrefix + "_rounds_" + t.UTC().Format("2006-01")
}

// ensureIndex creates a monthly round index the first time it is needed
func (r *ElasticsearchArchive) ensureIndex(ctx context.Context, index string) error {
	r.mu.Lock()
	known := r.knownIndices[index]
	r.mu.Unlock()
	if known {
		return nil
	}

	res, err := r.client.Indices.Exists([]string{index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		req := esapi.IndicesCreateRequest{
			Index: index,
			Body:  strings.NewReader(roundIndexMapping),
		}

		createRes, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("error creating index %s: %w", index, err)
		}
		defer createRes.Body.Close()

		if createRes.IsError() {
			return fmt.Errorf("error creating index %s: %s", index, createRes.String())
		}
		r.log.Info("Created round index %s", index)
	}

	r.mu.Lock()
	r.knownIndices[index] = true
	r.mu.Unlock()
	return nil
}

// IndexRound writes one archived round. The round ID is the document ID so
// shipping the same round twice overwrites rather than duplicates.
func (r *ElasticsearchArchive) IndexRound(ctx context.Context, log *entities.GameHistoryLog) error {
	index := r.indexFor(log.EndTime)
	if err := r.ensureIndex(ctx, index); err != nil {
		return err
	}

	jsonData, err := json.Marshal(newESRound(log))
	if err != nil {
		return fmt.Errorf("error marshaling round: %w", err)
	}

	res, err := r.client.Index(
		index,
		bytes.NewReader(jsonData),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(log.RoundID),
	)
	if err != nil {
		return fmt.Errorf("error indexing round: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing round: %s", res.String())
	}
	return nil
}

// ShipPending indexes archived rounds that have not been shipped yet and
// returns how many were shipped
func (r *ElasticsearchArchive) ShipPending(ctx context.Context) (int, error) {
	pending, err := r.baseRepo.ListUnshipped(ctx, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	shipped := make([]string, 0, len(pending))
	for _, log := range pending {
		if err := r.IndexRound(ctx, log); err != nil {
			// Keep what went through; the rest is retried next run
			r.log.Warn("Error shipping round %s: %v", log.RoundID, err)
			break
		}
		shipped = append(shipped, log.RoundID)
	}

	if err := r.baseRepo.MarkShipped(ctx, shipped); err != nil {
		return 0, err
	}
	if len(shipped) > 0 {
		r.log.Info("Shipped %d rounds to Elasticsearch", len(shipped))
	}
	return len(shipped), nil
}

// SearchRound finds an archived round in Elasticsearch
func (r *ElasticsearchArchive) SearchRound(ctx context.Context, roundID string) (*entities.GameHistoryLog, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"round_id": roundID},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("error building round query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.indexPrefix+"_rounds_*"),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithSize(1),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching for round: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching for round: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source ESRound `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing round search: %w", err)
	}

	if len(result.Hits.Hits) == 0 || result.Hits.Hits[0].Source.Log == nil {
		return nil, ErrRoundNotFound
	}
	return result.Hits.Hits[0].Source.Log, nil
}

// PruneOldIndices deletes monthly indices older than the retention period
func (r *ElasticsearchArchive) PruneOldIndices(ctx context.Context) error {
	indices, err := r.GetIndices(ctx, r.indexPrefix+"_rounds_*")
	if err != nil {
		return err
	}

	cutoffDate := time.Now().Add(-r.config.RetentionPeriod)

	for _, indexName := range indices {
		dateStr := indexName[strings.LastIndex(indexName, "_")+1:]
		indexDate, err := time.Parse("2006-01", dateStr)
		if err != nil {
			r.log.Warn("Error parsing date from index name %s: %v", indexName, err)
			continue
		}

		// The whole month has to be past the cutoff
		if !indexDate.AddDate(0, 1, 0).Before(cutoffDate) {
			continue
		}

		req := esapi.IndicesDeleteRequest{Index: []string{indexName}}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			r.log.Warn("Error deleting index %s: %v", indexName, err)
			continue
		}
		res.Body.Close()

		if res.IsError() {
			r.log.Warn("Error deleting index %s: %s", indexName, res.String())
			continue
		}

		r.mu.Lock()
		delete(r.knownIndices, indexName)
		r.mu.Unlock()
		r.log.Info("Deleted index %s (older than retention period of %v)", indexName, r.config.RetentionPeriod)
	}

	return nil
}

// GetIndices returns the names of indices matching pattern
func (r *ElasticsearchArchive) GetIndices(ctx context.Context, pattern string) ([]string, error) {
	res, err := r.client.Indices.Get(
		[]string{pattern},
		r.client.Indices.Get.WithContext(ctx),
		r.client.Indices.Get.WithExpandWildcards("open"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error getting indices: %s", res.String())
	}

	var indices map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, fmt.Errorf("error parsing indices response: %w", err)
	}

	indexNames := make([]string, 0, len(indices))
	for name := range indices {
		indexNames = append(indexNames, name)
	}
	return indexNames, nil
}

// GetConfig returns the archive configuration
func (r *ElasticsearchArchive) GetConfig() ElasticsearchConfig {
	return *r.config
}

// GetIndexPrefix returns the index prefix used by the archive
func (r *ElasticsearchArchive) GetIndexPrefix() string {
	return r.indexPrefix
}
