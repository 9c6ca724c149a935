package history

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBaseRepository is a mock implementation of the Repository interface for testing
type MockBaseRepository struct {
	mock.Mock
}

// SaveCurrent implements Repository
func (m *MockBaseRepository) SaveCurrent(ctx context.Context, log *entities.GameHistoryLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// LoadCurrent implements Repository
func (m *MockBaseRepository) LoadCurrent(ctx context.Context) (*entities.GameHistoryLog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameHistoryLog), args.Error(1)
}

// ClearCurrent implements Repository
func (m *MockBaseRepository) ClearCurrent(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Archive implements Repository
func (m *MockBaseRepository) Archive(ctx context.Context, log *entities.GameHistoryLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// GetArchived implements Repository
func (m *MockBaseRepository) GetArchived(ctx context.Context, roundID string) (*entities.GameHistoryLog, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameHistoryLog), args.Error(1)
}

// ListUnshipped implements Repository
func (m *MockBaseRepository) ListUnshipped(ctx context.Context, limit int) ([]*entities.GameHistoryLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entities.GameHistoryLog), args.Error(1)
}

// MarkShipped implements Repository
func (m *MockBaseRepository) MarkShipped(ctx context.Context, roundIDs []string) error {
	args := m.Called(ctx, roundIDs)
	return args.Error(0)
}

// fakeElasticsearch answers just enough of the REST API for the archive
type fakeElasticsearch struct {
	mu       sync.Mutex
	requests []string
	docs     map[string][]byte
	indices  map[string]bool
}

func newFakeElasticsearch() *fakeElasticsearch {
	return &fakeElasticsearch{
		docs:    make(map[string][]byte),
		indices: make(map[string]bool),
	}
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet && r.URL.Path == "/" {
		_, _ = io.WriteString(w, `{"version":{"number":"8.17.1"},"tagline":"You Know, for Search"}`)
		return
	}
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if f.indices[parts[0]] {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && len(parts) == 1:
		f.indices[parts[0]] = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPut && len(parts) == 3 && parts[1] == "_doc":
		body, _ := io.ReadAll(r.Body)
		f.docs[parts[2]] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		var hits []string
		for _, doc := range f.docs {
			hits = append(hits, `{"_source":`+string(doc)+`}`)
		}
		_, _ = io.WriteString(w, `{"hits":{"hits":[`+strings.Join(hits, ",")+`]}}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"unexpected request"}`)
	}
}

func newTestArchive(t *testing.T, base Repository) (*ElasticsearchArchive, *fakeElasticsearch) {
	t.Helper()
	fake := newFakeElasticsearch()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	archive, err := NewElasticsearchArchive(base, &ElasticsearchConfig{
		URL:         server.URL,
		IndexPrefix: "test",
		BatchSize:   10,
	}, logging.NewNop())
	require.NoError(t, err)
	return archive, fake
}

func TestShipPendingIndexesEachRoundOnce(t *testing.T) {
	// Setup
	base := NewMemoryRepository()
	ctx := context.Background()
	end := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, base.Archive(ctx, finishedRound("round-1", end)))
	require.NoError(t, base.Archive(ctx, finishedRound("round-2", end.Add(time.Minute))))
	archive, fake := newTestArchive(t, base)

	// Execute
	shipped, err := archive.ShipPending(ctx)
	require.NoError(t, err)
	again, err := archive.ShipPending(ctx)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 2, shipped)
	assert.Zero(t, again, "shipped rounds are not sent twice")
	assert.Equal(t, []string{
		"HEAD /test_rounds_2026-03",
		"PUT /test_rounds_2026-03",
		"PUT /test_rounds_2026-03/_doc/round-1",
		"PUT /test_rounds_2026-03/_doc/round-2",
	}, fake.requests)

	var doc ESRound
	require.NoError(t, json.Unmarshal(fake.docs["round-1"], &doc))
	assert.Equal(t, "dragon", doc.GameID)
	assert.Equal(t, "won", doc.Result)
	require.NotNil(t, doc.Log)
	assert.Equal(t, []string{"spin", "stop"}, doc.Log.RoundInfo)
}

func TestGetArchivedFallsBackToElasticsearch(t *testing.T) {
	// Setup
	base := new(MockBaseRepository)
	ctx := context.Background()
	round := finishedRound("round-9", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	archive, _ := newTestArchive(t, base)
	require.NoError(t, archive.IndexRound(ctx, round))

	base.On("GetArchived", mock.Anything, "round-9").Return(nil, ErrRoundNotFound)

	// Execute
	got, err := archive.GetArchived(ctx, "round-9")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "round-9", got.RoundID)
	assert.Equal(t, int64(250), got.TotalWon)
	base.AssertExpectations(t)
}

func TestDelegatesCurrentRoundToBase(t *testing.T) {
	base := new(MockBaseRepository)
	archive, fake := newTestArchive(t, base)
	ctx := context.Background()
	log := entities.NewGameHistoryLog("round-3", time.Now())

	base.On("SaveCurrent", mock.Anything, log).Return(nil)
	base.On("LoadCurrent", mock.Anything).Return(log, nil)
	base.On("ClearCurrent", mock.Anything).Return(nil)

	require.NoError(t, archive.SaveCurrent(ctx, log))
	loaded, err := archive.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Same(t, log, loaded)
	require.NoError(t, archive.ClearCurrent(ctx))

	base.AssertExpectations(t)
	assert.Empty(t, fake.requests, "current round writes never reach Elasticsearch")
}
