package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	contracts "vigil/contracts/screening"
	"vigil/internal/platform/metrics"
	"vigil/internal/screening/models"
	"vigil/internal/screening/service"

	dErrors "vigil/pkg/domain-errors"
)

// Transport metrics register on the default prometheus registry; construct
// once per test binary.
var testHTTPMetrics = metrics.New()

// stubScreening is a scripted Service implementation.
type stubScreening struct {
	searchSet    *models.MatchResultSet
	searchCached bool
	searchErr    error
	lastQuery    models.Query
	lastConfig   models.SearchConfig

	batchOutcome *service.BatchOutcome
	batchErr     error

	statuses []service.SourceStatus
}

func (s *stubScreening) Defaults() models.SearchConfig {
	return models.DefaultSearchConfig()
}

func (s *stubScreening) Search(ctx context.Context, query models.Query, cfg models.SearchConfig) (*models.MatchResultSet, bool, error) {
	s.lastQuery = query
	s.lastConfig = cfg
	return s.searchSet, s.searchCached, s.searchErr
}

func (s *stubScreening) SearchBatch(ctx context.Context, queries []models.Query, cfg models.SearchConfig) (*service.BatchOutcome, error) {
	s.lastConfig = cfg
	return s.batchOutcome, s.batchErr
}

func (s *stubScreening) SourceStatuses(ctx context.Context) []service.SourceStatus {
	return s.statuses
}

type ScreeningHandlerSuite struct {
	suite.Suite
	stub   *stubScreening
	router *chi.Mux
}

func (s *ScreeningHandlerSuite) SetupTest() {
	s.stub = &stubScreening{
		searchSet: &models.MatchResultSet{Query: models.Query{Name: "John Smith"}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.stub, logger, testHTTPMetrics, nil).Register(s.router)
}

func TestScreeningHandlerSuite(t *testing.T) {
	suite.Run(t, new(ScreeningHandlerSuite))
}

func (s *ScreeningHandlerSuite) post(path string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// ============================================================
// Search endpoint
// ============================================================

func (s *ScreeningHandlerSuite) TestSearchReturnsMatches() {
	s.stub.searchSet = &models.MatchResultSet{
		Query: models.Query{Name: "John Smith"},
		Results: []models.MatchResult{{
			Entity: models.Entity{
				ID:          "eu-1",
				Source:      models.SourceEU,
				SubjectType: models.SubjectIndividual,
				Active:      true,
				Names:       []models.NameVariant{{Text: "John Smith", Kind: models.KindPrimary}},
			},
			MatchedName: models.NameVariant{Text: "John Smith", Kind: models.KindPrimary},
			Scores:      models.MetricScores{models.MetricLevenshtein: 1.0},
			Confidence:  0.97,
		}},
	}

	w := s.post("/v1/screening/search", contracts.SearchRequest{Name: "John Smith"})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp contracts.SearchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("John Smith", resp.Query)
	s.Require().Len(resp.Matches, 1)
	s.Equal("eu-1", resp.Matches[0].EntityID)
	s.Equal("EU", resp.Matches[0].Source)
	s.Equal("primary", resp.Matches[0].MatchedKind)
	s.InDelta(0.97, resp.Matches[0].Confidence, 1e-9)
}

func (s *ScreeningHandlerSuite) TestSearchAppliesRequestOptions() {
	threshold := 0.9
	includeCustom := false
	w := s.post("/v1/screening/search", contracts.SearchRequest{
		Name:           "John Smith",
		SubjectType:    "individual",
		Threshold:      &threshold,
		IncludeCustom:  &includeCustom,
		EnabledSources: []string{"eu", "ofac"},
	})
	s.Require().Equal(http.StatusOK, w.Code)

	s.Equal(models.SubjectIndividual, s.stub.lastQuery.SubjectType)
	s.Equal(0.9, s.stub.lastConfig.Threshold)
	s.False(s.stub.lastConfig.IncludeCustom)
	s.Equal([]models.SourceTag{models.SourceEU, models.SourceOFAC}, s.stub.lastConfig.EnabledSources)
}

func (s *ScreeningHandlerSuite) TestSearchRejectsUnknownSource() {
	w := s.post("/v1/screening/search", contracts.SearchRequest{
		Name:           "John Smith",
		EnabledSources: []string{"INTERPOL"},
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "invalid_query")
}

func (s *ScreeningHandlerSuite) TestSearchMapsDomainErrors() {
	s.stub.searchErr = dErrors.New(dErrors.CodeInvalidQuery, "query name must not be empty")

	w := s.post("/v1/screening/search", contracts.SearchRequest{Name: "  "})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "invalid_query")
}

func (s *ScreeningHandlerSuite) TestSearchRejectsMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/v1/screening/search", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "bad_request")
}

func (s *ScreeningHandlerSuite) TestSearchWarningsPassThrough() {
	s.stub.searchSet = &models.MatchResultSet{
		Query: models.Query{Name: "John Smith"},
		Warnings: []models.Warning{{
			Code:    dErrors.CodeSourceUnavailable,
			Source:  models.SourceUN,
			Message: "source UN skipped: source_outage",
		}},
	}

	w := s.post("/v1/screening/search", contracts.SearchRequest{Name: "John Smith"})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp contracts.SearchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Warnings, 1)
	s.Equal("source_unavailable", resp.Warnings[0].Code)
	s.Equal("UN", resp.Warnings[0].Source)
}

// ============================================================
// Batch endpoint
// ============================================================

func (s *ScreeningHandlerSuite) TestBatchReturnsItemsInOrder() {
	s.stub.batchOutcome = &service.BatchOutcome{
		BatchID: "batch-1",
		Items: []models.BatchItem{
			{
				Index: 0,
				Query: models.Query{Name: "John Smith"},
				State: models.BatchCompleted,
				Result: &models.MatchResultSet{
					Query: models.Query{Name: "John Smith"},
				},
			},
			{
				Index: 1,
				Query: models.Query{Name: "  "},
				State: models.BatchFailed,
				Err:   dErrors.New(dErrors.CodeInvalidQuery, "query name must not be empty"),
			},
		},
	}

	w := s.post("/v1/screening/batch", contracts.BatchRequest{
		Queries: []contracts.BatchQuery{{Name: "John Smith"}, {Name: "  "}},
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp contracts.BatchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("batch-1", resp.BatchID)
	s.Require().Len(resp.Items, 2)
	s.Equal("completed", resp.Items[0].State)
	s.NotNil(resp.Items[0].Result)
	s.Equal("failed", resp.Items[1].State)
	s.Equal("invalid_query", resp.Items[1].Error)
}

func (s *ScreeningHandlerSuite) TestBatchRejectsEmpty() {
	w := s.post("/v1/screening/batch", contracts.BatchRequest{})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ScreeningHandlerSuite) TestBatchRejectsOversize() {
	queries := make([]contracts.BatchQuery, maxBatchQueries+1)
	for i := range queries {
		queries[i] = contracts.BatchQuery{Name: "John Smith"}
	}

	w := s.post("/v1/screening/batch", contracts.BatchRequest{Queries: queries})
	s.Equal(http.StatusBadRequest, w.Code)
}

// ============================================================
// Sources endpoint
// ============================================================

func (s *ScreeningHandlerSuite) TestSourcesReportsHealth() {
	s.stub.statuses = []service.SourceStatus{
		{Source: models.SourceEU, Healthy: true, EntityCount: 1200},
		{Source: models.SourceOFAC, Healthy: false, Detail: "connection refused"},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/screening/sources", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp contracts.SourcesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Sources, 2)
	s.True(resp.Sources[0].Healthy)
	s.Equal(1200, resp.Sources[0].EntityCount)
	s.False(resp.Sources[1].Healthy)
	s.Equal("connection refused", resp.Sources[1].Detail)
}
