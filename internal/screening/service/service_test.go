package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"vigil/internal/audit"
	"vigil/internal/screening/adapters"
	"vigil/internal/screening/metrics"
	"vigil/internal/screening/models"

	dErrors "vigil/pkg/domain-errors"
)

// Metrics register on the default prometheus registry; construct once per
// test binary.
var testMetrics = metrics.New()

// ============================================================
// Scripted fakes
// ============================================================

type fakeSource struct {
	tag        models.SourceTag
	entities   []models.Entity
	err        error
	healthErr  error
	fetchCalls int
	onFetch    func()
}

func (f *fakeSource) Tag() models.SourceTag { return f.tag }

func (f *fakeSource) FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error) {
	f.fetchCalls++
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Entity, 0, len(f.entities))
	for _, e := range f.entities {
		if hint != "" && e.SubjectType != "" && !e.SubjectType.Matches(hint) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeSource) Count(ctx context.Context) (int, error) {
	return len(f.entities), nil
}

func (f *fakeSource) Health(ctx context.Context) error {
	return f.healthErr
}

type fakeCache struct {
	entries map[string]*models.MatchResultSet
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*models.MatchResultSet)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*models.MatchResultSet, bool, error) {
	set, ok := c.entries[key]
	return set, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, set *models.MatchResultSet) error {
	c.sets++
	c.entries[key] = set
	return nil
}

func individual(id string, source models.SourceTag, primary string, aliases ...string) models.Entity {
	names := []models.NameVariant{{Text: primary, Kind: models.KindPrimary}}
	for _, a := range aliases {
		names = append(names, models.NameVariant{Text: a, Kind: models.KindAlias})
	}
	return models.Entity{
		ID:          id,
		Source:      source,
		SubjectType: models.SubjectIndividual,
		Active:      true,
		Names:       names,
	}
}

// ============================================================
// Search
// ============================================================

// Justification for unit tests:
// Search is the engine's front door. These tests pin the behaviors callers
// rely on: ordering and dedup of results, graceful degradation when a
// source is down, cache semantics, and input validation.

type SearchSuite struct {
	suite.Suite
	ctx context.Context
	eu  *fakeSource
	un  *fakeSource
}

func (s *SearchSuite) SetupTest() {
	s.ctx = context.Background()
	s.eu = &fakeSource{tag: models.SourceEU, entities: []models.Entity{
		individual("eu-1", models.SourceEU, "John Smith"),
		individual("eu-2", models.SourceEU, "Johann Schmidt"),
	}}
	s.un = &fakeSource{tag: models.SourceUN, entities: []models.Entity{
		individual("un-1", models.SourceUN, "Jon Smith"),
		individual("un-2", models.SourceUN, "Maria Lopez"),
	}}
}

func TestSearchSuite(t *testing.T) {
	suite.Run(t, new(SearchSuite))
}

func (s *SearchSuite) newService(opts ...Option) *Service {
	registry := adapters.NewRegistry()
	s.Require().NoError(registry.Register(s.eu))
	s.Require().NoError(registry.Register(s.un))

	svc, err := New(registry, slog.New(slog.DiscardHandler), testMetrics, opts...)
	s.Require().NoError(err)
	return svc
}

func (s *SearchSuite) config() models.SearchConfig {
	cfg := models.DefaultSearchConfig()
	cfg.IncludeCustom = false
	return cfg
}

func (s *SearchSuite) TestReturnsRankedMatches() {
	svc := s.newService()

	set, cached, err := svc.Search(s.ctx, models.Query{Name: "John Smith"}, s.config())
	s.Require().NoError(err)
	s.False(cached)
	s.Require().NotEmpty(set.Results)

	// Exact match first; ordering strictly non-increasing.
	s.Equal("eu-1", set.Results[0].Entity.ID)
	for i := 1; i < len(set.Results); i++ {
		s.GreaterOrEqual(set.Results[i-1].Confidence, set.Results[i].Confidence)
	}
	for _, r := range set.Results {
		s.GreaterOrEqual(r.Confidence, s.config().Threshold)
	}
	s.Empty(set.Warnings)
}

func (s *SearchSuite) TestNoMatchesBelowThreshold() {
	svc := s.newService()

	set, _, err := svc.Search(s.ctx, models.Query{Name: "Zzyzx Qwerty"}, s.config())
	s.Require().NoError(err)
	s.Empty(set.Results)
}

func (s *SearchSuite) TestSearchIsIdempotent() {
	svc := s.newService()
	query := models.Query{Name: "John Smith"}

	first, _, err := svc.Search(s.ctx, query, s.config())
	s.Require().NoError(err)
	second, _, err := svc.Search(s.ctx, query, s.config())
	s.Require().NoError(err)

	s.Equal(first.Results, second.Results)
}

func (s *SearchSuite) TestSourceFailureDegradesWithWarning() {
	s.un.err = adapters.NewSourceError(adapters.ErrorOutage, "UN", "connection refused", nil)
	svc := s.newService()

	set, _, err := svc.Search(s.ctx, models.Query{Name: "John Smith"}, s.config())
	s.Require().NoError(err)

	// EU results survive, the UN outage surfaces as an advisory warning.
	s.Require().NotEmpty(set.Results)
	for _, r := range set.Results {
		s.Equal(models.SourceEU, r.Entity.Source)
	}
	s.Require().Len(set.Warnings, 1)
	s.Equal(dErrors.CodeSourceUnavailable, set.Warnings[0].Code)
	s.Equal(models.SourceUN, set.Warnings[0].Source)
}

func (s *SearchSuite) TestInvalidQueryRejected() {
	svc := s.newService()

	_, _, err := svc.Search(s.ctx, models.Query{Name: "   "}, s.config())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidQuery))
	s.Zero(s.eu.fetchCalls, "no source reads for invalid input")
}

func (s *SearchSuite) TestInvalidConfigRejected() {
	svc := s.newService()
	cfg := s.config()
	cfg.Threshold = 1.5

	_, _, err := svc.Search(s.ctx, models.Query{Name: "John Smith"}, cfg)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func (s *SearchSuite) TestEnabledSourcesLimitFanOut() {
	svc := s.newService()
	cfg := s.config()
	cfg.EnabledSources = []models.SourceTag{models.SourceEU}

	set, _, err := svc.Search(s.ctx, models.Query{Name: "Jon Smith"}, cfg)
	s.Require().NoError(err)

	s.Zero(s.un.fetchCalls)
	for _, r := range set.Results {
		s.Equal(models.SourceEU, r.Entity.Source)
	}
}

func (s *SearchSuite) TestCustomSourceIncludedOnDemand() {
	customSrc := &fakeSource{tag: models.SourceCustom, entities: []models.Entity{
		individual("c-1", models.SourceCustom, "John Smith"),
	}}
	svc := s.newService(WithCustomSource(customSrc))

	cfg := s.config()
	cfg.IncludeCustom = true
	set, _, err := svc.Search(s.ctx, models.Query{Name: "John Smith"}, cfg)
	s.Require().NoError(err)

	found := false
	for _, r := range set.Results {
		if r.Entity.ID == "c-1" {
			found = true
		}
	}
	s.True(found, "custom entry should be scored when IncludeCustom is set")

	cfg.IncludeCustom = false
	set, _, err = svc.Search(s.ctx, models.Query{Name: "John Smith"}, cfg)
	s.Require().NoError(err)
	for _, r := range set.Results {
		s.NotEqual(models.SourceCustom, r.Entity.Source)
	}
}

// ============================================================
// Cache
// ============================================================

func (s *SearchSuite) TestCacheHitSkipsSources() {
	cache := newFakeCache()
	svc := s.newService(WithCache(cache))
	query := models.Query{Name: "John Smith"}

	_, cached, err := svc.Search(s.ctx, query, s.config())
	s.Require().NoError(err)
	s.False(cached)
	fetchesAfterFirst := s.eu.fetchCalls

	set, cached, err := svc.Search(s.ctx, query, s.config())
	s.Require().NoError(err)
	s.True(cached)
	s.NotEmpty(set.Results)
	s.Equal(fetchesAfterFirst, s.eu.fetchCalls, "second call served from cache")
}

func (s *SearchSuite) TestDifferentConfigMissesCache() {
	cache := newFakeCache()
	svc := s.newService(WithCache(cache))
	query := models.Query{Name: "John Smith"}

	_, _, err := svc.Search(s.ctx, query, s.config())
	s.Require().NoError(err)

	cfg := s.config()
	cfg.Threshold = 0.9
	_, cached, err := svc.Search(s.ctx, query, cfg)
	s.Require().NoError(err)
	s.False(cached, "threshold is part of the cache key")
}

func (s *SearchSuite) TestPartialResultsNotCached() {
	s.un.err = adapters.NewSourceError(adapters.ErrorOutage, "UN", "down", nil)
	cache := newFakeCache()
	svc := s.newService(WithCache(cache))

	_, _, err := svc.Search(s.ctx, models.Query{Name: "John Smith"}, s.config())
	s.Require().NoError(err)
	s.Zero(cache.sets, "degraded result sets must not be cached")
}

// ============================================================
// Audit
// ============================================================

func (s *SearchSuite) TestSearchEmitsAuditEvent() {
	sink := audit.NewMemorySink()
	svc := s.newService(WithAuditSink(sink))

	_, _, err := svc.Search(s.ctx, models.Query{Name: "John Smith"}, s.config())
	s.Require().NoError(err)

	events := sink.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionSearch, events[0].Action)
	s.NotEmpty(events[0].QueryHash)
	s.NotContains(events[0].QueryHash, "john", "raw query must never reach the audit trail")
	s.Positive(events[0].ResultCount)
}

// ============================================================
// Source statuses
// ============================================================

func (s *SearchSuite) TestSourceStatuses() {
	s.un.healthErr = adapters.NewSourceError(adapters.ErrorOutage, "UN", "down", nil)
	svc := s.newService()

	statuses := svc.SourceStatuses(s.ctx)
	s.Require().Len(statuses, 2)

	byTag := map[models.SourceTag]SourceStatus{}
	for _, st := range statuses {
		byTag[st.Source] = st
	}
	s.True(byTag[models.SourceEU].Healthy)
	s.Equal(2, byTag[models.SourceEU].EntityCount)
	s.False(byTag[models.SourceUN].Healthy)
	s.NotEmpty(byTag[models.SourceUN].Detail)
}
