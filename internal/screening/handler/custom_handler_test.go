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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	contracts "vigil/contracts/screening"
	"vigil/internal/screening/models"
	"vigil/internal/screening/store/custom"

	dErrors "vigil/pkg/domain-errors"
)

// stubCustom is a scripted CustomService implementation.
type stubCustom struct {
	record  custom.Record
	records []custom.Record
	err     error

	created     *custom.Record
	updated     *custom.Record
	deactivated string
}

func (s *stubCustom) Create(ctx context.Context, record custom.Record) (custom.Record, error) {
	s.created = &record
	if s.err != nil {
		return custom.Record{}, s.err
	}
	return s.record, nil
}

func (s *stubCustom) Get(ctx context.Context, id string) (custom.Record, error) {
	if s.err != nil {
		return custom.Record{}, s.err
	}
	return s.record, nil
}

func (s *stubCustom) Update(ctx context.Context, record custom.Record) (custom.Record, error) {
	s.updated = &record
	if s.err != nil {
		return custom.Record{}, s.err
	}
	return s.record, nil
}

func (s *stubCustom) Deactivate(ctx context.Context, id string) error {
	s.deactivated = id
	return s.err
}

func (s *stubCustom) List(ctx context.Context) ([]custom.Record, error) {
	return s.records, s.err
}

type CustomHandlerSuite struct {
	suite.Suite
	stub   *stubCustom
	router *chi.Mux
}

func (s *CustomHandlerSuite) SetupTest() {
	s.stub = &stubCustom{
		record: custom.Record{
			ID:          "c-1",
			PrimaryName: "Pierre Dubois",
			SubjectType: models.SubjectIndividual,
			Active:      true,
			CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	NewCustom(s.stub, logger, testHTTPMetrics, nil).Register(s.router)
}

func TestCustomHandlerSuite(t *testing.T) {
	suite.Run(t, new(CustomHandlerSuite))
}

func (s *CustomHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *CustomHandlerSuite) TestCreate() {
	w := s.do(http.MethodPost, "/v1/custom-entities", contracts.CustomEntityRequest{
		PrimaryName: "Pierre Dubois",
		SubjectType: "individual",
		Aliases:     []string{"P. Dubois"},
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp contracts.CustomEntityResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("c-1", resp.ID)
	s.True(resp.Active)
	s.Equal("2026-03-01T09:00:00Z", resp.CreatedAt)

	s.Require().NotNil(s.stub.created)
	s.Equal([]string{"P. Dubois"}, s.stub.created.Aliases)
}

func (s *CustomHandlerSuite) TestCreateRejectsBadSubjectType() {
	w := s.do(http.MethodPost, "/v1/custom-entities", contracts.CustomEntityRequest{
		PrimaryName: "Pierre Dubois",
		SubjectType: "vessel",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Nil(s.stub.created)
}

func (s *CustomHandlerSuite) TestGetNotFound() {
	s.stub.err = dErrors.New(dErrors.CodeNotFound, "custom entry c-9 not found")

	w := s.do(http.MethodGet, "/v1/custom-entities/c-9", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "not_found")
}

func (s *CustomHandlerSuite) TestUpdateTakesIDFromPath() {
	w := s.do(http.MethodPut, "/v1/custom-entities/c-1", contracts.CustomEntityRequest{
		PrimaryName: "Pierre Dubois",
		SubjectType: "individual",
		Notes:       "reviewed",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	s.Require().NotNil(s.stub.updated)
	s.Equal("c-1", s.stub.updated.ID)
	s.Equal("reviewed", s.stub.updated.Notes)
}

func (s *CustomHandlerSuite) TestDeactivate() {
	w := s.do(http.MethodDelete, "/v1/custom-entities/c-1", nil)
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("c-1", s.stub.deactivated)
}

func (s *CustomHandlerSuite) TestList() {
	s.stub.records = []custom.Record{s.stub.record}

	w := s.do(http.MethodGet, "/v1/custom-entities", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp []contracts.CustomEntityResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp, 1)
	s.Equal("Pierre Dubois", resp[0].PrimaryName)
}
