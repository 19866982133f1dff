package handler

import (
	"time"

	contracts "vigil/contracts/screening"
	"vigil/internal/screening/models"
	"vigil/internal/screening/service"
	"vigil/internal/screening/store/custom"

	dErrors "vigil/pkg/domain-errors"
)

// toQuery converts wire input into a domain query.
func toQuery(name, subjectType, dateOfBirth, nationality string) (models.Query, error) {
	query := models.Query{
		Name:        name,
		DateOfBirth: dateOfBirth,
		Nationality: nationality,
	}
	if subjectType != "" {
		parsed, err := models.ParseSubjectType(subjectType)
		if err != nil {
			return models.Query{}, err
		}
		query.SubjectType = parsed
	}
	return query, nil
}

// searchOptions is the subset of wire fields that tune the engine.
type searchOptions struct {
	Threshold      *float64
	MaxResults     *int
	EnabledSources []string
	IncludeCustom  *bool
	MetricWeights  map[string]float64
}

// applyOptions overlays request options onto the default configuration.
func applyOptions(cfg models.SearchConfig, opts searchOptions) (models.SearchConfig, error) {
	if opts.Threshold != nil {
		cfg.Threshold = *opts.Threshold
	}
	if opts.MaxResults != nil {
		cfg.MaxResults = *opts.MaxResults
	}
	if len(opts.EnabledSources) > 0 {
		tags := make([]models.SourceTag, 0, len(opts.EnabledSources))
		for _, raw := range opts.EnabledSources {
			tag, err := models.ParseSourceTag(raw)
			if err != nil {
				return cfg, dErrors.Newf(dErrors.CodeInvalidQuery, "unknown source %q", raw)
			}
			tags = append(tags, tag)
		}
		cfg.EnabledSources = tags
	}
	if opts.IncludeCustom != nil {
		cfg.IncludeCustom = *opts.IncludeCustom
	}
	if len(opts.MetricWeights) > 0 {
		merged := make(map[string]float64, len(cfg.MetricWeights))
		for name, weight := range cfg.MetricWeights {
			merged[name] = weight
		}
		for name, weight := range opts.MetricWeights {
			merged[name] = weight
		}
		cfg.MetricWeights = merged
	}
	return cfg, nil
}

func toMatch(result models.MatchResult) contracts.Match {
	return contracts.Match{
		EntityID:     result.Entity.ID,
		Source:       result.Entity.Source.String(),
		SubjectType:  string(result.Entity.SubjectType),
		PrimaryName:  result.Entity.PrimaryName(),
		MatchedName:  result.MatchedName.Text,
		MatchedKind:  string(result.MatchedName.Kind),
		Confidence:   result.Confidence,
		MetricScores: result.Scores,
		Degraded:     result.Degraded,
	}
}

func toSearchResponse(set *models.MatchResultSet, cached bool) contracts.SearchResponse {
	resp := contracts.SearchResponse{
		Query:   set.Query.Name,
		Matches: make([]contracts.Match, 0, len(set.Results)),
		Cached:  cached,
	}
	for _, result := range set.Results {
		resp.Matches = append(resp.Matches, toMatch(result))
	}
	for _, warning := range set.Warnings {
		resp.Warnings = append(resp.Warnings, contracts.Warning{
			Code:    string(warning.Code),
			Source:  warning.Source.String(),
			Message: warning.Message,
		})
	}
	return resp
}

func toBatchResponse(outcome *service.BatchOutcome) contracts.BatchResponse {
	resp := contracts.BatchResponse{
		BatchID: outcome.BatchID,
		Items:   make([]contracts.BatchItemResponse, 0, len(outcome.Items)),
	}
	for _, item := range outcome.Items {
		wire := contracts.BatchItemResponse{
			Index: item.Index,
			Query: item.Query.Name,
			State: string(item.State),
		}
		if item.Result != nil {
			result := toSearchResponse(item.Result, false)
			wire.Result = &result
		}
		if item.Err != nil {
			code := dErrors.CodeOf(item.Err)
			wire.Error = string(code)
			// Internal detail stays in logs, mirroring the error envelope.
			if code != dErrors.CodeInternal {
				wire.ErrorMsg = item.Err.Error()
			}
		}
		resp.Items = append(resp.Items, wire)
	}
	return resp
}

func toCustomRecord(req contracts.CustomEntityRequest) (custom.Record, error) {
	record := custom.Record{
		PrimaryName: req.PrimaryName,
		Aliases:     req.Aliases,
		Nationality: req.Nationality,
		DateOfBirth: req.DateOfBirth,
		Notes:       req.Notes,
	}
	if req.SubjectType != "" {
		parsed, err := models.ParseSubjectType(req.SubjectType)
		if err != nil {
			return custom.Record{}, err
		}
		record.SubjectType = parsed
	}
	return record, nil
}

func toCustomResponse(record custom.Record) contracts.CustomEntityResponse {
	return contracts.CustomEntityResponse{
		ID:          record.ID,
		PrimaryName: record.PrimaryName,
		Aliases:     record.Aliases,
		SubjectType: string(record.SubjectType),
		Nationality: record.Nationality,
		DateOfBirth: record.DateOfBirth,
		Notes:       record.Notes,
		Active:      record.Active,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   record.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toSourcesResponse(statuses []service.SourceStatus) contracts.SourcesResponse {
	resp := contracts.SourcesResponse{Sources: make([]contracts.SourceStatus, 0, len(statuses))}
	for _, st := range statuses {
		resp.Sources = append(resp.Sources, contracts.SourceStatus{
			Source:      st.Source.String(),
			Healthy:     st.Healthy,
			EntityCount: st.EntityCount,
			Detail:      st.Detail,
		})
	}
	return resp
}
