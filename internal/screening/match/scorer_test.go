package match

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"vigil/internal/screening/models"
)

// =============================================================================
// Scorer Test Suite
// =============================================================================
// Justification for unit tests: metric behavior over the cartesian product of
// query forms and name variants is the core correctness surface of the
// engine, and the alias/variant edge cases are impractical to pin down
// through API-level tests.

type ScorerSuite struct {
	suite.Suite
}

func TestScorerSuite(t *testing.T) {
	suite.Run(t, new(ScorerSuite))
}

func (s *ScorerSuite) mustForms(raw string) []Form {
	forms, err := BuildForms(raw)
	s.Require().NoError(err)
	return forms
}

func entityWith(names ...models.NameVariant) models.Entity {
	return models.Entity{
		ID:          "eu-1",
		Source:      models.SourceEU,
		SubjectType: models.SubjectIndividual,
		Active:      true,
		Names:       names,
	}
}

// =============================================================================
// BuildForms
// =============================================================================

func (s *ScorerSuite) TestBuildForms() {
	s.Run("empty input fails", func() {
		_, err := BuildForms("   ")
		s.Error(err)
	})

	s.Run("forms carry tokens and phonetic keys", func() {
		forms := s.mustForms("John Smith")
		s.Require().NotEmpty(forms)
		s.Equal([]string{"john", "smith"}, forms[0].Tokens)
		s.Len(forms[0].Keys, 2)
	})
}

// =============================================================================
// ScoreEntity
// =============================================================================

func (s *ScorerSuite) TestScoreEntity() {
	s.Run("exact match scores one on every metric", func() {
		forms := s.mustForms("John Smith")
		scored := ScoreEntity(forms, entityWith(
			models.NameVariant{Text: "John Smith", Kind: models.KindPrimary},
		))

		for _, metric := range models.KnownMetrics {
			s.InDelta(1.0, scored.Scores[metric], 1e-9, metric)
		}
		s.Empty(scored.Dropped)
	})

	s.Run("alias match beats weak primary", func() {
		forms := s.mustForms("Jon Smith")
		scored := ScoreEntity(forms, entityWith(
			models.NameVariant{Text: "Jonathan Smith", Kind: models.KindPrimary},
			models.NameVariant{Text: "Jon Smith", Kind: models.KindAlias},
		))

		s.Equal("Jon Smith", scored.Matched.Text)
		s.Equal(models.KindAlias, scored.Matched.Kind)
		s.InDelta(1.0, scored.Scores[models.MetricTokenSet], 1e-9)
		s.InDelta(1.0, scored.Scores[models.MetricLevenshtein], 1e-9)
	})

	s.Run("case and whitespace noise does not change scores", func() {
		entity := entityWith(models.NameVariant{Text: "John Smith", Kind: models.KindPrimary})

		a := ScoreEntity(s.mustForms(" john   SMITH "), entity)
		b := ScoreEntity(s.mustForms("John Smith"), entity)
		s.Equal(b.Scores, a.Scores)
	})

	s.Run("reordered name still scores via token-sorted form", func() {
		forms := s.mustForms("Smith John")
		scored := ScoreEntity(forms, entityWith(
			models.NameVariant{Text: "John Smith", Kind: models.KindPrimary},
		))
		s.InDelta(1.0, scored.Scores[models.MetricTokenSet], 1e-9)
	})

	s.Run("unrelated names score low", func() {
		forms := s.mustForms("Jane Smithson")
		scored := ScoreEntity(forms, entityWith(
			models.NameVariant{Text: "Jonathan Smith", Kind: models.KindPrimary},
		))
		s.Less(scored.Scores[models.MetricTokenSet], 0.5)
		s.Less(scored.Scores[models.MetricLevenshtein], 0.7)
	})

	s.Run("variant with no comparable content is skipped", func() {
		forms := s.mustForms("John Smith")
		scored := ScoreEntity(forms, entityWith(
			models.NameVariant{Text: "!!!", Kind: models.KindAlias},
			models.NameVariant{Text: "John Smith", Kind: models.KindPrimary},
		))
		s.Equal("John Smith", scored.Matched.Text)
	})
}

// =============================================================================
// Individual metrics
// =============================================================================

func (s *ScorerSuite) TestTokenSetRatio() {
	s.Run("symmetric", func() {
		a := Form{Tokens: []string{"john", "smith"}}
		b := Form{Tokens: []string{"smith", "john", "abdul"}}
		s.Equal(tokenSetRatio(a, b), tokenSetRatio(b, a))
	})

	s.Run("partial overlap", func() {
		a := Form{Tokens: []string{"john", "smith"}}
		b := Form{Tokens: []string{"john", "doe"}}
		s.InDelta(1.0/3.0, tokenSetRatio(a, b), 1e-9)
	})

	s.Run("duplicate tokens count once", func() {
		a := Form{Tokens: []string{"john", "john"}}
		b := Form{Tokens: []string{"john"}}
		s.InDelta(1.0, tokenSetRatio(a, b), 1e-9)
	})
}

func (s *ScorerSuite) TestLevenshteinRatio() {
	s.Run("identical strings", func() {
		f := Form{Text: "john smith"}
		s.InDelta(1.0, levenshteinRatio(f, f), 1e-9)
	})

	s.Run("one edit", func() {
		a := Form{Text: "jon smith"}
		b := Form{Text: "john smith"}
		s.InDelta(0.9, levenshteinRatio(a, b), 1e-9)
	})

	s.Run("empty form scores zero", func() {
		s.Zero(levenshteinRatio(Form{}, Form{Text: "john"}))
	})
}

func (s *ScorerSuite) TestPhoneticRatio() {
	s.Run("soundex-equivalent names score one", func() {
		forms := s.mustForms("Jon Smyth")
		scored := ScoreEntity(forms, entityWith(
			models.NameVariant{Text: "Jon Smith", Kind: models.KindPrimary},
		))
		s.InDelta(1.0, scored.Scores[models.MetricPhonetic], 1e-9)
	})

	s.Run("no keys on either side scores zero", func() {
		s.Zero(phoneticRatio(Form{Keys: []string{"J500"}}, Form{}))
	})
}

// =============================================================================
// Blocking
// =============================================================================

func (s *ScorerSuite) TestSharesPhoneticKey() {
	forms := s.mustForms("John Smith")

	s.Run("shared surname key blocks in", func() {
		s.True(SharesPhoneticKey(forms, entityWith(
			models.NameVariant{Text: "Jonathan Smythe", Kind: models.KindPrimary},
		)))
	})

	s.Run("phonetically unrelated entity blocks out", func() {
		s.False(SharesPhoneticKey(forms, entityWith(
			models.NameVariant{Text: "Vladimir Petrov", Kind: models.KindPrimary},
		)))
	})
}
