// Package normalize converts raw name input into canonical comparison forms.
//
// A single input yields a small set of forms rather than one string: the base
// reduction, a variant with honorifics and legal suffixes stripped, a
// token-sorted variant tolerant of word reordering, and a "First Last"
// rewrite of comma-separated input. Scoring tries every form and keeps the
// best pair, which is what lets "Smith, John" match "John Smith".
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	dErrors "vigil/pkg/domain-errors"
	pstrings "vigil/pkg/platform/strings"
)

var (
	// dottedAbbrev collapses "s.a." / "u.s.a." style abbreviations into "sa" / "usa"
	// before punctuation is flattened to spaces.
	dottedAbbrev = regexp.MustCompile(`\b(?:[a-z]\.){2,}`)

	nonAlnum   = regexp.MustCompile(`[^a-z0-9 ]+`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// honorifics are personal titles stripped for the reduced form. Matching is
// per leading/trailing token on the already-lowercased base form.
var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "mx": {},
	"dr": {}, "prof": {}, "sir": {}, "dame": {}, "lord": {}, "lady": {},
	"hon": {}, "rev": {}, "fr": {}, "sheikh": {}, "haji": {}, "hajji": {},
	"gen": {}, "col": {}, "maj": {}, "capt": {}, "lt": {}, "sgt": {},
}

// legalSuffixes are organizational forms stripped for the reduced form.
// Dotted spellings are already collapsed by the base reduction.
var legalSuffixes = map[string]struct{}{
	"ltd": {}, "limited": {}, "llc": {}, "llp": {}, "inc": {}, "incorporated": {},
	"corp": {}, "corporation": {}, "co": {}, "company": {}, "holdings": {},
	"gmbh": {}, "ag": {}, "sa": {}, "sarl": {}, "srl": {}, "spa": {},
	"plc": {}, "bv": {}, "nv": {}, "oy": {}, "ab": {}, "as": {},
	"pty": {}, "pte": {}, "kk": {}, "oao": {}, "ooo": {}, "zao": {}, "pao": {},
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Forms returns the canonical comparison forms for raw input, deduplicated,
// base form first. Empty or whitespace-only input is an invalid query.
func Forms(raw string) ([]string, error) {
	base := Base(raw)
	if base == "" {
		return nil, dErrors.New(dErrors.CodeInvalidQuery, "name must not be empty")
	}

	forms := []string{base}

	if reordered := commaReordered(raw); reordered != "" && reordered != base {
		forms = append(forms, reordered)
	}

	stripped := stripAffixes(base)
	if stripped != "" && stripped != base {
		forms = append(forms, stripped)
	}

	// Token-sorted form of the most reduced variant tolerates word order.
	sortable := stripped
	if sortable == "" {
		sortable = base
	}
	if sorted := strings.Join(pstrings.SortedCopy(strings.Fields(sortable)), " "); sorted != sortable {
		forms = append(forms, sorted)
	}

	return pstrings.DedupeAndTrim(forms), nil
}

// Base applies the common reduction: diacritic stripping, lowercasing,
// apostrophe removal, dotted-abbreviation collapse, conjunction folding,
// punctuation flattening, and whitespace collapse. Returns "" for input with
// no comparable content.
func Base(raw string) string {
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		// Fall back to the undecomposed input; comparison still works,
		// accented spellings just stop folding together.
		s = raw
	}
	s = strings.ToLower(s)
	s = strings.NewReplacer("'", "", "’", "", "`", "").Replace(s)
	s = dottedAbbrev.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ".", "")
	})
	s = strings.NewReplacer("&", " and ", "+", " and ").Replace(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits a canonical form into its comparison tokens.
func Tokens(form string) []string {
	return strings.Fields(form)
}

// commaReordered rewrites "Last, First [Middle]" input as "first middle last"
// in base reduction. Returns "" when the input has no single comma split.
func commaReordered(raw string) string {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return ""
	}
	last := Base(parts[0])
	first := Base(parts[1])
	if last == "" || first == "" {
		return ""
	}
	return first + " " + last
}

// stripAffixes removes leading honorifics and trailing legal suffixes from a
// base form. It never strips a form down to nothing: if every token is an
// affix the original form is returned unchanged.
func stripAffixes(base string) string {
	tokens := strings.Fields(base)

	start := 0
	for start < len(tokens) {
		if _, ok := honorifics[tokens[start]]; !ok {
			break
		}
		start++
	}

	end := len(tokens)
	for end > start {
		if _, ok := legalSuffixes[tokens[end-1]]; !ok {
			break
		}
		end--
	}

	if start >= end {
		return base
	}
	return strings.Join(tokens[start:end], " ")
}
