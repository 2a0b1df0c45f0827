package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"mediapulse/pkg/contracts/domain"
)

const utf8BOM = "\ufeff"

// aliases maps spelling variants onto canonical field names.
// Order matters: the first alias that targets a missing field wins.
var aliases = []domain.AliasApplied{
	{From: "engagement", To: domain.FieldEngagements},
	{From: "total_engagements", To: domain.FieldEngagements},
	{From: "sentiments", To: domain.FieldSentiment},
	{From: "platforms", To: domain.FieldPlatform},
	{From: "mediatype", To: domain.FieldMediaType},
	{From: "media", To: domain.FieldMediaType},
	{From: "locations", To: domain.FieldLocation},
	{From: "dates", To: domain.FieldDate},
}

// NormalizeColumn canonicalizes a raw header: lower-case, runs of whitespace,
// dots and hyphens become one underscore, anything else that is not a letter,
// digit or underscore is removed. NormalizeColumn is idempotent.
func NormalizeColumn(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM))
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	inSep := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '.' || r == '-':
			if !inSep {
				b.WriteByte('_')
				inSep = true
			}
			continue
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
		inSep = false
	}
	return b.String()
}

// schema is the normalized header of one input
type schema struct {
	// names holds the normalized name of every raw column by position
	names []string
	// columns is the unique column list in first-occurrence order
	columns []string
}

// normalizeHeader normalizes every raw header, records collisions and applies
// the alias table. Colliding columns keep last-wins semantics when rows are
// materialized because later positions overwrite earlier ones.
func normalizeHeader(header []string, report *domain.IngestReport) schema {
	s := schema{names: make([]string, len(header))}
	rawByName := make(map[string][]string)

	for i, raw := range header {
		name := NormalizeColumn(raw)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		s.names[i] = name
		report.Columns = append(report.Columns, domain.ColumnMapping{Raw: raw, Normalized: name})

		if _, seen := rawByName[name]; !seen {
			s.columns = append(s.columns, name)
		}
		rawByName[name] = append(rawByName[name], raw)
	}

	for _, name := range s.columns {
		raws := rawByName[name]
		if len(raws) < 2 {
			continue
		}
		report.Collisions = append(report.Collisions, domain.ColumnCollision{Name: name, RawColumns: raws})
		report.AddIssue(domain.IssueColumnCollision, name, len(raws),
			fmt.Sprintf("%d columns normalize to %q; the last one is used", len(raws), name))
	}

	for _, alias := range aliases {
		if !contains(s.columns, alias.From) || contains(s.columns, alias.To) {
			continue
		}
		s.rename(alias.From, alias.To)
		report.Aliases = append(report.Aliases, alias)
		for i := range report.Columns {
			if report.Columns[i].Normalized == alias.From {
				report.Columns[i].Normalized = alias.To
			}
		}
	}

	return s
}

func (s *schema) rename(from, to string) {
	for i, n := range s.names {
		if n == from {
			s.names[i] = to
		}
	}
	for i, c := range s.columns {
		if c == from {
			s.columns[i] = to
		}
	}
}

func (s schema) has(field string) bool {
	return contains(s.columns, field)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
