package pipeline

import (
	"sort"

	"mediapulse/pkg/contracts/domain"
)

// TopLocationsLimit is the number of locations kept by the top locations view
const TopLocationsLimit = 5

// viewDef describes how one aggregate view is derived
type viewDef struct {
	kind       domain.ViewKind
	title      string
	chart      domain.ChartType
	keyLabel   string
	valueLabel string
	required   []string
	compute    func(records []domain.Record) []domain.ViewRow
}

var definitions = []viewDef{
	{
		kind:       domain.ViewSentimentBreakdown,
		title:      "Sentiment Breakdown",
		chart:      domain.ChartPie,
		keyLabel:   "Sentiment",
		valueLabel: "Count",
		required:   []string{domain.FieldSentiment},
		compute: func(records []domain.Record) []domain.ViewRow {
			return byValueDesc(countBy(records, domain.FieldSentiment))
		},
	},
	{
		kind:       domain.ViewEngagementTrend,
		title:      "Engagement Trend",
		chart:      domain.ChartLine,
		keyLabel:   "Date",
		valueLabel: "Engagements",
		required:   []string{domain.FieldDate, domain.FieldEngagements},
		compute:    dailyTrend,
	},
	{
		kind:       domain.ViewPlatformEngagement,
		title:      "Platform Engagements",
		chart:      domain.ChartBar,
		keyLabel:   "Platform",
		valueLabel: "Engagements",
		required:   []string{domain.FieldPlatform, domain.FieldEngagements},
		compute: func(records []domain.Record) []domain.ViewRow {
			rows := sumBy(records, domain.FieldPlatform)
			sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
			return rows
		},
	},
	{
		kind:       domain.ViewMediaTypeMix,
		title:      "Media Type Mix",
		chart:      domain.ChartPie,
		keyLabel:   "Media Type",
		valueLabel: "Count",
		required:   []string{domain.FieldMediaType},
		compute: func(records []domain.Record) []domain.ViewRow {
			return byValueDesc(countBy(records, domain.FieldMediaType))
		},
	},
	{
		kind:       domain.ViewTopLocations,
		title:      "Top 5 Locations by Engagement",
		chart:      domain.ChartBar,
		keyLabel:   "Location",
		valueLabel: "Engagements",
		required:   []string{domain.FieldLocation, domain.FieldEngagements},
		compute: func(records []domain.Record) []domain.ViewRow {
			rows := byValueDesc(sumBy(records, domain.FieldLocation))
			if len(rows) > TopLocationsLimit {
				rows = rows[:TopLocationsLimit]
			}
			return rows
		},
	},
}

// Run filters ds by sel and computes every view whose fields are present.
// Views lacking a field are listed in Result.Skipped. An empty selection is
// not an error: the views are present with no rows and Result.Empty is set.
func Run(ds *domain.Dataset, sel domain.FilterSelection) *domain.Result {
	if ds == nil {
		ds = &domain.Dataset{}
	}
	filtered, notes := filter(ds, sel)

	res := &domain.Result{
		Filter:       sel,
		TotalRows:    ds.Len(),
		FilteredRows: filtered.Len(),
		Empty:        filtered.Len() == 0,
		Views:        make([]domain.View, 0, len(definitions)),
		Notes:        notes,
	}

	for _, def := range definitions {
		if ok, missing := filtered.HasAll(def.required...); !ok {
			res.Skipped = append(res.Skipped, domain.SkippedView{Kind: def.kind, MissingFields: missing})
			continue
		}
		rows := def.compute(filtered.Records)
		if rows == nil {
			rows = []domain.ViewRow{}
		}
		res.Views = append(res.Views, domain.View{
			Kind:       def.kind,
			Title:      def.title,
			Chart:      def.chart,
			KeyLabel:   def.keyLabel,
			ValueLabel: def.valueLabel,
			Rows:       rows,
		})
	}

	return res
}

// Compute returns a single view of the filtered dataset. ok is false when the
// dataset lacks a field the view needs.
func Compute(ds *domain.Dataset, sel domain.FilterSelection, kind domain.ViewKind) (view domain.View, ok bool) {
	res := Run(ds, sel)
	return res.View(kind)
}

// countBy counts records per non-empty value in first-occurrence order
func countBy(records []domain.Record, field string) []domain.ViewRow {
	return groupBy(records, field, func(domain.Record) float64 { return 1 })
}

// sumBy sums engagements per non-empty value in first-occurrence order
func sumBy(records []domain.Record, field string) []domain.ViewRow {
	return groupBy(records, field, func(r domain.Record) float64 { return r.Engagements })
}

func groupBy(records []domain.Record, field string, value func(domain.Record) float64) []domain.ViewRow {
	index := make(map[string]int)
	var rows []domain.ViewRow
	for _, r := range records {
		key := r.Get(field)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.ViewRow{Key: key})
		}
		rows[i].Value += value(r)
	}
	return rows
}

// byValueDesc sorts by value descending; equal values keep first-occurrence order
func byValueDesc(rows []domain.ViewRow) []domain.ViewRow {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
	return rows
}

// dailyTrend sums engagements per calendar day, ascending. Days without
// records are omitted.
func dailyTrend(records []domain.Record) []domain.ViewRow {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[r.Day().Format(domain.DateLayout)] += r.Engagements
	}

	rows := make([]domain.ViewRow, 0, len(sums))
	for day, total := range sums {
		rows = append(rows, domain.ViewRow{Key: day, Value: total})
	}
	// ISO dates sort lexically
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}
