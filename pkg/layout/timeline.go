package layout

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/locvowork/reportbook/pkg/aggregate"
	"github.com/locvowork/reportbook/pkg/record"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// Period is a timeline bucket size.
type Period string

const (
	Day     Period = "day"
	Week    Period = "week"
	Month   Period = "month"
	Quarter Period = "quarter"
	Year    Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Day, Week, Month, Quarter, Year:
		return p, nil
	}
	return "", fmt.Errorf("unknown timeline period %q", s)
}

// BucketKey formats t for period p. Keys sort lexicographically in
// chronological order: "2024-03-15", "2024-W11", "2024-03", "2024-Q1", "2024".
// Weeks follow ISO 8601, so early January may belong to the previous year.
func BucketKey(t time.Time, p Period) string {
	switch p {
	case Week:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Month:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	case Quarter:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())+2)/3)
	case Year:
		return fmt.Sprintf("%04d", t.Year())
	}
	return t.Format(workbook.DateLayout)
}

// Bucket is one period of a timeline.
type Bucket struct {
	Key     string
	Records []interface{}
	// Sum is the total of the trend field over Records.
	Sum float64
	// Trend is the percentage change of Sum against the previous bucket.
	Trend    float64
	HasTrend bool
}

// Buckets groups records by the period of the date at datePath and returns
// them in ascending key order. Records without a usable date are dropped.
// When valuePath is set, every bucket after the first carries a Trend.
func Buckets(records []interface{}, datePath string, p Period, valuePath string) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, rec := range records {
		t, ok := dateAt(rec, datePath)
		if !ok {
			continue
		}
		k := BucketKey(t, p)
		i, seen := index[k]
		if !seen {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k})
		}
		buckets[i].Records = append(buckets[i].Records, rec)
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })

	if valuePath == "" {
		return buckets
	}
	for i := range buckets {
		buckets[i].Sum = aggregate.Compute(buckets[i].Records, valuePath, aggregate.Sum)
		if i > 0 {
			buckets[i].Trend = aggregate.Trend(buckets[i-1].Sum, buckets[i].Sum)
			buckets[i].HasTrend = true
		}
	}
	return buckets
}

func dateAt(rec interface{}, path string) (time.Time, bool) {
	v, ok := record.Lookup(rec, path)
	if !ok {
		return time.Time{}, false
	}
	switch v.Kind() {
	case workbook.KindDate:
		return v.Time(), true
	case workbook.KindString:
		for _, layout := range []string{time.RFC3339Nano, workbook.DateLayout} {
			if t, err := time.Parse(layout, strings.TrimSpace(v.Text())); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// TimelineSpec describes a time-bucketed section.
type TimelineSpec struct {
	Title    string
	DatePath string
	Period   Period
	Fields   []Field
	// TrendPath names the numeric field whose sum drives the trend annotation.
	TrendPath string
	Summary   *Summary
	Rules     []Rule
	Collapsed bool
	Level     int
}

// Timeline returns a section with one child per bucket. With a TrendPath,
// bucket titles after the first read like "2024-W02 (+50.00%)".
func Timeline(records []interface{}, spec TimelineSpec) (*Section, error) {
	if spec.DatePath == "" {
		return nil, fmt.Errorf("timeline %q: date path is required", spec.Title)
	}
	p := spec.Period
	if p == "" {
		p = Month
	}
	if _, err := ParsePeriod(string(p)); err != nil {
		return nil, fmt.Errorf("timeline %q: %w", spec.Title, err)
	}

	parent := &Section{Title: spec.Title, Level: spec.Level}
	for _, b := range Buckets(records, spec.DatePath, p, spec.TrendPath) {
		title := b.Key
		if b.HasTrend {
			title = fmt.Sprintf("%s (%+.2f%%)", b.Key, b.Trend)
		}
		child := &Section{
			Title:     title,
			Level:     spec.Level + 1,
			Collapsed: spec.Collapsed,
			Records:   b.Records,
			Fields:    spec.Fields,
			Rules:     spec.Rules,
		}
		if spec.Summary != nil {
			s := *spec.Summary
			child.Summary = &s
		}
		parent.Children = append(parent.Children, child)
	}
	return parent, nil
}
