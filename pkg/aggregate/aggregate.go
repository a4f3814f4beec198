// Package aggregate reduces a set of records to a single number.
package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/locvowork/reportbook/pkg/record"
	"github.com/locvowork/reportbook/pkg/workbook"
)

// Func names an aggregate function.
type Func string

const (
	Sum     Func = "sum"
	Average Func = "average"
	Count   Func = "count"
	Min     Func = "min"
	Max     Func = "max"
)

// Funcs lists every supported function.
var Funcs = []Func{Sum, Average, Count, Min, Max}

// ParseFunc accepts the canonical names plus "avg".
func ParseFunc(s string) (Func, error) {
	switch f := Func(strings.ToLower(strings.TrimSpace(s))); f {
	case Sum, Average, Count, Min, Max:
		return f, nil
	case "avg":
		return Average, nil
	}
	return "", fmt.Errorf("unknown aggregate function %q", s)
}

// Accessor extracts the aggregated value from one record.
type Accessor func(rec interface{}) (workbook.Value, bool)

// PathAccessor resolves a dot-path on each record.
func PathAccessor(path string) Accessor {
	return func(rec interface{}) (workbook.Value, bool) {
		return record.Lookup(rec, path)
	}
}

// Compute applies fn to the values found at path in each record.
//
// Empty inputs follow the usual identities: sum is 0, average is NaN, min is
// +Inf and max is -Inf. Non-numeric and missing values are skipped by every
// function except count, which counts records.
func Compute(records []interface{}, path string, fn Func) float64 {
	return ComputeWith(records, PathAccessor(path), fn)
}

// ComputeWith is Compute with a caller-supplied accessor.
func ComputeWith(records []interface{}, get Accessor, fn Func) float64 {
	if fn == Count {
		return float64(len(records))
	}
	nums := make([]float64, 0, len(records))
	for _, rec := range records {
		v, ok := get(rec)
		if !ok {
			continue
		}
		if f, ok := v.Float(); ok {
			nums = append(nums, f)
		}
	}
	return Reduce(nums, fn)
}

// Reduce applies fn to an already-extracted list of numbers.
func Reduce(nums []float64, fn Func) float64 {
	switch fn {
	case Count:
		return float64(len(nums))
	case Sum:
		return sum(nums)
	case Average:
		if len(nums) == 0 {
			return math.NaN()
		}
		return sum(nums) / float64(len(nums))
	case Min:
		m := math.Inf(1)
		for _, n := range nums {
			m = math.Min(m, n)
		}
		return m
	case Max:
		m := math.Inf(-1)
		for _, n := range nums {
			m = math.Max(m, n)
		}
		return m
	}
	return math.NaN()
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}

// Trend returns the percentage change (cur-prev)/prev*100. A zero baseline
// yields 0 rather than an infinity. A negative baseline flips the sign, so
// -10 to 0 is -100.
func Trend(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// Percentage returns part as a percentage of whole, or 0 when whole is 0.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
