package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/reportbook/pkg/workbook"
)

func rows(vals ...interface{}) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = map[string]interface{}{"amount": v}
	}
	return out
}

func TestCompute(t *testing.T) {
	data := rows(3, 7, 2)

	assert.Equal(t, float64(12), Compute(data, "amount", Sum))
	assert.Equal(t, float64(4), Compute(data, "amount", Average))
	assert.Equal(t, float64(3), Compute(data, "amount", Count))
	assert.Equal(t, float64(2), Compute(data, "amount", Min))
	assert.Equal(t, float64(7), Compute(data, "amount", Max))
}

func TestCompute_EmptySet(t *testing.T) {
	assert.Equal(t, float64(0), Compute(nil, "amount", Sum))
	assert.True(t, math.IsNaN(Compute(nil, "amount", Average)))
	assert.Equal(t, float64(0), Compute(nil, "amount", Count))
	assert.True(t, math.IsInf(Compute(nil, "amount", Min), 1))
	assert.True(t, math.IsInf(Compute(nil, "amount", Max), -1))
}

func TestCompute_SkipsNonNumeric(t *testing.T) {
	data := rows(10, "n/a", nil, 20.5, true)
	data = append(data, map[string]interface{}{"other": 99})

	assert.Equal(t, 30.5, Compute(data, "amount", Sum))
	assert.Equal(t, 15.25, Compute(data, "amount", Average))
	assert.Equal(t, float64(6), Compute(data, "amount", Count), "count counts records")
	assert.Equal(t, float64(10), Compute(data, "amount", Min))
}

func TestComputeWith(t *testing.T) {
	data := []interface{}{1, 2, 3, 4}
	double := func(rec interface{}) (workbook.Value, bool) {
		return workbook.NumberValue(float64(rec.(int) * 2)), true
	}
	assert.Equal(t, float64(20), ComputeWith(data, double, Sum))
	assert.Equal(t, float64(8), ComputeWith(data, double, Max))
}

func TestParseFunc(t *testing.T) {
	for _, f := range Funcs {
		got, err := ParseFunc(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFunc(" AVG ")
	require.NoError(t, err)
	assert.Equal(t, Average, got)

	_, err = ParseFunc("median")
	assert.Error(t, err)
}

func TestTrendAndPercentage(t *testing.T) {
	assert.Equal(t, float64(50), Trend(100, 150))
	assert.Equal(t, float64(-25), Trend(200, 150))
	assert.Equal(t, float64(0), Trend(0, 150))
	assert.Equal(t, float64(-100), Trend(-10, 0))
	assert.Equal(t, float64(50), Trend(-10, -15))

	assert.Equal(t, float64(25), Percentage(1, 4))
	assert.Equal(t, float64(0), Percentage(5, 0))
}
