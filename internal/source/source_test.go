package source

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noBackoff(int) time.Duration { return 0 }

func TestStatic_ReturnsCopy(t *testing.T) {
	s := Static{map[string]interface{}{"a": 1}}
	recs, err := s.Fetch(context.Background())
	require.NoError(t, err)
	recs[0] = nil
	assert.NotNil(t, s[0])
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry().
		Register("b", Static{}).
		Register("a", Static{})
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestFetchAll(t *testing.T) {
	reg := NewRegistry().
		Register("people", Static{"ann", "bob"}).
		Register("orders", Static{1, 2, 3}).
		Register("unused", SourceFunc(func(context.Context) ([]interface{}, error) {
			t.Error("unused source must not be fetched")
			return nil, nil
		}))

	data, err := FetchAll(context.Background(), reg, []string{"people", "orders"}, WithWorkers(1))
	require.NoError(t, err)
	assert.Len(t, data, 2)
	assert.Equal(t, []interface{}{"ann", "bob"}, data["people"])
	assert.Len(t, data["orders"], 3)
}

func TestFetchAll_Empty(t *testing.T) {
	data, err := FetchAll(context.Background(), NewRegistry(), nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFetchAll_UnknownName(t *testing.T) {
	_, err := FetchAll(context.Background(), NewRegistry(), []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestFetchAll_Retry(t *testing.T) {
	var calls int32
	flaky := SourceFunc(func(context.Context) ([]interface{}, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("temporary")
		}
		return []interface{}{"ok"}, nil
	})
	reg := NewRegistry().Register("flaky", flaky)

	data, err := FetchAll(context.Background(), reg, []string{"flaky"}, WithRetry(2, noBackoff))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ok"}, data["flaky"])
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchAll_FailureWins(t *testing.T) {
	boom := errors.New("connection refused")
	reg := NewRegistry().
		Register("good", Static{1}).
		Register("bad", SourceFunc(func(context.Context) ([]interface{}, error) { return nil, boom }))

	data, err := FetchAll(context.Background(), reg, []string{"good", "bad"}, WithRetry(1, noBackoff))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Nil(t, data)
}

func TestSelectBuilder(t *testing.T) {
	q, args, err := NewSelectBuilder("sales", "region", "qty").
		Where("qty > ?", 0).
		Where("region IN (?, ?)", "North", "South").
		OrderBy("region").
		Limit(50).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT region, qty FROM sales WHERE qty > $1 AND region IN ($2, $3) ORDER BY region LIMIT 50", q)
	assert.Equal(t, []interface{}{0, "North", "South"}, args)

	q, _, err = NewSelectBuilder("sales").Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM sales", q)

	_, _, err = NewSelectBuilder("sales").Where("a = ?").Build()
	assert.Error(t, err)
	_, _, err = NewSelectBuilder("").Build()
	assert.Error(t, err)
}

type fakeRows struct {
	cols []string
	data [][]interface{}
	i    int
}

func (f *fakeRows) Columns() ([]string, error) { return f.cols, nil }
func (f *fakeRows) Next() bool                 { f.i++; return f.i <= len(f.data) }
func (f *fakeRows) Err() error                 { return nil }
func (f *fakeRows) Scan(dest ...interface{}) error {
	for i, d := range dest {
		*(d.(*interface{})) = f.data[f.i-1][i]
	}
	return nil
}

func TestScanRecords(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"region", "qty"},
		data: [][]interface{}{{[]byte("North"), int64(4)}, {"South", nil}},
	}
	recs, err := scanRecords(rows)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"region": "North", "qty": int64(4)},
		map[string]interface{}{"region": "South", "qty": nil},
	}, recs)
}

const sourcesYAML = `
sources:
  regions:
    type: static
    records:
      - {name: North}
      - {name: South}
  sales:
    type: postgres
    table: sales
    columns: [region, qty]
    where:
      - condition: "qty > ?"
        args: [0]
  tickets:
    type: elastic
    index: tickets
`

func TestConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sourcesYAML))
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, 3)
	assert.Equal(t, map[string]bool{"static": true, "postgres": true, "elastic": true}, cfg.Types())

	// only the static source can be built without connections
	err = cfg.Register(NewRegistry(), Clients{})
	assert.Error(t, err)

	reg := NewRegistry()
	s, err := cfg.Sources["regions"].Build(Clients{})
	require.NoError(t, err)
	reg.Register("regions", s)
	data, err := FetchAll(context.Background(), reg, []string{"regions"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"name": "North"},
		map[string]interface{}{"name": "South"},
	}, data["regions"])
}

func TestConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("sources:\n  a:\n    type: static\n    bogus: 1\n"))
	assert.Error(t, err)

	_, err = Def{Type: "mongo"}.Build(Clients{})
	assert.Error(t, err)
}
