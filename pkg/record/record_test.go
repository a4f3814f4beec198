package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/reportbook/pkg/workbook"
)

type address struct {
	City string `json:"city"`
	Zip  string
}

type employee struct {
	Name     string   `json:"name"`
	Age      int      `json:"age"`
	Address  *address `json:"address"`
	Tags     []string `json:"tags"`
	internal string
}

func TestLookup_Map(t *testing.T) {
	rec := map[string]interface{}{
		"name": "John",
		"dept": map[string]interface{}{"title": "Sales", "floor": 3},
		"items": []interface{}{
			map[string]interface{}{"sku": "A-1"},
			map[string]interface{}{"sku": "B-2"},
		},
		"nothing": nil,
	}

	tests := []struct {
		path string
		want workbook.Value
		ok   bool
	}{
		{"name", workbook.StringValue("John"), true},
		{"dept.title", workbook.StringValue("Sales"), true},
		{"dept.floor", workbook.NumberValue(3), true},
		{"items[1].sku", workbook.StringValue("B-2"), true},
		{"items.0.sku", workbook.StringValue("A-1"), true},
		{"nothing", workbook.Value{}, true},
		{"missing", workbook.Value{}, false},
		{"dept.missing", workbook.Value{}, false},
		{"items[5].sku", workbook.Value{}, false},
		{"name.first", workbook.Value{}, false},
		{".", workbook.Value{}, false},
		{"dept..title", workbook.Value{}, false},
		{"items[]", workbook.Value{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Lookup(rec, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_Struct(t *testing.T) {
	e := &employee{
		Name:     "Jane",
		Age:      25,
		Address:  &address{City: "Hanoi", Zip: "100000"},
		Tags:     []string{"lead", "remote"},
		internal: "hidden",
	}

	v, ok := Lookup(e, "Name")
	require.True(t, ok)
	assert.Equal(t, "Jane", v.Text())

	v, ok = Lookup(e, "age")
	require.True(t, ok)
	f, _ := v.Float()
	assert.Equal(t, float64(25), f)

	v, ok = Lookup(e, "address.city")
	require.True(t, ok)
	assert.Equal(t, "Hanoi", v.Text())

	v, ok = Lookup(e, "Address.zip")
	require.True(t, ok)
	assert.Equal(t, "100000", v.Text())

	v, ok = Lookup(e, "tags[1]")
	require.True(t, ok)
	assert.Equal(t, "remote", v.Text())

	_, ok = Lookup(e, "internal")
	assert.False(t, ok)

	_, ok = Lookup(employee{Name: "x"}, "address.city")
	assert.False(t, ok, "nil pointer mid-path is absent")

	_, ok = Lookup(address{Zip: "x"}, ".")
	assert.False(t, ok, "empty segment matched an untagged field")
	for _, path := range []string{"address.", "address..zip", ".name"} {
		_, ok = Lookup(e, path)
		assert.False(t, ok, path)
	}
}

func TestSlice(t *testing.T) {
	out, err := Slice([]employee{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].(employee).Name)

	out, err = Slice(&[]int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	out, err = Slice(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = Slice(42)
	assert.Error(t, err)
}
