package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orgChart() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"name": "CEO",
			"reports": []interface{}{
				map[string]interface{}{"name": "CTO", "reports": []interface{}{
					map[string]interface{}{"name": "Dev"},
				}},
				map[string]interface{}{"name": "CFO"},
			},
		},
	}
}

func TestHierarchy(t *testing.T) {
	secs, err := Hierarchy(orgChart(), HierarchySpec{
		Title:         TitleAt("name"),
		Children:      ChildrenAt("reports"),
		CountChildren: true,
	})
	require.NoError(t, err)
	require.Len(t, secs, 1)

	sheet := newSheet(t)
	require.NoError(t, NewEngine(sheet).Render(context.Background(), secs...))
	assert.Equal(t, [][]string{{"CEO (2)"}, {"CTO (1)"}, {"Dev"}, {"CFO"}}, grid(sheet))
	assert.Equal(t, 2, sheet.Row(2).OutlineLevel())
	assert.Equal(t, 1, sheet.Row(3).OutlineLevel())
}

func TestHierarchy_NodeRows(t *testing.T) {
	secs, err := Hierarchy(orgChart(), HierarchySpec{
		Title:     TitleAt("name"),
		Children:  ChildrenAt("reports"),
		Fields:    Fields("name"),
		Collapsed: func(node interface{}) bool { return node.(map[string]interface{})["name"] == "CTO" },
	})
	require.NoError(t, err)

	sheet := newSheet(t)
	require.NoError(t, NewEngine(sheet).Render(context.Background(), secs...))
	assert.Equal(t, [][]string{{"CEO"}, {"CEO"}, {"CTO"}, {"CFO"}, {"CFO"}}, grid(sheet))
}

func TestHierarchy_Cycle(t *testing.T) {
	node := map[string]interface{}{"name": "loop"}
	node["reports"] = []interface{}{node}

	_, err := Hierarchy([]interface{}{node}, HierarchySpec{Title: TitleAt("name"), Children: ChildrenAt("reports")})
	assert.ErrorIs(t, err, ErrSectionTooDeep)

	_, err = Hierarchy(nil, HierarchySpec{})
	assert.Error(t, err)
}
