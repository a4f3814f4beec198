package layout

import (
	"fmt"

	"github.com/locvowork/reportbook/pkg/record"
)

// ChildrenFunc returns the child nodes of a hierarchy node.
type ChildrenFunc func(node interface{}) []interface{}

// TitleFunc renders the title of a hierarchy node.
type TitleFunc func(node interface{}) string

// HierarchySpec describes how to walk a tree of records.
type HierarchySpec struct {
	Title    TitleFunc
	Children ChildrenFunc
	// Fields, when set, emit the node itself as a data row below its title.
	Fields []Field
	// CountChildren appends " (n)" to titles of nodes that have children.
	CountChildren bool
	// Collapsed, when set, decides the collapsed flag per node.
	Collapsed func(node interface{}) bool
	Level     int
}

// Hierarchy emits one section per node, depth-first. Trees deeper than
// MaxDepth fail with ErrSectionTooDeep.
func Hierarchy(roots []interface{}, spec HierarchySpec) ([]*Section, error) {
	if spec.Title == nil || spec.Children == nil {
		return nil, fmt.Errorf("hierarchy needs both a title and a children accessor")
	}
	return hierarchyLevel(roots, spec, spec.Level, 0)
}

func hierarchyLevel(nodes []interface{}, spec HierarchySpec, level, depth int) ([]*Section, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if depth >= MaxDepth {
		return nil, fmt.Errorf("hierarchy at depth %d: %w", depth, ErrSectionTooDeep)
	}
	out := make([]*Section, 0, len(nodes))
	for _, node := range nodes {
		kids := spec.Children(node)
		title := spec.Title(node)
		if spec.CountChildren && len(kids) > 0 {
			title = fmt.Sprintf("%s (%d)", title, len(kids))
		}
		s := &Section{Title: title, Level: level, Fields: spec.Fields, NoHeader: true}
		if len(spec.Fields) > 0 {
			s.Records = []interface{}{node}
		}
		if spec.Collapsed != nil {
			s.Collapsed = spec.Collapsed(node)
		}
		children, err := hierarchyLevel(kids, spec, level+1, depth+1)
		if err != nil {
			return nil, err
		}
		s.Children = children
		out = append(out, s)
	}
	return out, nil
}

// ChildrenAt returns a ChildrenFunc that reads a slice at path.
func ChildrenAt(path string) ChildrenFunc {
	return func(node interface{}) []interface{} {
		v, ok := record.Get(node, path)
		if !ok {
			return nil
		}
		kids, err := record.Slice(v)
		if err != nil {
			return nil
		}
		return kids
	}
}

// TitleAt returns a TitleFunc that displays the value at path.
func TitleAt(path string) TitleFunc {
	key := KeyPath(path)
	return func(node interface{}) string { return key(node) }
}
