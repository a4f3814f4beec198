package layout

import (
	"strings"

	"github.com/locvowork/reportbook/pkg/record"
)

// KeySeparator joins the parts of a composite group key.
const KeySeparator = " | "

// KeyFunc derives a group key from a record.
type KeyFunc func(rec interface{}) string

// KeyPath keys records by the display string at path. Missing values key as "".
func KeyPath(path string) KeyFunc {
	return func(rec interface{}) string {
		v, _ := record.Lookup(rec, path)
		return v.Display()
	}
}

// KeyPaths converts paths into key functions.
func KeyPaths(paths ...string) []KeyFunc {
	out := make([]KeyFunc, len(paths))
	for i, p := range paths {
		out[i] = KeyPath(p)
	}
	return out
}

// CompositeKey joins the keys in order with KeySeparator.
func CompositeKey(keys ...KeyFunc) KeyFunc {
	return func(rec interface{}) string {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k(rec)
		}
		return strings.Join(parts, KeySeparator)
	}
}

// Group is one partition of a record set.
type Group struct {
	Key     string
	Records []interface{}
}

// Partition splits records by key. Groups are returned in first-seen key
// order and each keeps its records in input order.
func Partition(records []interface{}, key KeyFunc) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, rec := range records {
		k := key(rec)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// GroupBy returns a section titled like tmpl with one child per group. Each
// child is titled with its key and inherits tmpl's fields, rules, summary
// and collapsed state.
func GroupBy(tmpl Section, records []interface{}, key KeyFunc) *Section {
	parent := &Section{Title: tmpl.Title, Level: tmpl.Level}
	for _, g := range Partition(records, key) {
		parent.Children = append(parent.Children, groupChild(tmpl, g, tmpl.Level+1))
	}
	return parent
}

// MultiGroupBy groups by the composite of several keys at a single level.
func MultiGroupBy(tmpl Section, records []interface{}, keys ...KeyFunc) *Section {
	return GroupBy(tmpl, records, CompositeKey(keys...))
}

// NestedGroupBy nests one level of groups per key, outermost first. Only
// the innermost groups carry records.
func NestedGroupBy(tmpl Section, records []interface{}, keys ...KeyFunc) *Section {
	parent := &Section{Title: tmpl.Title, Level: tmpl.Level}
	parent.Children = nestGroups(tmpl, records, keys, tmpl.Level+1)
	return parent
}

func nestGroups(tmpl Section, records []interface{}, keys []KeyFunc, level int) []*Section {
	if len(keys) == 0 {
		return nil
	}
	var out []*Section
	for _, g := range Partition(records, keys[0]) {
		if len(keys) == 1 {
			out = append(out, groupChild(tmpl, g, level))
			continue
		}
		out = append(out, &Section{
			Title:     g.Key,
			Level:     level,
			Collapsed: tmpl.Collapsed,
			Children:  nestGroups(tmpl, g.Records, keys[1:], level+1),
		})
	}
	return out
}

func groupChild(tmpl Section, g Group, level int) *Section {
	child := &Section{
		Title:     g.Key,
		Level:     level,
		Collapsed: tmpl.Collapsed,
		Records:   g.Records,
		Fields:    tmpl.Fields,
		Rules:     tmpl.Rules,
		NoHeader:  tmpl.NoHeader,
	}
	if tmpl.Summary != nil {
		s := *tmpl.Summary
		child.Summary = &s
	}
	return child
}
