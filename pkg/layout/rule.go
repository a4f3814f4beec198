package layout

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/locvowork/reportbook/pkg/workbook"
)

type compiledRule struct {
	field     string
	predicate func(workbook.Value) bool
	program   *vm.Program
	style     workbook.Style
}

func ruleEnv(v workbook.Value, rec interface{}, field string) map[string]interface{} {
	return map[string]interface{}{
		"value":  v.Native(),
		"record": rec,
		"field":  field,
	}
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		cr := compiledRule{field: r.Field, predicate: r.Predicate, style: r.Style}
		if r.Expr != "" {
			program, err := expr.Compile(r.Expr, expr.AllowUndefinedVariables())
			if err != nil {
				return nil, fmt.Errorf("rule %d (%q): %w", i, r.Expr, err)
			}
			cr.program = program
		}
		if cr.predicate == nil && cr.program == nil {
			return nil, fmt.Errorf("rule %d on %q has neither predicate nor expression", i, r.Field)
		}
		out = append(out, cr)
	}
	return out, nil
}

func (r compiledRule) matches(v workbook.Value, rec interface{}, field string) bool {
	if r.field != "" && r.field != field {
		return false
	}
	if r.predicate != nil {
		return r.predicate(v)
	}
	out, err := expr.Run(r.program, ruleEnv(v, rec, field))
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// matchRule returns the style of the first rule that matches.
func matchRule(rules []compiledRule, v workbook.Value, rec interface{}, field string) (workbook.Style, bool) {
	for _, r := range rules {
		if r.matches(v, rec, field) {
			return r.style, true
		}
	}
	return workbook.Style{}, false
}
