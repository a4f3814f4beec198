package workbook

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindFormula
)

// DateLayout is the calendar-date rendering used for display strings.
const DateLayout = "2006-01-02"

var kindNames = map[Kind]string{
	KindEmpty:   "empty",
	KindString:  "string",
	KindNumber:  "number",
	KindBool:    "boolean",
	KindDate:    "date",
	KindFormula: "formula",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindEmpty, fmt.Errorf("unknown value kind %q", s)
}

// Formula marks text as a formula when assigned to a cell. A leading "=" is dropped.
type Formula string

// Value is the closed set of things a cell can hold.
type Value struct {
	kind Kind
	text string // string payload or formula text
	num  float64
	b    bool
	t    time.Time
}

func StringValue(s string) Value  { return Value{kind: KindString, text: s} }
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }

// DateValue strips the monotonic clock reading and pins the zone to a fixed
// offset carrying the zone's name. UTC and unnamed zero offsets become UTC.
func DateValue(t time.Time) Value {
	t = t.Round(0)
	name, offset := t.Zone()
	if offset == 0 && (name == "" || name == "UTC") {
		return Value{kind: KindDate, t: t.UTC()}
	}
	return Value{kind: KindDate, t: t.In(time.FixedZone(name, offset))}
}

func FormulaValue(text string) Value {
	if len(text) > 0 && text[0] == '=' {
		text = text[1:]
	}
	return Value{kind: KindFormula, text: text}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsEmpty() bool   { return v.kind == KindEmpty }
func (v Value) Text() string    { return v.text }
func (v Value) Bool() bool      { return v.b }
func (v Value) Time() time.Time { return v.t }

// Float returns the numeric payload; ok is false for every non-number kind.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// FormulaText returns the formula without its leading "=".
func (v Value) FormulaText() (string, bool) {
	if v.kind != KindFormula {
		return "", false
	}
	return v.text, true
}

// Display renders the value the way text-oriented writers show it.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.text
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(DateLayout)
	case KindFormula:
		return "=" + v.text
	}
	return ""
}

// Native returns the Go value behind v (nil for empty).
func (v Value) Native() interface{} {
	switch v.kind {
	case KindString:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	case KindFormula:
		return "=" + v.text
	}
	return nil
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Classify maps an arbitrary Go value onto the closed Value variant. It is
// pure and is called once when a value is assigned to a cell.
func Classify(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	case Formula:
		return FormulaValue(string(v))
	case string:
		return StringValue(v)
	case []byte:
		return StringValue(string(v))
	case bool:
		return BoolValue(v)
	case time.Time:
		return DateValue(v)
	case *time.Time:
		if v == nil {
			return Value{}
		}
		return DateValue(*v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return NumberValue(f)
		}
		return StringValue(v.String())
	case int:
		return NumberValue(float64(v))
	case int8:
		return NumberValue(float64(v))
	case int16:
		return NumberValue(float64(v))
	case int32:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	case uint:
		return NumberValue(float64(v))
	case uint8:
		return NumberValue(float64(v))
	case uint16:
		return NumberValue(float64(v))
	case uint32:
		return NumberValue(float64(v))
	case uint64:
		return NumberValue(float64(v))
	case float32:
		return NumberValue(float64(v))
	case float64:
		return NumberValue(v)
	case fmt.Stringer:
		return StringValue(v.String())
	}

	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Value{}
		}
		return Classify(rv.Elem().Interface())
	}
	// named types over builtin kinds
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberValue(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumberValue(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NumberValue(rv.Float())
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.String:
		return StringValue(rv.String())
	}
	return StringValue(fmt.Sprintf("%v", x))
}
