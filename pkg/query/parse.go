package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseFilters converts loosely shaped filter maps, as found in JSON or YAML
// configuration, into typed conditions. A value of the form
// {"operator": ">=", "value": x} becomes a Comparison, any other value an
// Equality, and nil values become Optional so they are skipped.
// Entries with an unknown operator or a blank field name are dropped.
func ParseFilters(raw map[string]any) Filters {
	out := make(Filters, len(raw))
	for field, value := range raw {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if cond, ok := parseCondition(value); ok {
			out[field] = cond
		}
	}
	return out
}

func parseCondition(value any) (Condition, bool) {
	if value == nil {
		return IfPresent(Eq(nil)), true
	}
	m, isMap := asStringMap(value)
	if !isMap {
		return Eq(value), true
	}
	rawOp, hasOp := m["operator"]
	operand, hasValue := m["value"]
	if !hasOp || !hasValue || len(m) != 2 {
		return Eq(value), true
	}
	opStr, ok := rawOp.(string)
	if !ok {
		return nil, false
	}
	op := Operator(strings.TrimSpace(opStr))
	var cond Condition
	switch {
	case op == "==" || op == "=":
		cond = Eq(operand)
	case op.Valid():
		cond = Cmp(op, operand)
	default:
		return nil, false
	}
	if operand == nil {
		return IfPresent(cond), true
	}
	return cond, true
}

// asStringMap accepts both JSON-decoded and YAML-decoded maps.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// expressionOperators is ordered so that two-character operators win.
var expressionOperators = []string{">=", "<=", "!=", "==", ">", "<", "="}

// ParseExpression parses "field<op>value" expressions such as "featured=true",
// "price>=100" or "date>=now". See ParseLiteral for value syntax.
func ParseExpression(expr string) (string, Condition, error) {
	return ParseExpressionAt(expr, time.Now())
}

// ParseExpressionAt is ParseExpression with an explicit value for "now".
func ParseExpressionAt(expr string, now time.Time) (string, Condition, error) {
	idx, op := -1, ""
	for _, candidate := range expressionOperators {
		if i := strings.Index(expr, candidate); i > 0 && (idx < 0 || i < idx) {
			idx, op = i, candidate
		}
	}
	if idx < 0 {
		return "", nil, invalidConfig(fmt.Sprintf("filter expression %q has no operator", expr))
	}
	field := strings.TrimSpace(expr[:idx])
	if field == "" {
		return "", nil, invalidConfig(fmt.Sprintf("filter expression %q has no field", expr))
	}
	value := ParseLiteral(expr[idx+len(op):], now)
	switch op {
	case "=", "==":
		return field, Eq(value), nil
	default:
		return field, Cmp(Operator(op), value), nil
	}
}

// ParseLiteral interprets a textual filter value: true/false, null, integers,
// floats, RFC3339 instants or dates, the word now, and double-quoted strings.
// Anything else is kept as a string.
func ParseLiteral(s string, now time.Time) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
		return s[1 : len(s)-1]
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	case "now":
		return now.UTC()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	if t, ok := parseTimestampString(s); ok {
		return t
	}
	return s
}
