package query

// Operator is a comparison operator accepted by Comparison conditions.
type Operator string

const (
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpNotEqual       Operator = "!="
)

// Valid reports whether op is one of the supported operators.
func (op Operator) Valid() bool {
	switch op {
	case OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpNotEqual:
		return true
	}
	return false
}

// Condition is the predicate applied to a single field. The concrete
// variants are Equality, Comparison and Optional.
type Condition interface {
	// active reports whether the condition takes part in the query.
	active() bool
	matches(c comparer, value any, present bool) bool
	// normalized returns the condition with its value converted the way a
	// record value on the same field is; named marks a timestamp field.
	normalized(named bool) Condition
}

// Filters maps a field name to the condition its value must satisfy.
// All entries are combined with logical AND.
type Filters map[string]Condition

// Equality keeps records whose field strictly equals Value.
// A nil Value matches records where the field is absent or null.
type Equality struct {
	Value any
}

// Comparison keeps records whose field satisfies Operator against Value.
type Comparison struct {
	Operator Operator
	Value    any
}

// Optional applies Condition only when the condition carries a non-nil value.
// It is how a caller expresses "filter by this if it was provided".
type Optional struct {
	Condition Condition
}

// Eq builds an Equality condition.
func Eq(v any) Condition { return Equality{Value: v} }

// Cmp builds a Comparison condition.
func Cmp(op Operator, v any) Condition { return Comparison{Operator: op, Value: v} }

// IfPresent wraps c so that it is skipped when its value is nil.
func IfPresent(c Condition) Condition { return Optional{Condition: c} }

func (e Equality) active() bool { return true }

func (e Equality) normalized(named bool) Condition {
	return Equality{Value: normalizeValue(e.Value, named)}
}

func (e Equality) matches(_ comparer, value any, present bool) bool {
	if !present {
		value = nil
	}
	return equalValues(value, e.Value)
}

// An unknown operator leaves the comparison inactive.
func (c Comparison) active() bool { return c.Operator.Valid() }

func (c Comparison) normalized(named bool) Condition {
	return Comparison{Operator: c.Operator, Value: normalizeValue(c.Value, named)}
}

func (c Comparison) matches(cmp comparer, value any, present bool) bool {
	if c.Operator == OpNotEqual {
		if !present {
			value = nil
		}
		return !equalValues(value, c.Value)
	}
	if !present || value == nil || c.Value == nil {
		return false
	}
	// Ordering only holds between values of the same class.
	if classOf(value) != classOf(c.Value) {
		return false
	}
	if classOf(value) == classNumeric && (!isOrderable(value) || !isOrderable(c.Value)) {
		return false
	}
	r := cmp.compare(value, c.Value)
	switch c.Operator {
	case OpGreater:
		return r > 0
	case OpGreaterOrEqual:
		return r >= 0
	case OpLess:
		return r < 0
	case OpLessOrEqual:
		return r <= 0
	}
	return false
}

func isOrderable(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func (o Optional) active() bool {
	switch inner := o.Condition.(type) {
	case Equality:
		return inner.Value != nil
	case Comparison:
		return inner.Value != nil && inner.active()
	case Optional:
		return inner.active()
	}
	return false
}

func (o Optional) normalized(named bool) Condition {
	if o.Condition == nil {
		return o
	}
	return Optional{Condition: o.Condition.normalized(named)}
}

func (o Optional) matches(c comparer, value any, present bool) bool {
	return o.Condition.matches(c, value, present)
}

// prepare drops inactive entries and normalizes condition values. Values on
// timestampFields are parsed as instants, like the record fields they meet.
func (f Filters) prepare(timestampFields map[string]struct{}) Filters {
	out := make(Filters, len(f))
	for field, cond := range f {
		if field == "" || cond == nil || !cond.active() {
			continue
		}
		_, named := timestampFields[field]
		out[field] = cond.normalized(named)
	}
	return out
}

// match reports whether rec satisfies every active filter.
func (f Filters) match(c comparer, rec Record) bool {
	for field, cond := range f {
		if field == "" || cond == nil || !cond.active() {
			continue
		}
		value, present := rec[field]
		if !cond.matches(c, value, present) {
			return false
		}
	}
	return true
}
