package query

import (
	"cmp"
	"math"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/collate"
)

// valueClass orders values of different runtime types against each other.
// Within a class values compare by their natural order; across classes the
// lower class sorts first, so missing and non-numeric values sort low.
type valueClass int

const (
	classNumeric valueClass = iota
	classString
	classTime
)

func classOf(v any) valueClass {
	switch v.(type) {
	case time.Time:
		return classTime
	case string:
		return classString
	default:
		return classNumeric
	}
}

// comparer compares field values. It holds an optional collator and must not
// be shared across goroutines.
type comparer struct {
	collator *collate.Collator
}

// compare returns -1, 0 or 1. Instants compare chronologically, strings
// lexicographically (or by collation), everything else numerically with
// non-numeric and missing values treated as zero.
func (c comparer) compare(a, b any) int {
	ca, cb := classOf(a), classOf(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	case classString:
		if c.collator != nil {
			return c.collator.CompareString(a.(string), b.(string))
		}
		return strings.Compare(a.(string), b.(string))
	default:
		return compareNumbers(a, b)
	}
}

// compareNumbers orders integers exactly and falls back to float64 once
// either side is fractional.
func compareNumbers(a, b any) int {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt {
		return cmp.Compare(ai, bi)
	}
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	return cmp.Compare(fa, fb)
}

// equalValues is strict equality: same class of value and same value.
// Numbers compare by value across Go numeric kinds; booleans only equal booleans.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	if isNumber(a) && isNumber(b) {
		return numbersEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(v any) bool {
	if _, isBool := v.(bool); isBool {
		return false
	}
	_, ok := toFloat(v)
	return ok
}

func numbersEqual(a, b any) bool {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt {
		return ai == bi
	}
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	return fa == fb
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), true
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}
