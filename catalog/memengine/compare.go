package memengine

import (
	"cmp"
	"reflect"
	"strings"
	"time"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// compareValues orders two Document values of the same type family.
// The second return value is false when the values can not be ordered against each other.
func compareValues(a, b any) (int, bool) {
	a, b = catalog.NormalizeValue(a), catalog.NormalizeValue(b)

	if af, ok := catalog.AsFloat(a); ok {
		bf, isNumber := catalog.AsFloat(b)
		if !isNumber {
			return 0, false
		}
		return cmp.Compare(af, bf), true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true

	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true

	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}

	default:
		return 0, false
	}
}

func valuesEqual(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}

	return reflect.DeepEqual(catalog.NormalizeValue(a), catalog.NormalizeValue(b))
}

// sortCompare orders values for sorting: missing values first, then by value.
func sortCompare(a, b any, aFound, bFound bool) int {
	switch {
	case !aFound && !bFound:
		return 0
	case !aFound:
		return -1
	case !bFound:
		return 1
	}

	c, _ := compareValues(a, b)

	return c
}
