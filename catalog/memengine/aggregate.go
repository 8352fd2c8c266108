package memengine

import (
	"fmt"
	"slices"
	"time"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const groupIDField = "_id"

func runStage(docs catalog.Documents, stage catalog.Stage) (catalog.Documents, error) {
	switch s := stage.(type) {
	case catalog.MatchStage:
		return filterDocuments(docs, s.Predicates)

	case catalog.UnwindStage:
		return unwind(docs, s.Field), nil

	case catalog.GroupStage:
		return group(docs, s)

	case catalog.SortStage:
		sortDocuments(docs, s.Fields)
		return docs, nil

	case catalog.LimitStage:
		if s.N > 0 && len(docs) > s.N {
			return docs[:s.N], nil
		}
		return docs, nil

	default:
		return nil, &catalog.QueryParseError{Reason: fmt.Sprintf("unsupported aggregation stage %T", stage)}
	}
}

func filterDocuments(docs catalog.Documents, predicates []catalog.Predicate) (catalog.Documents, error) {
	matching := make(catalog.Documents, 0, len(docs))
	for _, doc := range docs {
		ok, err := matchesAll(doc, predicates)
		if err != nil {
			return nil, err
		}
		if ok {
			matching = append(matching, doc)
		}
	}

	return matching, nil
}

func unwind(docs catalog.Documents, field string) catalog.Documents {
	unwound := make(catalog.Documents, 0, len(docs))
	for _, doc := range docs {
		list, ok := doc[field].([]any)
		if !ok {
			continue
		}

		for _, item := range list {
			element := cloneDocument(doc)
			element[field] = item
			unwound = append(unwound, element)
		}
	}

	return unwound
}

type bucket struct {
	key  any
	docs catalog.Documents
}

func group(docs catalog.Documents, stage catalog.GroupStage) (catalog.Documents, error) {
	var buckets []*bucket

	for _, doc := range docs {
		key, err := groupKey(doc, stage.Key)
		if err != nil {
			return nil, err
		}

		idx := slices.IndexFunc(buckets, func(b *bucket) bool { return valuesEqual(b.key, key) })
		if idx < 0 {
			buckets = append(buckets, &bucket{key: key})
			idx = len(buckets) - 1
		}

		buckets[idx].docs = append(buckets[idx].docs, doc)
	}

	keyAs := stage.KeyAs
	if keyAs == "" {
		keyAs = groupIDField
	}

	grouped := make(catalog.Documents, 0, len(buckets))
	for _, b := range buckets {
		out := catalog.Document{keyAs: b.key}

		for _, acc := range stage.Accumulators {
			value, err := accumulate(b.docs, acc)
			if err != nil {
				return nil, err
			}
			out[acc.As] = value
		}

		grouped = append(grouped, out)
	}

	return grouped, nil
}

func groupKey(doc catalog.Document, key catalog.GroupKey) (any, error) {
	if key.Field == "" {
		return nil, nil
	}

	value := doc[key.Field]

	switch key.Part {
	case catalog.WholeValue:
		return value, nil

	case catalog.Month, catalog.Year:
		t, ok := value.(time.Time)
		if !ok {
			return nil, nil
		}
		if key.Part == catalog.Month {
			return int64(t.Month()), nil
		}
		return int64(t.Year()), nil

	default:
		return nil, &catalog.QueryParseError{Param: key.Field, Reason: "unsupported date part " + string(key.Part)}
	}
}

func accumulate(docs catalog.Documents, acc catalog.Accumulator) (any, error) {
	switch acc.Op {
	case catalog.Count:
		return int64(len(docs)), nil

	case catalog.Sum, catalog.Avg:
		var sum float64
		var count int
		allIntegers := true
		for _, doc := range docs {
			value := catalog.NormalizeValue(doc[acc.Field])
			f, ok := catalog.AsFloat(value)
			if !ok {
				continue
			}
			if _, isInt := value.(int64); !isInt {
				allIntegers = false
			}
			sum += f
			count++
		}

		if acc.Op == catalog.Avg {
			if count == 0 {
				return nil, nil
			}
			return sum / float64(count), nil
		}

		if allIntegers {
			return int64(sum), nil
		}
		return sum, nil

	case catalog.Min, catalog.Max:
		var result any
		for _, doc := range docs {
			value, found := doc[acc.Field]
			if !found || value == nil {
				continue
			}
			if result == nil {
				result = value
				continue
			}
			c, ok := compareValues(value, result)
			if ok && ((acc.Op == catalog.Min && c < 0) || (acc.Op == catalog.Max && c > 0)) {
				result = value
			}
		}
		return result, nil

	case catalog.Push:
		pushed := make([]any, 0, len(docs))
		for _, doc := range docs {
			if value, found := doc[acc.Field]; found {
				pushed = append(pushed, value)
			}
		}
		return pushed, nil

	default:
		return nil, &catalog.QueryParseError{Param: acc.As, Reason: "unsupported accumulator " + string(acc.Op)}
	}
}
