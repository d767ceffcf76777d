package docstore

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// SortOrder selects the direction of a query sort.
type SortOrder int

const (
	// Ascending places smaller values first.
	Ascending SortOrder = iota
	// Descending places larger values first.
	Descending
)

// Sort orders query results by one field's natural ordering: numeric for
// numbers, lexical for strings. Ties have unspecified relative order.
type Sort struct {
	Field string
	Order SortOrder
}

// Query is a declarative filter/sort/paginate request evaluated in memory
// over the full collection; there are no indexes.
//
// Where maps field names to conditions; a document survives iff every
// field's condition matches. A scalar condition means exact equality. A
// map condition is an operator object, matched by fixed priority — see
// [Collection.Find].
type Query struct {
	Where map[string]any

	// Sort orders results before pagination. nil leaves the order
	// unspecified.
	Sort *Sort

	// Offset drops that many leading results after filtering and sorting.
	Offset int

	// Limit keeps at most that many of what remains. Zero means no limit.
	Limit int
}

// Find evaluates q over the collection.
//
// Operator objects are matched with first-match-wins priority:
//
//	$gt, $gte, $lt, $lte   numeric/ordinal comparison
//	$regex                 pattern test against a string value
//	$in, $nin              membership; against a list-valued field, $in
//	                       is true iff any operator value is a member of
//	                       the list, $nin iff none are
//	$ne, $eq               inequality/equality
//	$or, $and, $not        logical combinators over sub-conditions
//
// Only the first recognized key in an operator object is honored; any
// further keys in the same object are silently ignored. A bounded range
// therefore needs an explicit $and of two single-key objects — placing
// $gt and $lt in one object honors $gt alone. An operator object with no
// recognized key matches vacuously.
func (c *Collection) Find(ctx context.Context, q Query) ([]Document, error) {
	if ctx == nil {
		return nil, errors.New("find: context is nil")
	}

	docs, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	if len(q.Where) > 0 {
		filtered := docs[:0]

		for _, doc := range docs {
			if matchWhere(doc, q.Where) {
				filtered = append(filtered, doc)
			}
		}

		docs = filtered
	}

	if q.Sort != nil {
		sortDocuments(docs, *q.Sort)
	}

	if q.Offset > 0 {
		if q.Offset >= len(docs) {
			docs = docs[:0]
		} else {
			docs = docs[q.Offset:]
		}
	}

	if q.Limit > 0 && q.Limit < len(docs) {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

// matchWhere reports whether every field condition matches the document.
func matchWhere(doc Document, where map[string]any) bool {
	for field, cond := range where {
		if !matchCondition(doc.Fields[field], cond) {
			return false
		}
	}

	return true
}

// matchCondition evaluates one condition against a field value. Scalar
// conditions mean exact equality; map conditions are operator objects.
func matchCondition(value, cond any) bool {
	switch typed := cond.(type) {
	case map[string]any:
		return matchOperators(value, typed)
	case Fields:
		return matchOperators(value, typed)
	default:
		return equalValues(value, cond)
	}
}

// matchOperators applies the fixed operator priority. The first key
// present decides the result entirely; remaining keys in the same object
// are ignored. This first-match-wins rule is deliberate contract, not an
// evaluation-order accident.
func matchOperators(value any, ops map[string]any) bool {
	if operand, ok := ops["$gt"]; ok {
		cmp, orderable := compareValues(value, operand)

		return orderable && cmp > 0
	}

	if operand, ok := ops["$gte"]; ok {
		cmp, orderable := compareValues(value, operand)

		return orderable && cmp >= 0
	}

	if operand, ok := ops["$lt"]; ok {
		cmp, orderable := compareValues(value, operand)

		return orderable && cmp < 0
	}

	if operand, ok := ops["$lte"]; ok {
		cmp, orderable := compareValues(value, operand)

		return orderable && cmp <= 0
	}

	if operand, ok := ops["$regex"]; ok {
		return matchRegex(value, operand)
	}

	if operand, ok := ops["$in"]; ok {
		return matchIn(value, operand)
	}

	if operand, ok := ops["$nin"]; ok {
		return !matchIn(value, operand)
	}

	if operand, ok := ops["$ne"]; ok {
		return !equalValues(value, operand)
	}

	if operand, ok := ops["$eq"]; ok {
		return equalValues(value, operand)
	}

	if operand, ok := ops["$or"]; ok {
		subs, listOK := toList(operand)
		if !listOK {
			return false
		}

		for _, sub := range subs {
			if matchCondition(value, sub) {
				return true
			}
		}

		return false
	}

	if operand, ok := ops["$and"]; ok {
		subs, listOK := toList(operand)
		if !listOK {
			return false
		}

		for _, sub := range subs {
			if !matchCondition(value, sub) {
				return false
			}
		}

		return true
	}

	if operand, ok := ops["$not"]; ok {
		return !matchCondition(value, operand)
	}

	// No recognized operator: vacuous match.
	return true
}

// matchRegex tests a string field value against a pattern. Non-string
// values and invalid patterns do not match.
func matchRegex(value, operand any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}

	pattern, ok := operand.(string)
	if !ok {
		return false
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}

	return re.MatchString(s)
}

// matchIn implements $in. Against a list-valued field it is true iff any
// operator value is a member of the field's list; against a scalar field
// it is true iff the field value is a member of the operator list.
func matchIn(value, operand any) bool {
	candidates, ok := toList(operand)
	if !ok {
		return false
	}

	if fieldList, isList := toList(value); isList {
		for _, candidate := range candidates {
			if containsValue(fieldList, candidate) {
				return true
			}
		}

		return false
	}

	return containsValue(candidates, value)
}

func containsValue(list []any, value any) bool {
	for _, item := range list {
		if equalValues(item, value) {
			return true
		}
	}

	return false
}

// equalValues compares loosely-typed values. Numbers compare numerically
// regardless of Go type (stored content decodes to float64, in-memory
// queries often carry ints); everything else compares deeply.
func equalValues(a, b any) bool {
	fa, aOK := toFloat(a)
	fb, bOK := toFloat(b)

	if aOK && bOK {
		return fa == fb
	}

	if aOK != bOK {
		return false
	}

	return reflect.DeepEqual(a, b)
}

// compareValues orders two values naturally: numeric if both are numbers,
// lexical if both are strings. Anything else is not comparable.
func compareValues(a, b any) (int, bool) {
	fa, aOK := toFloat(a)
	fb, bOK := toFloat(b)

	if aOK && bOK {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}

	sa, aIsStr := a.(string)
	sb, bIsStr := b.(string)

	if aIsStr && bIsStr {
		return strings.Compare(sa, sb), true
	}

	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toList normalizes any slice or array value to []any.
func toList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}

	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}

	return list, true
}

// sortDocuments orders docs by one field's natural value ordering. The
// sort is not guaranteed stable.
func sortDocuments(docs []Document, s Sort) {
	sort.Slice(docs, func(i, j int) bool {
		cmp, ok := compareValues(docs[i].Fields[s.Field], docs[j].Fields[s.Field])
		if !ok {
			return false
		}

		if s.Order == Descending {
			return cmp > 0
		}

		return cmp < 0
	})
}
