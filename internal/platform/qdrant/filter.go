package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

// Filters use a small Mongo-like dialect ({"$or": [{"visibility": {"$eq":
// "latest"}}]}) and are translated into qdrant must/should clauses.
const (
	filterOpAnd = "$and"
	filterOpOr  = "$or"
	filterOpIn  = "$in"
	filterOpEq  = "$eq"
)

type translatedFilter struct {
	Must   []any
	Should []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.Should) > 0 {
		out["should"] = f.Should
	}
	return out
}

func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	out := translatedFilter{}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		value := filter[key]
		switch {
		case k == filterOpAnd || k == filterOpOr:
			items, ok := value.([]map[string]any)
			if !ok {
				return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s expects array of objects", k), nil)
			}
			for _, item := range items {
				sub, err := translateFilterMap(item)
				if err != nil {
					return translatedFilter{}, err
				}
				if k == filterOpAnd {
					out.Must = append(out.Must, sub.asMap())
				} else {
					out.Should = append(out.Should, sub.asMap())
				}
			}
		case strings.HasPrefix(k, "$"):
			return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported top-level filter operator %q", k), nil)
		default:
			cond, err := translateFieldFilter(k, value)
			if err != nil {
				return translatedFilter{}, err
			}
			out.Must = append(out.Must, cond)
		}
	}
	return out, nil
}

func translateFieldFilter(field string, value any) (map[string]any, error) {
	ops, ok := value.(map[string]any)
	if !ok {
		if !isScalar(value) {
			return nil, opErr("filter_translate", OperationErrorValidation,
				fmt.Sprintf("field %q expects scalar value or operator object", field), nil)
		}
		return matchValue(field, value), nil
	}
	if len(ops) != 1 {
		return nil, opErr("filter_translate", OperationErrorValidation,
			fmt.Sprintf("field %q expects exactly one operator", field), nil)
	}
	for op, opVal := range ops {
		switch op {
		case filterOpEq:
			if !isScalar(opVal) {
				return nil, opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects scalar value", op, field), nil)
			}
			return matchValue(field, opVal), nil
		case filterOpIn:
			values, ok := opVal.([]string)
			if !ok || len(values) == 0 {
				return nil, opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects a non-empty string array", op, field), nil)
			}
			return map[string]any{"key": field, "match": map[string]any{"any": values}}, nil
		default:
			return nil, opErr("filter_translate", OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported filter operator %q for field %q", op, field), nil)
		}
	}
	return nil, nil
}

func matchValue(key string, value any) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}
