package canon

import (
	"fmt"
	"sort"
)

// FromMap converts a map[string]interface{} (as produced by
// json.Unmarshal into an interface{}, or assembled by hand) into a
// canon.Value, recursively. Supported scalar types are nil, bool,
// string, int, int64, float64, []interface{}, and
// map[string]interface{}.
func FromMap(m map[string]interface{}) (Value, error) {
	return FromAny(m)
}

// FromAny converts an arbitrary Go value built from JSON-shaped
// primitives into a canon.Value.
func FromAny(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t)), nil
		}
		return Float(t), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			cv, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = cv
		}
		return Arr(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(t))
		for _, k := range keys {
			cv, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k, Value: cv})
		}
		return Obj(members...), nil
	default:
		return Value{}, fmt.Errorf("canon: unsupported type %T", v)
	}
}
