package utils

import (
	"bytes"
	"encoding/json"
	"sort"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap is a JSON object whose keys are emitted by ascending Order.
type OrderedKVMap[T any] map[string]OrderedKV[T]

// Set stores value under key, after every key already present.
func (om OrderedKVMap[T]) Set(key string, value T) {
	var last int64
	for _, v := range om {
		if v.Order > last {
			last = v.Order
		}
	}
	om[key] = OrderedKV[T]{Value: value, Order: last + 1}
}

// Keys returns the keys in emission order.
func (om OrderedKVMap[T]) Keys() []string {
	keys := make([]string, 0, len(om))
	for k := range om {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		oi, oj := om[keys[i]].Order, om[keys[j]].Order
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Plain drops the ordering.
func (om OrderedKVMap[T]) Plain() map[string]T {
	out := make(map[string]T, len(om))
	for k, v := range om {
		out[k] = v.Value
	}
	return out
}

func (om OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range om.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(om[k].Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
