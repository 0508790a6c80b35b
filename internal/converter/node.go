package converter

import (
	stdjson "encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is a JSON Schema object that keeps its keys in insertion order.
//
// Values are strings, booleans, []string, []any, *Node or raw JSON
// (encoding/json.RawMessage) copied from the Avro input.
type Node struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewNode returns an empty node.
func NewNode() *Node {
	return &Node{m: orderedmap.New[string, any]()}
}

// Set stores v under key, keeping the key's position when it already exists.
func (n *Node) Set(key string, v any) *Node {
	n.m.Set(key, v)
	return n
}

// SetIfAbsent stores v only when key is not set yet.
func (n *Node) SetIfAbsent(key string, v any) *Node {
	if !n.Has(key) {
		n.m.Set(key, v)
	}
	return n
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (any, bool) {
	return n.m.Get(key)
}

// Has reports whether key is set.
func (n *Node) Has(key string) bool {
	_, ok := n.m.Get(key)
	return ok
}

// Len returns the number of keys.
func (n *Node) Len() int {
	return n.m.Len()
}

// Keys returns the keys in order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, n.m.Len())
	for pair := n.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// SetAll copies every key of other into n, overwriting existing keys.
func (n *Node) SetAll(other *Node) {
	for pair := other.m.Oldest(); pair != nil; pair = pair.Next() {
		n.m.Set(pair.Key, pair.Value)
	}
}

// DeepCopy returns a copy that shares no mutable state with n.
func (n *Node) DeepCopy() *Node {
	out := NewNode()
	for pair := n.m.Oldest(); pair != nil; pair = pair.Next() {
		out.m.Set(pair.Key, copyValue(pair.Value))
	}
	return out
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return n.m.MarshalJSON()
}

func copyValue(v any) any {
	switch t := v.(type) {
	case *Node:
		return t.DeepCopy()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case stdjson.RawMessage:
		return append(stdjson.RawMessage(nil), t...)
	default:
		return v
	}
}
