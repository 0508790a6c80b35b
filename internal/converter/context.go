package converter

import "sort"

// conversionContext is the state of one Convert call.
type conversionContext struct {
	seenRecords map[string]struct{}
	definitions map[string]*Node
}

func newConversionContext() *conversionContext {
	return &conversionContext{
		seenRecords: make(map[string]struct{}),
		definitions: make(map[string]*Node),
	}
}

func (cc *conversionContext) seen(name string) bool {
	_, ok := cc.seenRecords[name]
	return ok
}

func (cc *conversionContext) markSeen(name string) {
	cc.seenRecords[name] = struct{}{}
}

func (cc *conversionContext) define(name string, n *Node) {
	cc.definitions[name] = n
}

// definitionsNode returns the definitions table ordered by name.
func (cc *conversionContext) definitionsNode() *Node {
	names := make([]string, 0, len(cc.definitions))
	for name := range cc.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	out := NewNode()
	for _, name := range names {
		out.Set(name, cc.definitions[name])
	}
	return out
}
