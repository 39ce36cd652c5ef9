package valuereader

import "sync"

type pair struct {
	name  string
	value any
}

// LazyValue is the root representation produced for events whose shape
// crosses the eager threshold (§4.5): field values are collected as an
// ordered list during the walk, and only assembled into a map on first
// lookup.
type LazyValue struct {
	pairs []pair

	once sync.Once
	m    map[string]any
}

func newLazyValue(pairs []pair) *LazyValue {
	return &LazyValue{pairs: pairs}
}

func (lv *LazyValue) hydrate() {
	lv.once.Do(func() {
		lv.m = make(map[string]any, len(lv.pairs))
		for _, p := range lv.pairs {
			lv.m[p.name] = p.value
		}
	})
}

// Get returns the named field's value, hydrating the backing map on first
// call.
func (lv *LazyValue) Get(name string) (any, bool) {
	lv.hydrate()
	v, ok := lv.m[name]
	return v, ok
}

// Map returns the fully hydrated map. Later callers reuse the same map
// (hydration happens at most once).
func (lv *LazyValue) Map() map[string]any {
	lv.hydrate()
	return lv.m
}
