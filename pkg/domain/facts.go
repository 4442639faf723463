package domain

// Facts is the context supplied to every evaluation call.
// It maps a fact key (e.g. "health", "enemy_visible") to the value the
// recognition subsystem last observed. Facts are always passed explicitly;
// the engine never reads ambient state.
type Facts map[string]any

// Lookup returns the value for key and whether the fact is present.
func (f Facts) Lookup(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f[key]
	return v, ok
}

// Clone returns a shallow copy of the fact map.
func (f Facts) Clone() Facts {
	if f == nil {
		return nil
	}
	out := make(Facts, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
