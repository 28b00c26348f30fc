package memory

// table keeps rows in insertion order with a key index for lookups.
type table[T any] struct {
	rows  []T
	index map[string]int
	key   func(T) string
}

func newTable[T any](key func(T) string) *table[T] {
	return &table[T]{index: make(map[string]int), key: key}
}

func (t *table[T]) len() int {
	return len(t.rows)
}

func (t *table[T]) has(k string) bool {
	_, ok := t.index[k]
	return ok
}

func (t *table[T]) get(k string) (T, bool) {
	i, ok := t.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i], true
}

// set replaces the row with the same key in place, or appends it.
func (t *table[T]) set(row T) {
	k := t.key(row)
	if i, ok := t.index[k]; ok {
		t.rows[i] = row
		return
	}
	t.index[k] = len(t.rows)
	t.rows = append(t.rows, row)
}

func (t *table[T]) remove(k string) (T, bool) {
	i, ok := t.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	row := t.rows[i]
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	t.reindex()
	return row, true
}

// removeWhere drops every matching row and returns the keys it removed.
func (t *table[T]) removeWhere(match func(T) bool) map[string]struct{} {
	removed := make(map[string]struct{})
	kept := t.rows[:0]
	for _, row := range t.rows {
		if match(row) {
			removed[t.key(row)] = struct{}{}
			continue
		}
		kept = append(kept, row)
	}
	clear(t.rows[len(kept):])
	t.rows = kept
	if len(removed) > 0 {
		t.reindex()
	}
	return removed
}

func (t *table[T]) each(fn func(row *T)) {
	for i := range t.rows {
		fn(&t.rows[i])
	}
}

func (t *table[T]) list(clone func(T) T) []T {
	out := make([]T, len(t.rows))
	for i, row := range t.rows {
		out[i] = clone(row)
	}
	return out
}

func (t *table[T]) reset() {
	t.rows = nil
	t.index = make(map[string]int)
}

func (t *table[T]) reindex() {
	t.index = make(map[string]int, len(t.rows))
	for i, row := range t.rows {
		t.index[t.key(row)] = i
	}
}
