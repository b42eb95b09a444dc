package object

import "github.com/dolthub/swiss"

// Table is the string-keyed hash table backing class method tables,
// instance field tables, and the virtual machine's globals table. It is a
// thin wrapper over a swiss-table map, the same open-addressing structure
// the teacher repo exposes as its builtin Map type, reused here for every
// string-keyed table the data model calls for (§3 Class/Instance, §4.3
// globals).
type Table[V any] struct {
	m *swiss.Map[string, V]
}

// NewTable returns a Table with initial capacity for at least size entries.
func NewTable[V any](size int) *Table[V] {
	if size < 1 {
		size = 1
	}
	return &Table[V]{m: swiss.NewMap[string, V](uint32(size))}
}

// Get looks up k, reporting whether it was present.
func (t *Table[V]) Get(k string) (V, bool) { return t.m.Get(k) }

// Has reports whether k is present.
func (t *Table[V]) Has(k string) bool { return t.m.Has(k) }

// Put upserts k's value.
func (t *Table[V]) Put(k string, v V) { t.m.Put(k, v) }

// Delete removes k, reporting whether it was present.
func (t *Table[V]) Delete(k string) bool { return t.m.Delete(k) }

// Len returns the number of entries.
func (t *Table[V]) Len() int { return t.m.Count() }

// Keys returns a snapshot of every key currently in the table, in
// unspecified but stable order (stable for the lifetime of the snapshot).
func (t *Table[V]) Keys() []string {
	keys := make([]string, 0, t.m.Count())
	t.ForEach(func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// ForEach calls fn for every entry, stopping early if fn returns false.
// swiss.Map.Iter's callback uses the opposite convention (it returns
// whether to STOP, not whether to continue), so the sense is flipped here
// rather than aliasing fn directly to Iter's callback.
func (t *Table[V]) ForEach(fn func(string, V) bool) {
	t.m.Iter(func(k string, v V) bool {
		return !fn(k, v)
	})
}

// Clone returns a shallow copy of t. INHERIT does not call it: it copies a
// superclass's methods into the subclass's existing table with ForEach and
// Put.
func (t *Table[V]) Clone() *Table[V] {
	out := NewTable[V](t.Len())
	t.ForEach(func(k string, v V) bool {
		out.Put(k, v)
		return true
	})
	return out
}
