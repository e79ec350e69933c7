// File: httpx/headers.go
//
// Case-insensitive header map with deterministic iteration. Entries are
// kept sorted by their folded key, so serialization is stable no matter
// in which order headers were set.

package httpx

import (
	"sort"
	"strings"
)

type headerEntry struct {
	key   string // case preserved from the last Set
	value string
}

// Headers maps header field names to values. Lookup ignores case;
// setting an existing name overwrites its value (last wins); iteration
// is in sorted order of the folded name. The zero value is empty and
// ready to use.
type Headers struct {
	entries []headerEntry
}

func foldKey(k string) string { return strings.ToLower(k) }

// search returns the position of key (or its insertion point) and
// whether it is present.
func (h *Headers) search(key string) (int, bool) {
	fk := foldKey(key)
	i := sort.Search(len(h.entries), func(i int) bool {
		return foldKey(h.entries[i].key) >= fk
	})
	if i < len(h.entries) && foldKey(h.entries[i].key) == fk {
		return i, true
	}
	return i, false
}

// Set stores value under key, replacing any previous value.
func (h *Headers) Set(key, value string) {
	i, ok := h.search(key)
	if ok {
		h.entries[i] = headerEntry{key: key, value: value}
		return
	}
	h.entries = append(h.entries, headerEntry{})
	copy(h.entries[i+1:], h.entries[i:])
	h.entries[i] = headerEntry{key: key, value: value}
}

// Get returns the value stored under key.
func (h *Headers) Get(key string) (string, bool) {
	if i, ok := h.search(key); ok {
		return h.entries[i].value, true
	}
	return "", false
}

// Del removes key. Removing an absent key is a no-op.
func (h *Headers) Del(key string) {
	if i, ok := h.search(key); ok {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
}

// Len returns the number of stored headers.
func (h *Headers) Len() int { return len(h.entries) }

// Each calls fn for every header in sorted order of the folded name.
func (h *Headers) Each(fn func(key, value string)) {
	for _, e := range h.entries {
		fn(e.key, e.value)
	}
}

// Equal compares two header maps up to name case.
func (h *Headers) Equal(other *Headers) bool {
	if len(h.entries) != len(other.entries) {
		return false
	}
	for i, e := range h.entries {
		o := other.entries[i]
		if foldKey(e.key) != foldKey(o.key) || e.value != o.value {
			return false
		}
	}
	return true
}
