package ingest

// Interner maps strings to dense integer IDs starting at 0. One interner is
// shared by both sides of a pair, so IDs are unique across the whole input.
type Interner struct {
	ids   map[string]int
	names []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]int)}
}

// Intern returns the ID for s, assigning the next free ID on first sight.
func (in *Interner) Intern(s string) int {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := len(in.names)
	in.ids[s] = id
	in.names = append(in.names, s)
	return id
}

// Lookup returns the ID for s without assigning one.
func (in *Interner) Lookup(s string) (int, bool) {
	id, ok := in.ids[s]
	return id, ok
}

// Name returns the string for id, or "" if id was never assigned.
func (in *Interner) Name(id int) string {
	if id < 0 || id >= len(in.names) {
		return ""
	}
	return in.names[id]
}

// Len returns the number of distinct strings seen.
func (in *Interner) Len() int {
	return len(in.names)
}
