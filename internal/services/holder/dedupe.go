package holder

// dedupeWindow bounds how many envelope ids the holder remembers. Relays
// re-deliver within a short horizon; an id older than the window can never
// be a live duplicate, so forgetting it is safe.
const dedupeWindow = 4096

// dedupe is a fixed-size set of recently seen ids with ring eviction.
// Not safe for concurrent use; the caller serializes access.
type dedupe struct {
	seen map[string]struct{}
	ring []string
	next int
}

func newDedupe(size int) *dedupe {
	return &dedupe{seen: make(map[string]struct{}, size), ring: make([]string, size)}
}

// Remember reports whether id was already present, recording it if not and
// evicting the oldest entry once the window is full.
func (d *dedupe) Remember(id string) bool {
	if _, dup := d.seen[id]; dup {
		return true
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % len(d.ring)
	d.seen[id] = struct{}{}
	return false
}
