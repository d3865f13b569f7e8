package projection

import "github.com/getpup/streamstore/es"

// streamCache remembers which emitted streams are known to exist so LinkTo
// can skip the existence query. It is a fixed-size ring: once full, each
// append overwrites the oldest entry.
type streamCache struct {
	index map[es.StreamName]struct{}
	slots []es.StreamName
	pos   int
}

func newStreamCache(size int) *streamCache {
	if size < 1 {
		size = 1
	}
	return &streamCache{
		index: make(map[es.StreamName]struct{}, size),
		slots: make([]es.StreamName, size),
		pos:   -1,
	}
}

func (c *streamCache) has(name es.StreamName) bool {
	_, ok := c.index[name]
	return ok
}

func (c *streamCache) append(name es.StreamName) {
	if c.has(name) {
		return
	}
	c.pos = (c.pos + 1) % len(c.slots)
	if evicted := c.slots[c.pos]; evicted != "" {
		delete(c.index, evicted)
	}
	c.slots[c.pos] = name
	c.index[name] = struct{}{}
}
