package rendercore

import (
	"reflect"
	"sync"
)

// DefaultPoolCapacity is the number of released instances kept per content
// type when no capacity is configured.
const DefaultPoolCapacity = 3

// PoolOptions configures a ContentPool.
type PoolOptions struct {
	// DefaultCapacity applies to content types without an entry in
	// Capacities. Zero or negative means DefaultPoolCapacity.
	DefaultCapacity int
	// Capacities overrides the capacity per content type. A zero entry
	// disables pooling for that type.
	Capacities map[ContentType]int
	// OnDiscard is called, outside the pool lock, for every instance the
	// pool drops because a bucket is full, disabled or cleared.
	OnDiscard func(ContentType, Content)
}

// PoolStats counts pool traffic since creation or the last Clear.
type PoolStats struct {
	Hits     int
	Misses   int
	Releases int
	Discards int
	// Pooled is the number of instances currently held.
	Pooled int
}

type poolBucket struct {
	capacity int
	items    []Content // oldest first
}

// ContentPool keeps released content per ContentType so new nodes can reuse
// it instead of creating fresh instances. Buckets are created on first use.
// The pool never invokes lifecycle methods: content must already be unbound
// and unmounted when released.
type ContentPool struct {
	mu      sync.Mutex
	opts    PoolOptions
	buckets map[ContentType]*poolBucket
	stats   PoolStats
}

// NewContentPool creates an empty pool.
func NewContentPool(opts PoolOptions) *ContentPool {
	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = DefaultPoolCapacity
	}
	return &ContentPool{opts: opts}
}

func (p *ContentPool) bucket(ct ContentType) *poolBucket {
	if p.buckets == nil {
		p.buckets = make(map[ContentType]*poolBucket)
	}
	b, ok := p.buckets[ct]
	if !ok {
		capacity := p.opts.DefaultCapacity
		if c, set := p.opts.Capacities[ct]; set {
			capacity = max(c, 0)
		}
		b = &poolBucket{capacity: capacity}
		p.buckets[ct] = b
	}
	return b
}

// Capacity returns the bucket bound for ct.
func (p *ContentPool) Capacity(ct ContentType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bucket(ct).capacity
}

// Acquire removes and returns the most recently released instance of ct.
// The second result is false on a pool miss; the caller then creates fresh
// content.
func (p *ContentPool) Acquire(ct ContentType) (Content, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.bucket(ct)
	if len(b.items) == 0 {
		p.stats.Misses++
		return nil, false
	}
	last := len(b.items) - 1
	content := b.items[last]
	b.items[last] = nil
	b.items = b.items[:last]
	p.stats.Hits++
	p.stats.Pooled--
	return content, true
}

// Release returns content to the bucket of ct. When the bucket is full the
// oldest instance is discarded. It reports whether content was retained.
func (p *ContentPool) Release(ct ContentType, content Content) bool {
	if content == nil {
		return false
	}
	var discarded []Content
	retained := false

	p.mu.Lock()
	b := p.bucket(ct)
	switch {
	case b.capacity == 0:
		discarded = append(discarded, content)
	case containsContent(b.items, content):
		// already pooled; a second copy would let two items share it
	default:
		if len(b.items) >= b.capacity {
			discarded = append(discarded, b.items[0])
			b.items = append(b.items[:0], b.items[1:]...)
			p.stats.Pooled--
		}
		b.items = append(b.items, content)
		p.stats.Pooled++
		retained = true
	}
	p.stats.Releases++
	p.stats.Discards += len(discarded)
	p.mu.Unlock()

	p.discard(ct, discarded)
	return retained
}

// Preallocate fills the bucket of unit's content type with up to n fresh
// instances, bounded by the bucket capacity. It returns how many were added.
func (p *ContentPool) Preallocate(ctx *Context, unit RenderUnit, n int) (int, error) {
	ct := unit.ContentType()
	p.mu.Lock()
	room := p.bucket(ct).capacity - len(p.bucket(ct).items)
	p.mu.Unlock()

	added := 0
	for i := 0; i < min(n, room); i++ {
		content, err := unit.CreateContent(ctx)
		if err != nil {
			return added, err
		}
		if p.Release(ct, content) {
			added++
		}
	}
	return added, nil
}

// Len returns the number of pooled instances of ct.
func (p *ContentPool) Len(ct ContentType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buckets[ct]; ok {
		return len(b.items)
	}
	return 0
}

// Drain removes and returns every pooled instance of ct without calling
// OnDiscard.
func (p *ContentPool) Drain(ct ContentType) []Content {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[ct]
	if !ok {
		return nil
	}
	items := b.items
	b.items = nil
	p.stats.Pooled -= len(items)
	return items
}

// Clear drops every pooled instance, calling OnDiscard for each, and resets
// the statistics.
func (p *ContentPool) Clear() {
	p.mu.Lock()
	buckets := p.buckets
	p.buckets = nil
	p.stats = PoolStats{}
	p.mu.Unlock()

	for ct, b := range buckets {
		p.discard(ct, b.items)
	}
}

// Stats returns a snapshot of the pool counters.
func (p *ContentPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *ContentPool) discard(ct ContentType, items []Content) {
	if p.opts.OnDiscard == nil {
		return
	}
	for _, c := range items {
		p.opts.OnDiscard(ct, c)
	}
}

func containsContent(items []Content, content Content) bool {
	for _, c := range items {
		if sameContent(c, content) {
			return true
		}
	}
	return false
}

// sameContent compares by identity where the dynamic type allows it.
func sameContent(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}
