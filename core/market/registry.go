package market

import (
	"sort"
	"sync"

	"github.com/courierbus/courier/core/wire"
)

// Factory produces an empty payload instance ready for positional hydration.
type Factory func() wire.Typed

// Registry maps payload type tags to factories. It implements wire.Registry
// and is safe for concurrent use; unknown tags simply report false, which
// makes the codec fall back to the raw decoded value.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for a tag.
func (r *Registry) Register(tag string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = factory
}

// Spawn implements wire.Registry.
func (r *Registry) Spawn(tag string) (wire.Typed, bool) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Defaults returns a registry with every built-in payload type registered.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(TagQuote, func() wire.Typed { return new(Quote) })
	r.Register(TagOrder, func() wire.Typed { return new(Order) })
	r.Register(TagTrades, func() wire.Typed { return new(Trades) })
	r.Register(TagCandle, func() wire.Typed { return new(Candle) })
	r.Register(TagTopLevel, func() wire.Typed { return new(TopLevel) })
	r.Register(TagBook, func() wire.Typed { return new(Book) })
	r.Register(TagRawBook, func() wire.Typed { return new(RawBook) })
	return r
}
