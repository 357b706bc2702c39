package source

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"xelis-stats/internal/i18n"
)

// BuildFunc builds the source list for a locale.
type BuildFunc func(p *message.Printer) []*Source

// Registry memoizes the source catalog per locale. Concurrent first
// requests for a locale share a single build.
type Registry struct {
	build  BuildFunc
	group  singleflight.Group
	mu     sync.RWMutex
	cache  map[language.Tag][]*Source
	builds atomic.Int64
}

// NewRegistry creates a registry over a build function.
func NewRegistry(build BuildFunc) *Registry {
	return &Registry{
		build: build,
		cache: make(map[language.Tag][]*Source),
	}
}

// Sources returns the catalog for a locale.
func (r *Registry) Sources(tag language.Tag) []*Source {
	r.mu.RLock()
	sources, ok := r.cache[tag]
	r.mu.RUnlock()
	if ok {
		return sources
	}

	v, _, _ := r.group.Do(tag.String(), func() (any, error) {
		r.mu.RLock()
		cached, ok := r.cache[tag]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		built := r.build(i18n.Printer(tag))
		r.builds.Add(1)

		r.mu.Lock()
		r.cache[tag] = built
		r.mu.Unlock()
		return built, nil
	})
	return v.([]*Source)
}

// Resolve returns the source with the key. Unknown keys yield an empty
// source that renders no data.
func (r *Registry) Resolve(tag language.Tag, key string) *Source {
	for _, s := range r.Sources(tag) {
		if s.Key == key {
			return s
		}
	}
	return &Source{}
}

// Builds returns how many catalog builds ran.
func (r *Registry) Builds() int64 {
	return r.builds.Load()
}
