/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflow

import (
	"sync"
	"time"
)

// TemplateCache abstracts the storage backing a templateStore's per-scope
// buckets, so a local in-process LRU can be swapped for a distributed
// backend (see cache/etcd) without touching decode logic. Template IDs
// share one namespace per scope regardless of whether they were learned
// from a template or options-template set (RFC 7011 §3.4.1: IDs 256+ must
// be unique within an observation domain across both set kinds).
type TemplateCache interface {
	Get(scope ScopeKey, id uint16) (Template, bool)
	Put(scope ScopeKey, id uint16, t Template)
	Delete(scope ScopeKey, id uint16)
	IDs(scope ScopeKey) []uint16
}

var _ TemplateCache = (*templateStore)(nil)

// templateStore is the default in-process TemplateCache: one templateLRU
// per scope, created lazily on first use (§5.1). It also owns emitting
// metrics and lifecycle hooks, since those are tied to the same
// insert/evict/expire transitions the cache observes directly.
type templateStore struct {
	mu       sync.Mutex
	buckets  map[ScopeKey]*templateLRU
	capacity int
	ttl      time.Duration
	opts     DecoderOptions
}

func newTemplateStore(opts DecoderOptions) *templateStore {
	return &templateStore{
		buckets:  make(map[ScopeKey]*templateLRU),
		capacity: opts.CacheSize,
		ttl:      opts.TTL,
		opts:     opts,
	}
}

func (s *templateStore) bucketFor(scope ScopeKey) *templateLRU {
	b, ok := s.buckets[scope]
	if !ok {
		b = newTemplateLRU(s.capacity, s.ttl)
		s.buckets[scope] = b
	}
	return b
}

// Get looks up a cached template, recording a hit/miss metric.
func (s *templateStore) Get(scope ScopeKey, id uint16) (Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lru := s.bucketFor(scope)
	before := lru.len()
	t, ok := lru.get(id, now())
	after := lru.len()
	label := scope.String()
	if ok {
		TemplateHits.WithLabelValues(label).Inc()
	} else {
		TemplateMisses.WithLabelValues(label).Inc()
	}
	if dropped := before - after; dropped > 0 {
		TemplateExpirations.WithLabelValues(label).Add(float64(dropped))
		s.opts.emit(TemplateEventInfo{Event: EventExpired, Scope: scope, TemplateID: id})
	}
	return t, ok
}

// Put installs or replaces a template, emitting the corresponding metric
// and lifecycle hook for whichever transition occurred.
func (s *templateStore) Put(scope ScopeKey, id uint16, t Template) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lru := s.bucketFor(scope)
	result, evictedID, evicted := lru.insert(id, t, now())

	label := scope.String()
	TemplateInsertions.WithLabelValues(label).Inc()
	switch result {
	case insertLearned:
		s.opts.emit(TemplateEventInfo{Event: EventLearned, Scope: scope, TemplateID: id})
	case insertRefreshed:
		TemplateRefreshes.WithLabelValues(label).Inc()
	case insertCollided:
		TemplateCollisions.WithLabelValues(label).Inc()
		s.opts.emit(TemplateEventInfo{Event: EventCollision, Scope: scope, TemplateID: id})
	}
	if evicted {
		TemplateEvictions.WithLabelValues(label).Inc()
		s.opts.emit(TemplateEventInfo{Event: EventEvicted, Scope: scope, TemplateID: evictedID})
	}
}

func (s *templateStore) IDs(scope ScopeKey) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bucketFor(scope).ids()
}

// Delete removes a template, used for RFC 7011 §8.1 withdrawal records.
func (s *templateStore) Delete(scope ScopeKey, id uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucketFor(scope).delete(id)
}

// hitRate is a derived convenience metric (§5.1: "hit_rate derived
// metric"), computed from the live Prometheus counters rather than tracked
// separately, so it never drifts from the series it summarizes.
func (s *templateStore) hitRate(scope ScopeKey) float64 {
	label := scope.String()
	hits := counterValue(TemplateHits.WithLabelValues(label))
	misses := counterValue(TemplateMisses.WithLabelValues(label))
	total := hits + misses
	if total == 0 {
		return 0
	}
	return hits / total
}
