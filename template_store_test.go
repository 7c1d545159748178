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
	"net/netip"
	"testing"
	"time"
)

func testScope(id uint32) ScopeKey {
	return NewV9Scope(netip.MustParseAddr("10.0.0.1"), id)
}

func TestTemplateStoreLearnGetRoundTrip(t *testing.T) {
	s := newTemplateStore(DecoderOptions{CacheSize: 10})
	scope := testScope(1)
	tmpl := Template{ID: 256, Kind: TemplateData, Fields: []FieldDescriptor{{FieldType: 8, FieldLength: 4}}}

	s.Put(scope, tmpl.ID, tmpl)
	got, ok := s.Get(scope, tmpl.ID)
	if !ok {
		t.Fatal("expected template to be found")
	}
	if len(got.Fields) != 1 || got.Fields[0].FieldType != 8 {
		t.Fatalf("unexpected template contents: %+v", got)
	}
}

func TestTemplateStoreScopesAreIsolated(t *testing.T) {
	s := newTemplateStore(DecoderOptions{CacheSize: 10})
	a := testScope(1)
	b := testScope(2)
	tmpl := Template{ID: 256, Kind: TemplateData, Fields: []FieldDescriptor{{FieldType: 8, FieldLength: 4}}}

	s.Put(a, tmpl.ID, tmpl)
	if _, ok := s.Get(b, tmpl.ID); ok {
		t.Fatal("expected scope b to not see scope a's template")
	}
}

func TestTemplateLRUEvictsOldest(t *testing.T) {
	l := newTemplateLRU(2, 0)
	now := time.Unix(0, 0)
	l.insert(1, Template{ID: 1}, now)
	l.insert(2, Template{ID: 2}, now)
	_, _, evicted := l.insert(3, Template{ID: 3}, now)
	if !evicted {
		t.Fatal("expected eviction at capacity")
	}
	if _, ok := l.get(1, now); ok {
		t.Fatal("expected id 1 (oldest) to have been evicted")
	}
	if _, ok := l.get(2, now); !ok {
		t.Fatal("expected id 2 to remain")
	}
	if _, ok := l.get(3, now); !ok {
		t.Fatal("expected id 3 to remain")
	}
}

func TestTemplateLRUTouchOnGetPreventsEviction(t *testing.T) {
	l := newTemplateLRU(2, 0)
	now := time.Unix(0, 0)
	l.insert(1, Template{ID: 1}, now)
	l.insert(2, Template{ID: 2}, now)
	l.get(1, now) // bump 1 to most-recently-used; 2 becomes the eviction candidate
	l.insert(3, Template{ID: 3}, now)
	if _, ok := l.get(1, now); !ok {
		t.Fatal("expected id 1 to survive since it was touched")
	}
	if _, ok := l.get(2, now); ok {
		t.Fatal("expected id 2 to be evicted")
	}
}

func TestTemplateLRUSameShapeIsRefreshNotCollision(t *testing.T) {
	l := newTemplateLRU(10, 0)
	now := time.Unix(0, 0)
	tmpl := Template{ID: 1, Fields: []FieldDescriptor{{FieldType: 8, FieldLength: 4}}}
	l.insert(1, tmpl, now)
	result, _, _ := l.insert(1, tmpl, now)
	if result != insertRefreshed {
		t.Fatalf("expected insertRefreshed, got %v", result)
	}

	changed := Template{ID: 1, Fields: []FieldDescriptor{{FieldType: 12, FieldLength: 4}}}
	result2, _, _ := l.insert(1, changed, now)
	if result2 != insertCollided {
		t.Fatalf("expected insertCollided, got %v", result2)
	}
}

func TestTemplateLRUExpiresByTTL(t *testing.T) {
	l := newTemplateLRU(10, 5*time.Second)
	base := time.Unix(1000, 0)
	l.insert(1, Template{ID: 1}, base)

	if _, ok := l.get(1, base.Add(3*time.Second)); !ok {
		t.Fatal("expected template to still be live before TTL elapses")
	}
	if _, ok := l.get(1, base.Add(10*time.Second)); ok {
		t.Fatal("expected template to have expired")
	}
}

func TestTemplateStoreDeleteWithdrawsTemplate(t *testing.T) {
	s := newTemplateStore(DecoderOptions{CacheSize: 10})
	scope := testScope(1)
	s.Put(scope, 256, Template{ID: 256})
	s.Delete(scope, 256)
	if _, ok := s.Get(scope, 256); ok {
		t.Fatal("expected template to be withdrawn")
	}
}

func TestTemplateStoreHitRate(t *testing.T) {
	s := newTemplateStore(DecoderOptions{CacheSize: 10})
	scope := testScope(42)
	s.Put(scope, 256, Template{ID: 256})
	s.Get(scope, 256)
	s.Get(scope, 999)
	rate := s.hitRate(scope)
	if rate <= 0 || rate >= 1 {
		t.Fatalf("expected hit rate strictly between 0 and 1, got %f", rate)
	}
}
