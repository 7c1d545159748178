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

// Package etcd provides a TemplateCache backed by etcd, so multiple
// collector replicas can share learned templates for the same exporter
// instead of each relearning them independently after a restart or a
// load-balancer reshuffle.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	netflow "github.com/mikemiles-dev/netflow-parser"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
)

// key is the etcd row key for one scoped template: "<scope>/<template id>".
type key struct {
	Scope string
	ID    uint16
}

func (k key) String() string {
	return fmt.Sprintf("%s/%d", k.Scope, k.ID)
}

func parseKey(s string) (key, error) {
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return key{}, fmt.Errorf("etcd: malformed template key %q", s)
	}
	var id uint16
	if _, err := fmt.Sscanf(s[i+1:], "%d", &id); err != nil {
		return key{}, fmt.Errorf("etcd: malformed template key %q: %w", s, err)
	}
	return key{Scope: s[:i], ID: id}, nil
}

var _ netflow.TemplateCache = (*TemplateCache)(nil)

// TemplateCache implements netflow.TemplateCache against a shared etcd
// keyspace, watching for updates from other replicas and mirroring local
// Put calls out to etcd. It wraps a local in-process cache so reads never
// have to round-trip to etcd.
type TemplateCache struct {
	client *clientv3.Client
	logger logr.Logger

	mu        sync.RWMutex
	local     map[key]netflow.Template
	revisions map[key]int64

	prefix string
}

// New creates a TemplateCache scoped under the given etcd key prefix
// (defaulting to "templates/" if empty) and starts the background watch.
// Call Close when finished to release the client and watch goroutine.
func New(ctx context.Context, client *clientv3.Client, prefix string, logger logr.Logger) (*TemplateCache, error) {
	if prefix == "" {
		prefix = "templates/"
	}
	client.KV = namespace.NewKV(client.KV, prefix)
	client.Watcher = namespace.NewWatcher(client.Watcher, prefix)

	c := &TemplateCache{
		client:    client,
		logger:    logger,
		local:     make(map[key]netflow.Template),
		revisions: make(map[key]int64),
		prefix:    prefix,
	}
	if err := c.initialize(ctx); err != nil {
		return nil, err
	}
	go c.watch(ctx)
	return c, nil
}

func (c *TemplateCache) initialize(ctx context.Context) error {
	res, err := c.client.Get(ctx, "", clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return fmt.Errorf("etcd: initial template load: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kv := range res.Kvs {
		k, err := parseKey(string(kv.Key))
		if err != nil {
			c.logger.V(1).Info("skipping malformed etcd template key", "key", string(kv.Key))
			continue
		}
		var t netflow.Template
		if err := json.Unmarshal(kv.Value, &t); err != nil {
			c.logger.Error(err, "skipping unparseable etcd template value", "key", string(kv.Key))
			continue
		}
		c.local[k] = t
		c.revisions[k] = kv.Version
	}
	return nil
}

func (c *TemplateCache) watch(ctx context.Context) {
	rch := c.client.Watch(ctx, "", clientv3.WithPrefix())
	for {
		select {
		case resp, ok := <-rch:
			if !ok {
				return
			}
			c.applyEvents(resp.Events)
		case <-ctx.Done():
			return
		}
	}
}

func (c *TemplateCache) applyEvents(events []*clientv3.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range events {
		k, err := parseKey(string(ev.Kv.Key))
		if err != nil {
			continue
		}
		if ev.Type == clientv3.EventTypeDelete {
			delete(c.local, k)
			delete(c.revisions, k)
			continue
		}
		if prev, ok := c.revisions[k]; ok && prev >= ev.Kv.Version {
			continue
		}
		var t netflow.Template
		if err := json.Unmarshal(ev.Kv.Value, &t); err != nil {
			c.logger.Error(err, "discarding unparseable watch event", "key", string(ev.Kv.Key))
			continue
		}
		c.local[k] = t
		c.revisions[k] = ev.Kv.Version
	}
}

// Get satisfies netflow.TemplateCache by reading the local mirror only.
func (c *TemplateCache) Get(scope netflow.ScopeKey, id uint16) (netflow.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.local[key{Scope: scope.String(), ID: id}]
	return t, ok
}

// Put writes through to etcd, then updates the local mirror. Concurrent
// Puts for the same key from another replica are resolved by the watch
// loop using etcd's per-key version as a monotonic clock.
func (c *TemplateCache) Put(scope netflow.ScopeKey, id uint16, t netflow.Template) {
	k := key{Scope: scope.String(), ID: id}
	data, err := json.Marshal(t)
	if err != nil {
		c.logger.Error(err, "failed to marshal template for etcd", "key", k.String())
		return
	}
	ctx := context.Background()
	if _, err := c.client.Put(ctx, k.String(), string(data)); err != nil {
		c.logger.Error(err, "failed to write template to etcd", "key", k.String())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local[k] = t
}

// Delete removes a template from etcd and the local mirror.
func (c *TemplateCache) Delete(scope netflow.ScopeKey, id uint16) {
	k := key{Scope: scope.String(), ID: id}
	ctx := context.Background()
	if _, err := c.client.Delete(ctx, k.String()); err != nil {
		c.logger.Error(err, "failed to delete template from etcd", "key", k.String())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.local, k)
	delete(c.revisions, k)
}

// IDs returns every template id currently cached for scope.
func (c *TemplateCache) IDs(scope netflow.ScopeKey) []uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefix := scope.String() + "/"
	var ids []uint16
	for k := range c.local {
		if k.Scope+"/" == prefix {
			ids = append(ids, k.ID)
		}
	}
	return ids
}

// Close releases the underlying etcd client.
func (c *TemplateCache) Close() error {
	return c.client.Close()
}
