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
	"fmt"
	"net/netip"
)

// ScopeKey identifies the namespace templates are cached under. v9 scopes
// by (source address, source id); IPFIX scopes by (source address,
// observation domain id); v5/v7 carry no templates at all and never
// produce a ScopeKey. This is a tagged sum, not a string concatenation
// (§9 Design Notes), so that a v9 source id and an IPFIX observation
// domain id of the same numeric value never collide.
type ScopeKey struct {
	kind scopeKind
	addr netip.Addr
	id   uint32
}

type scopeKind uint8

const (
	scopeV9 scopeKind = iota
	scopeIPFIX
	scopeSingle
)

// singleScopeKey is the one shared scope used by a Decoder built with
// NewSingleScopeDecoder, regardless of exporter address or header
// scoping fields (§4.5 non-scoping front-end).
var singleScopeKey = ScopeKey{kind: scopeSingle}

// NewV9Scope builds the scope key for a NetFlow v9 exporter, keyed by
// source address and the header's Source ID field.
func NewV9Scope(addr netip.Addr, sourceID uint32) ScopeKey {
	return ScopeKey{kind: scopeV9, addr: addr, id: sourceID}
}

// NewIPFIXScope builds the scope key for an IPFIX exporter, keyed by
// source address and the header's Observation Domain ID field.
func NewIPFIXScope(addr netip.Addr, observationDomainID uint32) ScopeKey {
	return ScopeKey{kind: scopeIPFIX, addr: addr, id: observationDomainID}
}

func (s ScopeKey) String() string {
	switch s.kind {
	case scopeV9:
		return fmt.Sprintf("v9/%s/%d", s.addr, s.id)
	case scopeIPFIX:
		return fmt.Sprintf("ipfix/%s/%d", s.addr, s.id)
	case scopeSingle:
		return "single-scope"
	default:
		return "unscoped"
	}
}
