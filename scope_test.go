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
)

func TestScopeKeyDistinguishesV9FromIPFIXAtSameValue(t *testing.T) {
	addr := netip.MustParseAddr("192.0.2.1")
	v9 := NewV9Scope(addr, 7)
	ipfix := NewIPFIXScope(addr, 7)

	if v9 == ipfix {
		t.Fatal("expected v9 and ipfix scopes with identical addr/id to be distinct")
	}
	if v9.String() == ipfix.String() {
		t.Fatalf("expected distinct string forms, both rendered as %q", v9.String())
	}
}

func TestScopeKeyDistinguishesByAddress(t *testing.T) {
	a := NewV9Scope(netip.MustParseAddr("192.0.2.1"), 1)
	b := NewV9Scope(netip.MustParseAddr("192.0.2.2"), 1)
	if a == b {
		t.Fatal("expected scopes with different source addresses to differ")
	}
}

func TestScopeKeyEqualForIdenticalInputs(t *testing.T) {
	addr := netip.MustParseAddr("192.0.2.1")
	a := NewV9Scope(addr, 1)
	b := NewV9Scope(addr, 1)
	if a != b {
		t.Fatal("expected identical scope construction to be equal")
	}
}
