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
	"net"
	"testing"
	"time"
)

func TestProjectUsesPrimaryFieldWhenPresent(t *testing.T) {
	rec := Record{Fields: []RecordField{
		{FieldDescriptor: FieldDescriptor{FieldType: 8}, Value: FieldValue{Kind: TypeIPv4, IP: net.ParseIP("10.1.1.1")}},
	}}
	view := Project(rec, DefaultCommonViewMapping())
	fv, ok := view.Get("src_addr")
	if !ok || fv.IP.String() != "10.1.1.1" {
		t.Fatalf("unexpected src_addr: %+v", fv)
	}
}

func TestProjectFallsBackWhenPrimaryAbsent(t *testing.T) {
	rec := Record{Fields: []RecordField{
		{FieldDescriptor: FieldDescriptor{FieldType: 27}, Value: FieldValue{Kind: TypeIPv6, IP: net.ParseIP("2001:db8::1")}},
	}}
	view := Project(rec, DefaultCommonViewMapping())
	fv, ok := view.Get("src_addr")
	if !ok || fv.IP.String() != "2001:db8::1" {
		t.Fatalf("expected fallback to sourceIPv6Address, got %+v", fv)
	}
}

func TestProjectOmitsUnresolvedMapping(t *testing.T) {
	rec := Record{}
	view := Project(rec, DefaultCommonViewMapping())
	if _, ok := view.Get("src_addr"); ok {
		t.Fatal("expected src_addr to be absent from an empty record's projection")
	}
}

func TestProjectV5RecordAndV7RecordAgreeOnSharedFields(t *testing.T) {
	v5 := V5Record{SrcAddr: net.ParseIP("1.2.3.4"), DstAddr: net.ParseIP("5.6.7.8"), DPkts: 5, DOctets: 500, Prot: 6}
	v7 := V7Record{SrcAddr: net.ParseIP("1.2.3.4"), DstAddr: net.ParseIP("5.6.7.8"), DPkts: 5, DOctets: 500, Prot: 6}

	uptimeRef := time.Unix(1700000000, 0)
	v5View := ProjectV5Record(v5, uptimeRef, 10000)
	v7View := ProjectV7Record(v7, uptimeRef, 10000)

	for _, name := range []string{"src_addr", "dst_addr", "packets", "bytes", "protocol"} {
		a, _ := v5View.Get(name)
		b, _ := v7View.Get(name)
		if a.String() != b.String() {
			t.Fatalf("expected %s to agree between v5/v7 projections, got %q vs %q", name, a.String(), b.String())
		}
	}
}
