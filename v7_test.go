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
	"bytes"
	"net"
	"testing"
)

func buildV7Packet(t *testing.T, count int) []byte {
	t.Helper()
	h := V7Header{Version: 7, Count: uint16(count), SysUptime: 2000, UnixSecs: 1700000000, FlowSequence: 1}
	out := h.encodeTo(nil)
	for i := 0; i < count; i++ {
		r := V7Record{
			SrcAddr: net.ParseIP("172.16.0.1"), DstAddr: net.ParseIP("172.16.0.2"), NextHop: net.ParseIP("172.16.0.254"),
			Input: 3, Output: 4, DPkts: 20, DOctets: 3000, First: 200, Last: 1800,
			Flags: 0x01, TCPFlags: 0x18, Prot: 17, Tos: 0,
			SrcAS: 0, DstAS: 0, SrcMask: 16, DstMask: 16,
			Flags2: 0, RouterSc: net.ParseIP("172.16.0.253"),
		}
		out = r.encodeTo(out)
	}
	return out
}

func TestDecodeV7PacketRoundTrip(t *testing.T) {
	raw := buildV7Packet(t, 2)
	c := newCursor(raw)
	pkt, err := decodeV7Packet(c)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkt.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(pkt.Records))
	}
	if pkt.Records[0].Prot != 17 {
		t.Fatalf("unexpected protocol: %d", pkt.Records[0].Prot)
	}
	if pkt.Records[0].RouterSc.String() != "172.16.0.253" {
		t.Fatalf("unexpected router_sc: %v", pkt.Records[0].RouterSc)
	}

	out := pkt.ToBytes()
	if !bytes.Equal(out, raw) {
		t.Fatalf("round trip mismatch:\n got  % x\n want % x", out, raw)
	}
}

func TestDecodeV7PacketTruncatedHeaderIsIncomplete(t *testing.T) {
	raw := buildV7Packet(t, 1)[:10]
	c := newCursor(raw)
	_, err := decodeV7Packet(c)
	if err == nil {
		t.Fatal("expected error")
	}
	var de *DecodeError
	if de, _ = err.(*DecodeError); de == nil || de.Kind != KindIncomplete {
		t.Fatalf("expected KindIncomplete, got %v", err)
	}
}
