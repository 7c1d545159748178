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
	"net/netip"
	"testing"
)

func TestV9PacketRoundTripsThroughDecoder(t *testing.T) {
	d := NewDecoder()
	source := netip.MustParseAddr("198.51.100.1")

	raw := buildV9PacketBytes(t, true, nil)
	pkt, err := d.Parse(raw, source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := pkt.ToBytes()
	if !bytes.Equal(out, raw) {
		t.Fatalf("round trip mismatch:\n got  % x\n want % x", out, raw)
	}
}

func TestIPFIXPacketRecomputesLengthOnEncode(t *testing.T) {
	pkt := IPFIXPacket{
		Header: IPFIXHeader{Version: 10, Length: 0, ExportTime: 1700000000, SequenceNumber: 1, ObservationDomainID: 1},
		FlowSets: []FlowSet{
			{Kind: FlowSetTemplate, SetID: setIDIPFIXTemplate, Templates: []Template{sampleTemplate()}},
		},
	}
	out := pkt.ToBytes()
	if len(out) < ipfixHeaderSize {
		t.Fatalf("unexpectedly short output: %d bytes", len(out))
	}
	gotLength := uint16(out[2])<<8 | uint16(out[3])
	if int(gotLength) != len(out) {
		t.Fatalf("header length %d does not match actual encoded length %d", gotLength, len(out))
	}
}

func TestEncodeFlowSetPadsToFourByteBoundary(t *testing.T) {
	fs := FlowSet{Kind: FlowSetData, SetID: 256, Records: []Record{
		{Fields: []RecordField{
			{FieldDescriptor: FieldDescriptor{FieldType: 1, FieldLength: 1}, Value: FieldValue{Kind: TypeUnsigned, Width: 1, Uint: 7}},
		}},
	}}
	out := encodeFlowSet(fs, IPFIX, setIDIPFIXTemplate, setIDIPFIXOptions)
	if len(out)%4 != 0 {
		t.Fatalf("expected flowset length to be 4-byte aligned, got %d", len(out))
	}
}

func TestV9DataFlowSetPreservesCapturedPaddingBeyondMinimalAlignment(t *testing.T) {
	d := NewDecoder()
	source := netip.MustParseAddr("198.51.100.2")

	tmpl := Template{ID: 256, Kind: TemplateData, Fields: []FieldDescriptor{
		{FieldType: 1, FieldLength: 8},
	}}
	tmplPkt := V9Packet{Header: V9Header{Version: 9, Count: 1, SourceID: 9}, FlowSets: []FlowSet{
		{Kind: FlowSetTemplate, SetID: setIDV9Template, Templates: []Template{tmpl}},
	}}
	if _, err := d.Parse(tmplPkt.ToBytes(), source); err != nil {
		t.Fatalf("learn template: %v", err)
	}

	// Hand-assemble a data flowset with 7 trailing zero bytes after a
	// single 8-byte record: the record already ends on a 4-byte boundary,
	// so padTo4 would add nothing, and 7 bytes are fewer than one record,
	// so they are kept as padding. This exercises verbatim preservation
	// rather than recomputation.
	body := []byte{0, 0, 0, 0, 0, 0, 0, 42, 0, 0, 0, 0, 0, 0, 0}
	fsh := flowSetHeader{SetID: 256, Length: uint16(flowSetHeaderSize + len(body))}
	flowsetBytes := append(fsh.encodeTo(nil), body...)

	h := V9Header{Version: 9, Count: 1, SourceID: 9}
	raw := append(h.encodeTo(nil), flowsetBytes...)

	pkt, err := d.Parse(raw, source)
	if err != nil {
		t.Fatalf("parse data packet: %v", err)
	}
	out := pkt.ToBytes()
	if !bytes.Equal(out, raw) {
		t.Fatalf("expected verbatim padding round trip:\n got  % x\n want % x", out, raw)
	}
}

func TestRoundTripPreservesVariableLengthField(t *testing.T) {
	tmpl := Template{ID: 300, Kind: TemplateData, Fields: []FieldDescriptor{
		{FieldType: 82, FieldLength: 0xFFFF, DataType: TypeString}, // interfaceName, variable-length
	}}
	rec := Record{Fields: []RecordField{
		{FieldDescriptor: tmpl.Fields[0], Value: FieldValue{Kind: TypeString, Str: "eth0"}},
	}}
	encoded, err := encodeDataRecord(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// 1-byte length prefix (4) + "eth0"
	if len(encoded) != 5 || encoded[0] != 4 {
		t.Fatalf("unexpected encoding: % x", encoded)
	}

	c := newCursor(encoded)
	decoded, _, err := decodeDataRecord(c, tmpl, defaultMaxFieldCount)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fv, ok := decoded.Get(82, 0)
	if !ok || fv.Str != "eth0" {
		t.Fatalf("unexpected decoded value: %+v", fv)
	}
}
