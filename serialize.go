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

import "encoding/binary"

// ToBytes re-serializes a decoded Packet: the same header and flowset
// ordering, and for each parsed data flowset the trailing zero padding it
// was captured with (§9). Template flowsets, and the flowsets of packets
// assembled by a caller rather than round-tripped from Parse, are padded
// so they end on a 4-byte boundary; a set with an unrecognised set ID is
// written back without its contents.
func (p Packet) ToBytes() []byte {
	switch p.Version {
	case V5:
		if p.V5 == nil {
			return nil
		}
		return p.V5.ToBytes()
	case V7:
		if p.V7 == nil {
			return nil
		}
		return p.V7.ToBytes()
	case V9:
		if p.V9 == nil {
			return nil
		}
		return p.V9.ToBytes()
	case IPFIX:
		if p.IPFIX == nil {
			return nil
		}
		return p.IPFIX.ToBytes()
	default:
		return nil
	}
}

func (p V9Packet) ToBytes() []byte {
	var body []byte
	for _, fs := range p.FlowSets {
		body = append(body, encodeFlowSet(fs, V9, setIDV9Template, setIDV9OptionsTemplate)...)
	}
	h := p.Header
	out := h.encodeTo(nil)
	return append(out, body...)
}

func (p IPFIXPacket) ToBytes() []byte {
	var body []byte
	for _, fs := range p.FlowSets {
		body = append(body, encodeFlowSet(fs, IPFIX, setIDIPFIXTemplate, setIDIPFIXOptions)...)
	}
	h := p.Header
	h.Length = uint16(ipfixHeaderSize + len(body))
	out := h.encodeTo(nil)
	return append(out, body...)
}

func encodeFlowSet(fs FlowSet, version Version, templateSetID, optionsSetID uint16) []byte {
	var body []byte
	switch fs.Kind {
	case FlowSetTemplate, FlowSetOptionsTemplate:
		for _, t := range fs.Templates {
			body = append(body, encodeTemplateRecord(t, version)...)
		}
		for _, w := range fs.Withdrawals {
			body = append(body, encodeWithdrawal(w, version)...)
		}
	case FlowSetData:
		for _, rec := range fs.Records {
			enc, err := encodeDataRecord(rec)
			if err != nil {
				continue
			}
			body = append(body, enc...)
		}
	}
	// A data flowset captured from a real parse carries its original
	// wire padding (§4.6): re-emit it verbatim rather than recomputing
	// the minimal 4-byte alignment, since an exporter may have padded
	// further than strictly required. Synthesized flowsets (Padding
	// unset) still get automatic 4-byte alignment.
	var padded []byte
	if fs.Kind == FlowSetData && fs.Padding != nil {
		padded = append(append([]byte{}, body...), fs.Padding...)
	} else {
		padded = padTo4(body)
	}
	fsh := flowSetHeader{SetID: fs.SetID, Length: uint16(flowSetHeaderSize + len(padded))}
	return append(fsh.encodeTo(nil), padded...)
}

// padTo4 appends zero bytes so len(out)%4==0, matching the flowset padding
// convention both protocols require (§9 "automatic 4-byte flowset padding
// computation").
func padTo4(b []byte) []byte {
	rem := (flowSetHeaderSize + len(b)) % 4
	if rem == 0 {
		return b
	}
	return append(b, make([]byte, 4-rem)...)
}

func encodeFieldSpecifier(fd FieldDescriptor) []byte {
	ft := fd.FieldType
	if fd.EnterpriseNumber != 0 {
		ft |= enterpriseBit
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], ft)
	binary.BigEndian.PutUint16(b[2:4], fd.FieldLength)
	if fd.EnterpriseNumber != 0 {
		eb := make([]byte, 4)
		binary.BigEndian.PutUint32(eb, fd.EnterpriseNumber)
		b = append(b, eb...)
	}
	return b
}

func encodeTemplateRecord(t Template, version Version) []byte {
	idb := make([]byte, 2)
	binary.BigEndian.PutUint16(idb, t.ID)

	if t.Kind == TemplateOptions && version == V9 {
		scopeFields := t.Fields[:t.ScopeFieldCount]
		optFields := t.Fields[t.ScopeFieldCount:]
		out := append([]byte{}, idb...)
		scopeLenB := make([]byte, 2)
		binary.BigEndian.PutUint16(scopeLenB, uint16(len(scopeFields)*4))
		optLenB := make([]byte, 2)
		binary.BigEndian.PutUint16(optLenB, uint16(len(optFields)*4))
		out = append(out, scopeLenB...)
		out = append(out, optLenB...)
		for _, f := range t.Fields {
			fb := make([]byte, 4)
			binary.BigEndian.PutUint16(fb[0:2], f.FieldType)
			binary.BigEndian.PutUint16(fb[2:4], f.FieldLength)
			out = append(out, fb...)
		}
		return out
	}

	out := append([]byte{}, idb...)
	countB := make([]byte, 2)
	binary.BigEndian.PutUint16(countB, uint16(len(t.Fields)))
	out = append(out, countB...)
	if t.Kind == TemplateOptions {
		scopeB := make([]byte, 2)
		binary.BigEndian.PutUint16(scopeB, uint16(t.ScopeFieldCount))
		out = append(out, scopeB...)
	}
	for _, f := range t.Fields {
		out = append(out, encodeFieldSpecifier(f)...)
	}
	return out
}

func encodeWithdrawal(w templateWithdrawal, version Version) []byte {
	idb := make([]byte, 2)
	binary.BigEndian.PutUint16(idb, w.ID)
	if w.Kind == TemplateOptions && version == V9 {
		return append(idb, 0, 0, 0, 0)
	}
	return append(idb, 0, 0)
}
