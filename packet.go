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

// FlowSetKind classifies a decoded v9/IPFIX flowset.
type FlowSetKind uint8

const (
	FlowSetTemplate FlowSetKind = iota
	FlowSetOptionsTemplate
	FlowSetData
)

// FlowSet is one decoded v9 or IPFIX set: either a batch of template
// definitions/withdrawals, or a batch of data records referencing a
// previously learned template.
type FlowSet struct {
	Kind        FlowSetKind
	SetID       uint16
	Templates   []Template
	Withdrawals []templateWithdrawal
	TemplateID  uint16
	Records     []Record

	// Padding holds the original trailing padding bytes of a data
	// flowset as captured during parsing, so ToBytes can reproduce them
	// verbatim instead of recomputing minimal 4-byte alignment (§4.6).
	// Nil for flowsets assembled by hand rather than parsed.
	Padding []byte
}

// V9Packet is a fully decoded NetFlow v9 packet.
type V9Packet struct {
	Header   V9Header
	FlowSets []FlowSet
}

// IPFIXPacket is a fully decoded IPFIX message.
type IPFIXPacket struct {
	Header   IPFIXHeader
	FlowSets []FlowSet
}

// Packet is the top-level decode result: a tagged sum over every protocol
// version this package understands (§9 Design Notes — "top-level Packet
// sum type"). Exactly one of the version-specific fields is non-nil,
// matching Version.
type Packet struct {
	Version Version

	V5    *V5Packet
	V7    *V7Packet
	V9    *V9Packet
	IPFIX *IPFIXPacket
}

// AllRecords flattens every data record across every flowset/packet shape
// into one slice, in wire order, regardless of protocol version.
func (p Packet) AllRecords() []Record {
	switch p.Version {
	case V5:
		if p.V5 == nil {
			return nil
		}
		return p.V5.Records
	case V7:
		if p.V7 == nil {
			return nil
		}
		return p.V7.Records
	case V9:
		if p.V9 == nil {
			return nil
		}
		return flattenFlowSetRecords(p.V9.FlowSets)
	case IPFIX:
		if p.IPFIX == nil {
			return nil
		}
		return flattenFlowSetRecords(p.IPFIX.FlowSets)
	default:
		return nil
	}
}

func flattenFlowSetRecords(sets []FlowSet) []Record {
	var out []Record
	for _, s := range sets {
		if s.Kind == FlowSetData {
			out = append(out, s.Records...)
		}
	}
	return out
}
