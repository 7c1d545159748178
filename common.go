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

import "time"

// FieldRef names a (field type, enterprise number) pair to pull out of a
// Record, independent of which template declared it.
type FieldRef struct {
	FieldType  uint16
	Enterprise uint32
}

// FieldMapping names one normalized key in a CommonView and the ordered
// candidates that satisfy it: the Primary reference is tried first, then
// each Fallback in order, so the same logical value (e.g. "bytes") can be
// pulled from octetDeltaCount on one exporter and postOctetDeltaCount on
// another without the caller special-casing either.
type FieldMapping struct {
	Name      string
	Primary   FieldRef
	Fallbacks []FieldRef
}

// DefaultCommonViewMapping is the standard projection used by Project,
// covering the fields common to essentially every v9/IPFIX exporter.
func DefaultCommonViewMapping() []FieldMapping {
	return []FieldMapping{
		{Name: "src_addr", Primary: FieldRef{FieldType: 8}, Fallbacks: []FieldRef{{FieldType: 27}}},
		{Name: "dst_addr", Primary: FieldRef{FieldType: 12}, Fallbacks: []FieldRef{{FieldType: 28}}},
		{Name: "src_port", Primary: FieldRef{FieldType: 7}},
		{Name: "dst_port", Primary: FieldRef{FieldType: 11}},
		{Name: "protocol", Primary: FieldRef{FieldType: 4}},
		{Name: "packets", Primary: FieldRef{FieldType: 2}, Fallbacks: []FieldRef{{FieldType: 24}}},
		{Name: "bytes", Primary: FieldRef{FieldType: 1}, Fallbacks: []FieldRef{{FieldType: 23}}},
		{Name: "tos", Primary: FieldRef{FieldType: 5}},
		{Name: "input_interface", Primary: FieldRef{FieldType: 10}},
		{Name: "output_interface", Primary: FieldRef{FieldType: 14}},
		{Name: "start", Primary: FieldRef{FieldType: 150}, Fallbacks: []FieldRef{{FieldType: 152}, {FieldType: 154}, {FieldType: 156}, {FieldType: 22}}},
		{Name: "end", Primary: FieldRef{FieldType: 151}, Fallbacks: []FieldRef{{FieldType: 153}, {FieldType: 155}, {FieldType: 157}, {FieldType: 21}}},
	}
}

// CommonView is a normalized, exporter-agnostic view over a single record's
// fields (§9 "common-view projector"), built by applying a []FieldMapping.
type CommonView struct {
	Values map[string]FieldValue
}

// Get returns the projected value for name, if the mapping resolved one.
func (v CommonView) Get(name string) (FieldValue, bool) {
	fv, ok := v.Values[name]
	return fv, ok
}

// Project flattens rec's fields into a CommonView according to mapping,
// trying each mapping's Primary reference and then its Fallbacks in order
// until one is present in the record.
func Project(rec Record, mapping []FieldMapping) CommonView {
	view := CommonView{Values: make(map[string]FieldValue, len(mapping))}
	for _, m := range mapping {
		if fv, ok := rec.Get(m.Primary.FieldType, m.Primary.Enterprise); ok {
			view.Values[m.Name] = fv
			continue
		}
		for _, fb := range m.Fallbacks {
			if fv, ok := rec.Get(fb.FieldType, fb.Enterprise); ok {
				view.Values[m.Name] = fv
				break
			}
		}
	}
	return view
}

// ProjectV5Record builds the equivalent CommonView directly from a fixed
// v5 record's named fields, so callers of a mixed v5/v9/IPFIX stream can
// treat every packet uniformly.
func ProjectV5Record(r V5Record, uptimeRef time.Time, sysUptimeMillis uint32) CommonView {
	view := CommonView{Values: make(map[string]FieldValue, 10)}
	view.Values["src_addr"] = FieldValue{Kind: TypeIPv4, IP: r.SrcAddr}
	view.Values["dst_addr"] = FieldValue{Kind: TypeIPv4, IP: r.DstAddr}
	view.Values["src_port"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.SrcPort)}
	view.Values["dst_port"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.DstPort)}
	view.Values["protocol"] = FieldValue{Kind: TypeProtocol, Uint: uint64(r.Prot)}
	view.Values["packets"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.DPkts)}
	view.Values["bytes"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.DOctets)}
	view.Values["tos"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.Tos)}
	view.Values["input_interface"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.Input)}
	view.Values["output_interface"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.Output)}
	view.Values["start"] = FieldValue{Kind: TypeTimestampMicros, Time: sysUptimeToTime(uptimeRef, sysUptimeMillis, r.First)}
	view.Values["end"] = FieldValue{Kind: TypeTimestampMicros, Time: sysUptimeToTime(uptimeRef, sysUptimeMillis, r.Last)}
	return view
}

// ProjectV7Record is the v7 analogue of ProjectV5Record.
func ProjectV7Record(r V7Record, uptimeRef time.Time, sysUptimeMillis uint32) CommonView {
	view := CommonView{Values: make(map[string]FieldValue, 10)}
	view.Values["src_addr"] = FieldValue{Kind: TypeIPv4, IP: r.SrcAddr}
	view.Values["dst_addr"] = FieldValue{Kind: TypeIPv4, IP: r.DstAddr}
	view.Values["src_port"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.SrcPort)}
	view.Values["dst_port"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.DstPort)}
	view.Values["protocol"] = FieldValue{Kind: TypeProtocol, Uint: uint64(r.Prot)}
	view.Values["packets"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.DPkts)}
	view.Values["bytes"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.DOctets)}
	view.Values["tos"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.Tos)}
	view.Values["input_interface"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.Input)}
	view.Values["output_interface"] = FieldValue{Kind: TypeUnsigned, Uint: uint64(r.Output)}
	view.Values["start"] = FieldValue{Kind: TypeTimestampMicros, Time: sysUptimeToTime(uptimeRef, sysUptimeMillis, r.First)}
	view.Values["end"] = FieldValue{Kind: TypeTimestampMicros, Time: sysUptimeToTime(uptimeRef, sysUptimeMillis, r.Last)}
	return view
}

// sysUptimeToTime converts a v5/v7 First/Last sysUptime millisecond offset
// to an absolute time, given the packet's own uptimeRef wall-clock capture
// and its SysUptime field (the exporter's uptime at export time).
func sysUptimeToTime(uptimeRef time.Time, sysUptimeMillis, offsetMillis uint32) time.Time {
	deltaMillis := int64(sysUptimeMillis) - int64(offsetMillis)
	return uptimeRef.Add(-time.Duration(deltaMillis) * time.Millisecond)
}
