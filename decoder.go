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
	"time"
)

// Decoder holds the template state and configuration needed to turn raw
// packet bytes from potentially many exporters into decoded Packets. A
// single Decoder is safe for concurrent use; its templateStore is scoped
// per exporter internally (§5).
//
// v9 has no total_length header field, so a chained buffer's packet
// boundaries can only be inferred from header.Count, the expected total
// of records (data + options data + templates) across all of the
// packet's flowsets. Count is treated strictly as a soft upper bound
// (§4.4 step 2): a Count of zero means "unknown," in which case Decoder
// falls back to consuming the rest of the buffer as a single packet.
type Decoder struct {
	opts        DecoderOptions
	store       TemplateCache
	singleScope bool
}

// NewDecoder builds a Decoder, merging opts left-to-right over the package
// defaults (see DecoderOptions.Merge). The default TemplateCache is an
// in-process LRU; pass WithTemplateCache to swap in a distributed backend
// such as cache/etcd. The returned Decoder is the scoped front-end (§4.5):
// it derives each packet's scope key from the source address plus the
// header's source_id (v9) or observation_domain_id (IPFIX), so two
// exporters that happen to reuse the same template id never collide.
func NewDecoder(opts ...DecoderOptions) *Decoder {
	var merged DecoderOptions
	merged.Merge(opts...)
	return &Decoder{
		opts:  merged,
		store: newTemplateStore(merged),
	}
}

// NewSingleScopeDecoder builds the simpler non-scoping front-end (§4.5:
// "a simpler non-scoping front-end is also offered for single-exporter
// use"). Every packet is decoded against one shared template scope
// regardless of source address or header scoping fields, so it must
// only be used where the caller already knows there is a single
// exporter; feeding it packets from two different exporters that reuse
// the same template id produces a collision rather than isolation (§8
// property 4, scenario E7).
func NewSingleScopeDecoder(opts ...DecoderOptions) *Decoder {
	d := NewDecoder(opts...)
	d.singleScope = true
	return d
}

// scopeFor returns the fixed single scope when the Decoder was built by
// NewSingleScopeDecoder, otherwise the scope computed by deriveScope from
// the packet's own source address and header fields.
func (d *Decoder) scopeFor(deriveScope func() ScopeKey) ScopeKey {
	if d.singleScope {
		return singleScopeKey
	}
	return deriveScope()
}

// WithTemplateCache replaces the Decoder's template storage backend, e.g.
// with a cache/etcd.TemplateCache shared across collector replicas.
func (d *Decoder) WithTemplateCache(c TemplateCache) *Decoder {
	d.store = c
	return d
}

// Parse decodes the first packet in data. source identifies the exporter
// and is required to scope v9/IPFIX template lookups; it is ignored for
// v5/v7, which carry no templates. Use ParseAll or Iter to decode every
// packet chained in a buffer (§4.4 step 4).
func (d *Decoder) Parse(data []byte, source netip.Addr) (Packet, error) {
	pkt, _, err := d.parseOne(data, source)
	return pkt, err
}

// ParseResult is the outcome of ParseAll: every packet decoded from the
// buffer before either the buffer was exhausted or an error was hit. Err
// is the error that stopped decoding, if any; packets decoded before it
// are never discarded (§6 "parse(buffer) -> ParseResult { packets,
// error? }").
type ParseResult struct {
	Packets []Packet
	Err     error
}

// ParseAll decodes every packet chained back-to-back in data (§4.4 step 4:
// "if bytes remain in the buffer they are treated as another packet"; §8
// property 2). It stops at the first error, returning the packets decoded
// so far alongside it.
func (d *Decoder) ParseAll(data []byte, source netip.Addr) ParseResult {
	var result ParseResult
	it := d.Iter(data, source)
	for {
		pkt, err, ok := it.Next()
		if !ok {
			break
		}
		if err != nil {
			result.Err = err
			break
		}
		result.Packets = append(result.Packets, pkt)
	}
	return result
}

// PacketIterator lazily decodes the packets chained back-to-back in a
// single buffer, one at a time, so a caller can stop consuming at any
// packet boundary without paying to decode the rest (§6 "iter(buffer) ->
// iterator of Result<Packet, Error>").
type PacketIterator struct {
	d      *Decoder
	source netip.Addr
	data   []byte
	pos    int
}

// Iter returns a lazy, per-packet iterator over every packet chained in
// data. Unlike ParseAll, the caller decides how many packets to consume.
func (d *Decoder) Iter(data []byte, source netip.Addr) *PacketIterator {
	return &PacketIterator{d: d, source: source, data: data}
}

// Next decodes the packet starting at the iterator's current position.
// ok is false once the buffer is exhausted. When err is non-nil the
// packet at this position failed to decode; since a header failure
// leaves the remaining length untrustworthy, the iterator then advances
// to the end of the buffer rather than guessing at the next packet's
// start (§7 propagation policy: "the iterator advances to the end of the
// buffer if the header length cannot be trusted").
func (it *PacketIterator) Next() (pkt Packet, err error, ok bool) {
	if it.pos >= len(it.data) {
		return Packet{}, nil, false
	}
	pkt, consumed, err := it.d.parseOne(it.data[it.pos:], it.source)
	if err != nil || consumed <= 0 {
		it.pos = len(it.data)
		return pkt, err, true
	}
	it.pos += consumed
	return pkt, nil, true
}

// Remaining reports how many bytes of the buffer Next has not yet
// consumed (§6 "exposes remaining()").
func (it *PacketIterator) Remaining() int {
	return len(it.data) - it.pos
}

// IsComplete reports whether Next has consumed the entire buffer (§6
// "and is_complete()"; §8 property 2).
func (it *PacketIterator) IsComplete() bool {
	return it.Remaining() == 0
}

// parseOne decodes exactly one packet starting at the beginning of data
// and reports how many bytes it consumed, so Iter can resume at the next
// packet boundary.
func (d *Decoder) parseOne(data []byte, source netip.Addr) (Packet, int, error) {
	start := now()
	c := newCursor(data)
	if err := c.need(2, "packet version"); err != nil {
		return Packet{}, 0, err
	}
	versionField := uint16(data[0])<<8 | uint16(data[1])
	version := Version(versionField)

	if !d.opts.allows(version) {
		ErrorsTotal.WithLabelValues(string(KindUnsupportedVersion)).Inc()
		return Packet{}, 0, unsupportedVersionErr(versionField, 0, data, d.opts.MaxErrorSampleSize)
	}

	var pkt Packet
	var err error
	switch version {
	case V5:
		var v5 *V5Packet
		v5, err = decodeV5Packet(c)
		pkt = Packet{Version: V5, V5: v5}
	case V7:
		var v7 *V7Packet
		v7, err = decodeV7Packet(c)
		pkt = Packet{Version: V7, V7: v7}
	case V9:
		var v9 *V9Packet
		v9, err = d.decodeV9Packet(c, source)
		pkt = Packet{Version: V9, V9: v9}
	case IPFIX:
		var ip *IPFIXPacket
		ip, err = d.decodeIPFIXPacket(c, source)
		pkt = Packet{Version: IPFIX, IPFIX: ip}
	default:
		ErrorsTotal.WithLabelValues(string(KindUnsupportedVersion)).Inc()
		return Packet{}, 0, unsupportedVersionErr(versionField, 0, data, d.opts.MaxErrorSampleSize)
	}

	PacketsTotal.WithLabelValues(version.String()).Inc()
	DurationMicroseconds.Observe(float64(now().Sub(start)) / float64(time.Microsecond))
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			ErrorsTotal.WithLabelValues(string(de.Kind)).Inc()
		} else {
			ErrorsTotal.WithLabelValues(string(KindParseError)).Inc()
		}
		return pkt, c.offset(), err
	}
	return pkt, c.offset(), nil
}

func (d *Decoder) decodeV9Packet(c *cursor, source netip.Addr) (*V9Packet, error) {
	h, err := decodeV9Header(c)
	if err != nil {
		return nil, err
	}
	scope := d.scopeFor(func() ScopeKey { return NewV9Scope(source, h.SourceID) })
	p := &V9Packet{Header: h}

	// header.Count is the soft upper bound on total records (data +
	// options data + templates) in this packet (§4.4 step 2); it is the
	// only way to find this packet's boundary within a buffer holding
	// several chained v9 packets, since v9 carries no total_length
	// field. Count==0 is treated as "unknown" and falls back to
	// consuming the rest of the buffer, matching single-packet usage.
	recordsSeen := 0
	for c.remaining() >= flowSetHeaderSize {
		if h.Count > 0 && recordsSeen >= int(h.Count) {
			break
		}
		if isPadding(c.rest()) {
			break
		}
		fsh, err := decodeFlowSetHeader(c)
		if err != nil {
			return p, err
		}
		if fsh.Length < flowSetHeaderSize {
			return p, parseErr(c.offset(), "v9 flowset", nil, c.rest(), d.opts.MaxErrorSampleSize)
		}
		body, err := c.bytes(int(fsh.Length)-flowSetHeaderSize, "v9 flowset body")
		if err != nil {
			return p, err
		}
		fs, err := d.decodeFlowSet(body, V9, scope, fsh.SetID, setIDV9Template, setIDV9OptionsTemplate)
		if err != nil {
			return p, err
		}
		recordsSeen += len(fs.Templates) + len(fs.Withdrawals) + len(fs.Records)
		p.FlowSets = append(p.FlowSets, fs)
	}
	return p, nil
}

func (d *Decoder) decodeIPFIXPacket(c *cursor, source netip.Addr) (*IPFIXPacket, error) {
	h, err := decodeIPFIXHeader(c)
	if err != nil {
		return nil, err
	}
	scope := d.scopeFor(func() ScopeKey { return NewIPFIXScope(source, h.ObservationDomainID) })
	p := &IPFIXPacket{Header: h}

	remainingBudget := int(h.Length) - ipfixHeaderSize
	for remainingBudget >= flowSetHeaderSize && c.remaining() >= flowSetHeaderSize {
		fsh, err := decodeFlowSetHeader(c)
		if err != nil {
			return p, err
		}
		if fsh.Length < flowSetHeaderSize {
			return p, parseErr(c.offset(), "ipfix flowset", nil, c.rest(), d.opts.MaxErrorSampleSize)
		}
		body, err := c.bytes(int(fsh.Length)-flowSetHeaderSize, "ipfix flowset body")
		if err != nil {
			return p, err
		}
		remainingBudget -= int(fsh.Length)
		fs, err := d.decodeFlowSet(body, IPFIX, scope, fsh.SetID, setIDIPFIXTemplate, setIDIPFIXOptions)
		if err != nil {
			return p, err
		}
		p.FlowSets = append(p.FlowSets, fs)
	}
	return p, nil
}

func (d *Decoder) decodeFlowSet(body []byte, version Version, scope ScopeKey, setID, templateSetID, optionsSetID uint16) (FlowSet, error) {
	switch {
	case setID == templateSetID:
		return d.decodeTemplateFlowSet(body, version, scope, setID, TemplateData, FlowSetTemplate)
	case setID == optionsSetID:
		return d.decodeTemplateFlowSet(body, version, scope, setID, TemplateOptions, FlowSetOptionsTemplate)
	case setID >= setIDMinData:
		return d.decodeDataFlowSet(body, version, scope, setID)
	default:
		// Unknown/reserved set id (below 256 and not this version's
		// template ids above): skip silently, matching the tolerant
		// posture taken for unknown field types.
		return FlowSet{Kind: FlowSetData, SetID: setID}, nil
	}
}

func (d *Decoder) decodeTemplateFlowSet(body []byte, version Version, scope ScopeKey, setID uint16, kind TemplateKind, fsKind FlowSetKind) (FlowSet, error) {
	parsed, err := parseTemplateFlowSet(body, version, kind, d.opts.MaxFieldCount, d.opts.MaxTemplateTotalSize)
	if err != nil {
		return FlowSet{}, err
	}
	for i := range parsed.Templates {
		t := &parsed.Templates[i]
		// Re-checked defensively: parseTemplateFlowSet already validated
		// the invariants above, and store.Put does not validate on its
		// own, so the check is repeated right before this path caches
		// the template.
		if err := t.validate(); err != nil {
			return FlowSet{}, parseErr(0, "template", err, body, 0)
		}
		for j := range t.Fields {
			t.Fields[j].DataType = lookupFieldType(version, t.Fields[j].FieldType, t.Fields[j].EnterpriseNumber)
		}
		d.store.Put(scope, t.ID, *t)
	}
	for _, w := range parsed.Withdrawals {
		d.store.Delete(scope, w.ID)
	}
	return FlowSet{Kind: fsKind, SetID: setID, Templates: parsed.Templates, Withdrawals: parsed.Withdrawals}, nil
}

func (d *Decoder) decodeDataFlowSet(body []byte, version Version, scope ScopeKey, setID uint16) (FlowSet, error) {
	tmpl, ok := d.store.Get(scope, setID)
	if !ok {
		d.opts.emit(TemplateEventInfo{Event: EventMissingTemplate, Scope: scope, TemplateID: setID})
		return FlowSet{}, missingTemplateErr(setID, d.store.IDs(scope), body, version)
	}
	c := newCursor(body)
	fs := FlowSet{Kind: FlowSetData, SetID: setID, TemplateID: setID}
	for c.remaining() > 0 {
		if isPadding(c.rest()) && c.remaining() < minRecordSize(tmpl) {
			// Preserve the trailing zero-padding bytes verbatim so
			// ToBytes can re-emit them rather than recompute minimal
			// alignment (§4.6 round-trip requirement).
			fs.Padding = append([]byte{}, c.rest()...)
			break
		}
		rec, _, err := decodeDataRecord(c, tmpl, d.opts.MaxFieldCount)
		if err != nil {
			break
		}
		fs.Records = append(fs.Records, rec)
		DecodedRecords.WithLabelValues(version.String()).Inc()
	}
	DecodedFlowSets.WithLabelValues("data").Inc()
	return fs, nil
}

// minRecordSize is the smallest number of bytes a record of tmpl could
// possibly occupy (every variable-length field at its 1-byte-prefix
// minimum), used to distinguish trailing zero padding from a genuinely
// truncated final record.
func minRecordSize(tmpl Template) int {
	total := 0
	for _, f := range tmpl.Fields {
		if f.variableLength() {
			total++
		} else {
			total += int(f.FieldLength)
		}
	}
	if total == 0 {
		return 1
	}
	return total
}
