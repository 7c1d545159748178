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
	"encoding/binary"
	"net"
)

// V5Header is the fixed 24-byte NetFlow v5 packet header.
type V5Header struct {
	Version          uint16
	Count            uint16
	SysUptime        uint32
	UnixSecs         uint32
	UnixNsecs        uint32
	FlowSequence     uint32
	EngineType       uint8
	EngineID         uint8
	SamplingInterval uint16
}

const (
	v5HeaderSize = 24
	v5RecordSize = 48
)

// V5Record is a single fixed-layout v5 flow record (RFC, informally
// specified; no template is involved, every exporter emits this exact
// 48-byte shape).
type V5Record struct {
	SrcAddr   net.IP
	DstAddr   net.IP
	NextHop   net.IP
	Input     uint16
	Output    uint16
	DPkts     uint32
	DOctets   uint32
	First     uint32
	Last      uint32
	SrcPort   uint16
	DstPort   uint16
	TCPFlags  uint8
	Prot      uint8
	Tos       uint8
	SrcAS     uint16
	DstAS     uint16
	SrcMask   uint8
	DstMask   uint8
}

// V5Packet is a fully decoded NetFlow v5 packet: fixed header, fixed
// records, no template tracking (§2 Non-goals carve v5/v7 templating out,
// but the fixed codecs themselves are in scope, §9).
type V5Packet struct {
	Header  V5Header
	Records []V5Record
}

func decodeV5Header(c *cursor) (V5Header, error) {
	if err := c.need(v5HeaderSize, "v5 header"); err != nil {
		return V5Header{}, err
	}
	var h V5Header
	h.Version, _ = c.uint16("v5 header version")
	h.Count, _ = c.uint16("v5 header count")
	h.SysUptime, _ = c.uint32("v5 header sys uptime")
	h.UnixSecs, _ = c.uint32("v5 header unix secs")
	h.UnixNsecs, _ = c.uint32("v5 header unix nsecs")
	h.FlowSequence, _ = c.uint32("v5 header flow sequence")
	h.EngineType, _ = c.uint8("v5 header engine type")
	h.EngineID, _ = c.uint8("v5 header engine id")
	h.SamplingInterval, _ = c.uint16("v5 header sampling interval")
	return h, nil
}

func decodeV5Record(c *cursor) (V5Record, error) {
	if err := c.need(v5RecordSize, "v5 record"); err != nil {
		return V5Record{}, err
	}
	var r V5Record
	r.SrcAddr, _ = c.ipv4("v5 record src addr")
	r.DstAddr, _ = c.ipv4("v5 record dst addr")
	r.NextHop, _ = c.ipv4("v5 record next hop")
	r.Input, _ = c.uint16("v5 record input")
	r.Output, _ = c.uint16("v5 record output")
	r.DPkts, _ = c.uint32("v5 record dPkts")
	r.DOctets, _ = c.uint32("v5 record dOctets")
	r.First, _ = c.uint32("v5 record first")
	r.Last, _ = c.uint32("v5 record last")
	r.SrcPort, _ = c.uint16("v5 record src port")
	r.DstPort, _ = c.uint16("v5 record dst port")
	_, _ = c.uint8("v5 record pad1")
	r.TCPFlags, _ = c.uint8("v5 record tcp flags")
	r.Prot, _ = c.uint8("v5 record prot")
	r.Tos, _ = c.uint8("v5 record tos")
	r.SrcAS, _ = c.uint16("v5 record src as")
	r.DstAS, _ = c.uint16("v5 record dst as")
	r.SrcMask, _ = c.uint8("v5 record src mask")
	r.DstMask, _ = c.uint8("v5 record dst mask")
	_, _ = c.bytes(2, "v5 record pad2")
	return r, nil
}

func decodeV5Packet(c *cursor) (*V5Packet, error) {
	h, err := decodeV5Header(c)
	if err != nil {
		return nil, err
	}
	p := &V5Packet{Header: h, Records: make([]V5Record, 0, h.Count)}
	for i := 0; i < int(h.Count); i++ {
		r, err := decodeV5Record(c)
		if err != nil {
			return p, err
		}
		p.Records = append(p.Records, r)
	}
	return p, nil
}

func (h V5Header) encodeTo(buf []byte) []byte {
	b := make([]byte, v5HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.Version)
	binary.BigEndian.PutUint16(b[2:4], h.Count)
	binary.BigEndian.PutUint32(b[4:8], h.SysUptime)
	binary.BigEndian.PutUint32(b[8:12], h.UnixSecs)
	binary.BigEndian.PutUint32(b[12:16], h.UnixNsecs)
	binary.BigEndian.PutUint32(b[16:20], h.FlowSequence)
	b[20] = h.EngineType
	b[21] = h.EngineID
	binary.BigEndian.PutUint16(b[22:24], h.SamplingInterval)
	return append(buf, b...)
}

func (r V5Record) encodeTo(buf []byte) []byte {
	b := make([]byte, v5RecordSize)
	copy(b[0:4], r.SrcAddr.To4())
	copy(b[4:8], r.DstAddr.To4())
	copy(b[8:12], r.NextHop.To4())
	binary.BigEndian.PutUint16(b[12:14], r.Input)
	binary.BigEndian.PutUint16(b[14:16], r.Output)
	binary.BigEndian.PutUint32(b[16:20], r.DPkts)
	binary.BigEndian.PutUint32(b[20:24], r.DOctets)
	binary.BigEndian.PutUint32(b[24:28], r.First)
	binary.BigEndian.PutUint32(b[28:32], r.Last)
	binary.BigEndian.PutUint16(b[32:34], r.SrcPort)
	binary.BigEndian.PutUint16(b[34:36], r.DstPort)
	b[36] = 0
	b[37] = r.TCPFlags
	b[38] = r.Prot
	b[39] = r.Tos
	binary.BigEndian.PutUint16(b[40:42], r.SrcAS)
	binary.BigEndian.PutUint16(b[42:44], r.DstAS)
	b[44] = r.SrcMask
	b[45] = r.DstMask
	return append(buf, b...)
}

// ToBytes re-serializes the packet to its exact wire form.
func (p V5Packet) ToBytes() []byte {
	out := p.Header.encodeTo(nil)
	for _, r := range p.Records {
		out = r.encodeTo(out)
	}
	return out
}
