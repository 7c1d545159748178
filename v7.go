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

// V7Header mirrors V5Header; NetFlow v7 (Catalyst switch export) reuses
// the v5 header layout verbatim.
type V7Header = V5Header

const (
	v7HeaderSize = v5HeaderSize
	v7RecordSize = 52
)

// V7Record is the fixed 52-byte v7 record: the v5 fields plus a flags byte
// (marking fields the switch could not compute) and a trailing router_sc
// shortcut-router address.
type V7Record struct {
	SrcAddr      net.IP
	DstAddr      net.IP
	NextHop      net.IP
	Input        uint16
	Output       uint16
	DPkts        uint32
	DOctets      uint32
	First        uint32
	Last         uint32
	SrcPort      uint16
	DstPort      uint16
	Flags        uint8
	TCPFlags     uint8
	Prot         uint8
	Tos          uint8
	SrcAS        uint16
	DstAS        uint16
	SrcMask      uint8
	DstMask      uint8
	Flags2       uint16
	RouterSc     net.IP
}

func decodeV7Header(c *cursor) (V7Header, error) {
	return decodeV5Header(c)
}

func decodeV7Record(c *cursor) (V7Record, error) {
	if err := c.need(v7RecordSize, "v7 record"); err != nil {
		return V7Record{}, err
	}
	var r V7Record
	r.SrcAddr, _ = c.ipv4("v7 record src addr")
	r.DstAddr, _ = c.ipv4("v7 record dst addr")
	r.NextHop, _ = c.ipv4("v7 record next hop")
	r.Input, _ = c.uint16("v7 record input")
	r.Output, _ = c.uint16("v7 record output")
	r.DPkts, _ = c.uint32("v7 record dPkts")
	r.DOctets, _ = c.uint32("v7 record dOctets")
	r.First, _ = c.uint32("v7 record first")
	r.Last, _ = c.uint32("v7 record last")
	r.SrcPort, _ = c.uint16("v7 record src port")
	r.DstPort, _ = c.uint16("v7 record dst port")
	r.Flags, _ = c.uint8("v7 record flags")
	r.TCPFlags, _ = c.uint8("v7 record tcp flags")
	r.Prot, _ = c.uint8("v7 record prot")
	r.Tos, _ = c.uint8("v7 record tos")
	r.SrcAS, _ = c.uint16("v7 record src as")
	r.DstAS, _ = c.uint16("v7 record dst as")
	r.SrcMask, _ = c.uint8("v7 record src mask")
	r.DstMask, _ = c.uint8("v7 record dst mask")
	r.Flags2, _ = c.uint16("v7 record flags2")
	r.RouterSc, _ = c.ipv4("v7 record router sc")
	return r, nil
}

// V7Packet is a fully decoded NetFlow v7 packet.
type V7Packet struct {
	Header  V7Header
	Records []V7Record
}

func decodeV7Packet(c *cursor) (*V7Packet, error) {
	h, err := decodeV7Header(c)
	if err != nil {
		return nil, err
	}
	p := &V7Packet{Header: h, Records: make([]V7Record, 0, h.Count)}
	for i := 0; i < int(h.Count); i++ {
		r, err := decodeV7Record(c)
		if err != nil {
			return p, err
		}
		p.Records = append(p.Records, r)
	}
	return p, nil
}

func (r V7Record) encodeTo(buf []byte) []byte {
	b := make([]byte, v7RecordSize)
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
	b[36] = r.Flags
	b[37] = r.TCPFlags
	b[38] = r.Prot
	b[39] = r.Tos
	binary.BigEndian.PutUint16(b[40:42], r.SrcAS)
	binary.BigEndian.PutUint16(b[42:44], r.DstAS)
	b[44] = r.SrcMask
	b[45] = r.DstMask
	binary.BigEndian.PutUint16(b[46:48], r.Flags2)
	routerSc := r.RouterSc.To4()
	if routerSc == nil {
		routerSc = make(net.IP, 4)
	}
	copy(b[48:52], routerSc)
	return append(buf, b...)
}

// ToBytes re-serializes the packet to its exact wire form.
func (p V7Packet) ToBytes() []byte {
	out := p.Header.encodeTo(nil)
	for _, r := range p.Records {
		out = r.encodeTo(out)
	}
	return out
}
