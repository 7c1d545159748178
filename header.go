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

// V9Header is the 20-byte NetFlow v9 packet header.
type V9Header struct {
	Version        uint16
	Count          uint16
	SysUpTime      uint32
	UnixSecs       uint32
	SequenceNumber uint32
	SourceID       uint32
}

const v9HeaderSize = 20

func decodeV9Header(c *cursor) (V9Header, error) {
	if err := c.need(v9HeaderSize, "v9 header"); err != nil {
		return V9Header{}, err
	}
	var h V9Header
	h.Version, _ = c.uint16("v9 header version")
	h.Count, _ = c.uint16("v9 header count")
	h.SysUpTime, _ = c.uint32("v9 header sys uptime")
	h.UnixSecs, _ = c.uint32("v9 header unix secs")
	h.SequenceNumber, _ = c.uint32("v9 header sequence number")
	h.SourceID, _ = c.uint32("v9 header source id")
	return h, nil
}

func (h V9Header) encodeTo(buf []byte) []byte {
	b := make([]byte, v9HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.Version)
	binary.BigEndian.PutUint16(b[2:4], h.Count)
	binary.BigEndian.PutUint32(b[4:8], h.SysUpTime)
	binary.BigEndian.PutUint32(b[8:12], h.UnixSecs)
	binary.BigEndian.PutUint32(b[12:16], h.SequenceNumber)
	binary.BigEndian.PutUint32(b[16:20], h.SourceID)
	return append(buf, b...)
}

// IPFIXHeader is the 16-byte IPFIX message header (RFC 7011 §3.1).
type IPFIXHeader struct {
	Version             uint16
	Length              uint16
	ExportTime          uint32
	SequenceNumber      uint32
	ObservationDomainID uint32
}

const ipfixHeaderSize = 16

func decodeIPFIXHeader(c *cursor) (IPFIXHeader, error) {
	if err := c.need(ipfixHeaderSize, "ipfix header"); err != nil {
		return IPFIXHeader{}, err
	}
	var h IPFIXHeader
	h.Version, _ = c.uint16("ipfix header version")
	h.Length, _ = c.uint16("ipfix header length")
	h.ExportTime, _ = c.uint32("ipfix header export time")
	h.SequenceNumber, _ = c.uint32("ipfix header sequence number")
	h.ObservationDomainID, _ = c.uint32("ipfix header observation domain id")
	return h, nil
}

func (h IPFIXHeader) encodeTo(buf []byte) []byte {
	b := make([]byte, ipfixHeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.Version)
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	binary.BigEndian.PutUint32(b[4:8], h.ExportTime)
	binary.BigEndian.PutUint32(b[8:12], h.SequenceNumber)
	binary.BigEndian.PutUint32(b[12:16], h.ObservationDomainID)
	return append(buf, b...)
}

// flowSetHeader is the common 4-byte header shared by every v9/IPFIX
// flowset: a Set ID (distinguishing template/options-template/data sets)
// and the total length of the set including this header.
type flowSetHeader struct {
	SetID  uint16
	Length uint16
}

const flowSetHeaderSize = 4

func decodeFlowSetHeader(c *cursor) (flowSetHeader, error) {
	if err := c.need(flowSetHeaderSize, "flowset header"); err != nil {
		return flowSetHeader{}, err
	}
	var h flowSetHeader
	h.SetID, _ = c.uint16("flowset set id")
	h.Length, _ = c.uint16("flowset length")
	return h, nil
}

func (h flowSetHeader) encodeTo(buf []byte) []byte {
	b := make([]byte, flowSetHeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.SetID)
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	return append(buf, b...)
}

// Well-known Set ID values (RFC 7011 §3.3.2 for IPFIX; RFC 3954 §8 for v9).
const (
	setIDV9Template        = 0
	setIDV9OptionsTemplate = 1
	setIDIPFIXTemplate     = 2
	setIDIPFIXOptions      = 3
	setIDMinData           = 256
)
