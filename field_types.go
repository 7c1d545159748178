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

// fieldKey identifies a (field type, enterprise number) pair within the
// static registry. Enterprise 0 is the IANA/standard information element
// space shared by v9 and IPFIX.
type fieldKey struct {
	fieldType  uint16
	enterprise uint32
}

// standardFieldTypes is a static mapping from IANA information element
// number to its decode type, covering the common subset exercised by both
// NetFlow v9 and IPFIX exporters. It intentionally does not attempt to be
// a complete IANA IPFIX registry mirror; fields absent from this table
// decode as TypeRaw, which is always safe.
var standardFieldTypes = map[uint16]FieldDataType{
	1:   TypeUnsigned, // octetDeltaCount
	2:   TypeUnsigned, // packetDeltaCount
	4:   TypeProtocol, // protocolIdentifier
	5:   TypeUnsigned, // ipClassOfService
	6:   TypeUnsigned, // tcpControlBits
	7:   TypeUnsigned, // sourceTransportPort
	8:   TypeIPv4,     // sourceIPv4Address
	9:   TypeUnsigned, // sourceIPv4PrefixLength
	10:  TypeUnsigned, // ingressInterface
	11:  TypeUnsigned, // destinationTransportPort
	12:  TypeIPv4,     // destinationIPv4Address
	13:  TypeUnsigned, // destinationIPv4PrefixLength
	14:  TypeUnsigned, // egressInterface
	15:  TypeIPv4,     // ipNextHopIPv4Address
	16:  TypeUnsigned, // bgpSourceAsNumber
	17:  TypeUnsigned, // bgpDestinationAsNumber
	18:  TypeIPv4,     // bgpNextHopIPv4Address
	19:  TypeUnsigned, // postMCastPacketDeltaCount
	20:  TypeUnsigned, // postMCastOctetDeltaCount
	21:  TypeDurationMillis, // flowEndSysUpTime
	22:  TypeDurationMillis, // flowStartSysUpTime
	23:  TypeUnsigned, // postOctetDeltaCount
	24:  TypeUnsigned, // postPacketDeltaCount
	25:  TypeUnsigned, // minimumIpTotalLength
	26:  TypeUnsigned, // maximumIpTotalLength
	27:  TypeIPv6,     // sourceIPv6Address
	28:  TypeIPv6,     // destinationIPv6Address
	29:  TypeUnsigned, // sourceIPv6PrefixLength
	30:  TypeUnsigned, // destinationIPv6PrefixLength
	31:  TypeUnsigned, // flowLabelIPv6
	32:  TypeUnsigned, // icmpTypeCodeIPv4
	33:  TypeUnsigned, // igmpType
	36:  TypeUnsigned, // flowActiveTimeout
	37:  TypeUnsigned, // flowIdleTimeout
	40:  TypeUnsigned, // exportedOctetTotalCount
	41:  TypeUnsigned, // exportedMessageTotalCount
	42:  TypeUnsigned, // exportedFlowRecordTotalCount
	44:  TypeIPv4,     // sourceIPv4Prefix
	45:  TypeIPv4,     // destinationIPv4Prefix
	46:  TypeUnsigned, // mplsTopLabelType
	52:  TypeUnsigned, // minimumTTL
	53:  TypeUnsigned, // maximumTTL
	54:  TypeUnsigned, // fragmentIdentification
	55:  TypeUnsigned, // postIpClassOfService
	56:  TypeMAC,      // sourceMacAddress
	57:  TypeMAC,      // postDestinationMacAddress
	58:  TypeUnsigned, // vlanId
	59:  TypeUnsigned, // postVlanId
	60:  TypeUnsigned, // ipVersion
	61:  TypeSigned,   // flowDirection
	62:  TypeIPv6,     // ipNextHopIPv6Address
	63:  TypeIPv6,     // bgpNextHopIPv6Address
	70:  TypeRaw,      // mplsTopLabelStackSection
	80:  TypeMAC,      // destinationMacAddress
	81:  TypeMAC,      // postSourceMacAddress
	82:  TypeString,   // interfaceName
	83:  TypeString,   // interfaceDescription
	88:  TypeUnsigned, // fragmentOffset
	95:  TypeApplicationID, // applicationId
	128: TypeUnsigned, // bgpNextAdjacentAsNumber
	129: TypeUnsigned, // bgpPrevAdjacentAsNumber
	130: TypeIPv4,     // exporterIPv4Address
	131: TypeIPv6,     // exporterIPv6Address
	136: TypeUnsigned, // flowEndReason
	137: TypeUnsigned, // commonPropertiesId
	139: TypeUnsigned, // icmpTypeIPv4
	150: TypeUnsigned, // flowStartSeconds
	151: TypeUnsigned, // flowEndSeconds
	152: TypeDurationMillis, // flowStartMilliseconds
	153: TypeDurationMillis, // flowEndMilliseconds
	154: TypeTimestampMicros, // flowStartMicroseconds
	155: TypeTimestampMicros, // flowEndMicroseconds
	156: TypeTimestampNanos,  // flowStartNanoseconds
	157: TypeTimestampNanos,  // flowEndNanoseconds
	160: TypeDurationMillis, // systemInitTimeMilliseconds
	178: TypeSigned,   // icmpTypeIPv6
	179: TypeSigned,   // icmpCodeIPv6
	182: TypeUnsigned, // tcpSequenceNumber
	184: TypeUnsigned, // tcpAcknowledgementNumber
	185: TypeUnsigned, // tcpWindowSize
	186: TypeUnsigned, // udpSourcePort
	187: TypeUnsigned, // udpDestinationPort
	210: TypeRaw,      // paddingOctets
	225: TypeIPv4,     // postNATSourceIPv4Address
	226: TypeIPv4,     // postNATDestinationIPv4Address
	227: TypeUnsigned, // postNAPTSourceTransportPort
	228: TypeUnsigned, // postNAPTDestinationTransportPort
	233: TypeUnsigned, // natEvent
	234: TypeUnsigned, // initiatorPackets
	235: TypeUnsigned, // responderPackets
	236: TypeString,   // observationDomainName
}

// Well-known enterprise (PEN) numbers with a built-in static field table
// (§4.2). NAT-related fields are carried in the Cisco table: Cisco ASA's
// NSEL NAT extension fields are exported under Cisco's own PEN rather
// than a separate one.
const (
	enterpriseCisco      = 9
	enterpriseNetScaler  = 5951
	enterpriseYAF        = 6871
	enterpriseVMware     = 6876
	enterpriseReversePEN = 29305
)

// ciscoFieldTypes covers a representative subset of Cisco ASA NSEL fields
// (NAT translation and firewall event IEs), not a complete mirror of
// Cisco's registered IE space.
var ciscoFieldTypes = map[uint16]FieldDataType{
	40001: TypeIPv4,     // NF_F_XLATE_SRC_ADDR_IPV4
	40002: TypeIPv4,     // NF_F_XLATE_DST_ADDR_IPV4
	40003: TypeUnsigned, // NF_F_XLATE_SRC_PORT
	40004: TypeUnsigned, // NF_F_XLATE_DST_PORT
	40005: TypeUnsigned, // NF_F_FW_EVENT
	40006: TypeUnsigned, // NF_F_FW_EXT_EVENT
}

// netScalerFieldTypes covers a representative subset of Citrix NetScaler
// AppFlow fields.
var netScalerFieldTypes = map[uint16]FieldDataType{
	130: TypeUnsigned, // tcpRtt
	140: TypeString,   // httpReqUrl
	141: TypeString,   // httpReqMethod
	144: TypeUnsigned, // httpRspStatus
}

// yafFieldTypes covers a representative subset of CERT YAF's exported IEs.
var yafFieldTypes = map[uint16]FieldDataType{
	35: TypeUnsigned, // silkAppLabel
	36: TypeRaw,      // payload
	38: TypeRaw,      // firstPacketBanner
}

// vmwareFieldTypes covers a representative subset of VMware's exported
// vSphere/NSX flow IEs.
var vmwareFieldTypes = map[uint16]FieldDataType{
	1:  TypeString, // virtualObsID
	2:  TypeString, // vmUUID
	70: TypeRaw,    // mplsTopLabelStackSection analog used by some NSX exports
}

// reverseFieldTypes mirrors standardFieldTypes under RFC 5103's reverse
// information element PEN: a reverse IE shares its forward IE's field
// number and data type, just tagged with enterprise=reversePEN instead of
// a forward-direction bit.
var reverseFieldTypes = standardFieldTypes

var vendorFieldTypes = map[uint32]map[uint16]FieldDataType{
	enterpriseCisco:      ciscoFieldTypes,
	enterpriseNetScaler:  netScalerFieldTypes,
	enterpriseYAF:        yafFieldTypes,
	enterpriseVMware:     vmwareFieldTypes,
	enterpriseReversePEN: reverseFieldTypes,
}

// lookupFieldType resolves the decode type for a field. enterprise==0 always
// consults the standard table regardless of version (IPFIX and v9 share the
// IANA IE space). enterprise!=0 first consults the built-in vendor tables
// for the handful of enterprise numbers this package knows statically
// (§4.2), then falls back to the mutable, caller-populated enterprise
// registry. Unknown combinations resolve to TypeRaw, never an error:
// hostile or forward-versioned exporters must still decode (§4.2, §9).
func lookupFieldType(version Version, fieldType uint16, enterprise uint32) FieldDataType {
	if enterprise != 0 {
		if vendor, ok := vendorFieldTypes[enterprise]; ok {
			if dt, ok := vendor[fieldType]; ok {
				return dt
			}
		}
		if dt, ok := lookupEnterpriseFieldType(enterprise, fieldType); ok {
			return dt
		}
		return TypeRaw
	}
	if dt, ok := standardFieldTypes[fieldType]; ok {
		return dt
	}
	return TypeRaw
}
