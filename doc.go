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

/*
Package netflow decodes Cisco-style flow telemetry datagrams: NetFlow v5,
v7, v9 and IPFIX (v10).

# Overview

A single buffer handed to ParseAll or Iter may contain any number of
chained packets of any supported version; Parse decodes just the first.
v5 and v7 are fixed-layout, stateless codecs. v9 and IPFIX are
template-based: data flowsets carry no intrinsic schema, so a Decoder must
remember previously observed templates, scoped per exporter, to interpret
them.

# Template scoping

Template identifiers are only unique within an exporter's observation
domain (IPFIX) or source ID (v9). Decoder, built with NewDecoder, is the
scoped front-end: it keys template state by (source address, domain/source
id) so that two exporters reusing the same template id never corrupt each
other's state. NewSingleScopeDecoder builds the simpler non-scoping
front-end for single-exporter use, where every buffer is decoded against
one shared scope and the caller accepts the risk of template id collisions
across what would otherwise be distinct exporters.

# Hostile input

Field counts, variable-length field sizes, and template sizes are all
bounds-checked against configurable ceilings before anything is cached, so
that template flooding or oversized descriptors cannot exhaust memory.
Malformed input yields a DecodeError rather than a panic.

# Re-serialization

A packet obtained from Parse can be handed to ToBytes to reproduce its
input bytes, including the captured padding of data flowsets. Template
flowsets are re-padded to the next 4-byte boundary, so one the exporter
left unaligned or padded past that boundary does not come back byte for
byte, and a set with an unrecognised set ID is re-emitted without its
contents. Packets assembled by hand get padding computed automatically
to the next 4-byte boundary.
*/
package netflow
