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

// Version identifies the wire version of a decoded packet header.
type Version uint16

const (
	V5    Version = 5
	V7    Version = 7
	V9    Version = 9
	IPFIX Version = 10
)

func (v Version) String() string {
	switch v {
	case V5:
		return "v5"
	case V7:
		return "v7"
	case V9:
		return "v9"
	case IPFIX:
		return "ipfix"
	default:
		return "unknown"
	}
}

// IsTemplateBased reports whether the version requires stateful template
// tracking to interpret data records (v9, IPFIX), as opposed to the fixed
// wire layouts of v5/v7.
func (v Version) IsTemplateBased() bool {
	return v == V9 || v == IPFIX
}

// defaultAllowedVersions is the set of versions accepted when
// DecoderOptions leaves AllowedVersions nil.
func defaultAllowedVersions() map[Version]bool {
	return map[Version]bool{
		V5:    true,
		V7:    true,
		V9:    true,
		IPFIX: true,
	}
}
