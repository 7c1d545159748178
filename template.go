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
	"fmt"
	"time"
)

// FieldDescriptor is one entry of a template: which information element,
// how wide it is declared to be on the wire, and (for IPFIX) which vendor
// it belongs to. DataType is resolved once, when the template is learned
// (§4.2), so repeated data records never repeat the registry lookup.
type FieldDescriptor struct {
	FieldType        uint16        `json:"field_type"`
	FieldLength      uint16        `json:"field_length"`
	EnterpriseNumber uint32        `json:"enterprise_number,omitempty"`
	DataType         FieldDataType `json:"data_type"`
}

// variableLength reports whether this field is IPFIX variable-length
// encoded on the wire (RFC 7011 §7: declared length 0xFFFF).
func (f FieldDescriptor) variableLength() bool {
	return f.FieldLength == 0xFFFF
}

// TemplateKind distinguishes data templates from options templates. Both
// kinds share one cache bucket and one template ID namespace per scope.
type TemplateKind uint8

const (
	TemplateData TemplateKind = iota
	TemplateOptions
)

// Template is a learned record layout: an ordered list of fields, for data
// templates, or scope/option field splits, for options templates.
type Template struct {
	ID     uint16            `json:"id"`
	Kind   TemplateKind      `json:"kind"`
	Fields []FieldDescriptor `json:"fields"`

	// ScopeFieldCount is the number of leading Fields that are IPFIX/v9
	// options scope fields, only meaningful when Kind == TemplateOptions.
	ScopeFieldCount int `json:"scope_field_count,omitempty"`

	learnedAt  time.Time
	lastUsedAt time.Time
}

// totalDeclaredSize sums declared field widths, treating a variable-length
// field as its minimum on-wire footprint (the 1-byte length prefix) for the
// purpose of the max_template_total_size guard (§6); actual per-record
// sizes are re-validated as each record is decoded.
func (t Template) totalDeclaredSize() int {
	total := 0
	for _, f := range t.Fields {
		if f.variableLength() {
			total++
		} else {
			total += int(f.FieldLength)
		}
	}
	return total
}

// sameShape reports whether two templates declare the same ordered field
// list, used to distinguish a refresh (identical re-announcement) from a
// collision (redefinition under the same template ID) per §5.3.
func (t Template) sameShape(other Template) bool {
	if len(t.Fields) != len(other.Fields) {
		return false
	}
	for i := range t.Fields {
		a, b := t.Fields[i], other.Fields[i]
		if a.FieldType != b.FieldType || a.FieldLength != b.FieldLength || a.EnterpriseNumber != b.EnterpriseNumber {
			return false
		}
	}
	return t.ScopeFieldCount == other.ScopeFieldCount
}

// minTemplateID is the lowest template/options-template identifier a
// conformant exporter may use; 0-255 are reserved for flowset set IDs
// (RFC 7011 §3.4.1, RFC 3954 §8).
const minTemplateID = 256

// validate checks the structural invariants that must hold before a
// template is cached (§3 "Upon insertion"): a legal ID, no duplicate
// field identifiers, and (for options templates) a scope field count
// that doesn't exceed the total field count. Field-count and
// total-size ceilings are checked by the caller, which has the
// configured limits on hand.
func (t Template) validate() error {
	if t.ID < minTemplateID {
		return fmt.Errorf("template id %d is below the reserved minimum %d", t.ID, minTemplateID)
	}
	if t.Kind == TemplateOptions && t.ScopeFieldCount > len(t.Fields) {
		return fmt.Errorf("scope field count %d exceeds field count %d", t.ScopeFieldCount, len(t.Fields))
	}
	seen := make(map[fieldKey]bool, len(t.Fields))
	for _, f := range t.Fields {
		key := fieldKey{fieldType: f.FieldType, enterprise: f.EnterpriseNumber}
		if seen[key] {
			return fmt.Errorf("duplicate field (enterprise=%d, type=%d)", f.EnterpriseNumber, f.FieldType)
		}
		seen[key] = true
	}
	return nil
}
