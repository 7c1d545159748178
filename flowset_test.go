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
	"testing"
)

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func TestParseTemplateFlowSetDataTemplate(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...) // template id
	body = append(body, u16(2)...)   // field count
	body = append(body, u16(8)...)   // ipv4 src addr
	body = append(body, u16(4)...)
	body = append(body, u16(2)...) // packets
	body = append(body, u16(4)...)

	parsed, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 10000, 65535)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(parsed.Templates))
	}
	tmpl := parsed.Templates[0]
	if tmpl.ID != 256 || len(tmpl.Fields) != 2 {
		t.Fatalf("unexpected template: %+v", tmpl)
	}
	if tmpl.Fields[0].FieldType != 8 || tmpl.Fields[0].FieldLength != 4 {
		t.Fatalf("unexpected field 0: %+v", tmpl.Fields[0])
	}
}

func TestParseTemplateFlowSetEnterpriseField(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(1)...)
	body = append(body, u16(uint16(12345)|enterpriseBit)...)
	body = append(body, u16(4)...)
	body = append(body, u32(29305)...) // enterprise number

	parsed, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 10000, 65535)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := parsed.Templates[0].Fields[0]
	if f.FieldType != 12345 {
		t.Fatalf("expected enterprise bit stripped, got field type %d", f.FieldType)
	}
	if f.EnterpriseNumber != 29305 {
		t.Fatalf("expected enterprise number 29305, got %d", f.EnterpriseNumber)
	}
}

func TestParseTemplateFlowSetWithdrawal(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(0)...) // field count 0 => withdrawal

	parsed, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 10000, 65535)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Templates) != 0 || len(parsed.Withdrawals) != 1 {
		t.Fatalf("expected a withdrawal, got %+v", parsed)
	}
	if parsed.Withdrawals[0].ID != 256 {
		t.Fatalf("unexpected withdrawal id: %d", parsed.Withdrawals[0].ID)
	}
}

func TestParseTemplateFlowSetExceedsMaxFieldCount(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(5)...) // claims 5 fields but max is 2

	_, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 2, 65535)
	if err == nil {
		t.Fatal("expected max_field_count violation to error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != KindParseError {
		t.Fatalf("expected KindParseError, got %v", err)
	}
}

func TestParseTemplateFlowSetExceedsMaxTemplateTotalSize(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(1)...)
	body = append(body, u16(1)...)
	body = append(body, u16(65534)...) // one field claiming a huge fixed width

	_, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 10000, 100)
	if err == nil {
		t.Fatal("expected max_template_total_size violation to error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != KindParseError {
		t.Fatalf("expected KindParseError, got %v", err)
	}
}

func TestParseIPFIXOptionsTemplateScopeExceedsFieldCount(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(1)...) // field count
	body = append(body, u16(2)...) // scope field count > field count
	body = append(body, u16(149)...)
	body = append(body, u16(4)...)

	_, err := parseTemplateFlowSet(body, IPFIX, TemplateOptions, 10000, 65535)
	if err == nil {
		t.Fatal("expected scope_field_count > field_count to error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != KindParseError {
		t.Fatalf("expected KindParseError, got %v", err)
	}
}

func TestParseTemplateFlowSetRejectsDuplicateFields(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(2)...) // field count
	body = append(body, u16(8)...) // field type 8 twice
	body = append(body, u16(4)...)
	body = append(body, u16(8)...)
	body = append(body, u16(4)...)

	_, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 10000, 65535)
	if err == nil {
		t.Fatal("expected duplicate field identifiers to error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != KindParseError {
		t.Fatalf("expected KindParseError, got %v", err)
	}
}

func TestParseTemplateFlowSetRejectsTemplateIDBelow256(t *testing.T) {
	var body []byte
	body = append(body, u16(5)...) // template id below the reserved minimum
	body = append(body, u16(1)...)
	body = append(body, u16(8)...)
	body = append(body, u16(4)...)

	_, err := parseTemplateFlowSet(body, IPFIX, TemplateData, 10000, 65535)
	if err == nil {
		t.Fatal("expected template id < 256 to error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != KindParseError {
		t.Fatalf("expected KindParseError, got %v", err)
	}
}

func TestParseIPFIXOptionsTemplateFlowSet(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(2)...) // field count
	body = append(body, u16(1)...) // scope field count
	body = append(body, u16(149)...) // observation point id (scope)
	body = append(body, u16(4)...)
	body = append(body, u16(40)...) // total bytes (option)
	body = append(body, u16(8)...)

	parsed, err := parseTemplateFlowSet(body, IPFIX, TemplateOptions, 10000, 65535)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tmpl := parsed.Templates[0]
	if tmpl.Kind != TemplateOptions || tmpl.ScopeFieldCount != 1 || len(tmpl.Fields) != 2 {
		t.Fatalf("unexpected options template: %+v", tmpl)
	}
}

func TestParseV9OptionsTemplateFlowSet(t *testing.T) {
	var body []byte
	body = append(body, u16(256)...)
	body = append(body, u16(4)...) // scope length bytes (1 field)
	body = append(body, u16(4)...) // option length bytes (1 field)
	body = append(body, u16(1)...) // scope: system
	body = append(body, u16(4)...)
	body = append(body, u16(40)...) // option: total bytes
	body = append(body, u16(4)...)

	parsed, err := parseTemplateFlowSet(body, V9, TemplateOptions, 10000, 65535)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tmpl := parsed.Templates[0]
	if tmpl.ScopeFieldCount != 1 || len(tmpl.Fields) != 2 {
		t.Fatalf("unexpected v9 options template: %+v", tmpl)
	}
}

func TestIsPaddingDetectsShortOrZeroedTail(t *testing.T) {
	if !isPadding([]byte{0, 0}) {
		t.Fatal("expected short tail to be padding")
	}
	if !isPadding([]byte{0, 0, 0, 0}) {
		t.Fatal("expected zeroed 4 bytes to be padding")
	}
	if isPadding([]byte{0, 1, 0, 0}) {
		t.Fatal("expected non-zero bytes to not be padding")
	}
}
