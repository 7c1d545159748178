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

import "fmt"

// enterpriseBit marks an IPFIX field type as vendor-scoped, carrying a
// trailing 4-byte enterprise number (RFC 7011 §3.2).
const enterpriseBit = 0x8000

// templateWithdrawal is returned by parseTemplateFlowSet to signal that a
// record announced zero fields, i.e. a template withdrawal (RFC 7011
// §8.1) rather than a definition.
type templateWithdrawal struct {
	ID   uint16
	Kind TemplateKind
}

// parsedTemplates holds the outcome of decoding one template or options
// template flowset: zero or more learned templates and zero or more
// withdrawals, since a withdrawal (field count 0) may be interleaved with
// real definitions in the same set.
type parsedTemplates struct {
	Templates   []Template
	Withdrawals []templateWithdrawal
}

// parseTemplateFlowSet decodes every template record packed into a
// template/options-template flowset body (the body excludes the 4-byte
// flowset header; trailing zero padding is detected and skipped here).
func parseTemplateFlowSet(body []byte, version Version, kind TemplateKind, maxFieldCount, maxTemplateTotalSize int) (parsedTemplates, error) {
	c := newCursor(body)
	var out parsedTemplates
	for c.remaining() >= 4 {
		if isPadding(c.rest()) {
			break
		}
		id, err := c.uint16("template id")
		if err != nil {
			return out, err
		}
		if kind == TemplateOptions && version.IsTemplateBased() && version == V9 {
			t, withdrawn, err := decodeV9OptionsTemplateBody(c, id, maxFieldCount, maxTemplateTotalSize)
			if err != nil {
				return out, err
			}
			if withdrawn {
				out.Withdrawals = append(out.Withdrawals, templateWithdrawal{ID: id, Kind: kind})
			} else {
				out.Templates = append(out.Templates, t)
			}
			continue
		}
		if kind == TemplateOptions {
			t, withdrawn, err := decodeIPFIXOptionsTemplateBody(c, id, maxFieldCount, maxTemplateTotalSize)
			if err != nil {
				return out, err
			}
			if withdrawn {
				out.Withdrawals = append(out.Withdrawals, templateWithdrawal{ID: id, Kind: kind})
			} else {
				out.Templates = append(out.Templates, t)
			}
			continue
		}
		t, withdrawn, err := decodeDataTemplateBody(c, id, maxFieldCount, maxTemplateTotalSize)
		if err != nil {
			return out, err
		}
		if withdrawn {
			out.Withdrawals = append(out.Withdrawals, templateWithdrawal{ID: id, Kind: kind})
		} else {
			out.Templates = append(out.Templates, t)
		}
	}
	return out, nil
}

// isPadding reports whether the remaining bytes are too short to contain
// another template record header, or are all zero (flowset padding to a
// 4-byte boundary, RFC 7011 §3.3.2).
func isPadding(b []byte) bool {
	if len(b) < 4 {
		return true
	}
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func decodeFieldSpecifier(c *cursor) (FieldDescriptor, error) {
	ft, err := c.uint16("field type")
	if err != nil {
		return FieldDescriptor{}, err
	}
	fl, err := c.uint16("field length")
	if err != nil {
		return FieldDescriptor{}, err
	}
	var enterprise uint32
	fieldType := ft
	if ft&enterpriseBit != 0 {
		fieldType = ft &^ enterpriseBit
		enterprise, err = c.uint32("field enterprise number")
		if err != nil {
			return FieldDescriptor{}, err
		}
	}
	return FieldDescriptor{FieldType: fieldType, FieldLength: fl, EnterpriseNumber: enterprise}, nil
}

func decodeDataTemplateBody(c *cursor, id uint16, maxFieldCount, maxTemplateTotalSize int) (Template, bool, error) {
	count, err := c.uint16("template field count")
	if err != nil {
		return Template{}, false, err
	}
	if count == 0 {
		return Template{}, true, nil
	}
	if int(count) > maxFieldCount {
		return Template{}, false, parseErr(c.offset(), "template field count exceeds max_field_count", fmt.Errorf("count=%d max=%d", count, maxFieldCount), nil, 0)
	}
	fields := make([]FieldDescriptor, 0, count)
	for i := 0; i < int(count); i++ {
		fd, err := decodeFieldSpecifier(c)
		if err != nil {
			return Template{}, false, err
		}
		fields = append(fields, fd)
	}
	t := Template{ID: id, Kind: TemplateData, Fields: fields}
	if err := t.validate(); err != nil {
		return Template{}, false, parseErr(c.offset(), "template", err, nil, 0)
	}
	if t.totalDeclaredSize() > maxTemplateTotalSize {
		return Template{}, false, parseErr(c.offset(), "template total size exceeds max_template_total_size", fmt.Errorf("size=%d max=%d", t.totalDeclaredSize(), maxTemplateTotalSize), nil, 0)
	}
	return t, false, nil
}

// decodeIPFIXOptionsTemplateBody reads an IPFIX options template record:
// TemplateID already consumed by the caller, then FieldCount(2),
// ScopeFieldCount(2), then FieldCount field specifiers of which the first
// ScopeFieldCount are scope fields (RFC 7011 §3.4.2.2).
func decodeIPFIXOptionsTemplateBody(c *cursor, id uint16, maxFieldCount, maxTemplateTotalSize int) (Template, bool, error) {
	count, err := c.uint16("options template field count")
	if err != nil {
		return Template{}, false, err
	}
	if count == 0 {
		return Template{}, true, nil
	}
	scopeCount, err := c.uint16("options template scope field count")
	if err != nil {
		return Template{}, false, err
	}
	if int(count) > maxFieldCount {
		return Template{}, false, parseErr(c.offset(), "options template field count exceeds max_field_count", fmt.Errorf("count=%d max=%d", count, maxFieldCount), nil, 0)
	}
	if scopeCount > count {
		return Template{}, false, parseErr(c.offset(), "options template scope field count exceeds field count", fmt.Errorf("scope=%d count=%d", scopeCount, count), nil, 0)
	}
	fields := make([]FieldDescriptor, 0, count)
	for i := 0; i < int(count); i++ {
		fd, err := decodeFieldSpecifier(c)
		if err != nil {
			return Template{}, false, err
		}
		fields = append(fields, fd)
	}
	t := Template{ID: id, Kind: TemplateOptions, Fields: fields, ScopeFieldCount: int(scopeCount)}
	if err := t.validate(); err != nil {
		return Template{}, false, parseErr(c.offset(), "options template", err, nil, 0)
	}
	if t.totalDeclaredSize() > maxTemplateTotalSize {
		return Template{}, false, parseErr(c.offset(), "options template total size exceeds max_template_total_size", fmt.Errorf("size=%d max=%d", t.totalDeclaredSize(), maxTemplateTotalSize), nil, 0)
	}
	return t, false, nil
}

// decodeV9OptionsTemplateBody reads a NetFlow v9 options template record:
// TemplateID already consumed, then OptionScopeLength(2), OptionLength(2)
// in bytes (not field counts), each a run of (FieldType,FieldLength) pairs
// with no enterprise-number extension (RFC 3954 §8).
func decodeV9OptionsTemplateBody(c *cursor, id uint16, maxFieldCount, maxTemplateTotalSize int) (Template, bool, error) {
	scopeLen, err := c.uint16("v9 options scope length")
	if err != nil {
		return Template{}, false, err
	}
	optLen, err := c.uint16("v9 options length")
	if err != nil {
		return Template{}, false, err
	}
	if scopeLen == 0 && optLen == 0 {
		return Template{}, true, nil
	}
	if scopeLen%4 != 0 || optLen%4 != 0 {
		return Template{}, false, parseErr(c.offset(), "v9 options template length not a multiple of 4", fmt.Errorf("scope_len=%d opt_len=%d", scopeLen, optLen), nil, 0)
	}
	scopeFieldCount := int(scopeLen / 4)
	optFieldCount := int(optLen / 4)
	total := scopeFieldCount + optFieldCount
	if total > maxFieldCount {
		return Template{}, false, parseErr(c.offset(), "v9 options template field count exceeds max_field_count", fmt.Errorf("count=%d max=%d", total, maxFieldCount), nil, 0)
	}
	fields := make([]FieldDescriptor, 0, total)
	for i := 0; i < total; i++ {
		ft, err := c.uint16("v9 options field type")
		if err != nil {
			return Template{}, false, err
		}
		fl, err := c.uint16("v9 options field length")
		if err != nil {
			return Template{}, false, err
		}
		fields = append(fields, FieldDescriptor{FieldType: ft, FieldLength: fl})
	}
	t := Template{ID: id, Kind: TemplateOptions, Fields: fields, ScopeFieldCount: scopeFieldCount}
	if err := t.validate(); err != nil {
		return Template{}, false, parseErr(c.offset(), "v9 options template", err, nil, 0)
	}
	if t.totalDeclaredSize() > maxTemplateTotalSize {
		return Template{}, false, parseErr(c.offset(), "v9 options template total size exceeds max_template_total_size", fmt.Errorf("size=%d max=%d", t.totalDeclaredSize(), maxTemplateTotalSize), nil, 0)
	}
	return t, false, nil
}
