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

// RecordField pairs a decoded value with the descriptor that produced it.
type RecordField struct {
	FieldDescriptor
	Value FieldValue
}

// Record is a single decoded data record: an ordered list of fields. Order
// is preserved exactly as declared by the template. Templates that repeat a
// (field type, enterprise) pair are rejected when learned, so a decoded
// Record holds each field once; for a Record that does repeat one, Get
// returns the first occurrence and GetAll every one.
type Record struct {
	Fields []RecordField
}

// Get returns the first field matching fieldType/enterprise, if present.
func (r Record) Get(fieldType uint16, enterprise uint32) (FieldValue, bool) {
	for _, f := range r.Fields {
		if f.FieldType == fieldType && f.EnterpriseNumber == enterprise {
			return f.Value, true
		}
	}
	return FieldValue{}, false
}

// GetAll returns every field matching fieldType/enterprise, in declaration
// order.
func (r Record) GetAll(fieldType uint16, enterprise uint32) []FieldValue {
	var out []FieldValue
	for _, f := range r.Fields {
		if f.FieldType == fieldType && f.EnterpriseNumber == enterprise {
			out = append(out, f.Value)
		}
	}
	return out
}

// decodeDataRecord reads one record's worth of fields according to tmpl out
// of c. maxFieldCount bounds len(tmpl.Fields) defensively even though the
// template itself was already validated at template-parse time, since a
// template learned under a looser limit could outlive a config change.
func decodeDataRecord(c *cursor, tmpl Template, maxFieldCount int) (Record, int, error) {
	if len(tmpl.Fields) > maxFieldCount {
		return Record{}, 0, partialErr(c.offset(), "data record exceeds max_field_count")
	}
	rec := Record{Fields: make([]RecordField, 0, len(tmpl.Fields))}
	consumed := 0
	for _, fd := range tmpl.Fields {
		width := fd.FieldLength
		if fd.variableLength() {
			prefixStart := c.offset()
			l, err := c.varlenPrefix("variable-length field prefix")
			if err != nil {
				return Record{}, 0, err
			}
			width = l
			consumed += c.offset() - prefixStart
		}
		raw, err := c.bytes(int(width), "data record field")
		if err != nil {
			return Record{}, 0, err
		}
		consumed += int(width)
		rec.Fields = append(rec.Fields, RecordField{
			FieldDescriptor: fd,
			Value:           decodeFieldValue(fd.DataType, width, raw),
		})
	}
	return rec, consumed, nil
}

// encodeDataRecord writes rec back out in its own field order, regenerating
// variable-length prefixes from each value's actual encoded length so that
// edits to a Record (not just pristine re-serialization) still produce a
// well-formed wire record.
func encodeDataRecord(rec Record) ([]byte, error) {
	var out []byte
	for _, f := range rec.Fields {
		if f.variableLength() {
			enc, err := encodeFieldValueBytes(f.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, varlenPrefixBytes(len(enc))...)
			out = append(out, enc...)
			continue
		}
		enc, err := encodeFieldValueBytes(f.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

func varlenPrefixBytes(n int) []byte {
	if n < 0xFF {
		return []byte{byte(n)}
	}
	return []byte{0xFF, byte(n >> 8), byte(n)}
}
