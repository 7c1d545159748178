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
	"errors"
	"fmt"
)

// ErrorKind tags the classes of failure a Decoder can surface, per the
// error model of the decoder design: Incomplete, UnsupportedVersion,
// MissingTemplate, ParseError, and Partial.
type ErrorKind string

const (
	KindIncomplete         ErrorKind = "incomplete"
	KindUnsupportedVersion ErrorKind = "unsupported_version"
	KindMissingTemplate    ErrorKind = "missing_template"
	KindParseError         ErrorKind = "parse_error"
	KindPartial            ErrorKind = "partial"
)

// sentinels for errors.Is matching, independent of the rich DecodeError payload.
var (
	ErrIncomplete         = errors.New("incomplete input")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrMissingTemplate    = errors.New("missing template")
	ErrParse              = errors.New("parse error")
	ErrPartial            = errors.New("partial input")
)

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindIncomplete:
		return ErrIncomplete
	case KindUnsupportedVersion:
		return ErrUnsupportedVersion
	case KindMissingTemplate:
		return ErrMissingTemplate
	case KindParseError:
		return ErrParse
	case KindPartial:
		return ErrPartial
	default:
		return ErrParse
	}
}

// DecodeError is the single tagged error type surfaced both synchronously
// from Parse and per-packet from Iter.
type DecodeError struct {
	Kind ErrorKind

	// Offset is the byte offset within the input buffer where the error
	// was detected.
	Offset int

	// Context is a short human-readable description of what was being
	// parsed (e.g. "template field", "v9 header").
	Context string

	// Needed is the number of additional bytes that would have been
	// required to proceed, set only for KindIncomplete.
	Needed int

	// Sample is a bounded copy of the bytes surrounding the error,
	// truncated to maxErrorSampleSize bytes.
	Sample []byte

	// TemplateID and CachedIDs and RawData and Protocol are set only for
	// KindMissingTemplate.
	TemplateID uint16
	CachedIDs  []uint16
	RawData    []byte
	Protocol   Version

	wrapped error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindIncomplete:
		return fmt.Sprintf("incomplete input at offset %d decoding %s: need %d more bytes", e.Offset, e.Context, e.Needed)
	case KindUnsupportedVersion:
		return fmt.Sprintf("unsupported version at offset %d: %v", e.Offset, e.Sample)
	case KindMissingTemplate:
		return fmt.Sprintf("missing template %d for %s data flowset (cached: %v)", e.TemplateID, e.Protocol, e.CachedIDs)
	case KindParseError:
		return fmt.Sprintf("parse error at offset %d decoding %s: %v", e.Offset, e.Context, e.wrapped)
	case KindPartial:
		return fmt.Sprintf("partial input at offset %d decoding %s", e.Offset, e.Context)
	default:
		return fmt.Sprintf("decode error: %s", e.Context)
	}
}

func (e *DecodeError) Unwrap() error {
	return sentinelFor(e.Kind)
}

func truncateSample(b []byte, max int) []byte {
	if max <= 0 {
		max = 256
	}
	if len(b) <= max {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	out := make([]byte, max)
	copy(out, b[:max])
	return out
}

func incompleteErr(offset, needed int, context string) *DecodeError {
	return &DecodeError{
		Kind:    KindIncomplete,
		Offset:  offset,
		Context: context,
		Needed:  needed,
	}
}

func unsupportedVersionErr(version uint16, offset int, sample []byte, maxSample int) *DecodeError {
	return &DecodeError{
		Kind:    KindUnsupportedVersion,
		Offset:  offset,
		Context: fmt.Sprintf("version %d", version),
		Sample:  truncateSample(sample, maxSample),
	}
}

func missingTemplateErr(templateID uint16, cachedIDs []uint16, raw []byte, protocol Version) *DecodeError {
	return &DecodeError{
		Kind:       KindMissingTemplate,
		TemplateID: templateID,
		CachedIDs:  cachedIDs,
		RawData:    raw,
		Protocol:   protocol,
	}
}

func parseErr(offset int, context string, cause error, sample []byte, maxSample int) *DecodeError {
	return &DecodeError{
		Kind:    KindParseError,
		Offset:  offset,
		Context: context,
		Sample:  truncateSample(sample, maxSample),
		wrapped: cause,
	}
}

func partialErr(offset int, context string) *DecodeError {
	return &DecodeError{
		Kind:    KindPartial,
		Offset:  offset,
		Context: context,
	}
}
