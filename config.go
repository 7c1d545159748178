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
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultCacheSize           = 4096
	defaultMaxFieldCount       = 10000
	defaultMaxTemplateTotalSize = 65535
	defaultMaxErrorSampleSize  = 256
)

// TemplateEvent identifies which lifecycle hook fired (§5.4).
type TemplateEvent string

const (
	EventLearned         TemplateEvent = "learned"
	EventCollision       TemplateEvent = "collision"
	EventEvicted         TemplateEvent = "evicted"
	EventExpired         TemplateEvent = "expired"
	EventMissingTemplate TemplateEvent = "missing_template"
)

// TemplateEventInfo is passed to an OnTemplateEvent hook. Hook invocation is
// synchronous with the decode that triggered it and must not block; callers
// that need to do I/O should hand the info off to a channel or goroutine.
type TemplateEventInfo struct {
	Event      TemplateEvent
	Scope      ScopeKey
	TemplateID uint16
}

// DecoderOptions configures a Decoder, whether built by NewDecoder or
// NewSingleScopeDecoder. The zero value is valid; unset fields are filled
// with their package defaults in Merge.
type DecoderOptions struct {
	// CacheSize bounds the number of templates retained per scope. Data
	// and options templates share one cache per scope, so together they
	// count against this single limit; there is no separate limit per
	// template kind. Eviction is least-recently-used.
	CacheSize int `yaml:"cache_size"`

	// MaxFieldCount bounds the number of fields accepted in a single
	// template record, guarding against pathological allocation (§6).
	MaxFieldCount int `yaml:"max_field_count"`

	// MaxTemplateTotalSize bounds the summed declared width of a
	// template's fields, in bytes. Default 65535 (§6).
	MaxTemplateTotalSize int `yaml:"max_template_total_size"`

	// MaxErrorSampleSize bounds the Sample slice attached to DecodeError.
	// Default 256 (§6).
	MaxErrorSampleSize int `yaml:"max_error_sample_size"`

	// TTL, if non-zero, causes cached templates to expire lazily after
	// this long without being refreshed or looked up.
	TTL time.Duration `yaml:"ttl"`

	// AllowedVersions restricts which protocol versions Parse/Iter will
	// accept; packets of any other version fail with KindUnsupportedVersion.
	// A nil map allows all of v5, v7, v9, IPFIX.
	AllowedVersions map[Version]bool `yaml:"-"`

	// EnterpriseFields seeds the process-wide enterprise field registry
	// (§4.2) on first use of these options.
	EnterpriseFields []EnterpriseFieldDef `yaml:"enterprise_fields"`

	// OnTemplateEvent, if set, is invoked synchronously on every template
	// lifecycle transition (§5.4). Must return quickly and must not call
	// back into the Decoder that invoked it.
	OnTemplateEvent func(TemplateEventInfo) `yaml:"-"`
}

// Merge applies each of opts to o in order: every non-zero field overrides
// the current value (so the last non-zero value wins) and EnterpriseFields
// accumulate. It then fills anything still unset with package defaults. Mirrors the variadic options-merging idiom used throughout this
// codebase's configuration surface.
func (o *DecoderOptions) Merge(opts ...DecoderOptions) {
	for _, next := range opts {
		if next.CacheSize != 0 {
			o.CacheSize = next.CacheSize
		}
		if next.MaxFieldCount != 0 {
			o.MaxFieldCount = next.MaxFieldCount
		}
		if next.MaxTemplateTotalSize != 0 {
			o.MaxTemplateTotalSize = next.MaxTemplateTotalSize
		}
		if next.MaxErrorSampleSize != 0 {
			o.MaxErrorSampleSize = next.MaxErrorSampleSize
		}
		if next.TTL != 0 {
			o.TTL = next.TTL
		}
		if next.AllowedVersions != nil {
			o.AllowedVersions = next.AllowedVersions
		}
		if len(next.EnterpriseFields) > 0 {
			o.EnterpriseFields = append(o.EnterpriseFields, next.EnterpriseFields...)
		}
		if next.OnTemplateEvent != nil {
			o.OnTemplateEvent = next.OnTemplateEvent
		}
	}
	if o.CacheSize == 0 {
		o.CacheSize = defaultCacheSize
	}
	if o.MaxFieldCount == 0 {
		o.MaxFieldCount = defaultMaxFieldCount
	}
	if o.MaxTemplateTotalSize == 0 {
		o.MaxTemplateTotalSize = defaultMaxTemplateTotalSize
	}
	if o.MaxErrorSampleSize == 0 {
		o.MaxErrorSampleSize = defaultMaxErrorSampleSize
	}
	if o.AllowedVersions == nil {
		o.AllowedVersions = defaultAllowedVersions()
	}
	if len(o.EnterpriseFields) > 0 {
		RegisterEnterpriseFieldDefs(o.EnterpriseFields)
	}
}

func (o DecoderOptions) allows(v Version) bool {
	if o.AllowedVersions == nil {
		return true
	}
	return o.AllowedVersions[v]
}

func (o DecoderOptions) emit(info TemplateEventInfo) {
	if o.OnTemplateEvent != nil {
		o.OnTemplateEvent(info)
	}
}

// Config is the top-level, file-loadable configuration shape (§6). It
// embeds the decode-time DecoderOptions fields that are expressible in
// YAML and is the shape LoadConfig/LoadConfigFile populate.
type Config struct {
	CacheSize            int                   `yaml:"cache_size"`
	MaxFieldCount        int                   `yaml:"max_field_count"`
	MaxTemplateTotalSize int                   `yaml:"max_template_total_size"`
	MaxErrorSampleSize   int                   `yaml:"max_error_sample_size"`
	TTL                  time.Duration         `yaml:"ttl"`
	EnterpriseFields     []EnterpriseFieldDef  `yaml:"enterprise_fields"`
}

// ToDecoderOptions converts a loaded Config into DecoderOptions, leaving
// AllowedVersions and OnTemplateEvent for the caller to set programmatically
// since neither is meaningfully expressible in YAML.
func (c Config) ToDecoderOptions() DecoderOptions {
	return DecoderOptions{
		CacheSize:            c.CacheSize,
		MaxFieldCount:        c.MaxFieldCount,
		MaxTemplateTotalSize: c.MaxTemplateTotalSize,
		MaxErrorSampleSize:   c.MaxErrorSampleSize,
		TTL:                  c.TTL,
		EnterpriseFields:     c.EnterpriseFields,
	}
}

// LoadConfig parses YAML configuration from raw bytes.
func LoadConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("netflow: parsing config: %w", err)
	}
	return c, nil
}

// LoadConfigFile reads and parses a YAML configuration file, primarily used
// to seed enterprise_fields vendor definitions (§6, SPEC_FULL ambient stack).
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("netflow: reading config file %s: %w", path, err)
	}
	return LoadConfig(data)
}
