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

import "sync"

// EnterpriseFieldDef describes a single vendor (enterprise-numbered) IPFIX
// information element, as loaded from YAML configuration (§6) or registered
// directly by a caller that embeds this package.
type EnterpriseFieldDef struct {
	EnterpriseNumber uint32        `yaml:"enterprise_number"`
	FieldType        uint16        `yaml:"field_type"`
	Name             string        `yaml:"name"`
	DataType         string        `yaml:"data_type"`
}

// enterpriseDataType maps the YAML-facing string name to the internal
// FieldDataType tag. Unrecognized names resolve to TypeRaw rather than
// erroring, so a config typo degrades gracefully instead of breaking load.
func enterpriseDataType(name string) FieldDataType {
	switch name {
	case "unsigned":
		return TypeUnsigned
	case "signed":
		return TypeSigned
	case "float64":
		return TypeFloat64
	case "ipv4":
		return TypeIPv4
	case "ipv6":
		return TypeIPv6
	case "mac":
		return TypeMAC
	case "string":
		return TypeString
	case "protocol":
		return TypeProtocol
	case "applicationId":
		return TypeApplicationID
	case "durationSeconds":
		return TypeDurationSeconds
	case "durationMillis":
		return TypeDurationMillis
	case "timestampMicros":
		return TypeTimestampMicros
	case "timestampNanos":
		return TypeTimestampNanos
	default:
		return TypeRaw
	}
}

// enterpriseRegistry is the process-wide mutable extension of the static
// standard field table, for vendor information elements (§4.2: "an
// enterprise registry extension for IPFIX vendor fields registered at
// runtime"). It is safe for concurrent use by multiple Decoders.
type enterpriseRegistry struct {
	mu    sync.RWMutex
	table map[fieldKey]FieldDataType
}

var globalEnterpriseRegistry = &enterpriseRegistry{
	table: make(map[fieldKey]FieldDataType),
}

// RegisterEnterpriseField adds or replaces a vendor field definition in the
// process-wide registry. Safe to call concurrently with ongoing decodes;
// newly-registered definitions apply to flowsets parsed afterward.
func RegisterEnterpriseField(enterpriseNumber uint32, fieldType uint16, dataType FieldDataType) {
	globalEnterpriseRegistry.mu.Lock()
	defer globalEnterpriseRegistry.mu.Unlock()
	globalEnterpriseRegistry.table[fieldKey{fieldType: fieldType, enterprise: enterpriseNumber}] = dataType
}

// RegisterEnterpriseFieldDefs bulk-loads definitions, e.g. as parsed from a
// YAML configuration file (§6 "enterprise_fields").
func RegisterEnterpriseFieldDefs(defs []EnterpriseFieldDef) {
	globalEnterpriseRegistry.mu.Lock()
	defer globalEnterpriseRegistry.mu.Unlock()
	for _, d := range defs {
		globalEnterpriseRegistry.table[fieldKey{fieldType: d.FieldType, enterprise: d.EnterpriseNumber}] = enterpriseDataType(d.DataType)
	}
}

func lookupEnterpriseFieldType(enterprise uint32, fieldType uint16) (FieldDataType, bool) {
	globalEnterpriseRegistry.mu.RLock()
	defer globalEnterpriseRegistry.mu.RUnlock()
	dt, ok := globalEnterpriseRegistry.table[fieldKey{fieldType: fieldType, enterprise: enterprise}]
	return dt, ok
}
