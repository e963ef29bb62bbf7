// Copyright 2026 The Neuract Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package catalog holds the data model described in spec §3 and the
// Store boundary interface to the (externally owned) configuration
// catalog. This package never dials a network or opens a database; it
// is pure bookkeeping plus the mapping-health computation.
package catalog

import "time"

type FieldType string

const (
	FieldBool   FieldType = "bool"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldString FieldType = "string"
)

type Protocol string

const (
	ProtocolModbus Protocol = "modbus"
	ProtocolOpcua  Protocol = "opcua"
)

type StorageProvider string

const (
	ProviderSQLite   StorageProvider = "sqlite"
	ProviderPostgres StorageProvider = "postgres"
	ProviderMySQL    StorageProvider = "mysql"
	ProviderMSSQL    StorageProvider = "mssql"
)

type DeviceStatus string

const (
	DeviceDisconnected DeviceStatus = "disconnected"
	DeviceConnected    DeviceStatus = "connected"
	DeviceError        DeviceStatus = "error"
)

type DeviceTableStatus string

const (
	TablePending  DeviceTableStatus = "pending"
	TableMigrated DeviceTableStatus = "migrated"
	TableError    DeviceTableStatus = "error"
)

type MappingHealth string

const (
	HealthUnmapped MappingHealth = "unmapped"
	HealthPartial  MappingHealth = "partial"
	HealthMapped   MappingHealth = "mapped"
)

type JobType string

const (
	JobContinuous JobType = "continuous"
	JobTrigger    JobType = "trigger"
)

type JobStatus string

const (
	JobStopped JobStatus = "stopped"
	JobRunning JobStatus = "running"
	JobPaused  JobStatus = "paused"
)

type TriggerOperator string

const (
	OpChange  TriggerOperator = "change"
	OpGT      TriggerOperator = ">"
	OpGTE     TriggerOperator = ">="
	OpLT      TriggerOperator = "<"
	OpLTE     TriggerOperator = "<="
	OpEQ      TriggerOperator = "=="
	OpNE      TriggerOperator = "!="
	OpRising  TriggerOperator = "rising"
	OpFalling TriggerOperator = "falling"
)

type ByteOrder string

const (
	ByteOrderABCD ByteOrder = "ABCD"
	ByteOrderDCBA ByteOrder = "DCBA"
	ByteOrderBADC ByteOrder = "BADC"
	ByteOrderCDAB ByteOrder = "CDAB"
)

type AuthType string

const (
	AuthAnonymous    AuthType = "Anonymous"
	AuthUserPassword AuthType = "UserPassword"
)

// Schema is a named set of typed field definitions.
type Schema struct {
	ID          string
	Name        string
	Description string
	Fields      []SchemaField
}

// SchemaField is one column definition within a Schema.
type SchemaField struct {
	Key         string
	FieldType   FieldType
	Unit        string
	Scale       float64 // default 1.0
	Description string
}

// StorageTarget is a configured external database.
type StorageTarget struct {
	ID               string
	Name             string
	Provider         StorageProvider
	ConnectionString string
	IsDefault        bool
	Status           string
	LastError        string
}

// ModbusConfig is the protocol-specific config for a Modbus device.
type ModbusConfig struct {
	Host      string
	Port      int // default 502
	UnitID    int // default 1
	TimeoutMs int
	Retries   int
}

// OpcuaConfig is the protocol-specific config for an OPC UA device.
type OpcuaConfig struct {
	Endpoint       string
	AuthType       AuthType
	Username       string
	Password       string
	SecurityPolicy string
	SecurityMode   string
	TimeoutMs      int
}

// Device is a PLC endpoint. Exactly one of Modbus/Opcua is populated,
// matching Protocol.
type Device struct {
	ID            string
	Name          string
	Protocol      Protocol
	Status        DeviceStatus
	LatencyMs     int64
	LastError     string
	AutoReconnect bool
	Modbus        *ModbusConfig
	Opcua         *OpcuaConfig
}

// FieldMapping binds a schema field to a physical PLC address within a
// DeviceTable.
type FieldMapping struct {
	FieldKey       string
	Protocol       Protocol
	Address        string
	DataType       FieldType
	Scale          float64
	Deadband       float64
	ByteOrder      ByteOrder
	PollIntervalMs *int
}

// DeviceTable binds a Schema to a StorageTarget and optionally a Device.
type DeviceTable struct {
	ID              string
	Name            string
	SchemaID        string
	StorageTargetID string
	DeviceID        *string
	Mappings        []FieldMapping
	Status          DeviceTableStatus
	MappingHealth   MappingHealth
	LastMigratedAt  *time.Time
	LastError       string
}

// JobTrigger belongs to exactly one Job.
type JobTrigger struct {
	Field      string
	Operator   TriggerOperator
	Value      *float64
	Deadband   float64
	CooldownMs int64
}

// Job is a logging job.
type Job struct {
	ID          string
	Name        string
	JobType     JobType
	TableIDs    []string
	IntervalMs  int64 // default 1000
	Enabled     bool
	Status      JobStatus
	BatchSize   int // default 1
	Triggers    []JobTrigger
}

// JobRun is a historical execution record.
type JobRun struct {
	ID             string
	JobID          string
	StartedAt      time.Time
	StoppedAt      *time.Time
	DurationMs     int64
	RowsWritten    int64
	ReadsCount     int64
	ReadErrors     int64
	WriteErrors    int64
	AvgLatencyMs   *float64
	P95LatencyMs   *float64
	ErrorLog       []ErrorLogEntry
}

// ErrorLogEntry mirrors the metrics registry's bounded error log.
type ErrorLogEntry struct {
	Code      string
	Message   string
	Timestamp time.Time
}

// RecomputeMappingHealth implements the §3/§8 mapping-health invariant:
// mapped iff the mapped field keys cover all schema keys; partial iff a
// non-empty strict subset; unmapped iff empty or the schema is empty.
func RecomputeMappingHealth(schema Schema, mappings []FieldMapping) MappingHealth {
	if len(schema.Fields) == 0 || len(mappings) == 0 {
		return HealthUnmapped
	}

	mapped := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		mapped[m.FieldKey] = struct{}{}
	}

	covered := 0
	for _, f := range schema.Fields {
		if _, ok := mapped[f.Key]; ok {
			covered++
		}
	}

	switch {
	case covered == len(schema.Fields):
		return HealthMapped
	case covered > 0:
		return HealthPartial
	default:
		return HealthUnmapped
	}
}
