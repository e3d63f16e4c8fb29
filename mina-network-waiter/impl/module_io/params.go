package module_io

import (
	"math"
	"time"
)

const (
	// !!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!! WARNING !!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!
	//   These are the input names declared by the action. If you change them, update the action metadata
	//                               and the params file keys below too!
	// !!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!! WARNING !!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!
	MinaGraphQLPortInputName   = "mina-graphql-port"
	MaxAttemptsInputName       = "max-attempts"
	PollingIntervalMsInputName = "polling-interval-ms"
	LogLevelInputName          = "log-level"
)

// The inputs exactly as they were supplied, before any numeric conversion
type RawInputs struct {
	MinaGraphQLPort   string `yaml:"mina-graphql-port"`
	MaxAttempts       string `yaml:"max-attempts"`
	PollingIntervalMs string `yaml:"polling-interval-ms"`
	LogLevel          string `yaml:"log-level"`
}

// Returns a copy of these inputs where every non-empty field of the other inputs wins
func (inputs RawInputs) OverrideWith(other RawInputs) RawInputs {
	result := inputs
	if other.MinaGraphQLPort != "" {
		result.MinaGraphQLPort = other.MinaGraphQLPort
	}
	if other.MaxAttempts != "" {
		result.MaxAttempts = other.MaxAttempts
	}
	if other.PollingIntervalMs != "" {
		result.PollingIntervalMs = other.PollingIntervalMs
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	return result
}

// NOTE: Nothing here is range-checked; a zero or negative MaxAttempts simply means no attempts get made
type WaiterParams struct {
	// Port of the daemon's GraphQL server
	MinaGraphQLPort int

	// Attempts are numbered from 1 and made while attempt <= MaxAttempts
	MaxAttempts int

	// Kept fractional so it can be echoed back the way it was given
	PollingIntervalMs float64
}

func (params *WaiterParams) GetPollingInterval() time.Duration {
	if params.PollingIntervalMs <= 0 {
		return 0
	}
	nanos := params.PollingIntervalMs * float64(time.Millisecond)
	if nanos >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(nanos)
}
