package module_io

import (
	"github.com/kurtosis-tech/stacktrace"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	hexPrefix    = "0x"
	octalPrefix  = "0o"
	binaryPrefix = "0b"

	hexBase    = 16
	octalBase  = 8
	binaryBase = 2

	prefixedUintBits = 64

	infinityLiteral = "Infinity"
)

var decimalLiteralPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

var prefixedLiteralBases = map[string]int{
	hexPrefix:    hexBase,
	octalPrefix:  octalBase,
	binaryPrefix: binaryBase,
}

// Converts raw inputs the same lenient way the action runtime converts input strings to numbers:
// anything that doesn't parse ends up as 0
func BuildWaiterParams(inputs RawInputs) *WaiterParams {
	return &WaiterParams{
		MinaGraphQLPort:   toInt(CoerceNumber(inputs.MinaGraphQLPort)),
		MaxAttempts:       toInt(CoerceNumber(inputs.MaxAttempts)),
		PollingIntervalMs: toFiniteOrZero(CoerceNumber(inputs.PollingIntervalMs)),
	}
}

// Whitespace is trimmed and the empty string is 0. Decimal, exponent, "Infinity" and
// 0x/0o/0b literals are understood; everything else is NaN.
func CoerceNumber(str string) float64 {
	trimmed := strings.TrimSpace(str)
	if trimmed == "" {
		return 0
	}

	switch trimmed {
	case infinityLiteral, "+" + infinityLiteral:
		return math.Inf(1)
	case "-" + infinityLiteral:
		return math.Inf(-1)
	}

	if len(trimmed) > len(hexPrefix) {
		if base, found := prefixedLiteralBases[strings.ToLower(trimmed[:2])]; found {
			value, err := strconv.ParseUint(trimmed[2:], base, prefixedUintBits)
			if err != nil {
				return math.NaN()
			}
			return float64(value)
		}
	}

	if !decimalLiteralPattern.MatchString(trimmed) {
		return math.NaN()
	}
	// The pattern only lets well-formed literals through, so the only possible error is a range error,
	// in which case ParseFloat has already returned +/-Inf
	value, _ := strconv.ParseFloat(trimmed, 64)
	return value
}

func ParseRawInputsYAML(serializedInputs []byte) (RawInputs, error) {
	inputs := RawInputs{}
	if err := yaml.Unmarshal(serializedInputs, &inputs); err != nil {
		return RawInputs{}, stacktrace.Propagate(err, "An error occurred deserializing the params YAML '%v'", string(serializedInputs))
	}
	return inputs, nil
}

func LoadRawInputsFile(filepath string) (RawInputs, error) {
	serializedInputs, err := ioutil.ReadFile(filepath)
	if err != nil {
		return RawInputs{}, stacktrace.Propagate(err, "An error occurred reading params file '%v'", filepath)
	}
	inputs, err := ParseRawInputsYAML(serializedInputs)
	if err != nil {
		return RawInputs{}, stacktrace.Propagate(err, "An error occurred parsing params file '%v'", filepath)
	}
	return inputs, nil
}

// ====================================================================================================
//                                    Private Helper Methods
// ====================================================================================================
func toInt(value float64) int {
	switch {
	case math.IsNaN(value):
		return 0
	case value >= math.MaxInt32:
		return math.MaxInt32
	case value <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(value))
}

func toFiniteOrZero(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return value
}
