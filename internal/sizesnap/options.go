// Package sizesnap measures compiled JavaScript outputs and reconciles the
// results with a stored size snapshot.
package sizesnap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Recognized option keys.
const (
	KeySnapshotPath  = "snapshotPath"
	KeyMatchSnapshot = "matchSnapshot"
	KeyThreshold     = "threshold"
	KeyPrintInfo     = "printInfo"
)

// DefaultSnapshotPath is where the snapshot is written unless configured.
const DefaultSnapshotPath = ".size-snapshot.json"

var optionKeys = []string{KeySnapshotPath, KeyMatchSnapshot, KeyThreshold, KeyPrintInfo}

// OptionKeys returns the recognized option keys.
func OptionKeys() []string {
	keys := make([]string, len(optionKeys))
	copy(keys, optionKeys)
	return keys
}

// Options configure a measurement run.
type Options struct {
	SnapshotPath  string
	MatchSnapshot bool
	Threshold     float64
	PrintInfo     bool
}

// DefaultOptions returns the options used for keys that are not supplied.
func DefaultOptions() Options {
	return Options{
		SnapshotPath:  DefaultSnapshotPath,
		MatchSnapshot: false,
		Threshold:     0,
		PrintInfo:     true,
	}
}

// InvalidOptionsError lists every unrecognized key and every invalid value
// found in one options object.
type InvalidOptionsError struct {
	Unknown []string
	Invalid []string
}

func (e *InvalidOptionsError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown options %s (allowed: %s)",
			strings.Join(e.Unknown, ", "), strings.Join(optionKeys, ", ")))
	}
	parts = append(parts, e.Invalid...)
	return "invalid options: " + strings.Join(parts, "; ")
}

// ParseOptions validates raw against the closed set of recognized keys and
// applies defaults for missing ones. Values may be typed or strings, as they
// arrive from configuration files and environment variables.
func ParseOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	invalid := &InvalidOptionsError{}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		switch key {
		case KeySnapshotPath:
			s, ok := value.(string)
			if !ok || strings.TrimSpace(s) == "" {
				invalid.Invalid = append(invalid.Invalid, fmt.Sprintf("%s must be a non-empty string, got %v", key, value))
				continue
			}
			opts.SnapshotPath = s
		case KeyMatchSnapshot:
			b, err := cast.ToBoolE(value)
			if err != nil {
				invalid.Invalid = append(invalid.Invalid, fmt.Sprintf("%s must be a boolean, got %v", key, value))
				continue
			}
			opts.MatchSnapshot = b
		case KeyThreshold:
			f, err := toNumber(value)
			if err != nil {
				invalid.Invalid = append(invalid.Invalid, fmt.Sprintf("%s must be a number, got %v", key, value))
				continue
			}
			if f < 0 {
				invalid.Invalid = append(invalid.Invalid, fmt.Sprintf("%s must not be negative, got %v", key, value))
				continue
			}
			opts.Threshold = f
		case KeyPrintInfo:
			b, err := cast.ToBoolE(value)
			if err != nil {
				invalid.Invalid = append(invalid.Invalid, fmt.Sprintf("%s must be a boolean, got %v", key, value))
				continue
			}
			opts.PrintInfo = b
		default:
			invalid.Unknown = append(invalid.Unknown, key)
		}
	}

	if len(invalid.Unknown) > 0 || len(invalid.Invalid) > 0 {
		return Options{}, invalid
	}
	return opts, nil
}

// toNumber rejects booleans, which cast would otherwise turn into 0 or 1.
func toNumber(value any) (float64, error) {
	if _, ok := value.(bool); ok {
		return 0, fmt.Errorf("unable to cast %#v to float64", value)
	}
	return cast.ToFloat64E(value)
}
