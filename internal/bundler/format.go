package bundler

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Format is the module format of a compiled output.
type Format string

const (
	FormatCommonJS Format = "cjs"
	FormatESModule Format = "esm"
	FormatUMD      Format = "umd"
	FormatIIFE     Format = "iife"
	FormatAMD      Format = "amd"
	FormatSystem   Format = "system"
)

// ParseFormat parses a format name, accepting the aliases used by common
// bundlers ("es", "module", "commonjs", "systemjs").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cjs", "commonjs":
		return FormatCommonJS, nil
	case "esm", "es", "module":
		return FormatESModule, nil
	case "umd":
		return FormatUMD, nil
	case "iife":
		return FormatIIFE, nil
	case "amd":
		return FormatAMD, nil
	case "system", "systemjs":
		return FormatSystem, nil
	default:
		return "", fmt.Errorf("invalid module format: %s (valid: cjs, esm, umd, iife, amd, system)", s)
	}
}

// IsESModule reports whether the format statically exposes named exports.
func (f Format) IsESModule() bool {
	return f == FormatESModule
}

// TransformFormat maps the format to the esbuild transform format. Only ES
// modules are printed as such; everything else is left untouched.
func (f Format) TransformFormat() api.Format {
	if f.IsESModule() {
		return api.FormatESModule
	}
	return api.FormatDefault
}
