package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/evanw/esbuild/pkg/api"
)

// Analyzer reads the export surface of compiled modules from an esbuild
// metafile.
type Analyzer struct {
	externals Externals
}

// NewAnalyzer creates a new module analyzer
func NewAnalyzer(externals []string) *Analyzer {
	return &Analyzer{externals: externals}
}

// Analyze bundles the module on its own, with every import external, and
// returns its exports and external imports.
func (a *Analyzer) Analyze(ctx context.Context, name string, code string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := path.Base(name)
	result := api.Build(api.BuildOptions{
		EntryPoints: []string{entry},
		Bundle:      true,
		Write:       false,
		Metafile:    true,
		Format:      api.FormatESModule,
		Platform:    api.PlatformNeutral,
		Target:      api.ESNext,
		LogLevel:    api.LogLevelSilent,
		Plugins: []api.Plugin{
			VirtualModules(entry, map[string]string{entry: code}, a.externals),
		},
	})

	if len(result.Errors) > 0 {
		return nil, NewBuildError("module analysis", result.Errors)
	}

	var metafile Metafile
	if err := json.Unmarshal([]byte(result.Metafile), &metafile); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	analysis := analyzeMetafile(&metafile, name)
	analysis.Warnings = Messages(result.Warnings)
	return analysis, nil
}

// analyzeMetafile processes the metafile and returns analysis
func analyzeMetafile(meta *Metafile, name string) *Analysis {
	result := &Analysis{Name: name}

	// A single entry point produces a single output
	for _, output := range meta.Outputs {
		result.TotalBytes = output.Bytes
		result.Exports = append(result.Exports, output.Exports...)

		seen := make(map[string]bool)
		for _, imp := range output.Imports {
			if imp.External && !seen[imp.Path] {
				seen[imp.Path] = true
				result.ExternalImports = append(result.ExternalImports, imp.Path)
			}
		}
		break
	}

	sort.Strings(result.Exports)
	sort.Strings(result.ExternalImports)

	return result
}
