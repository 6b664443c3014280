// Package bundler wraps the esbuild API for in-memory module analysis.
package bundler

// Metafile represents the esbuild metafile JSON structure
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput represents an input file in the metafile
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"` // "cjs" or "esm"
}

// MetafileImport represents an import in the metafile
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput represents an output file in the metafile
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib represents the contribution of an input to an output
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// EmittedBytes returns how many bytes of the output originate from input
// modules. Zero means every module was eliminated.
func (o MetafileOutput) EmittedBytes() int {
	total := 0
	for _, contrib := range o.Inputs {
		total += contrib.BytesInOutput
	}
	return total
}

// Analysis describes the export surface and external imports of a compiled
// module.
type Analysis struct {
	Name            string
	TotalBytes      int
	Exports         []string
	ExternalImports []string
	Warnings        []string
}
