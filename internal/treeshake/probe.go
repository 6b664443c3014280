// Package treeshake measures how much of a module survives when a consumer
// imports it without using any of its bindings.
package treeshake

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
)

// ProbeEntry is the name of the synthetic entry module both pipelines bundle.
const ProbeEntry = "__size_snapshot_input__.js"

// Module is a compiled output file handed to the pipelines.
type Module struct {
	Name      string
	Code      string
	Format    bundler.Format
	Externals []string
}

// Probe is the synthetic consumer module: an empty named import of the
// measured file. Both pipelines bundle the same probe text.
type Probe struct {
	ImportedSpecifier string
	ExportNames       []string
	Substitutions     map[string]string
}

// NewProbe builds the probe for the output file fileName. exportNames is
// informational; the import stays empty regardless.
func NewProbe(fileName string, exportNames []string) *Probe {
	return &Probe{
		ImportedSpecifier: "./" + path.Base(fileName),
		ExportNames:       exportNames,
		Substitutions: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
	}
}

// Source returns the text of the probe module.
func (p *Probe) Source() string {
	return fmt.Sprintf("import {} from %q;\n", p.ImportedSpecifier)
}

// ModuleKey is the in-memory key the imported module is stored under.
func (p *Probe) ModuleKey() string {
	return bundler.ModuleKey(p.ImportedSpecifier)
}

// Replace applies the substitutions textually, the way a replace plugin
// would before parsing. Only whole member expressions are replaced.
func (p *Probe) Replace(code string) string {
	for _, name := range p.substitutionNames() {
		code = replaceExpression(code, name, p.Substitutions[name])
	}
	return code
}

// replaceExpression replaces occurrences of name that stand alone. An
// occurrence glued to an identifier character, or followed by a property
// access, belongs to a longer expression and is kept.
func replaceExpression(code, name, value string) string {
	var b strings.Builder
	last, from := 0, 0
	for {
		i := strings.Index(code[from:], name)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(name)
		from = start + 1

		if start > 0 && (isIdentifierByte(code[start-1]) || code[start-1] == '.') {
			continue
		}
		if end < len(code) && (isIdentifierByte(code[end]) || code[end] == '.') {
			continue
		}
		b.WriteString(code[last:start])
		b.WriteString(value)
		last, from = end, end
	}
	if last == 0 {
		return code
	}
	b.WriteString(code[last:])
	return b.String()
}

func isIdentifierByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// Defines returns the substitutions as compile-time defines.
func (p *Probe) Defines() map[string]string {
	defines := make(map[string]string, len(p.Substitutions))
	for name, value := range p.Substitutions {
		defines[name] = value
	}
	return defines
}

// longest names first so that overlapping names replace deterministically
func (p *Probe) substitutionNames() []string {
	names := make([]string, 0, len(p.Substitutions))
	for name := range p.Substitutions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// Analyzable reports whether tree-shake analysis applies to a format. Only
// ES modules carry the static import/export structure it relies on.
func Analyzable(format bundler.Format) bool {
	return format.IsESModule()
}
