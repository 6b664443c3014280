package bundler

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// VirtualNamespace is the esbuild namespace of modules served from memory.
const VirtualNamespace = "sizesnap-virtual"

// Externals lists module specifiers that are left unresolved by a build.
type Externals []string

// Match reports whether spec is a configured external or a subpath of one
// (e.g. "react/jsx-runtime" for "react").
func (e Externals) Match(spec string) bool {
	for _, ext := range e {
		if spec == ext || strings.HasPrefix(spec, ext+"/") {
			return true
		}
	}
	return false
}

// ModuleKey normalizes a relative specifier to the key used for in-memory
// modules: "./index.js" and "index.js" name the same module.
func ModuleKey(spec string) string {
	return strings.TrimPrefix(spec, "./")
}

// VirtualModules returns a plugin that serves modules from memory. The entry
// point resolves to modules[entry]; relative imports resolve against the map;
// everything else is marked external, whether configured or not, since the
// compiled output left it unresolved.
func VirtualModules(entry string, modules map[string]string, externals Externals) api.Plugin {
	return api.Plugin{
		Name: "sizesnap-virtual",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{Path: entry, Namespace: VirtualNamespace}, nil
					}
					if _, ok := modules[ModuleKey(args.Path)]; ok {
						return api.OnResolveResult{Path: ModuleKey(args.Path), Namespace: VirtualNamespace}, nil
					}
					if !externals.Match(args.Path) {
						log.Debug().
							Str("specifier", args.Path).
							Str("importer", args.Importer).
							Msg("Treating unresolved import as external")
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: VirtualNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := modules[args.Path]
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   api.LoaderJS,
					}, nil
				})
		},
	}
}
