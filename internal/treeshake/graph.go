package treeshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
	"github.com/fluxbase-eu/sizesnap/internal/size"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

// ErrNoMinifiedCode is returned when minification leaves nothing to bundle.
var ErrNoMinifiedCode = errors.New("no minified code to process")

const graphNamespace = "sizesnap-memfs"

// GraphPipeline builds a module graph on an in-memory filesystem from the
// minified module, and bundles the probe in production mode with
// substitutions applied as defines. Each run gets its own filesystem.
type GraphPipeline struct {
	minifier *size.Minifier
	newFs    func() afero.Fs
}

// NewGraphPipeline creates the module-graph pipeline.
func NewGraphPipeline(minifier *size.Minifier) *GraphPipeline {
	return &GraphPipeline{
		minifier: minifier,
		newFs:    afero.NewMemMapFs,
	}
}

// Name returns the pipeline name
func (p *GraphPipeline) Name() string {
	return "graph"
}

// BundleProbe bundles the probe and returns the residual code length. The
// result is 0 when the bundler emits no module content at all.
func (p *GraphPipeline) BundleProbe(ctx context.Context, probe *Probe, module Module) (snapshot.PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.PipelineResult{}, err
	}

	minified, err := p.minifier.Minify(module.Code, module.Format)
	if err != nil {
		return snapshot.PipelineResult{}, err
	}
	if strings.TrimSpace(minified) == "" {
		return snapshot.PipelineResult{}, ErrNoMinifiedCode
	}

	fs := p.newFs()
	entry := "/" + ProbeEntry
	if err := afero.WriteFile(fs, entry, []byte(probe.Source()), 0644); err != nil {
		return snapshot.PipelineResult{}, fmt.Errorf("failed to write probe: %w", err)
	}
	if err := afero.WriteFile(fs, "/"+probe.ModuleKey(), []byte(minified), 0644); err != nil {
		return snapshot.PipelineResult{}, fmt.Errorf("failed to write module: %w", err)
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ESNext,
		TreeShaking:       api.TreeShakingTrue,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Charset:           api.CharsetUTF8,
		LegalComments:     api.LegalCommentsNone,
		Define:            probe.Defines(),
		External:          module.Externals,
		LogLevel:          api.LogLevelSilent,
		Plugins: []api.Plugin{
			memFsPlugin(fs, module.Externals),
		},
	})
	if len(result.Errors) > 0 {
		return snapshot.PipelineResult{}, buildError("graph tree-shake", result)
	}

	var metafile bundler.Metafile
	if err := json.Unmarshal([]byte(result.Metafile), &metafile); err != nil {
		return snapshot.PipelineResult{}, fmt.Errorf("failed to parse metafile: %w", err)
	}

	emitted := 0
	for _, output := range metafile.Outputs {
		emitted += output.EmittedBytes()
	}
	if emitted == 0 {
		return snapshot.PipelineResult{Code: 0}, nil
	}

	return snapshot.PipelineResult{Code: len(residual(firstOutput(result)))}, nil
}

// memFsPlugin resolves relative and absolute imports against fs. Anything
// not found there is left external.
func memFsPlugin(fs afero.Fs, externals bundler.Externals) api.Plugin {
	return api.Plugin{
		Name: "sizesnap-memfs",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{Path: path.Clean(args.Path), Namespace: graphNamespace}, nil
					}
					if isFileSpecifier(args.Path) {
						resolved := path.Join(path.Dir(args.Importer), args.Path)
						if path.IsAbs(args.Path) {
							resolved = path.Clean(args.Path)
						}
						if ok, _ := afero.Exists(fs, resolved); ok {
							return api.OnResolveResult{Path: resolved, Namespace: graphNamespace}, nil
						}
					}
					if !externals.Match(args.Path) {
						log.Debug().
							Str("specifier", args.Path).
							Msg("Treating unresolved import as external")
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: graphNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := afero.ReadFile(fs, args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := string(data)
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   api.LoaderJS,
					}, nil
				})
		},
	}
}

func isFileSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/")
}
