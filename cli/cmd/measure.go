package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxbase-eu/sizesnap/cli/output"
	"github.com/fluxbase-eu/sizesnap/cli/util"
	"github.com/fluxbase-eu/sizesnap/internal/bundler"
	"github.com/fluxbase-eu/sizesnap/internal/config"
	"github.com/fluxbase-eu/sizesnap/internal/observability"
	"github.com/fluxbase-eu/sizesnap/internal/sizesnap"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

var (
	measureFormat        string
	measureExternals     []string
	measureSnapshotPath  string
	measureMatch         bool
	measureThreshold     float64
	measurePrintInfo     bool
	measureMetricsFile   string
	measureTraceEndpoint string
	measureConcurrency   int
)

// javascriptExtensions are the files picked up when a directory is measured
var javascriptExtensions = map[string]bool{
	".js":  true,
	".mjs": true,
	".cjs": true,
}

var measureCmd = &cobra.Command{
	Use:   "measure <file|dir>...",
	Short: "Measure compiled outputs and write or match the snapshot",
	Long: `Measure compiled JavaScript outputs and record their sizes.

A file argument is measured as one output. A directory argument is measured as
a set of chunks: every .js, .mjs and .cjs file below it is recorded under its
own name.

Without --match the snapshot file is replaced with the fresh sizes. With
--match the fresh sizes are compared against the stored snapshot and the
command fails when they drift by more than --threshold bytes.

Examples:
  sizesnap measure dist/index.js
  sizesnap measure --format cjs dist/index.cjs.js
  sizesnap measure --external react --external react-dom dist/esm
  sizesnap measure --match --threshold 100 dist/
  sizesnap measure --snapshot-path s3://ci-sizes/app/main.json dist/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMeasure,
}

func init() {
	measureCmd.Flags().StringVarP(&measureFormat, "format", "f", string(bundler.FormatESModule),
		"module format of the outputs: cjs, esm, umd, iife, amd, system")
	measureCmd.Flags().StringSliceVar(&measureExternals, "external", nil,
		"bare specifier left external when tree shaking (repeatable)")
	measureCmd.Flags().StringVar(&measureSnapshotPath, "snapshot-path", "",
		"snapshot location, a path relative to the project or s3://bucket/key")
	measureCmd.Flags().BoolVar(&measureMatch, "match", false,
		"compare against the stored snapshot instead of writing it")
	measureCmd.Flags().Float64Var(&measureThreshold, "threshold", 0,
		"allowed size drift in bytes when matching")
	measureCmd.Flags().BoolVar(&measurePrintInfo, "print-info", true,
		"print the computed sizes")
	measureCmd.Flags().StringVar(&measureMetricsFile, "metrics-file", "",
		"write the sizes as a Prometheus textfile")
	measureCmd.Flags().StringVar(&measureTraceEndpoint, "trace-endpoint", "",
		"OTLP gRPC endpoint to export traces to")
	measureCmd.Flags().IntVar(&measureConcurrency, "concurrency", 0,
		"number of files measured in parallel (default: number of CPUs)")
}

func runMeasure(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	format, err := bundler.ParseFormat(measureFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyMeasureFlags(cmd, cfg)

	tracer, err := observability.NewTracer(ctx, cfg.Tracing, Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	ctx, span := tracer.StartSpan(ctx, "sizesnap.run",
		trace.WithAttributes(attribute.StringSlice("sizesnap.outputs", args)))
	defer func() {
		if err != nil {
			observability.RecordError(ctx, err)
		}
		span.End()
	}()
	if tracer.IsEnabled() {
		log.Info().Str("trace_id", observability.ExtractTraceID(ctx)).Msg("Tracing measurement")
	}

	paths, err := resolvePaths(projectDir, args)
	if err != nil {
		return err
	}
	outputs, err := readOutputs(afero.NewOsFs(), paths, format, measureExternals)
	if err != nil {
		return err
	}

	f := GetFormatter()
	opts := []sizesnap.PluginOption{
		sizesnap.WithS3Config(cfg.S3),
		sizesnap.WithReporter(reportWriter(cmd, f)),
		sizesnap.WithConcurrency(measureConcurrency),
	}
	var metrics *observability.Metrics
	if cfg.MetricsFile != "" {
		metrics = observability.NewMetrics()
		opts = append(opts, sizesnap.WithMetrics(metrics))
	}

	plugin, err := sizesnap.New(cfg.Options, projectDir, opts...)
	if err != nil {
		return err
	}

	snap, err := plugin.WriteBundle(ctx, outputs...)
	if metrics != nil && snap != nil {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			if err == nil {
				return werr
			}
			log.Error().Err(werr).Msg("Failed to write metrics file")
		}
	}
	if err != nil {
		return err
	}

	log.Debug().
		Int("files", len(snap)).
		Str("gzipped", util.FormatSize(totalGzipped(snap))).
		Msg("Measurement finished")

	if f.Format != output.FormatTable {
		return f.PrintSnapshot(snap)
	}
	if plugin.Options().MatchSnapshot {
		f.PrintSuccess(fmt.Sprintf("Snapshot %s matched (%d files)", plugin.Options().SnapshotPath, len(snap)))
	} else {
		f.PrintSuccess(fmt.Sprintf("Snapshot %s written (%d files)", plugin.Options().SnapshotPath, len(snap)))
	}
	return nil
}

// resolvePaths makes the output arguments absolute. Relative arguments are
// taken relative to the project directory.
func resolvePaths(root string, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

// applyMeasureFlags layers explicitly set flags over the loaded configuration
func applyMeasureFlags(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Options == nil {
		cfg.Options = make(map[string]any)
	}
	flags := cmd.Flags()
	if flags.Changed("snapshot-path") {
		cfg.Options[sizesnap.KeySnapshotPath] = measureSnapshotPath
	}
	if flags.Changed("match") {
		cfg.Options[sizesnap.KeyMatchSnapshot] = measureMatch
	}
	if flags.Changed("threshold") {
		cfg.Options[sizesnap.KeyThreshold] = measureThreshold
	}
	if flags.Changed("print-info") {
		cfg.Options[sizesnap.KeyPrintInfo] = measurePrintInfo
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = measureMetricsFile
	}
	if flags.Changed("trace-endpoint") && measureTraceEndpoint != "" {
		cfg.Tracing.Endpoint = measureTraceEndpoint
		cfg.Tracing.Enabled = true
	}
}

// reportWriter returns where the size report goes. Structured output owns
// stdout, so the report moves to stderr.
func reportWriter(cmd *cobra.Command, f *output.Formatter) io.Writer {
	switch {
	case f.Quiet:
		return io.Discard
	case f.Format != output.FormatTable:
		return cmd.ErrOrStderr()
	default:
		return cmd.OutOrStdout()
	}
}

// readOutputs reads the given absolute paths. Files become single outputs and
// directories become chunk sets.
func readOutputs(fsys afero.Fs, paths []string, format bundler.Format, externals []string) ([]sizesnap.Output, error) {
	outputs := make([]sizesnap.Output, 0, len(paths))
	for _, path := range paths {
		info, err := fsys.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read output: %w", err)
		}

		if !info.IsDir() {
			code, err := afero.ReadFile(fsys, path)
			if err != nil {
				return nil, fmt.Errorf("failed to read output: %w", err)
			}
			outputs = append(outputs, sizesnap.Output{
				File:      path,
				Code:      string(code),
				Format:    format,
				Externals: externals,
			})
			continue
		}

		files, err := readChunks(fsys, path)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, sizesnap.Output{
			Dir:       path,
			Files:     files,
			Format:    format,
			Externals: externals,
		})
	}
	return outputs, nil
}

// readChunks reads every JavaScript file below dir, keyed by its path
// relative to dir
func readChunks(fsys afero.Fs, dir string) (map[string]string, error) {
	files := make(map[string]string)
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !javascriptExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		code, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		files[rel] = string(code)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JavaScript files found in %s", dir)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	log.Debug().Str("dir", dir).Strs("files", names).Msg("Collected chunks")

	return files, nil
}

func totalGzipped(snap snapshot.Snapshot) int {
	total := 0
	for _, rec := range snap {
		total += rec.Gzipped
	}
	return total
}
