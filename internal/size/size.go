// Package size computes the raw, minified and gzipped byte sizes of compiled
// JavaScript code.
package size

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
)

// DefaultCacheSize is the number of minified outputs kept by a Minifier.
const DefaultCacheSize = 256

// GzipLevel is the fixed compression level used for download sizes.
const GzipLevel = gzip.BestCompression

// MinifyError is returned when code cannot be minified, usually because it is
// not valid JavaScript for its output format.
type MinifyError struct {
	Messages []string
}

func (e *MinifyError) Error() string {
	return fmt.Sprintf("failed to minify code: %s", strings.Join(e.Messages, "; "))
}

// Raw returns the UTF-8 byte length of code.
func Raw(code string) int {
	return len(code)
}

// Gzipped returns the size of code compressed with gzip at GzipLevel. The
// gzip header carries no name or timestamp, so identical input always yields
// the same size.
func Gzipped(code string) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, GzipLevel)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := zw.Write([]byte(code)); err != nil {
		return 0, fmt.Errorf("failed to compress code: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to compress code: %w", err)
	}
	return buf.Len(), nil
}

// Minifier minifies code with esbuild in production mode: syntax folding,
// identifier shortening and whitespace removal. Results are cached by format
// and content hash. A Minifier is safe for concurrent use.
type Minifier struct {
	cache *lru.Cache[string, string]
}

// NewMinifier creates a minifier caching up to cacheSize results.
func NewMinifier(cacheSize int) (*Minifier, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create minify cache: %w", err)
	}
	return &Minifier{cache: cache}, nil
}

// Minify returns the minified form of code. The trailing newline esbuild
// appends is not part of the result.
func (m *Minifier) Minify(code string, format bundler.Format) (string, error) {
	key := cacheKey(code, format)
	if cached, ok := m.cache.Get(key); ok {
		return cached, nil
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:            api.LoaderJS,
		Format:            format.TransformFormat(),
		Target:            api.ESNext,
		Charset:           api.CharsetUTF8,
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		return "", &MinifyError{Messages: bundler.Messages(result.Errors)}
	}

	minified := strings.TrimSuffix(string(result.Code), "\n")
	m.cache.Add(key, minified)
	return minified, nil
}

// Size returns the byte length of the minified code.
func (m *Minifier) Size(code string, format bundler.Format) (int, error) {
	minified, err := m.Minify(code, format)
	if err != nil {
		return 0, err
	}
	return Raw(minified), nil
}

func cacheKey(code string, format bundler.Format) string {
	sum := sha256.Sum256([]byte(code))
	return string(format) + ":" + hex.EncodeToString(sum[:])
}
