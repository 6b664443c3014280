package treeshake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
)

func TestNewProbe(t *testing.T) {
	t.Run("imports the base name", func(t *testing.T) {
		probe := NewProbe("dist/esm/index.js", []string{"a", "b"})

		assert.Equal(t, "./index.js", probe.ImportedSpecifier)
		assert.Equal(t, "index.js", probe.ModuleKey())
		assert.Equal(t, []string{"a", "b"}, probe.ExportNames)
		assert.Equal(t, "import {} from \"./index.js\";\n", probe.Source())
	})

	t.Run("source ignores export names", func(t *testing.T) {
		withExports := NewProbe("index.js", []string{"a"})
		without := NewProbe("index.js", nil)
		assert.Equal(t, without.Source(), withExports.Source())
	})
}

func TestProbe_Replace(t *testing.T) {
	probe := NewProbe("index.js", nil)

	testCases := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name:     "member expression",
			code:     `if (process.env.NODE_ENV !== "production") { console.warn("dev"); }`,
			expected: `if ("production" !== "production") { console.warn("dev"); }`,
		},
		{
			name:     "every occurrence",
			code:     `a(process.env.NODE_ENV);b(process.env.NODE_ENV)`,
			expected: `a("production");b("production")`,
		},
		{
			name:     "at the start and end of the code",
			code:     `process.env.NODE_ENV`,
			expected: `"production"`,
		},
		{
			name:     "longer identifier",
			code:     `if (process.env.NODE_ENV_DEBUG) { console.log(1); }`,
			expected: `if (process.env.NODE_ENV_DEBUG) { console.log(1); }`,
		},
		{
			name:     "property access",
			code:     `process.env.NODE_ENV.length`,
			expected: `process.env.NODE_ENV.length`,
		},
		{
			name:     "nested member",
			code:     `global.process.env.NODE_ENV; $process.env.NODE_ENV`,
			expected: `global.process.env.NODE_ENV; $process.env.NODE_ENV`,
		},
		{
			name:     "mixed",
			code:     `[process.env.NODE_ENV_DEBUG, process.env.NODE_ENV]`,
			expected: `[process.env.NODE_ENV_DEBUG, "production"]`,
		},
		{
			name:     "no substitution",
			code:     "const x = 1;",
			expected: "const x = 1;",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, probe.Replace(tc.code))
		})
	}
}

func TestProbe_Defines(t *testing.T) {
	probe := NewProbe("index.js", nil)
	defines := probe.Defines()

	assert.Equal(t, map[string]string{"process.env.NODE_ENV": `"production"`}, defines)

	defines["process.env.NODE_ENV"] = `"development"`
	assert.Equal(t, `"production"`, probe.Substitutions["process.env.NODE_ENV"])
}

func TestAnalyzable(t *testing.T) {
	testCases := []struct {
		format   bundler.Format
		expected bool
	}{
		{bundler.FormatESModule, true},
		{bundler.FormatCommonJS, false},
		{bundler.FormatUMD, false},
		{bundler.FormatIIFE, false},
		{bundler.FormatAMD, false},
		{bundler.FormatSystem, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.format), func(t *testing.T) {
			assert.Equal(t, tc.expected, Analyzable(tc.format))
		})
	}
}
