package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "999 B", FormatBytes(999))
	assert.Equal(t, "11,189 B", FormatBytes(11189))
	assert.Equal(t, "1,048,576 B", FormatBytes(1<<20))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "2.0 KiB", FormatSize(2048))
	assert.Equal(t, "-2.0 KiB", FormatSize(-2048))
}

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
}
