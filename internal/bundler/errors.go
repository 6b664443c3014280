package bundler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// namespacePrefix matches the plugin namespace esbuild prepends to virtual
// module paths in diagnostics.
var namespacePrefix = regexp.MustCompile(`^[a-z][a-z0-9-]*:`)

// BuildError is returned when esbuild reports errors for a build or transform.
type BuildError struct {
	Stage    string
	Messages []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, strings.Join(e.Messages, "; "))
}

// NewBuildError converts esbuild messages into a BuildError.
func NewBuildError(stage string, msgs []api.Message) *BuildError {
	return &BuildError{Stage: stage, Messages: Messages(msgs)}
}

// Messages renders esbuild messages as "file:line:column: text".
func Messages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, cleanMessage(msg))
	}
	return out
}

// cleanMessage cleans up an esbuild message for display
func cleanMessage(msg api.Message) string {
	text := msg.Text
	if msg.PluginName != "" {
		text = fmt.Sprintf("[%s] %s", msg.PluginName, text)
	}
	if msg.Location == nil {
		return text
	}
	file := namespacePrefix.ReplaceAllString(msg.Location.File, "")
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, msg.Location.Line, msg.Location.Column, text)
}
