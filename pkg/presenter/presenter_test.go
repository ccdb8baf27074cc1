package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	presenter := New()
	assert.NotNil(t, presenter)
	assert.Equal(t, os.Stdout, presenter.output)
	assert.Equal(t, os.Stderr, presenter.errorOutput)
	assert.False(t, presenter.quiet)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name            string
		noColor         string
		skillforgeColor string
		expected        ColorMode
	}{
		{"no env vars", "", "", ColorAuto},
		{"NO_COLOR set", "1", "", ColorNever},
		{"SKILLFORGE_COLOR always", "", "always", ColorAlways},
		{"SKILLFORGE_COLOR force", "", "force", ColorAlways},
		{"SKILLFORGE_COLOR never", "", "never", ColorNever},
		{"SKILLFORGE_COLOR off", "", "off", ColorNever},
		{"NO_COLOR wins over SKILLFORGE_COLOR", "1", "always", ColorNever},
		{"invalid SKILLFORGE_COLOR", "", "invalid", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("NO_COLOR")
			os.Unsetenv("SKILLFORGE_COLOR")
			defer func() {
				os.Unsetenv("NO_COLOR")
				os.Unsetenv("SKILLFORGE_COLOR")
			}()

			if tt.noColor != "" {
				os.Setenv("NO_COLOR", tt.noColor)
			}
			if tt.skillforgeColor != "" {
				os.Setenv("SKILLFORGE_COLOR", tt.skillforgeColor)
			}

			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestError(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Error(errors.New("something broke"), "failed to do thing")

	assert.Empty(t, output.String())
	assert.Contains(t, errorOutput.String(), "[ERROR]")
	assert.Contains(t, errorOutput.String(), "failed to do thing")
	assert.Contains(t, errorOutput.String(), "something broke")
}

func TestErrorWithoutContext(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Error(errors.New("bare error"), "")

	assert.Contains(t, errorOutput.String(), "[ERROR] bare error")
}

func TestErrorNil(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Error(nil, "context")

	assert.Empty(t, errorOutput.String())
}

func TestSuccess(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Success("it worked")

	assert.Contains(t, output.String(), "it worked")
	assert.Empty(t, errorOutput.String())
}

func TestWarning(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Warning("heads up")

	assert.Contains(t, output.String(), "heads up")
}

func TestInfo(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Info("plain message")

	assert.Equal(t, "plain message\n", output.String())
}

func TestSection(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Section("Agents")

	lines := strings.Split(strings.TrimRight(output.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "Agents", lines[0])
	assert.Equal(t, strings.Repeat("-", len("Agents")), lines[1])
}

func TestSeparator(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	presenter.Separator()

	assert.Contains(t, output.String(), strings.Repeat("-", 60))
}

func TestPrompt(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)
	presenter.input = strings.NewReader("yes\n")

	response := presenter.Prompt("Continue", "yes", "no")

	assert.Equal(t, "yes", response)
	assert.Contains(t, output.String(), "Continue")
	assert.Contains(t, output.String(), "[yes/no]")
}

func TestQuietMode(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)
	presenter.SetQuiet(true)

	assert.True(t, presenter.IsQuiet())

	presenter.Success("hidden")
	presenter.Warning("hidden")
	presenter.Info("hidden")
	presenter.Section("hidden")
	presenter.Separator()
	assert.Empty(t, output.String())

	// Errors are never suppressed.
	presenter.Error(errors.New("still shown"), "")
	assert.Contains(t, errorOutput.String(), "still shown")
}

func TestColorModeApplied(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	var output, errorOutput bytes.Buffer

	NewWithOptions(&output, &errorOutput, ColorNever)
	assert.True(t, color.NoColor)

	NewWithOptions(&output, &errorOutput, ColorAlways)
	assert.False(t, color.NoColor)
}
