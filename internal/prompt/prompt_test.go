package prompt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/bbug/internal/config"
)

// TestLinePrompter_Confirm maps answers to the keep decision.
func TestLinePrompter_Confirm(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"Y\n":     true,
		"y\n":     true,
		" yes \n": true,
		"N\n":     false,
		"no\n":    false,
		"\n":      false,
		"":        false,
		"Y":       true,
	}

	for input, want := range cases {
		var out bytes.Buffer

		p := NewLinePrompter(strings.NewReader(input), &out)

		got, err := p.Confirm(context.Background(), KeepPreviousConfigQuestion)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
		require.Equal(t, KeepPreviousConfigQuestion+" ", out.String())
	}
}

// TestLinePrompter_Ask stores one trimmed answer per question.
func TestLinePrompter_Ask(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	p := NewLinePrompter(strings.NewReader("  key-1 \nblue\n"), &out)

	answers, err := p.Ask(context.Background(), []config.Question{
		{Name: "api_key", Message: "API key"},
		{Name: "colour"},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"api_key": "key-1", "colour": "blue"}, answers)
	require.Equal(t, "? API key ? colour ", out.String())
}

// TestLinePrompter_CancelledContext does not read once the context is done.
func TestLinePrompter_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewLinePrompter(strings.NewReader("Y\n"), new(bytes.Buffer))

	_, err := p.Confirm(ctx, "Continue?")
	require.ErrorIs(t, err, context.Canceled)
}

// TestNew_FallsBackToLines picks the line prompter for regular files.
func TestNew_FallsBackToLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	in, err := os.Create(filepath.Join(dir, "in"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	out, err := os.Create(filepath.Join(dir, "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.Close() })

	require.False(t, IsInteractive(in, out))
	require.False(t, IsInteractive(nil, out))
	require.IsType(t, &LinePrompter{}, New(in, out))
}
