package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/bbug/internal/config"
)

// LinePrompter asks questions one line at a time. It serves piped stdin
// and terminals without cursor control.
type LinePrompter struct {
	// reader buffers the input stream.
	reader *bufio.Reader
	// out receives the question text.
	out io.Writer
}

// NewLinePrompter creates a line-based prompter on the given streams.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Confirm prints the question and treats Y, y or yes as agreement.
// A closed input counts as a negative answer.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.readAnswer(ctx, question+" ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Ask prints each question and stores the trimmed answer under its name.
func (p *LinePrompter) Ask(ctx context.Context, questions []config.Question) (map[string]string, error) {
	answers := make(map[string]string, len(questions))

	for _, q := range questions {
		answer, err := p.readAnswer(ctx, "? "+title(q)+" ")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Name, err)
		}

		answers[q.Name] = answer
	}

	return answers, nil
}

// readAnswer writes the prompt and reads one line.
func (p *LinePrompter) readAnswer(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := io.WriteString(p.out, prompt); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}

	return strings.TrimSpace(line), nil
}
