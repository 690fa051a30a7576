package prompt

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/oshokin/bbug/internal/config"
)

// HuhPrompter renders prompts as charmbracelet/huh forms.
type HuhPrompter struct {
	// in is the terminal input.
	in io.Reader
	// out is where forms are drawn.
	out io.Writer
}

// NewHuhPrompter creates a form-based prompter on the given streams.
func NewHuhPrompter(in io.Reader, out io.Writer) *HuhPrompter {
	return &HuhPrompter{in: in, out: out}
}

// Confirm renders a yes/no prompt.
func (p *HuhPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	var value bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&value),
		),
	)

	if err := p.run(ctx, form); err != nil {
		return false, err
	}

	return value, nil
}

// Ask renders one input per question in a single form.
func (p *HuhPrompter) Ask(ctx context.Context, questions []config.Question) (map[string]string, error) {
	values := make([]string, len(questions))
	fields := make([]huh.Field, 0, len(questions))

	for i, q := range questions {
		fields = append(fields, huh.NewInput().
			Key(q.Name).
			Title(title(q)).
			Value(&values[i]))
	}

	answers := make(map[string]string, len(questions))
	if len(fields) == 0 {
		return answers, nil
	}

	if err := p.run(ctx, huh.NewForm(huh.NewGroup(fields...))); err != nil {
		return nil, err
	}

	for i, q := range questions {
		answers[q.Name] = values[i]
	}

	return answers, nil
}

// run executes the form on the prompter streams.
func (p *HuhPrompter) run(ctx context.Context, form *huh.Form) error {
	form = form.WithInput(p.in).WithOutput(p.out)

	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}

	return err
}
