package prompt

import (
	"context"
	"errors"
	"os"

	"github.com/oshokin/bbug/internal/config"
)

// KeepPreviousConfigQuestion is asked once per install run.
const KeepPreviousConfigQuestion = "Do you want to keep the previous configuration?(Y/N)"

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("prompt aborted by user")

// Prompter asks the operator questions during an install.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string) (bool, error)
	// Ask collects free-text answers keyed by question name.
	Ask(ctx context.Context, questions []config.Question) (map[string]string, error)
}

// New returns a form-based prompter when both streams are terminals and a
// line-based one otherwise, so piped input keeps working.
//
//nolint:ireturn // Callers only need the capability.
func New(in, out *os.File) Prompter {
	if IsInteractive(in, out) {
		return NewHuhPrompter(in, out)
	}

	return NewLinePrompter(in, out)
}

// title returns the text shown for a question.
func title(q config.Question) string {
	if q.Message != "" {
		return q.Message
	}

	return q.Name
}
