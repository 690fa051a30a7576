package bundle

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/domain/module"
	"github.com/oshokin/bbug/internal/logger"
)

// Environment variables the bundler command reads its plan from.
const (
	EnvEntries    = "BBUG_ENTRIES"
	EnvMode       = "BBUG_MODE"
	EnvOutputPath = "BBUG_OUTPUT_PATH"
	EnvLibrary    = "BBUG_LIBRARY"
)

const (
	errorPrefix   = "ERROR"
	warningPrefix = "WARNING"

	maxLineSize = 1 << 20

	outputDirMode os.FileMode = 0o755
)

var (
	// ErrBuildFailed is returned when the bundler reports errors or exits non-zero.
	ErrBuildFailed = errors.New("bundle failed")
	// errNoCommand is returned when the producer has no command configured.
	errNoCommand = errors.New("bundler command is not set")
)

// DefaultCommand runs webpack from the project's node_modules.
func DefaultCommand() []string {
	return []string{"npx", "webpack"}
}

// Plan is everything the bundler needs to build one module.
type Plan struct {
	// RootPath is the project directory the bundler runs in.
	RootPath string
	// Entries are the scripts to compile, keyed by chunk name.
	Entries []module.Entry
	// Mode is development or production.
	Mode string
	// Library is the global the bundle is exported under.
	Library string
	// OutputPath is the directory the bundle is written to.
	OutputPath string
}

// NewPlan derives the bundle plan from a resolved configuration.
func NewPlan(cfg *config.Configuration, entries []module.Entry) *Plan {
	return &Plan{
		RootPath:   cfg.RootPath,
		Entries:    entries,
		Mode:       cfg.BuildMode(),
		Library:    cfg.Manifest.Library(),
		OutputPath: cfg.BuildPath(),
	}
}

// Report collects what the bundler said about the build.
type Report struct {
	// Warnings do not fail the build.
	Warnings []string
	// Errors fail the build.
	Errors []string
}

// Failed reports whether the bundler reported any error.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}

// ExecProducer builds the module by running an external bundler command.
type ExecProducer struct {
	// command is the program and its arguments.
	command []string
}

// NewExecProducer creates a producer running command, or DefaultCommand if empty.
func NewExecProducer(command []string) *ExecProducer {
	if len(command) == 0 {
		command = DefaultCommand()
	}

	return &ExecProducer{command: command}
}

// Produce cleans the output directory, runs the bundler and classifies its output.
func (p *ExecProducer) Produce(ctx context.Context, plan *Plan) (*Report, error) {
	if len(p.command) == 0 {
		return nil, errNoCommand
	}

	if err := cleanOutput(plan.OutputPath); err != nil {
		return nil, err
	}

	env, err := planEnvironment(plan)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // The bundler command is supplied by the operator.
	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Dir = plan.RootPath
	cmd.Env = append(os.Environ(), env...)

	reader, writer := io.Pipe()
	cmd.Stdout = writer
	cmd.Stderr = writer

	logger.InfoKV(ctx, "Running bundler", "command", strings.Join(p.command, " "))

	if err = cmd.Start(); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("start bundler: %w", err)
	}

	waitErr := make(chan error, 1)

	go func() {
		waitErr <- cmd.Wait()

		_ = writer.Close()
	}()

	report := collectOutput(ctx, reader)

	if err = <-waitErr; err != nil {
		return report, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	if report.Failed() {
		return report, fmt.Errorf("%w: %d error(s)", ErrBuildFailed, len(report.Errors))
	}

	return report, nil
}

// collectOutput sorts bundler output into errors, warnings and plain log lines.
func collectOutput(ctx context.Context, reader io.Reader) *Report {
	report := new(Report)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case strings.TrimSpace(raw) == "":
			continue
		case hasMarker(raw, errorPrefix):
			report.Errors = append(report.Errors, raw)
		case hasMarker(raw, warningPrefix):
			report.Warnings = append(report.Warnings, raw)
		default:
			logger.Info(ctx, strings.TrimSpace(raw))
		}
	}

	// Keep the command from blocking on a full pipe if scanning stopped early.
	_, _ = io.Copy(io.Discard, reader)

	return report
}

// planEnvironment encodes the plan as environment variables.
func planEnvironment(plan *Plan) ([]string, error) {
	entries := make(map[string][]string, len(plan.Entries))
	for _, entry := range plan.Entries {
		entries[entry.Name] = []string{filepath.Join(plan.RootPath, entry.Script)}
	}

	encoded, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode bundle entries: %w", err)
	}

	return []string{
		EnvEntries + "=" + string(encoded),
		EnvMode + "=" + plan.Mode,
		EnvOutputPath + "=" + plan.OutputPath,
		EnvLibrary + "=" + plan.Library,
	}, nil
}

// cleanOutput empties the output directory before a build.
func cleanOutput(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clean build output: %w", err)
	}

	if err := os.MkdirAll(path, outputDirMode); err != nil {
		return fmt.Errorf("create build output: %w", err)
	}

	return nil
}

// hasMarker reports whether line starts with the upper-case marker followed
// by a space, a colon or nothing. Indented asset rows never match.
func hasMarker(line, marker string) bool {
	rest, found := strings.CutPrefix(line, marker)
	if !found {
		return false
	}

	return rest == "" || rest[0] == ' ' || rest[0] == ':'
}
