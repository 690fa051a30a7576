package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/bbug/internal/api/admin"
	"github.com/oshokin/bbug/internal/archive"
	"github.com/oshokin/bbug/internal/bundle"
	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/domain/install"
	"github.com/oshokin/bbug/internal/domain/module"
	"github.com/oshokin/bbug/internal/logger"
	"github.com/oshokin/bbug/internal/prompt"
)

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, cfg *config.Configuration) (string, error)
}

// Producer builds the module entries into the output directory.
type Producer interface {
	Produce(ctx context.Context, plan *bundle.Plan) (*bundle.Report, error)
}

// Packager archives the build output.
type Packager interface {
	Package(ctx context.Context, srcDir, target string) (*archive.Artifact, error)
}

// Uploader submits the archive together with the keep flag.
type Uploader interface {
	Upload(ctx context.Context, artifact io.Reader, keep bool, cfg *config.Configuration) (bool, error)
}

// Reconfigurer applies collected app settings to the installed module.
type Reconfigurer interface {
	Reconfigure(ctx context.Context, cfg *config.Configuration) error
}

// Options are inputs accepted by the installer entry point.
type Options struct {
	// RootPath is the module project directory.
	RootPath string
	// Flags are the command-line connection settings.
	Flags *config.Flags
	// KeepPreviousConfig answers the keep question up front; nil asks the operator.
	KeepPreviousConfig *bool
	// Bundler is the bundler command line; empty uses bundle.DefaultCommand.
	Bundler []string
}

// Result describes a completed install.
type Result struct {
	// Configuration is the record every stage worked on.
	Configuration *config.Configuration
	// Entries are the scripts derived from the manifest.
	Entries []module.Entry
	// Bundled is false when the module declared no entries.
	Bundled bool
	// Artifact is the uploaded archive.
	Artifact *archive.Artifact
	// KeepPreviousConfig is the operator decision sent with the upload.
	KeepPreviousConfig bool
	// PostConfigured reports whether the collected settings were applied.
	PostConfigured bool
	// PostConfigureErr is the non-fatal failure of applying the settings.
	PostConfigureErr error
}

// Option replaces one of the installer collaborators.
type Option func(*runner)

// WithAuthenticator replaces the authenticator.
func WithAuthenticator(a Authenticator) Option {
	return func(r *runner) {
		r.authenticator = a
	}
}

// WithProducer replaces the bundler.
func WithProducer(p Producer) Option {
	return func(r *runner) {
		r.producer = p
	}
}

// WithPackager replaces the packager.
func WithPackager(p Packager) Option {
	return func(r *runner) {
		r.packager = p
	}
}

// WithUploader replaces the upload client.
func WithUploader(u Uploader) Option {
	return func(r *runner) {
		r.uploader = u
	}
}

// WithReconfigurer replaces the post-install configurator.
func WithReconfigurer(rc Reconfigurer) Option {
	return func(r *runner) {
		r.reconfigurer = rc
	}
}

// WithPrompter replaces the operator prompts.
func WithPrompter(p prompt.Prompter) Option {
	return func(r *runner) {
		r.prompter = p
	}
}

// WithArchivePath changes where the archive is written. The run lock lives next to it.
func WithArchivePath(path string) Option {
	return func(r *runner) {
		r.archivePath = path
	}
}

// runner holds the collaborators and state of a single install.
// It is unexported, call Run(ctx, Options) from callers.
type runner struct {
	opts          *Options        // Inputs of this run.
	authenticator Authenticator   // Obtains the auth token.
	producer      Producer        // Builds the entries.
	packager      Packager        // Archives the build output.
	uploader      Uploader        // Sends the archive.
	reconfigurer  Reconfigurer    // Applies collected settings.
	prompter      prompt.Prompter // Asks the operator.
	archivePath   string          // Where the archive is written.
}

// Run executes the install pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options, options ...Option) (*Result, error) {
	ctx = logger.WithName(ctx, "installer")

	r := newRunner(opts, options...)

	if operator, err := install.DetectOperator(); err == nil {
		logger.DebugKV(ctx, "Install requested", "hostname", operator.Hostname, "username", operator.Username)
	}

	lock, err := acquireLock(ctx, r.archivePath+lockSuffix)
	if err != nil {
		return nil, install.Fail(install.StageValidate, err)
	}

	defer lock.release(ctx)

	result, err := r.run(ctx)
	if err != nil {
		return result, err
	}

	logger.Info(ctx, "Install completed")

	return result, nil
}

// newRunner fills the collaborators the caller did not replace.
func newRunner(opts *Options, options ...Option) *runner {
	if opts == nil {
		opts = new(Options)
	}

	client := admin.NewClient()

	r := &runner{
		opts:          opts,
		authenticator: client,
		uploader:      client,
		reconfigurer:  client,
		archivePath:   archive.DefaultTarget(),
	}

	for _, option := range options {
		option(r)
	}

	if r.producer == nil {
		r.producer = bundle.NewExecProducer(opts.Bundler)
	}

	if r.packager == nil {
		r.packager = archive.NewZip()
	}

	if r.prompter == nil {
		r.prompter = prompt.New(os.Stdin, os.Stdout)
	}

	return r
}

// run executes the stages in order:
// 1) Validate the project and connection settings.
// 2) Collect app settings.
// 3) Authenticate.
// 4) Derive the entries.
// 5) Bundle them.
// 6) Package the build output.
// 7) Upload with the keep decision.
// 8) Apply the settings when they replace the previous ones.
func (r *runner) run(ctx context.Context) (*Result, error) {
	cfg, err := r.validate(ctx)
	if err != nil {
		return nil, install.Fail(install.StageValidate, err)
	}

	ctx = logger.WithKV(ctx, "module", cfg.ModuleName())
	result := &Result{Configuration: cfg}

	if err = cfg.CollectAppConfig(ctx, r.prompter); err != nil {
		return result, install.Fail(install.StageCollectAppConfig, err)
	}

	token, err := r.authenticator.Authenticate(ctx, cfg)
	if err != nil {
		return result, install.Fail(install.StageAuthenticate, err)
	}

	cfg.AttachToken(token)
	logger.Info(ctx, "Authenticated")

	result.Entries = cfg.Manifest.Entries()

	if result.Bundled, err = r.bundle(ctx, cfg, result.Entries); err != nil {
		return result, install.Fail(install.StageBundle, err)
	}

	if result.Artifact, err = r.packager.Package(ctx, cfg.BuildPath(), r.archivePath); err != nil {
		return result, install.Fail(install.StagePackage, err)
	}

	if result.KeepPreviousConfig, err = r.upload(ctx, cfg, result.Artifact); err != nil {
		return result, install.Fail(install.StageUpload, err)
	}

	r.postConfigure(ctx, cfg, result)

	return result, nil
}

// validate resolves the configuration and refuses to go on without credentials.
func (r *runner) validate(ctx context.Context) (*config.Configuration, error) {
	cfg, err := config.Resolve(ctx, r.opts.RootPath, r.opts.Flags)
	if err != nil {
		return nil, err
	}

	if !cfg.Deployable() {
		return nil, config.ErrNotDeployable
	}

	return cfg, nil
}

// bundle runs the producer unless there is nothing to build.
func (r *runner) bundle(ctx context.Context, cfg *config.Configuration, entries []module.Entry) (bool, error) {
	if len(entries) == 0 {
		logger.Info(ctx, "No entries declared in the manifest, skipping bundling")
		return false, nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}

	logger.InfoKV(ctx, "Bundling module", "entries", names, "mode", cfg.BuildMode())

	report, err := r.producer.Produce(ctx, bundle.NewPlan(cfg, entries))
	if report != nil {
		for _, warning := range report.Warnings {
			logger.Warn(ctx, warning)
		}

		for _, message := range report.Errors {
			logger.Error(ctx, message)
		}
	}

	if err != nil {
		return false, err
	}

	if report != nil && report.Failed() {
		return false, fmt.Errorf("%w: %d error(s)", bundle.ErrBuildFailed, len(report.Errors))
	}

	return true, nil
}

// upload settles the keep decision, then sends the archive.
// The prompt is answered before the archive is opened.
func (r *runner) upload(ctx context.Context, cfg *config.Configuration, artifact *archive.Artifact) (bool, error) {
	keep, err := r.keepPreviousConfig(ctx)
	if err != nil {
		return false, err
	}

	file, err := os.Open(filepath.Clean(artifact.Path))
	if err != nil {
		return false, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	return r.uploader.Upload(ctx, file, keep, cfg)
}

// keepPreviousConfig returns the flag value or asks the operator once.
func (r *runner) keepPreviousConfig(ctx context.Context) (bool, error) {
	if r.opts.KeepPreviousConfig != nil {
		return *r.opts.KeepPreviousConfig, nil
	}

	keep, err := r.prompter.Confirm(ctx, prompt.KeepPreviousConfigQuestion)
	if err != nil {
		return false, fmt.Errorf("keep previous configuration: %w", err)
	}

	return keep, nil
}

// postConfigure applies the collected settings when the operator replaced
// the remote ones. A failure is logged and recorded, never returned.
func (r *runner) postConfigure(ctx context.Context, cfg *config.Configuration, result *Result) {
	if cfg.AppConfig == nil || result.KeepPreviousConfig {
		return
	}

	err := r.reconfigurer.Reconfigure(ctx, cfg)
	if err == nil {
		result.PostConfigured = true
		return
	}

	failure := install.Fail(install.StagePostConfigure, err)
	result.PostConfigureErr = failure

	detail := err.Error()

	var typed *install.Error
	if errors.As(failure, &typed) {
		detail = typed.Detail()
	}

	logger.WarnKV(ctx, "Module is installed but its configuration was not applied",
		"stage", install.StagePostConfigure.String(),
		"error", detail)
}
