package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/oshokin/bbug/internal/domain/module"
	"github.com/oshokin/bbug/internal/logger"
)

const (
	// AppID identifies the installer to the platform admin API.
	AppID = "302e48d75f4b55016aaf2c81f5ddf80f039e3f863277"

	// DefaultLocalFilename is the optional per-project override file.
	DefaultLocalFilename = ".bbugrc"

	// DefaultPort is used when neither the local file nor the CLI sets a port.
	DefaultPort = 443

	// SecurePort is the only port served over TLS.
	SecurePort = 443

	// BuildDirectory is where the bundler writes its output, relative to the root.
	BuildDirectory = "build"

	buildModeDevelopment = "development"
	buildModeProduction  = "production"
)

var (
	// ErrEntryScriptMissing is returned when the project has no entry.js.
	ErrEntryScriptMissing = errors.New("please define entry.js file within the module package")
	// ErrManifestMissing is returned when the project has no manifest.json.
	ErrManifestMissing = errors.New("please define manifest.json file within the module package")
	// ErrNotDeployable is returned when email, password or host is missing.
	ErrNotDeployable = errors.New("email, password and host must be provided")
)

// Credentials authenticate the operator against the admin API.
type Credentials struct {
	// Email is the admin account login.
	Email string
	// Password is the admin account password.
	Password string
}

// Flags carries the values supplied on the command line.
type Flags struct {
	// Email is the --email flag.
	Email string
	// Password is the --password flag.
	Password string
	// Host is the --host flag.
	Host string
	// Port is the --port flag; zero means unset.
	Port int
	// CompanyID is the --company-id flag.
	CompanyID string
	// Dev is the --dev flag selecting a development build.
	Dev bool
	// LocalFile overrides the path of the local configuration file.
	LocalFile string
}

// Configuration is the single record every install stage reads.
// It is built once by Resolve and then enriched by the pipeline in order.
type Configuration struct {
	// RootPath is the absolute path of the module project.
	RootPath string
	// Manifest is the validated project descriptor.
	Manifest *module.Manifest
	// Credentials are the merged login credentials.
	Credentials Credentials
	// Host is the admin API host.
	Host string
	// Port is the admin API port.
	Port int
	// CompanyID is the company the module is installed for.
	CompanyID string
	// DevMode selects a development build.
	DevMode bool
	// AuthToken is set after authentication.
	AuthToken string
	// AppID is the fixed platform identifier.
	AppID string
	// AppConfig holds the answers to the schema questions, nil if none were collected.
	AppConfig map[string]string
}

// Resolve validates the project layout and merges the local file with the CLI flags.
func Resolve(ctx context.Context, rootPath string, flags *Flags) (*Configuration, error) {
	if flags == nil {
		flags = new(Flags)
	}

	root, err := expandPath(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	if err = validateStructure(root); err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(filepath.Join(root, module.ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := module.Parse(contents)
	if err != nil {
		return nil, err
	}

	localPath := flags.LocalFile
	if localPath == "" {
		localPath = filepath.Join(root, DefaultLocalFilename)
	}

	local := loadLocalFile(ctx, localPath)

	cfg := &Configuration{
		RootPath: root,
		Manifest: manifest,
		Credentials: Credentials{
			Email:    pick(local.Email, flags.Email),
			Password: pick(local.Password, flags.Password),
		},
		Host:      pick(local.Host, flags.Host),
		Port:      pickPort(local.Port, flags.Port),
		CompanyID: pick(local.CompanyID, flags.CompanyID),
		DevMode:   flags.Dev,
		AppID:     AppID,
	}

	logger.DebugKV(ctx, "Resolved configuration",
		"root", cfg.RootPath,
		"module", cfg.Manifest.UniqueName,
		"host", cfg.Host,
		"port", cfg.Port,
		"company_id", cfg.CompanyID,
		"dev", cfg.DevMode)

	return cfg, nil
}

// Deployable reports whether email, password and host are all present.
func (c *Configuration) Deployable() bool {
	return c.Credentials.Email != "" && c.Credentials.Password != "" && c.Host != ""
}

// Authenticated reports whether a token has been attached.
func (c *Configuration) Authenticated() bool {
	return c.AuthToken != ""
}

// AttachToken stores the access token obtained by authentication.
func (c *Configuration) AttachToken(token string) {
	c.AuthToken = token
}

// ModuleName returns the manifest unique name.
func (c *Configuration) ModuleName() string {
	return c.Manifest.UniqueName
}

// Scheme returns https for port 443 and http for any other port.
func (c *Configuration) Scheme() string {
	if c.Port == SecurePort {
		return "https"
	}

	return "http"
}

// BaseURL returns the admin API origin, e.g. https://host:443.
func (c *Configuration) BaseURL() string {
	return c.Scheme() + "://" + c.Host + ":" + strconv.Itoa(c.Port)
}

// BuildMode returns the bundler mode for the configuration.
func (c *Configuration) BuildMode() string {
	if c.DevMode {
		return buildModeDevelopment
	}

	return buildModeProduction
}

// BuildPath returns the absolute bundler output directory.
func (c *Configuration) BuildPath() string {
	return filepath.Join(c.RootPath, BuildDirectory)
}

// validateStructure checks the mandatory project files.
func validateStructure(root string) error {
	required := []struct {
		name string
		err  error
	}{
		{name: module.EntryScript, err: ErrEntryScriptMissing},
		{name: module.ManifestFilename, err: ErrManifestMissing},
	}

	for _, file := range required {
		info, err := os.Stat(filepath.Join(root, file.name))
		if err != nil || info.IsDir() {
			return file.err
		}
	}

	return nil
}

// expandPath resolves ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}

	return filepath.Abs(expanded)
}

// pick returns the local file value when present, otherwise the CLI value.
func pick(local, cli string) string {
	if local != "" {
		return local
	}

	return cli
}

// pickPort applies the same precedence to ports and falls back to DefaultPort.
func pickPort(local, cli int) int {
	switch {
	case local > 0:
		return local
	case cli > 0:
		return cli
	default:
		return DefaultPort
	}
}
