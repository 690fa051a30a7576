package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/bbug/internal/logger"
)

// LocalFile holds the overrides read from the local configuration file.
// Every field is optional.
type LocalFile struct {
	// Email overrides the --email flag.
	Email string
	// Password overrides the --password flag.
	Password string
	// Host overrides the --host flag.
	Host string
	// Port overrides the --port flag; zero means unset.
	Port int
	// CompanyID overrides the --company-id flag.
	CompanyID string
}

// errUnsupportedValue is returned for fields of an unexpected type.
var errUnsupportedValue = errors.New("unsupported value")

// ReadLocalFile parses the local configuration file. JSON and YAML share a
// decoder; a .toml extension selects the TOML decoder.
func ReadLocalFile(path string) (*LocalFile, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand local file path: %w", err)
	}

	contents, err := os.ReadFile(filepath.Clean(expanded))
	if err != nil {
		return nil, fmt.Errorf("read local file: %w", err)
	}

	raw := make(map[string]any)

	if strings.EqualFold(filepath.Ext(expanded), ".toml") {
		err = toml.Unmarshal(contents, &raw)
	} else {
		err = yaml.Unmarshal(contents, &raw)
	}

	if err != nil {
		return nil, fmt.Errorf("decode local file: %w", err)
	}

	local := new(LocalFile)

	fields := []struct {
		key    string
		target *string
	}{
		{key: "email", target: &local.Email},
		{key: "password", target: &local.Password},
		{key: "host", target: &local.Host},
		{key: "companyId", target: &local.CompanyID},
	}

	for _, field := range fields {
		if *field.target, err = stringValue(raw[field.key]); err != nil {
			return nil, fmt.Errorf("%s: %w", field.key, err)
		}
	}

	if local.Port, err = intValue(raw["port"]); err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}

	return local, nil
}

// loadLocalFile reads the local file best-effort: any failure yields no overrides.
func loadLocalFile(ctx context.Context, path string) *LocalFile {
	local, err := ReadLocalFile(path)
	if err == nil {
		logger.DebugKV(ctx, "Loaded local configuration file", "path", path)
		return local
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.DebugKV(ctx, "Local configuration file not found", "path", path)
	} else {
		logger.WarnKV(ctx, "Ignoring unreadable local configuration file", "path", path, "error", err)
	}

	return new(LocalFile)
}

// stringValue accepts strings and numbers; company ids are often written as numbers.
func stringValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		if v != math.Trunc(v) {
			return "", fmt.Errorf("%w: %v", errUnsupportedValue, v)
		}

		return strconv.FormatFloat(v, 'f', 0, 64), nil
	default:
		return "", fmt.Errorf("%w: %T", errUnsupportedValue, value)
	}
}

// intValue accepts integers and numeric strings.
func intValue(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil //nolint:gosec // Ports are small.
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", errUnsupportedValue, v)
		}

		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}

		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errUnsupportedValue, v)
		}

		return port, nil
	default:
		return 0, fmt.Errorf("%w: %T", errUnsupportedValue, value)
	}
}
