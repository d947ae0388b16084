package config

import (
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/parquetry/parquetry/pkg/errors"
)

// Load reads a configuration file (.yaml, .yml or .json), applies
// ${VAR} environment substitution and the LOG_LEVEL / OUTPUT_DIR /
// LOG_FILE environment overrides, and validates the result.
// An empty path returns the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".yaml", ".yml", ".json":
		default:
			return nil, errors.Newf(errors.ErrorTypeConfig, "invalid config file format %q: must be .yaml, .yml, or .json", ext)
		}

		data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
		}

		content := substituteEnvVars(string(data))

		if ext == ".json" {
			if err := json.Unmarshal([]byte(content), cfg); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse JSON config")
			}
		} else {
			if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML config")
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML or JSON file based on the
// destination extension.
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
