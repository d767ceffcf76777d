package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all ds configuration options.
//
// Config files are JWCC (JSON with comments and trailing commas), parsed
// leniently via hujson.
type Config struct {
	// DataDir is the storage root. Relative paths resolve against the
	// working directory.
	DataDir string `json:"data_dir"`

	// Collections maps collection names to per-collection settings.
	Collections map[string]CollectionConfig `json:"collections,omitempty"`
}

// CollectionConfig is the per-collection configuration.
type CollectionConfig struct {
	// MaxDocuments caps the collection size. Absent means unbounded;
	// zero disables storage for the collection entirely.
	MaxDocuments *int `json:"max_documents,omitempty"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // path to global config if loaded, empty otherwise
	Project string // path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{DataDir: ".docstore"}
}

// ConfigFileName is the project config file name.
const ConfigFileName = ".ds.json"

var errConfigInvalid = errors.New("invalid config file")

// globalConfigPath returns the global config path:
// $XDG_CONFIG_HOME/ds/config.json, else ~/.config/ds/config.json.
// Empty if the home directory cannot be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "ds", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "ds", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest
// wins):
//  1. Defaults
//  2. Global user config
//  3. Project config (.ds.json in workDir), or the explicit file given
//     via configPath
//  4. CLI overrides (applied by the caller)
func LoadConfig(workDir, configPath string, env map[string]string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	globalPath := globalConfigPath(env)
	if globalPath != "" {
		loadedCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, ConfigSources{}, err
		}

		if loaded {
			sources.Global = globalPath
			cfg = mergeConfig(cfg, loadedCfg)
		}
	}

	projectPath := configPath
	required := configPath != ""

	if projectPath == "" {
		projectPath = filepath.Join(workDir, ConfigFileName)
	}

	loadedCfg, loaded, err := loadConfigFile(projectPath, required)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	if loaded {
		sources.Project = projectPath
		cfg = mergeConfig(cfg, loadedCfg)
	}

	return cfg, sources, nil
}

// loadConfigFile reads one config file. A missing file is an error only
// when required (explicit --config path).
func loadConfigFile(path string, required bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("reading config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %q: %w", errConfigInvalid, path, err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %q: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

// mergeConfig overlays layer onto base; set fields in layer win, and
// per-collection settings merge by name.
func mergeConfig(base, layer Config) Config {
	if layer.DataDir != "" {
		base.DataDir = layer.DataDir
	}

	if len(layer.Collections) > 0 {
		if base.Collections == nil {
			base.Collections = make(map[string]CollectionConfig, len(layer.Collections))
		}

		for name, cc := range layer.Collections {
			base.Collections[name] = cc
		}
	}

	return base
}
