package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClientEnvPrefix es el prefijo de las variables del cliente:
// CHECKPAY_BACKEND_URL -> backend.url, CHECKPAY_CAPTURE_MAX_BYTES -> capture.max_bytes.
const ClientEnvPrefix = "CHECKPAY_"

// Formatos de salida del CLI.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// ClientConfig es la configuración del cliente de terminal.
type ClientConfig struct {
	Backend struct {
		URL     string        `koanf:"url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"backend"`
	Storage struct {
		Dir string `koanf:"dir"`
	} `koanf:"storage"`
	Capture struct {
		MaxBytes int64 `koanf:"max_bytes"`
	} `koanf:"capture"`
	Output string `koanf:"output"`
}

// DefaultClientDir es ~/.checkpay, o ./.checkpay si no hay home.
func DefaultClientDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".checkpay"
	}
	return filepath.Join(home, ".checkpay")
}

// DefaultClientConfigPath es el archivo que se lee si no se indica otro.
func DefaultClientConfigPath() string {
	return filepath.Join(DefaultClientDir(), "config.yaml")
}

func clientDefaults() map[string]any {
	return map[string]any{
		"backend.url":       "http://localhost:8080",
		"backend.timeout":   "30s",
		"storage.dir":       filepath.Join(DefaultClientDir(), "data"),
		"capture.max_bytes": int64(10 << 20),
		"output":            OutputTable,
	}
}

// LoadClientConfig aplica en orden: valores por defecto, archivo YAML y
// variables CHECKPAY_*. Si path esta vacio se usa el archivo por defecto y
// su ausencia no es error; un path explicito debe existir.
func LoadClientConfig(path string) (*ClientConfig, error) {
	k := koanf.New(".")
	if err := k.Load(mapProvider(clientDefaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultClientConfigPath()
	}
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("load config file %s: %w", path, statErr)
	}

	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, ClientEnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}
	if err := k.Load(env.Provider(ClientEnvPrefix, ".", transform), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg ClientConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate se llama otra vez despues de aplicar los flags.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return errors.New("backend.url is required")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if strings.TrimSpace(c.Storage.Dir) == "" {
		return errors.New("storage.dir is required")
	}
	if c.Capture.MaxBytes <= 0 {
		return errors.New("capture.max_bytes must be positive")
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	return nil
}

// mapProvider carga un mapa plano en koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, v := range m {
		setNested(out, strings.Split(key, "."), v)
	}
	return out, nil
}

func setNested(dst map[string]any, path []string, v any) {
	if len(path) == 1 {
		dst[path[0]] = v
		return
	}
	child, ok := dst[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		dst[path[0]] = child
	}
	setNested(child, path[1:], v)
}
