package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix of environment variables mapped into the configuration.
	EnvPrefix = "KERKOAPP"
	// EnvInstancePath names the variable holding the instance directory.
	EnvInstancePath = EnvPrefix + "_INSTANCE_PATH"
	// EnvConfigFiles names the variable holding the configuration file list.
	EnvConfigFiles = EnvPrefix + "_CONFIG_FILES"

	defaultConfigFiles = "config.toml;instance.toml;.secrets.toml"
	defaultInstanceDir = "instance"
)

// Config is the outcome of the loading pipeline.
type Config struct {
	InstancePath string
	Mapping      Mapping
	Settings     Settings
}

// Load runs the whole pipeline against environ (os.Environ format):
// defaults, then files, then KERKOAPP_* variables, then the profile selected
// by DEBUG, and finally validation.
func Load(environ []string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	instancePath, err := ResolveInstancePath(environ)
	if err != nil {
		return nil, err
	}

	loader := NewLoader(instancePath, logger)
	if err := loader.MergeDefaults(); err != nil {
		return nil, err
	}
	configFiles, _ := lookupEnv(environ, EnvConfigFiles)
	if err := loader.LoadFiles(configFiles); err != nil {
		return nil, err
	}
	if err := loader.LoadEnv(EnvPrefix, environ); err != nil {
		return nil, err
	}
	if err := loader.LoadObject(ProfileFor(loader.Mapping().Bool("DEBUG"))); err != nil {
		return nil, err
	}

	settings, err := loader.Validate()
	if err != nil {
		return nil, err
	}

	return &Config{
		InstancePath: instancePath,
		Mapping:      loader.Mapping(),
		Settings:     *settings,
	}, nil
}

// ResolveInstancePath returns the instance directory: KERKOAPP_INSTANCE_PATH
// when set, which must then be absolute, or "instance" under the working
// directory.
func ResolveInstancePath(environ []string) (string, error) {
	if raw, ok := lookupEnv(environ, EnvInstancePath); ok && strings.TrimSpace(raw) != "" {
		path := strings.TrimSpace(raw)
		if !filepath.IsAbs(path) {
			return "", fmt.Errorf("%w: %q must be absolute", ErrInstancePath, path)
		}
		return filepath.Clean(path), nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInstancePath, err)
	}
	return filepath.Join(wd, defaultInstanceDir), nil
}

// Loader accumulates configuration layers into a single mapping.
type Loader struct {
	instancePath string
	logger       *zap.Logger
	mapping      Mapping
}

// NewLoader creates a Loader that resolves relative file paths against instancePath.
func NewLoader(instancePath string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		instancePath: instancePath,
		logger:       logger,
		mapping:      Mapping{},
	}
}

// Mapping returns the mapping built so far.
func (l *Loader) Mapping() Mapping {
	return l.mapping
}

// MergeDefaults applies the built-in defaults.
func (l *Loader) MergeDefaults() error {
	return l.mapping.Merge(Defaults())
}

// LoadFiles applies every file of a ';'-separated list in order. Missing
// files are skipped.
func (l *Loader) LoadFiles(spec string) error {
	if strings.TrimSpace(spec) == "" {
		spec = defaultConfigFiles
	}

	for _, path := range strings.Split(spec, ";") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.instancePath, path)
		}

		layer, err := loadFromFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("configuration file not found, skipping", zap.String("path", path))
			continue
		}
		if err != nil {
			return fmt.Errorf("load config file %s: %w", path, err)
		}
		if err := l.mapping.Merge(layer); err != nil {
			return err
		}
		l.logger.Debug("configuration file loaded", zap.String("path", path))
	}
	return nil
}

// LoadEnv applies every PREFIX_<KEY> variable. "__" inside <KEY> separates
// nested tables, and values that parse as JSON are stored decoded.
func (l *Loader) LoadEnv(prefix string, environ []string) error {
	prefix = strings.TrimSuffix(prefix, "_") + "_"

	// Entries apply in name order. A repeated name keeps its last value.
	entries := make([]string, len(environ))
	copy(entries, environ)
	sort.SliceStable(entries, func(i, j int) bool {
		return envName(entries[i]) < envName(entries[j])
	})

	layer := Mapping{}
	for _, entry := range entries {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		if name == EnvInstancePath || name == EnvConfigFiles {
			continue
		}
		key := strings.TrimPrefix(name, prefix)
		if key == "" {
			continue
		}
		layer.Set(strings.ReplaceAll(key, "__", "."), parseEnvValue(raw))
	}
	return l.mapping.Merge(layer)
}

func envName(entry string) string {
	name, _, _ := strings.Cut(entry, "=")
	return name
}

// LoadObject applies an environment-specific profile.
func (l *Loader) LoadObject(profile Profile) error {
	if err := l.mapping.Merge(profile.Values()); err != nil {
		return fmt.Errorf("apply %s profile: %w", profile.Name(), err)
	}
	l.logger.Debug("configuration profile applied", zap.String("profile", profile.Name()))
	return nil
}

// Validate decodes the mapping into Settings and checks it against the
// schema. The kerko and kerkoapp tables reject unknown keys.
func (l *Loader) Validate() (*Settings, error) {
	var settings Settings
	if err := decode(l.mapping, &settings, false); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	kerko, _ := l.mapping.Get("kerko")
	if err := decode(kerko, &settings.Kerko, true); err != nil {
		return nil, fmt.Errorf("%w: kerko: %v", ErrInvalidConfig, err)
	}

	if l.mapping.Has("kerkoapp.proxy_fix") {
		settings.KerkoApp.ProxyFix = &ProxyFixSettings{XFor: 1, XProto: 1}
	}
	kerkoApp, _ := l.mapping.Get("kerkoapp")
	if err := decode(kerkoApp, &settings.KerkoApp, true); err != nil {
		return nil, fmt.Errorf("%w: kerkoapp: %v", ErrInvalidConfig, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: validation failed: %v", ErrInvalidConfig, err)
	}
	return &settings, nil
}

// Dump renders the mapping as TOML.
func Dump(m Mapping) ([]byte, error) {
	out, err := toml.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("encode TOML: %w", err)
	}
	return out, nil
}

func decode(input any, target any, strict bool) error {
	if input == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			boolHookFunc(),
		),
		ErrorUnused: strict,
		Result:      target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// boolHookFunc lets bool fields take the same flag values as Mapping.Bool.
func boolHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.Bool {
			return data, nil
		}
		if b, ok := parseBool(data); ok {
			return b, nil
		}
		return data, nil
	}
}

func loadFromFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	layer := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &layer); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &layer); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return Mapping(layer), nil
}

func parseEnvValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func lookupEnv(environ []string, name string) (string, bool) {
	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok && key == name {
			return value, true
		}
	}
	return "", false
}
