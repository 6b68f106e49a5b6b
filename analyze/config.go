package analyze

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/gnoswap-labs/cnf/internal"
	"github.com/gnoswap-labs/cnf/internal/estimate"
	tt "github.com/gnoswap-labs/cnf/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up by the CLI and
// written by `cnf init`.
const DefaultConfigFile = ".cnf.yaml"

// Config is the content of the configuration file.
type Config struct {
	Name string `yaml:"name"`
	// Extensions selects the grammar files picked up when walking directories.
	Extensions []string `yaml:"extensions" validate:"min=1,dive,startswith=."`
	// EpsilonAliases are inputs that stand for the empty string.
	EpsilonAliases []string                 `yaml:"epsilon_aliases" validate:"dive,required"`
	Rules          map[string]tt.ConfigRule `yaml:"rules" validate:"dive,keys,rulename,endkeys"`
	Estimator      estimate.Config          `yaml:"estimator"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Name:           "cnf",
		Extensions:     []string{".txt", ".cnf", ".grammar"},
		EpsilonAliases: []string{"epsilon", "ε"},
		Rules:          internal.DefaultRules(),
		Estimator:      estimate.DefaultConfig(),
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("rulename", validateRuleName)
}

// validateRuleName accepts only names of configurable rules.
func validateRuleName(fl validator.FieldLevel) bool {
	return slices.Contains(internal.RuleNames(), fl.Field().String())
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Input maps an epsilon alias to the empty string and returns anything else
// unchanged.
func (c *Config) Input(s string) string {
	if slices.Contains(c.EpsilonAliases, s) {
		return ""
	}
	return s
}

// HasExtension reports whether files with the extension are grammars.
func (c *Config) HasExtension(ext string) bool {
	return slices.Contains(c.Extensions, ext)
}

// LoadConfig reads a configuration file on top of DefaultConfig. An empty
// path yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	if err := decodeConfig(f, &config); err != nil {
		return config, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func decodeConfig(r io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(config)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// WriteConfig writes config as YAML.
func WriteConfig(w io.Writer, config Config) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		return err
	}
	return encoder.Close()
}
