package tabformula

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/tabformula/formula"
	"github.com/shibukawa/tabformula/funclib"
	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/records"
)

// DefaultConfigFile is the file name the CLI looks for when --config is omitted.
const DefaultConfigFile = "tabformula.yaml"

// Config represents the tabformula configuration
type Config struct {
	Functions FunctionsConfig     `yaml:"functions"`
	Operators []OperatorConfig    `yaml:"operators"`
	Records   RecordsConfig       `yaml:"records"`
	Databases map[string]Database `yaml:"databases"`
	Output    OutputConfig        `yaml:"output"`
}

// FunctionsConfig adjusts the standard function library
type FunctionsConfig struct {
	// Disabled library functions are not callable from formulas
	Disabled []string `yaml:"disabled"`
	// Aliases maps an extra name to a library function, e.g. TOTAL: SUM
	Aliases map[string]string `yaml:"aliases"`
}

// OperatorConfig defines a custom operator backed by a library function
type OperatorConfig struct {
	Name       string `yaml:"name"`
	Precedence int    `yaml:"precedence"`
	// Type is binary, preModifier or postModifier
	Type     string `yaml:"type"`
	Function string `yaml:"function"`
}

// RecordsConfig holds the defaults of the apply command
type RecordsConfig struct {
	Source string   `yaml:"source"`
	Format string   `yaml:"format"`
	Fields []string `yaml:"fields"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string        `yaml:"driver"`
	Connection string        `yaml:"connection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `yaml:"format"`
	Color  *bool  `yaml:"color"` // nil means auto-detect
}

// UseColor reports whether colored output is enabled
func (o OutputConfig) UseColor() bool {
	return o.Color == nil || *o.Color
}

var outputFormats = []string{"table", "yaml", "json"}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Return default configuration if file doesn't exist
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses configuration content. Unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	library := funclib.Standard()

	for _, name := range config.Functions.Disabled {
		if _, ok := library[formula.CanonicalName(name)]; !ok {
			return fmt.Errorf("%w: functions.disabled: unknown function '%s'", ErrConfigValidation, name)
		}
	}

	for alias, target := range config.Functions.Aliases {
		key := formula.CanonicalName(alias)
		if key == "" {
			return fmt.Errorf("%w: functions.aliases: alias name is required", ErrConfigValidation)
		}

		if _, ok := library[key]; ok {
			return fmt.Errorf("%w: functions.aliases: '%s' shadows a library function", ErrConfigValidation, alias)
		}

		if _, ok := library[formula.CanonicalName(target)]; !ok {
			return fmt.Errorf("%w: functions.aliases: '%s' refers to unknown function '%s'", ErrConfigValidation, alias, target)
		}
	}

	for i, op := range config.Operators {
		if op.Name == "" {
			return fmt.Errorf("%w: operators[%d]: name is required", ErrConfigValidation, i)
		}

		if op.Precedence < 0 {
			return fmt.Errorf("%w: operator '%s': precedence must be non-negative, got %d", ErrConfigValidation, op.Name, op.Precedence)
		}

		if _, err := operator.ParseCategory(op.Type); err != nil {
			return fmt.Errorf("%w: operator '%s': invalid type '%s': must be one of binary, preModifier, postModifier", ErrConfigValidation, op.Name, op.Type)
		}

		if op.Function == "" {
			return fmt.Errorf("%w: operator '%s': function is required", ErrConfigValidation, op.Name)
		}
	}

	if config.Records.Format != "" {
		if _, err := records.ParseFormat(config.Records.Format); err != nil {
			return fmt.Errorf("%w: records.format '%s' is invalid: must be one of yaml, json, csv, xml", ErrConfigValidation, config.Records.Format)
		}
	}

	for name, db := range config.Databases {
		if db.Driver == "" {
			return fmt.Errorf("%w: databases.%s: driver is required", ErrConfigValidation, name)
		}

		if db.Timeout < 0 {
			return fmt.Errorf("%w: databases.%s: timeout must be non-negative, got %s", ErrConfigValidation, name, db.Timeout)
		}
	}

	if !slices.Contains(outputFormats, config.Output.Format) {
		return fmt.Errorf("%w: output.format '%s' is invalid: must be one of table, yaml, json", ErrConfigValidation, config.Output.Format)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)

	return config
}

func applyDefaults(config *Config) {
	if config.Functions.Aliases == nil {
		config.Functions.Aliases = make(map[string]string)
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	for name, db := range config.Databases {
		if db.Timeout == 0 {
			db.Timeout = 10 * time.Second
		}

		config.Databases[name] = db
	}

	if config.Output.Format == "" {
		config.Output.Format = "table"
	}
}

// Database returns the named connection
func (c *Config) Database(name string) (Database, error) {
	db, ok := c.Databases[name]
	if !ok {
		return Database{}, fmt.Errorf("%w: '%s'", ErrUnknownDatabase, name)
	}

	return db, nil
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Driver = expandEnvVars(db.Driver)
		db.Connection = expandEnvVars(db.Connection)
		config.Databases[name] = db
	}

	config.Records.Source = expandEnvVars(config.Records.Source)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
