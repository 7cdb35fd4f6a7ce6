package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Input sources
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
)

const (
	defaultRejectTier = 3
	defaultMaxChoices = 3
	defaultOutputDir  = "."
)

// CSVSource holds the paths of the three input tables. Any of them may be left to the
// match command's flags.
type CSVSource struct {
	Quotas         string `yaml:"quotas"`
	DanceScores    string `yaml:"danceScores"`
	DancerRankings string `yaml:"dancerRankings"`
}

// SheetsSource locates the input tables in a Google spreadsheet
type SheetsSource struct {
	SpreadsheetID     string `yaml:"spreadsheetID" validate:"required"`
	QuotasTab         string `yaml:"quotasTab" validate:"required"`
	DanceScoresTab    string `yaml:"danceScoresTab" validate:"required"`
	DancerRankingsTab string `yaml:"dancerRankingsTab" validate:"required"`
	// ResultsSpreadsheetID receives the published result tabs. Defaults to SpreadsheetID.
	ResultsSpreadsheetID string `yaml:"resultsSpreadsheetID,omitempty"`
}

// Notification holds the templates used by notifyDancers
type Notification struct {
	Subject       string `yaml:"subject" validate:"required"`
	MatchedBody   string `yaml:"matchedBody" validate:"required"`
	UnmatchedBody string `yaml:"unmatchedBody" validate:"required"`
	FormURL       string `yaml:"formURL,omitempty" validate:"omitempty,url"`
}

// Config represents the application configuration
type Config struct {
	Source                string        `yaml:"source" validate:"required,oneof=csv sheets"`
	CSV                   *CSVSource    `yaml:"csv,omitempty"`
	Sheets                *SheetsSource `yaml:"sheets,omitempty"`
	HeaderRows            int           `yaml:"headerRows" validate:"min=0"`
	RejectTier            int           `yaml:"rejectTier" validate:"min=1,max=9"`
	MaxChoices            int           `yaml:"maxChoices" validate:"min=1"`
	FallbackToAnyCapacity bool          `yaml:"fallbackToAnyCapacity"`
	OutputDir             string        `yaml:"outputDir"`
	DatabaseURL           string        `yaml:"databaseURL,omitempty"`
	GmailSender           string        `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
	MetricsFile           string        `yaml:"metricsFile,omitempty"`
	Notification          *Notification `yaml:"notification,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(sourceStructLevel, Config{})
	validate.RegisterStructValidation(oauthClientStructLevel, OAuthClientConfig{})
}

// sourceStructLevel requires the sheets block when reading from sheets. CSV paths may
// come from the config, from match flags or from both, so match checks them at run time.
func sourceStructLevel(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Source == SourceSheets && cfg.Sheets == nil {
		sl.ReportError(cfg.Sheets, "Sheets", "sheets", "required_for_source", cfg.Source)
	}
}

// LoadWithEnv loads dance_match_config.<env>.yaml from the current or home directory
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findEnvFile("dance_match_config", "yaml", env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads, defaults and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RejectTier == 0 {
		cfg.RejectTier = defaultRejectTier
	}
	if cfg.MaxChoices == 0 {
		cfg.MaxChoices = defaultMaxChoices
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.Sheets != nil && cfg.Sheets.ResultsSpreadsheetID == "" {
		cfg.Sheets.ResultsSpreadsheetID = cfg.Sheets.SpreadsheetID
	}
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// findEnvFile looks for <base>.<env>.<ext> (or <base>.<ext> without env) in the
// current directory, then the home directory
func findEnvFile(base, ext, env string) (string, error) {
	fileName := base + "." + ext
	if env != "" {
		fileName = base + "." + env + "." + ext
	}

	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
