package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spigell/applicant-pipeline/internal/airtable"
	"github.com/spigell/applicant-pipeline/internal/logger"
	"github.com/spigell/applicant-pipeline/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const app = "applicant-pipeline"

type Config struct {
	Airtable *AirtableConfig `mapstructure:"airtable"`
	Gemini   *GeminiConfig   `mapstructure:"gemini"`
	Cache    *CacheConfig    `mapstructure:"cache"`
	Run      *RunConfig      `mapstructure:"run"`
}

type AirtableConfig struct {
	APIKey     string            `mapstructure:"api-key"`
	APIKeyFile string            `mapstructure:"api-key-file"`
	BaseID     string            `mapstructure:"base-id"`
	Tables     map[string]string `mapstructure:"tables"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

type RunConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "applicant-pipeline compresses, scores and evaluates recruiting applicants stored in Airtable",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// getConfig reads the config file, interpolates ${VAR} placeholders from the
// environment and unmarshals the result. No package-level config state is
// kept; every command builds its dependencies from the returned struct.
func getConfig() (*Config, error) {
	path := cfgFile
	if path == "" {
		path = app + ".yaml"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(strings.NewReader(expandEnv(string(raw)))); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		return nil, fmt.Errorf("config file %q is empty", path)
	}

	return config, nil
}

// expandEnv substitutes ${VAR} references, leaving unset variables as-is so
// a missing secret surfaces as an explicit error later instead of an empty
// string.
func expandEnv(raw string) string {
	return os.Expand(raw, func(name string) string {
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return "${" + name + "}"
	})
}

// fatal reports an error raised before a logger exists.
func fatal(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

// application bundles the dependencies shared by all commands.
type application struct {
	config *Config
	logger *zap.Logger
	tables *airtable.Client
}

func newApplication() (*application, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, err
	}

	if config.Airtable == nil || config.Airtable.BaseID == "" {
		return nil, fmt.Errorf("airtable.base-id is required")
	}
	if len(config.Airtable.Tables) == 0 {
		return nil, fmt.Errorf("airtable.tables mapping is required")
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "airtable api key",
		Value: config.Airtable.APIKey,
		File:  config.Airtable.APIKeyFile,
		Env:   "AIRTABLE_API_KEY",
	})
	if err != nil {
		return nil, err
	}
	if strings.Contains(token, "${") {
		return nil, fmt.Errorf("airtable api key contains an unexpanded placeholder, is the environment variable set?")
	}

	tables := airtable.New(log, token, config.Airtable.BaseID, config.Airtable.Tables)

	return &application{
		config: config,
		logger: log,
		tables: tables,
	}, nil
}
