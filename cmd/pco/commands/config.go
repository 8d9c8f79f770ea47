package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pco-client/internal/constants"
)

// Config represents the CLI configuration file.
type Config struct {
	API               string     `json:"api,omitempty"                 yaml:"api,omitempty"`
	AppID             string     `json:"app_id,omitempty"              yaml:"app_id,omitempty"`
	Secret            string     `json:"secret,omitempty"              yaml:"secret,omitempty"`
	Token             string     `json:"token,omitempty"               yaml:"token,omitempty"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty"    yaml:"token_expires_at,omitempty"`
	RefreshToken      string     `json:"refresh_token,omitempty"       yaml:"refresh_token,omitempty"`
	LastRefreshed     *time.Time `json:"last_refreshed,omitempty"      yaml:"last_refreshed,omitempty"`
	ClientID          string     `json:"client_id,omitempty"           yaml:"client_id,omitempty"`
	ClientSecret      string     `json:"client_secret,omitempty"       yaml:"client_secret,omitempty"`
	TokenURL          string     `json:"token_url,omitempty"           yaml:"token_url,omitempty"`
	Output            string     `json:"output,omitempty"              yaml:"output,omitempty"`
	PerPage           int        `json:"per_page,omitempty"            yaml:"per_page,omitempty"`
	RequestsPerSecond float64    `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
}

// configKey reads and writes one settable key of Config.
type configKey struct {
	secret bool
	get    func(*Config) string
	set    func(*Config, string) error
}

func stringKey(field func(*Config) *string, secret bool) configKey {
	return configKey{
		secret: secret,
		get:    func(c *Config) string { return *field(c) },
		set: func(c *Config, value string) error {
			*field(c) = value

			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"api":           stringKey(func(c *Config) *string { return &c.API }, false),
	"app_id":        stringKey(func(c *Config) *string { return &c.AppID }, false),
	"secret":        stringKey(func(c *Config) *string { return &c.Secret }, true),
	"token":         stringKey(func(c *Config) *string { return &c.Token }, true),
	"refresh_token": stringKey(func(c *Config) *string { return &c.RefreshToken }, true),
	"client_id":     stringKey(func(c *Config) *string { return &c.ClientID }, false),
	"client_secret": stringKey(func(c *Config) *string { return &c.ClientSecret }, true),
	"token_url":     stringKey(func(c *Config) *string { return &c.TokenURL }, false),
	"output": {
		get: func(c *Config) string { return c.Output },
		set: func(c *Config, value string) error {
			if err := validateOutputFormat(value); err != nil {
				return err
			}

			c.Output = value

			return nil
		},
	},
	"per_page": {
		get: func(c *Config) string { return formatInt(c.PerPage) },
		set: func(c *Config, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("per_page: %w", err)
			}

			if err := validatePerPage(n); err != nil {
				return err
			}

			c.PerPage = n

			return nil
		},
	},
	"requests_per_second": {
		get: func(c *Config) string {
			if c.RequestsPerSecond == 0 {
				return ""
			}

			return strconv.FormatFloat(c.RequestsPerSecond, 'f', -1, 64)
		},
		set: func(c *Config, value string) error {
			n, err := strconv.ParseFloat(value, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("requests_per_second must be a non-negative number: %q", value)
			}

			c.RequestsPerSecond = n

			return nil
		},
	},
}

// ConfigKeys returns the keys accepted by config set and unset.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// SetConfigValue sets key on config.
func SetConfigValue(config *Config, key, value string) error {
	handler, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, strings.Join(ConfigKeys(), ", "))
	}

	return handler.set(config, value)
}

// UnsetConfigValue clears key on config.
func UnsetConfigValue(config *Config, key string) error {
	handler, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	switch key {
	case "per_page":
		config.PerPage = 0
	case "requests_per_second":
		config.RequestsPerSecond = 0
	default:
		_ = handler.set(config, "")
	}

	if key == "token" {
		config.TokenExpiresAt = nil
	}

	return nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage PCO CLI configuration including credentials and output settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigLoginCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configuration file contents with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			if !showSecrets {
				config = maskSecrets(config)
			}

			out := cmd.OutOrStdout()

			switch viper.GetString("output") {
			case constants.FormatJSON:
				return encodeJSON(out, config)
			case constants.FormatYAML:
				return encodeYAML(out, config)
			case constants.FormatTOML:
				return encodeTOML(out, config)
			default:
				return displayConfigTable(out, config)
			}
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secrets and tokens in clear text")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Valid keys: " + strings.Join(ConfigKeys(), ", "),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = SetConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			if configKeys[key].secret {
				value = constants.MaskedSecret
			}

			return outputResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = UnsetConfigValue(config, key)
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			return outputResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func newConfigLoginCommand() *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store personal access token credentials",
		Long: `Prompt for a personal access token application id and secret, verify
them against the API and store them in the configuration file. --app-id and
--secret skip the prompts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			out := cmd.OutOrStdout()

			appID := viper.GetString("app_id")
			if appID == "" {
				value, err := prompt(in, out, "Application ID: ")
				if err != nil {
					return err
				}

				appID = value
			}

			secret := viper.GetString("secret")
			if secret == "" {
				value, err := promptSecret(in, out, "Secret: ")
				if err != nil {
					return err
				}

				secret = value
			}

			if appID == "" || secret == "" {
				return constants.ErrNoCredentials
			}

			if !skipVerify {
				err := verifyCredentials(cmd.Context(), appID, secret)
				if err != nil {
					return err
				}
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			config.AppID = appID
			config.Secret = secret

			err = saveConfig(config)
			if err != nil {
				return err
			}

			return outputResult(out, "Login", "app_id", appID)
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the credentials without calling the API")

	return cmd
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(out, label)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when in is a terminal.
func promptSecret(in io.Reader, out io.Writer, label string) (string, error) {
	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return prompt(in, out, label)
	}

	_, _ = fmt.Fprint(out, label)

	secret, err := term.ReadPassword(int(file.Fd()))

	_, _ = fmt.Fprintln(out)

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

// loadConfig reads the configuration file only, ignoring flags and the
// environment, so that saving never persists one-off overrides.
func loadConfig() (*Config, error) {
	config := &Config{}

	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	// configFile comes from the --config flag or the user's home directory.
	// #nosec G304
	data, err := os.ReadFile(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	return config, nil
}

func saveConfig(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func maskSecrets(config *Config) *Config {
	masked := *config

	for _, key := range ConfigKeys() {
		handler := configKeys[key]
		if handler.secret && handler.get(&masked) != "" {
			_ = handler.set(&masked, constants.MaskedSecret)
		}
	}

	return &masked
}

func displayConfigTable(out io.Writer, config *Config) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	for _, key := range ConfigKeys() {
		value := configKeys[key].get(config)
		if value == "" {
			value = constants.NotAvailable
		}

		_ = table.Append([]string{columnTitle(key), value})
	}

	if config.TokenExpiresAt != nil {
		_ = table.Append([]string{"Token Expires At", config.TokenExpiresAt.Format(time.RFC3339)})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func outputResult(out io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	switch viper.GetString("output") {
	case constants.FormatJSON:
		return encodeJSON(out, result)
	case constants.FormatYAML:
		return encodeYAML(out, result)
	case constants.FormatTOML:
		return encodeTOML(out, result)
	default:
		table := tablewriter.NewWriter(out)
		table.Header("Property", "Value")
		_ = table.Append([]string{"Action", action})
		_ = table.Append([]string{"Key", key})

		if value != "" {
			_ = table.Append([]string{"Value", value})
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}

	return strconv.Itoa(n)
}
