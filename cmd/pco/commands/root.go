// Package commands implements the pco command line interface.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pco-client/internal/constants"
)

// NewRootCommand creates the pco command with every subcommand attached.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pco",
		Short: "Planning Center API CLI",
		Long: `A command-line interface for reading Planning Center resources.

Collections are fetched lazily page by page, with related records
resolved from the included section of each page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.pco/config.yml)")
	rootCmd.PersistentFlags().StringP("api", "a", "", "API endpoint URL")
	rootCmd.PersistentFlags().String("app-id", "", "personal access token application id")
	rootCmd.PersistentFlags().String("secret", "", "personal access token secret")
	rootCmd.PersistentFlags().StringP("token", "t", "", "OAuth2 access token")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml, toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("trace", false, "print OpenTelemetry spans of HTTP requests to stderr")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("app_id", rootCmd.PersistentFlags().Lookup("app-id"))
	_ = viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("trace", rootCmd.PersistentFlags().Lookup("trace"))

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewFirstCommand())
	rootCmd.AddCommand(NewLastCommand())
	rootCmd.AddCommand(NewCountCommand())
	rootCmd.AddCommand(NewFindCommand())
	rootCmd.AddCommand(NewPeopleCommand())
	rootCmd.AddCommand(NewExportCommand())

	return rootCmd
}

func initConfig() error {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDirectory()
		if err != nil {
			return err
		}

		// Search config in ~/.pco/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("PCO")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	return nil
}

func configDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".pco"), nil
}

// configFilePath returns the file config changes are written to.
func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	if configFile := viper.GetString("config"); configFile != "" {
		return configFile, nil
	}

	configDir, err := configDirectory()
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yml"), nil
}
