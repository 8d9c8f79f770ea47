package commands_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pco-client/cmd/pco/commands"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// runCLI executes the root command against a fresh viper state and a
// temporary config file, returning stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	configFile := filepath.Join(t.TempDir(), "config.yml")

	var stdout bytes.Buffer

	root := commands.NewRootCommand("1.2.3", "abc123", "2024-05-01")
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", configFile}, args...))

	err := root.Execute()

	return stdout.String(), err
}

// jsonAPIServer answers every request with body.
func jsonAPIServer(t *testing.T, handler func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, body := handler(r)

		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.WriteHeader(status)
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
	t.Cleanup(server.Close)

	return server
}
