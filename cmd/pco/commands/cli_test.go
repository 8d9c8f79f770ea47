package commands_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pco-client/cmd/pco/commands"
)

const peoplePage = `{
  "data": [
    {"type": "Person", "id": "1", "attributes": {"first_name": "Ann", "last_name": "Lee"},
     "relationships": {"emails": {"data": [{"type": "Email", "id": "10"}]}}},
    {"type": "Person", "id": "2", "attributes": {"first_name": "Bob", "last_name": "Ray"},
     "relationships": {"emails": {"data": []}}}
  ],
  "included": [
    {"type": "Email", "id": "10", "attributes": {"address": "ann@example.com", "primary": true}}
  ],
  "meta": {"total_count": 2, "count": 2}
}`

//nolint:paralleltest // mutates global viper state
func TestCLIListJSON(t *testing.T) {
	var queries []string

	server := jsonAPIServer(t, func(r *http.Request) (int, string) {
		queries = append(queries, r.URL.RawQuery)

		assert.Equal(t, "/people/v2/people", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "app", user)
		assert.Equal(t, "secret", pass)

		return http.StatusOK, peoplePage
	})

	out, err := runCLI(t, "--api", server.URL, "--app-id", "app", "--secret", "secret", "-o", "json",
		"list", "people/v2/people", "--where", "first_name=Ann", "--include", "emails", "--per-page", "2")
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Ann", decoded[0]["first_name"])

	emails, ok := decoded[0]["emails"].([]interface{})
	require.True(t, ok)
	require.Len(t, emails, 1)
	assert.Equal(t, "ann@example.com", emails[0].(map[string]interface{})["address"])

	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "include=emails")
	assert.Contains(t, queries[0], "per_page=2")
	assert.Contains(t, queries[0], "where%5Bfirst_name%5D=Ann")
}

//nolint:paralleltest // mutates global viper state
func TestCLICount(t *testing.T) {
	server := jsonAPIServer(t, func(r *http.Request) (int, string) {
		assert.Equal(t, "0", r.URL.Query().Get("per_page"))

		return http.StatusOK, `{"data": [], "meta": {"total_count": 42}}`
	})

	out, err := runCLI(t, "--api", server.URL, "--app-id", "app", "--secret", "secret", "-o", "yaml",
		"count", "people/v2/people")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 42, decoded["count"])
	assert.Equal(t, "people/v2/people", decoded["path"])
}

//nolint:paralleltest // mutates global viper state
func TestCLIFindNotFound(t *testing.T) {
	server := jsonAPIServer(t, func(r *http.Request) (int, string) {
		assert.Equal(t, "/people/v2/people/99", r.URL.Path)

		return http.StatusNotFound, `{"errors": [{"status": "404", "title": "Not Found"}]}`
	})

	_, err := runCLI(t, "--api", server.URL, "--app-id", "app", "--secret", "secret",
		"find", "people/v2/people", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
}

//nolint:paralleltest // mutates global viper state
func TestCLIPeopleGet(t *testing.T) {
	server := jsonAPIServer(t, func(r *http.Request) (int, string) {
		assert.Equal(t, "/people/v2/people/1", r.URL.Path)

		return http.StatusOK, `{
		  "data": {"type": "Person", "id": "1", "attributes": {"first_name": "Ann", "last_name": "Lee"},
		           "relationships": {"emails": {"data": [{"type": "Email", "id": "10"}]}}},
		  "included": [{"type": "Email", "id": "10", "attributes": {"address": "ann@example.com", "primary": true}}]
		}`
	})

	out, err := runCLI(t, "--api", server.URL, "--app-id", "app", "--secret", "secret", "-o", "json",
		"people", "get", "1")
	require.NoError(t, err)

	var person map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &person))
	assert.Equal(t, "Ann", person["first_name"])
	assert.Len(t, person["emails"], 1)
}

//nolint:paralleltest // mutates global viper state
func TestCLIExportSQLite(t *testing.T) {
	server := jsonAPIServer(t, func(_ *http.Request) (int, string) {
		return http.StatusOK, peoplePage
	})

	dbPath := filepath.Join(t.TempDir(), "people.db")

	out, err := runCLI(t, "--api", server.URL, "--app-id", "app", "--secret", "secret", "-o", "json",
		"export", "people/v2/people", "--sink", "sqlite:"+dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 records to sqlite:")

	_, err = os.Stat(dbPath)
	require.NoError(t, err)
}

//nolint:paralleltest // mutates global viper state
func TestCLIInvalidOutput(t *testing.T) {
	_, err := runCLI(t, "-o", "xml", "list", "people/v2/people")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

//nolint:paralleltest // mutates global viper state
func TestCLIConfigSetShowUnset(t *testing.T) {
	viperConfig := filepath.Join(t.TempDir(), "config.yml")

	run := func(args ...string) string {
		t.Helper()

		out, err := runCLI(t, append([]string{"--config", viperConfig}, args...)...)
		require.NoError(t, err)

		return out
	}

	run("config", "set", "app_id", "my-app")
	run("config", "set", "secret", "s3cret")

	out := run("-o", "json", "config", "show")

	var shown commands.Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "my-app", shown.AppID)
	assert.Equal(t, "***", shown.Secret)

	run("config", "unset", "secret")

	data, err := os.ReadFile(viperConfig)
	require.NoError(t, err)

	var stored commands.Config
	require.NoError(t, yaml.Unmarshal(data, &stored))
	assert.Equal(t, "my-app", stored.AppID)
	assert.Empty(t, stored.Secret)
}

//nolint:paralleltest // mutates global viper state
func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "version")
	require.NoError(t, err)

	var info commands.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, commands.VersionInfo{Version: "1.2.3", Commit: "abc123", Built: "2024-05-01"}, info)
}

//nolint:paralleltest // mutates global viper state
func TestCLIFindMany(t *testing.T) {
	server := jsonAPIServer(t, func(r *http.Request) (int, string) {
		id := filepath.Base(r.URL.Path)

		return http.StatusOK, `{"data": {"type": "Person", "id": "` + id + `", "attributes": {"first_name": "P` + id + `"}}}`
	})

	out, err := runCLI(t, "--api", server.URL, "--app-id", "app", "--secret", "secret", "-o", "json",
		"find", "people/v2/people", "3", "1", "2")
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "P3", decoded[0]["first_name"])
	assert.Equal(t, "P1", decoded[1]["first_name"])
	assert.Equal(t, "P2", decoded[2]["first_name"])
}
