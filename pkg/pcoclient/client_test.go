package pcoclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pco-client/pkg/pco"
	"github.com/fivetwenty-io/pco-client/pkg/pcoclient"
)

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		want     string
		wantErr  error
	}{
		{name: "empty uses default", endpoint: "", want: "https://api.planningcenteronline.com"},
		{name: "adds scheme", endpoint: "api.example.com", want: "https://api.example.com"},
		{name: "trims slash", endpoint: "http://localhost:3000/", want: "http://localhost:3000"},
		{name: "no host", endpoint: "http:///people", wantErr: pco.ErrNoHostInURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := pcoclient.NormalizeEndpoint(tt.endpoint)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := pcoclient.New(context.Background(), nil)
		require.ErrorIs(t, err, pco.ErrConfigRequired)
	})

	t.Run("half a personal access token", func(t *testing.T) {
		t.Parallel()

		_, err := pcoclient.New(context.Background(), &pco.Config{AppID: "only-id"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret is required")
	})

	t.Run("personal access token end to end", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user, pass, ok := request.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "app", user)
			assert.Equal(t, "secret", pass)
			assert.Equal(t, "/people/v2/people", request.URL.Path)

			writer.Header().Set("Content-Type", "application/vnd.api+json")
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"type": "Person", "id": "1", "attributes": map[string]interface{}{"first_name": "Tim"}},
				},
				"meta": map[string]interface{}{"total_count": 1, "count": 1},
			})
		}))
		defer server.Close()

		conn, err := pcoclient.NewWithPersonalAccessToken(context.Background(), server.URL+"/", "app", "secret")
		require.NoError(t, err)
		assert.Equal(t, server.URL, conn.BaseURL())

		person := pco.NewResourceType(pco.ResourceConfig{Name: "Person", BasePath: "/people/v2", Path: "people", Connection: conn})

		obj, err := person.First(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Tim", obj.String("first_name"))
	})

	t.Run("access token", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "Bearer tok", request.Header.Get("Authorization"))
			_, _ = writer.Write([]byte(`{"data":[],"meta":{"total_count":0}}`))
		}))
		defer server.Close()

		conn, err := pcoclient.NewWithToken(context.Background(), server.URL, "tok")
		require.NoError(t, err)

		count, err := pco.NewResourceType(pco.ResourceConfig{Path: "people/v2/people", Connection: conn}).All().Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
