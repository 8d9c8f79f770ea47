package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pco-client/internal/auth"
	"github.com/fivetwenty-io/pco-client/internal/client"
	pcohttp "github.com/fivetwenty-io/pco-client/internal/http"
	"github.com/fivetwenty-io/pco-client/internal/testutil"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

const apiEndpoint = "https://api.planningcenteronline.com"

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waits = append(s.waits, d)

	return nil
}

func replayConnection(t *testing.T, cassette string) *client.Connection {
	t.Helper()

	recorder, cleanup := testutil.NewVCRRecorder(t, cassette)
	t.Cleanup(cleanup)

	conn, err := client.NewWithTokenManager(&pco.Config{
		APIEndpoint: apiEndpoint,
		AppID:       "app-id",
		Secret:      "secret",
	}, nil, pcohttp.WithTransport(recorder), pcohttp.WithRetryConfig(0, time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	return conn
}

func peopleTypes(conn pco.Getter, retry *pco.RetryPolicy) (*pco.ResourceType, *pco.ResourceType, *pco.ResourceType) {
	base := pco.NewResourceType(pco.ResourceConfig{BasePath: "/people/v2", Connection: conn, Retry: retry})
	person := pco.NewResourceType(pco.ResourceConfig{Name: "Person", Path: "people", Parent: base})
	address := pco.NewResourceType(pco.ResourceConfig{Name: "Address", Path: "addresses", Parent: base})
	email := pco.NewResourceType(pco.ResourceConfig{Name: "Email", Path: "emails", Parent: base})

	return person, address, email
}

func TestConnection_Pagination(t *testing.T) {
	t.Parallel()

	conn := replayConnection(t, "people_pagination")
	person, address, _ := peopleTypes(conn, nil)

	people, err := person.PerPage(2).Includes(pco.Includes{"addresses": address}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, people, 3)

	assert.Equal(t, "Tim", people[0].String("first_name"))
	assert.Equal(t, "Ada", people[2].String("first_name"))

	timAddresses, ok := people[0].Many("addresses")
	require.True(t, ok)
	require.Len(t, timAddresses, 1)
	assert.Equal(t, "Tulsa", timAddresses[0].String("city"))

	jennieAddresses, ok := people[1].Many("addresses")
	require.True(t, ok)
	assert.Empty(t, jennieAddresses)

	adaAddresses, ok := people[2].Many("addresses")
	require.True(t, ok)
	require.Len(t, adaAddresses, 1)
	assert.Equal(t, 11, adaAddresses[0].ID())
}

func TestConnection_RateLimited(t *testing.T) {
	t.Parallel()

	conn := replayConnection(t, "rate_limited")
	sleeper := &sleepRecorder{}
	person, _, _ := peopleTypes(conn, &pco.RetryPolicy{Sleep: sleeper.Sleep, MaxAttempts: 3})

	obj, err := person.PerPage(100).First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, 1, obj.ID())
	assert.Equal(t, []time.Duration{time.Second}, sleeper.waits)
}

func TestConnection_Find(t *testing.T) {
	t.Parallel()

	conn := replayConnection(t, "find_person")
	person, _, email := peopleTypes(conn, nil)

	obj, err := person.Includes(pco.Includes{"emails": email}).Find(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Morgan", obj.String("last_name"))

	emails, ok := obj.Many("emails")
	require.True(t, ok)
	require.Len(t, emails, 1)
	assert.Equal(t, "tim@example.com", emails[0].String("address"))

	_, err = person.Find(context.Background(), "999")
	require.ErrorIs(t, err, pco.ErrRecordNotFound)
}

func TestConnection_Last(t *testing.T) {
	t.Parallel()

	conn := replayConnection(t, "people_last")
	person, _, _ := peopleTypes(conn, nil)

	obj, err := person.Where(map[string]string{"last_name": "Morgan"}).Last(context.Background())
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "Jennie", obj.String("first_name"))
}

func TestConnection_MalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = writer.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	conn, err := client.NewWithTokenManager(&pco.Config{APIEndpoint: server.URL}, auth.NewStaticTokenManager("token"))
	require.NoError(t, err)

	_, err = conn.Get(context.Background(), "people/v2/people", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "people/v2/people")
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(context.Background(), &pco.Config{})
		require.ErrorIs(t, err, client.ErrAPIEndpointRequired)
	})

	t.Run("basic credentials need no token manager", func(t *testing.T) {
		t.Parallel()

		conn, err := client.New(context.Background(), &pco.Config{APIEndpoint: apiEndpoint, AppID: "a", Secret: "b"})
		require.NoError(t, err)
		assert.Nil(t, conn.GetTokenManager())

		_, err = conn.GetToken(context.Background())
		require.ErrorIs(t, err, client.ErrNoTokenManagerConfigured)
	})

	t.Run("access token is used directly", func(t *testing.T) {
		t.Parallel()

		conn, err := client.New(context.Background(), &pco.Config{APIEndpoint: apiEndpoint, AccessToken: "tok"})
		require.NoError(t, err)

		token, err := conn.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)

		_, known := conn.TokenExpiry()
		assert.False(t, known)
	})

	t.Run("refresh token fetches the first access token", func(t *testing.T) {
		t.Parallel()

		tokenServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.NoError(t, request.ParseForm())
			assert.Equal(t, "refresh_token", request.Form.Get("grant_type"))
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"access_token":"fresh","token_type":"bearer","expires_in":7200,"refresh_token":"next"}`))
		}))
		defer tokenServer.Close()

		conn, err := client.New(context.Background(), &pco.Config{
			APIEndpoint:  apiEndpoint,
			RefreshToken: "refresh",
			ClientID:     "client",
			ClientSecret: "secret",
			TokenURL:     tokenServer.URL,
		})
		require.NoError(t, err)

		token, err := conn.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)

		expiry, known := conn.TokenExpiry()
		assert.True(t, known)
		assert.True(t, expiry.After(time.Now()))
	})
}
