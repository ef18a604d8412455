package tricount

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registrationOK = `{"Response": [
	{"Id": {"id": 1}},
	{"Token": {"id": 2, "token": "session-token-abc"}},
	{"UserPerson": {"id": 4242, "display_name": "anon"}}
]}`

// fakeAPI serves the registration and registry endpoints and counts calls.
type fakeAPI struct {
	t                *testing.T
	registrationBody string
	registrationCode int
	registryBody     string
	registryCode     int
	registrations    atomic.Int32
	fetches          atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:                t,
		registrationBody: registrationOK,
		registrationCode: http.StatusOK,
		registryBody:     `{"Response": [{"Registry": {"title": "Trip"}}]}`,
		registryCode:     http.StatusOK,
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == registrationPath:
		f.registrations.Add(1)

		assert.Equal(f.t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(f.t, DefaultRequestID, r.Header.Get("X-Bunq-Client-Request-Id"))
		assert.NotEmpty(f.t, r.Header.Get("app-id"))

		var body map[string]string
		if assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body)) {
			assert.Equal(f.t, r.Header.Get("app-id"), body["app_installation_uuid"])
			assert.Equal(f.t, DefaultDeviceDescription, body["device_description"])
			block, _ := pem.Decode([]byte(body["client_public_key"]))
			if assert.NotNil(f.t, block, "client_public_key should be PEM") {
				assert.Equal(f.t, "PUBLIC KEY", block.Type)
			}
		}

		w.WriteHeader(f.registrationCode)
		_, _ = w.Write([]byte(f.registrationBody))

	case r.Method == http.MethodGet && r.URL.Path == "/v1/user/4242/registry":
		f.fetches.Add(1)
		assert.Equal(f.t, "session-token-abc", r.Header.Get("X-Bunq-Client-Authentication"))
		assert.Equal(f.t, "LEDGERKEY", r.URL.Query().Get("public_identifier_token"))

		w.WriteHeader(f.registryCode)
		_, _ = w.Write([]byte(f.registryBody))

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestSession(t *testing.T, api *fakeAPI) *Session {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	logger, _ := logtest.NewNullLogger()
	client, err := NewClient(ClientConfig{BaseURL: server.URL, Logger: logger})
	require.NoError(t, err)
	return client.NewSession()
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(ClientConfig{})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
	assert.Equal(t, DefaultRequestID, client.requestID)
	assert.Equal(t, DefaultDeviceDescription, client.deviceDescription)
	assert.Equal(t, http.DefaultClient, client.httpClient)
	assert.Equal(t, MaxResponseSize, client.maxResponseSize)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "://invalid"})
	require.Error(t, err)
}

func TestNewSession_FreshInstallationID(t *testing.T) {
	client, err := NewClient(ClientConfig{})
	require.NoError(t, err)

	a := client.NewSession()
	b := client.NewSession()
	assert.NotEmpty(t, a.InstallationID())
	assert.NotEqual(t, a.InstallationID(), b.InstallationID())
	assert.False(t, a.IsAuthenticated())
}

func TestAuthenticate(t *testing.T) {
	api := newFakeAPI(t)
	session := newTestSession(t, api)

	require.NoError(t, session.Authenticate(context.Background()))

	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, "4242", session.UserID())
	assert.Equal(t, int32(1), api.registrations.Load())
}

func TestAuthenticate_Idempotent(t *testing.T) {
	api := newFakeAPI(t)
	session := newTestSession(t, api)

	require.NoError(t, session.Authenticate(context.Background()))
	require.NoError(t, session.Authenticate(context.Background()))
	require.NoError(t, session.Authenticate(context.Background()))

	assert.Equal(t, int32(1), api.registrations.Load(), "re-authenticating must not hit the network")
}

func TestAuthenticate_ItemOrderDoesNotMatter(t *testing.T) {
	api := newFakeAPI(t)
	api.registrationBody = `{"Response": [
		{"UserPerson": {"id": 4242}},
		{"ServerPublicKey": {"server_public_key": "xyz"}},
		{"Token": {"token": "session-token-abc"}}
	]}`
	session := newTestSession(t, api)

	require.NoError(t, session.Authenticate(context.Background()))
	assert.Equal(t, "4242", session.UserID())
}

func TestAuthenticate_Failures(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"missing token", http.StatusOK, `{"Response": [{"UserPerson": {"id": 1}}]}`},
		{"missing user", http.StatusOK, `{"Response": [{"Token": {"token": "t"}}]}`},
		{"duplicate token", http.StatusOK, `{"Response": [{"Token": {"token": "a"}}, {"Token": {"token": "b"}}, {"UserPerson": {"id": 1}}]}`},
		{"empty token", http.StatusOK, `{"Response": [{"Token": {"token": ""}}, {"UserPerson": {"id": 1}}]}`},
		{"no response list", http.StatusOK, `{"Error": []}`},
		{"malformed json", http.StatusOK, `not json`},
		{"server error", http.StatusInternalServerError, `{"Error": [{"error_description": "boom"}]}`},
		{"unauthorized", http.StatusUnauthorized, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.registrationCode = tt.code
			api.registrationBody = tt.body
			session := newTestSession(t, api)

			err := session.Authenticate(context.Background())
			require.Error(t, err)

			var authErr *AuthenticationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.code, authErr.StatusCode)
			assert.False(t, session.IsAuthenticated())
		})
	}
}

func TestAuthenticate_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	logger, _ := logtest.NewNullLogger()
	client, err := NewClient(ClientConfig{BaseURL: server.URL, Logger: logger})
	require.NoError(t, err)

	err = client.NewSession().Authenticate(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, authErr.StatusCode)
	assert.NotNil(t, authErr.Unwrap())
}

func TestFetchRegistry(t *testing.T) {
	api := newFakeAPI(t)
	session := newTestSession(t, api)
	require.NoError(t, session.Authenticate(context.Background()))

	doc, err := session.FetchRegistry(context.Background(), "LEDGERKEY")
	require.NoError(t, err)
	assert.JSONEq(t, api.registryBody, string(doc))

	// No caching across calls.
	_, err = session.FetchRegistry(context.Background(), "LEDGERKEY")
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.fetches.Load())
	assert.Equal(t, int32(1), api.registrations.Load())
}

func TestFetchRegistry_RequiresAuthentication(t *testing.T) {
	api := newFakeAPI(t)
	session := newTestSession(t, api)

	_, err := session.FetchRegistry(context.Background(), "LEDGERKEY")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, api.fetches.Load())
}

func TestFetchRegistry_ErrorStatus(t *testing.T) {
	api := newFakeAPI(t)
	api.registryCode = http.StatusNotFound
	api.registryBody = `{"Error": [{"error_description": "not found"}]}`
	session := newTestSession(t, api)
	require.NoError(t, session.Authenticate(context.Background()))

	_, err := session.FetchRegistry(context.Background(), "LEDGERKEY")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "LEDGERKEY", fetchErr.LedgerKey)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Body, "not found")
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, int32(1), api.fetches.Load(), "no retries")
}

func limitedSession(t *testing.T, api *fakeAPI, limit int64) *Session {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	logger, _ := logtest.NewNullLogger()
	client, err := NewClient(ClientConfig{BaseURL: server.URL, Logger: logger, MaxResponseSize: limit})
	require.NoError(t, err)
	return client.NewSession()
}

func TestFetchRegistry_ResponseTooLarge(t *testing.T) {
	limit := int64(len(registrationOK))
	api := newFakeAPI(t)
	api.registryBody = `{"Response": [{"Registry": {"title": "` + strings.Repeat("x", int(limit)) + `"}}]}`
	session := limitedSession(t, api, limit)

	// A body of exactly the limit is read in full.
	require.NoError(t, session.Authenticate(context.Background()))

	_, err := session.FetchRegistry(context.Background(), "LEDGERKEY")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Contains(t, err.Error(), fmt.Sprintf("exceeds %d bytes", limit))

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestAuthenticate_ResponseTooLarge(t *testing.T) {
	api := newFakeAPI(t)
	api.registrationBody = registrationOK + " "
	session := limitedSession(t, api, int64(len(registrationOK)))

	err := session.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, session.IsAuthenticated())
}

func TestAuthenticate_LogsRegistration(t *testing.T) {
	api := newFakeAPI(t)
	server := httptest.NewServer(api)
	defer server.Close()

	logger, hook := logtest.NewNullLogger()
	client, err := NewClient(ClientConfig{BaseURL: server.URL, Logger: logger})
	require.NoError(t, err)
	session := client.NewSession()

	require.NoError(t, session.Authenticate(context.Background()))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "registering app installation", hook.AllEntries()[0].Message)
	assert.Equal(t, session.InstallationID(), hook.AllEntries()[0].Data["installation"])
}

func TestDocumentIndent(t *testing.T) {
	doc := Document(`{"Response":[{"Registry":{"title":"Trip"}}]}`)
	out, err := doc.Indent()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Response\": [\n    {\n      \"Registry\": {\n        \"title\": \"Trip\"\n      }\n    }\n  ]\n}\n", string(out))

	_, err = Document(`{`).Indent()
	require.Error(t, err)
}

func TestIsStatus(t *testing.T) {
	assert.False(t, IsStatus(errors.New("plain"), http.StatusNotFound))
	assert.True(t, IsStatus(&AuthenticationError{StatusCode: http.StatusForbidden}, http.StatusForbidden))
}
