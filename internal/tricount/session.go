package tricount

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/tricount-export/tricount-export/internal/keys"
)

const registrationPath = "/v1/session-registry-installation"

// Session is one registered app installation. Create it with
// Client.NewSession, call Authenticate, then issue reads.
type Session struct {
	client         *Client
	installationID string
	keys           *keys.KeyPair
	token          string
	userID         string
}

// InstallationID returns the app installation UUID sent at registration.
func (s *Session) InstallationID() string {
	return s.installationID
}

// UserID returns the user id assigned at registration, or "".
func (s *Session) UserID() string {
	return s.userID
}

// IsAuthenticated reports whether the session holds a token and a user id.
func (s *Session) IsAuthenticated() bool {
	return s.token != "" && s.userID != ""
}

// Authenticate registers the installation and stores the session token.
// It is a no-op on an authenticated session. Every failure is returned as
// an *AuthenticationError.
func (s *Session) Authenticate(ctx context.Context) error {
	if s.IsAuthenticated() {
		return nil
	}

	if s.keys == nil {
		kp, err := keys.Generate()
		if err != nil {
			return &AuthenticationError{Reason: "generating installation key", Err: err}
		}
		s.keys = kp
	}
	publicKey, err := s.keys.PublicKeyPEM()
	if err != nil {
		return &AuthenticationError{Reason: "encoding installation key", Err: err}
	}

	logger := s.client.logger.WithField("installation", s.installationID)
	logger.Info("registering app installation")

	request := registrationRequest{
		AppInstallationUUID: s.installationID,
		ClientPublicKey:     publicKey,
		DeviceDescription:   s.client.deviceDescription,
	}
	resp, err := s.client.do(ctx, http.MethodPost, registrationPath, nil, s.header(), request)
	if err != nil {
		return &AuthenticationError{Reason: "registration request failed", Err: err}
	}
	if !resp.ok() {
		return &AuthenticationError{
			StatusCode: resp.status,
			Reason:     fmt.Sprintf("unexpected status: %s", resp.body),
		}
	}

	reg, err := decodeRegistration(resp.body)
	if err != nil {
		return &AuthenticationError{StatusCode: resp.status, Reason: "malformed registration response", Err: err}
	}

	s.token = reg.token
	s.userID = reg.userID
	logger.WithField("user_id", s.userID).Debug("installation registered")
	return nil
}

// FetchRegistry reads the registry identified by its public identifier
// token (the ledger key). Each call issues a new request.
func (s *Session) FetchRegistry(ctx context.Context, ledgerKey string) (Document, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	s.client.logger.WithFields(logrus.Fields{
		"ledger":  ledgerKey,
		"user_id": s.userID,
	}).Info("fetching registry")

	path := "/v1/user/" + url.PathEscape(s.userID) + "/registry"
	query := url.Values{"public_identifier_token": {ledgerKey}}
	resp, err := s.client.do(ctx, http.MethodGet, path, query, s.header(), nil)
	if err != nil {
		return nil, &FetchError{LedgerKey: ledgerKey, Err: err}
	}
	if !resp.ok() {
		return nil, &FetchError{LedgerKey: ledgerKey, StatusCode: resp.status, Body: string(resp.body)}
	}
	return Document(resp.body), nil
}

// header returns the fixed client headers plus the session token when held.
func (s *Session) header() http.Header {
	h := http.Header{}
	h.Set(headerUserAgent, s.client.userAgent)
	h.Set(headerAppID, s.installationID)
	h.Set(headerRequestID, s.client.requestID)
	if s.token != "" {
		h.Set(headerAuthentication, s.token)
	}
	return h
}
