package tricount

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Defaults match the Android client the API expects.
const (
	DefaultBaseURL           = "https://api.tricount.bunq.com"
	DefaultUserAgent         = "com.bunq.tricount.android:RELEASE:7.0.7:3174:ANDROID:13:C"
	DefaultRequestID         = "049bfcdf-6ae4-4cee-af7b-45da31ea85d0"
	DefaultDeviceDescription = "Android"
)

// MaxResponseSize is the default bound on a response body.
const MaxResponseSize int64 = 256 << 20

const (
	headerUserAgent      = "User-Agent"
	headerAppID          = "app-id"
	headerRequestID      = "X-Bunq-Client-Request-Id"
	headerAuthentication = "X-Bunq-Client-Authentication"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger receives progress logs. If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger
	// MaxResponseSize bounds response bodies. Defaults to MaxResponseSize.
	MaxResponseSize int64

	UserAgent         string
	RequestID         string
	DeviceDescription string
}

// Client holds the API location and HTTP transport shared by Sessions.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	logger            logrus.FieldLogger
	maxResponseSize   int64
	userAgent         string
	requestID         string
	deviceDescription string
}

// NewClient creates a Client, filling unset fields with defaults.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("tricount: invalid base URL %q: %w", baseURL, err)
	}

	client := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		httpClient:        config.HTTPClient,
		logger:            config.Logger,
		maxResponseSize:   config.MaxResponseSize,
		userAgent:         orDefault(config.UserAgent, DefaultUserAgent),
		requestID:         orDefault(config.RequestID, DefaultRequestID),
		deviceDescription: orDefault(config.DeviceDescription, DefaultDeviceDescription),
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	if client.logger == nil {
		client.logger = logrus.StandardLogger()
	}
	if client.maxResponseSize <= 0 {
		client.maxResponseSize = MaxResponseSize
	}
	return client, nil
}

// NewSession returns an unauthenticated session with a fresh installation id.
func (c *Client) NewSession() *Session {
	return &Session{
		client:         c,
		installationID: uuid.NewString(),
	}
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends one request and reads the whole (bounded) body. Only transport
// and encoding failures are returned as errors; status handling is left to
// the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, requestBody any) (response, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return response{}, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return response{}, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return response{}, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return response{}, fmt.Errorf("%s %s: %w: exceeds %d bytes", method, path, ErrResponseTooLarge, c.maxResponseSize)
	}
	return response{status: resp.StatusCode, body: body}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
