package transport

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/botlink-core/internal/device"
)

// Remote API constants.
const (
	// apiVersion is the cloud API version path segment.
	apiVersion = "v1.1"

	// Envelope status codes accepted as success. Everything else routes
	// to the error path, at both the HTTP and the envelope layer.
	statusCodeSuccess   = 100
	statusCodeDeviceOK  = 200
	httpStatusContinue  = 100
	defaultHTTPTimeout  = 10 * time.Second
	maxResponseBodySize = 1 << 20 // 1MB
)

// envelope is the cloud API response wrapper.
type envelope struct {
	StatusCode int            `json:"statusCode"`
	Body       map[string]any `json:"body"`
	Message    string         `json:"message"`
}

// RemoteAPIChannel talks to devices through the cloud HTTP API.
//
// Authentication is header-based: each request carries the token, a
// millisecond timestamp, a random nonce, and an HMAC-SHA256 signature of
// token+timestamp+nonce keyed by the secret.
type RemoteAPIChannel struct {
	baseURL string
	token   string
	secret  string
	client  *http.Client
}

// RemoteOptions holds configuration for creating a remote channel.
type RemoteOptions struct {
	// BaseURL is the cloud API root, without a trailing slash.
	BaseURL string

	// Token and Secret are the cloud credentials.
	Token  string
	Secret string

	// Timeout bounds each HTTP request. Zero means a 10s default.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewRemoteAPIChannel creates a remote channel.
func NewRemoteAPIChannel(opts RemoteOptions) (*RemoteAPIChannel, error) {
	if opts.Token == "" || opts.Secret == "" {
		return nil, ErrNoCredentials
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrProtocol)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &RemoteAPIChannel{
		baseURL: opts.BaseURL,
		token:   opts.Token,
		secret:  opts.Secret,
		client:  client,
	}, nil
}

// Name identifies the channel in logs and telemetry.
func (c *RemoteAPIChannel) Name() string {
	return "remote"
}

// FetchState performs one HTTP GET of the device status.
func (c *RemoteAPIChannel) FetchState(ctx context.Context, dev device.Device) (Status, error) {
	url := fmt.Sprintf("%s/%s/devices/%s/status", c.baseURL, apiVersion, dev.ID)

	env, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return Status(env.Body), nil
}

// SendCommand performs one HTTP POST of a command envelope.
func (c *RemoteAPIChannel) SendCommand(ctx context.Context, dev device.Device, cmd Command) error {
	url := fmt.Sprintf("%s/%s/devices/%s/commands", c.baseURL, apiVersion, dev.ID)

	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("%w: marshalling command: %w", ErrProtocol, err)
	}

	_, err = c.do(ctx, http.MethodPost, url, payload)
	return err
}

// do issues one signed request and validates the dual status-code contract.
func (c *RemoteAPIChannel) do(ctx context.Context, method, url string, body []byte) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrProtocol, err)
	}

	c.sign(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read side only

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: HTTP 404", ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != httpStatusContinue {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRejected, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrProtocol, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding envelope: %w", ErrProtocol, err)
	}

	// The envelope repeats the status contract; both layers must accept.
	if env.StatusCode != statusCodeSuccess && env.StatusCode != statusCodeDeviceOK {
		return nil, fmt.Errorf("%w: envelope status %d %s", ErrRejected, env.StatusCode, env.Message)
	}

	return &env, nil
}

// sign adds the authentication headers to a request.
func (c *RemoteAPIChannel) sign(req *http.Request) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := uuid.New().String()

	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(c.token + timestamp + nonce))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("Authorization", c.token)
	req.Header.Set("t", timestamp)
	req.Header.Set("nonce", nonce)
	req.Header.Set("sign", signature)
}
