package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("edoso-client")

var (
	// ErrInvalidSession means no token is available, or the server rejected the
	// one we sent (401). Callers must force re-authentication.
	ErrInvalidSession = errors.New("session invalid")
	// ErrConnectivity means no response was received at all.
	ErrConnectivity = errors.New("could not reach server")
	// ErrServerFault covers 5xx responses and bodies that are not JSON. The raw
	// body is never propagated to callers.
	ErrServerFault = errors.New("unexpected server error")
)

// ApiError is a structured 4xx rejection. Message holds the first field-level
// message extracted from the response body and is meant to be shown verbatim.
type ApiError struct {
	StatusCode int
	Field      string
	Message    string
	Fields     map[string][]string
}

func (e *ApiError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// TokenSource supplies the bearer token for authenticated calls. It is read
// immediately before every request, never cached across calls, so a logout on
// one screen is observed by the next call from any other.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

const maxResponseBody = 1 << 20

// New creates a client against the given base URL. Tokens for authenticated
// calls are read from tokens on every request.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

const (
	public = false
	authed = true
)

// do issues a single JSON request. No retries are performed; every failure is
// surfaced exactly once to the caller, normalized into the error taxonomy
// above.
func (c *Client) do(ctx context.Context, method, pathOrURL string, withAuth bool, in, out any) error {
	url := pathOrURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + pathOrURL
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if withAuth {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		if token == "" {
			return ErrInvalidSession
		}
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnectivity, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnectivity, err.Error())
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: malformed response body: %s", ErrServerFault, err.Error())
		}
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidSession
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		if apiErr := parseApiError(resp.StatusCode, raw); apiErr != nil {
			return apiErr
		}
		// 4xx with a non-JSON body (HTML error pages and the like)
		logging.GetFromContext(ctx).Debug("discarding non-json error body", "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrServerFault, resp.StatusCode)
	}

	return fmt.Errorf("%w: status %d", ErrServerFault, resp.StatusCode)
}

// parseApiError extracts the first field-level message out of a DRF-style
// error body: {"detail": "..."} or {"field": ["msg", ...], ...}. Returns nil
// when the body is not structured JSON.
func parseApiError(status int, raw []byte) *ApiError {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil
	}

	apiErr := &ApiError{StatusCode: status, Fields: map[string][]string{}}

	for k, v := range fields {
		var msgs []string
		if err := json.Unmarshal(v, &msgs); err != nil {
			var single string
			if err := json.Unmarshal(v, &single); err != nil {
				continue
			}
			msgs = []string{single}
		}
		apiErr.Fields[k] = msgs
	}
	if len(apiErr.Fields) == 0 {
		return nil
	}

	pick := func(field string) bool {
		msgs, ok := apiErr.Fields[field]
		if !ok || len(msgs) == 0 {
			return false
		}
		apiErr.Field = field
		apiErr.Message = msgs[0]
		return true
	}

	if pick("detail") || pick("non_field_errors") {
		apiErr.Field = ""
		return apiErr
	}

	keys := make([]string, 0, len(apiErr.Fields))
	for k := range apiErr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if pick(k) {
			return apiErr
		}
	}
	return nil
}
