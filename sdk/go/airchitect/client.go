// Package airchitect is a small client for the AIrchitect plugin REST API.
package airchitect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"AIrchitect-CLI/pkg/plugin"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with a running `airchitect serve`.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// APIError is returned when the server rejects a request outside of a
// command result, for example an unknown plugin on the info endpoint.
type APIError struct {
	StatusCode int
	Kind       plugin.ErrorKind
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind != "" {
		return fmt.Sprintf("airchitect api error (%d): %s - %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("airchitect api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a client for the API rooted at rawURL. When httpClient
// is nil a client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", rawURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// ListPlugins returns the descriptive record of every loaded plugin.
func (c *Client) ListPlugins(ctx context.Context) ([]plugin.Info, error) {
	var out struct {
		Plugins []plugin.Info `json:"plugins"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/plugins", nil, &out); err != nil {
		return nil, err
	}
	return out.Plugins, nil
}

// PluginInfo describes a single plugin.
func (c *Client) PluginInfo(ctx context.Context, name string) (plugin.Info, error) {
	var info plugin.Info
	if err := c.call(ctx, http.MethodGet, "/api/v1/plugins/"+url.PathEscape(name), nil, &info); err != nil {
		return plugin.Info{}, err
	}
	return info, nil
}

// Invoke runs a plugin command. Command failures are reported through the
// returned Result; the error is reserved for transport problems.
func (c *Client) Invoke(ctx context.Context, pluginName, command string, args ...string) (plugin.Result, error) {
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(map[string][]string{"args": args})
	if err != nil {
		return plugin.Result{}, fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("/api/v1/plugins/%s/commands/%s", url.PathEscape(pluginName), url.PathEscape(command))
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return plugin.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return plugin.Result{}, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return plugin.Result{}, fmt.Errorf("read response: %w", err)
	}
	var res plugin.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return plugin.Result{}, &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	}
	return res, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, endpoint)
	u.RawPath = ""
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var res plugin.Result
		if json.Unmarshal(data, &res) == nil && res.Err != nil {
			apiErr.Kind = res.Err.Kind
			apiErr.Message = res.Err.Message
		} else {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind plugin.ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
