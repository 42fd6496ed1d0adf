// Package client talks to the logitrack HTTP API. Client implements
// dashboard.Backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
)

var _ dashboard.Backend = (*Client)(nil)

// DefaultURL is used when no server URL is configured.
const DefaultURL = "http://localhost:8080"

// ServerError is returned when the server answers a read with a non-success
// status other than 401.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Client is an API client authenticated with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, api.ErrUnauthenticated
	}
	return resp, nil
}

// get decodes a successful JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// mutate posts payload and returns the server's verdict. A rejection with a
// JSON error body is reported as an unsuccessful result, not an error.
func (c *Client) mutate(ctx context.Context, path string, payload any) (*api.MutationResult, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.result(req)
}

func (c *Client) result(req *http.Request) (*api.MutationResult, error) {
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, serverError(resp)
	}
	var res api.MutationResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &ServerError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		res.Success = false
	}
	return &res, nil
}

func serverError(resp *http.Response) error {
	var body api.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	return &ServerError{StatusCode: resp.StatusCode, Message: body.Error}
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*api.MeResponse, error) {
	var out api.MeResponse
	if err := c.get(ctx, "/api/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders lists the active orders of a channel. An empty channel asks the
// server for the user's default.
func (c *Client) Orders(ctx context.Context, channel string) (*api.OrdersResponse, error) {
	path := "/api/orders"
	if channel != "" {
		path += "?" + url.Values{"channel": {channel}}.Encode()
	}
	var out api.OrdersResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Channels lists the channels visible to the user.
func (c *Client) Channels(ctx context.Context) ([]string, error) {
	var out api.ChannelsResponse
	if err := c.get(ctx, "/api/channels", &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

// BlockDetail returns a block with its members and totals.
func (c *Client) BlockDetail(ctx context.Context, blockID int64) (*api.BlockResponse, error) {
	var out api.BlockResponse
	if err := c.get(ctx, "/api/blocks/"+strconv.FormatInt(blockID, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func historyQuery(f order.HistoryFilter) string {
	q := url.Values{}
	for k, v := range map[string]string{
		"client":     f.Client,
		"locality":   f.Locality,
		"channel":    f.Channel,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// History lists archived orders.
func (c *Client) History(ctx context.Context, f order.HistoryFilter) ([]order.HistoryEntry, error) {
	var out api.HistoryResponse
	if err := c.get(ctx, "/api/history"+historyQuery(f), &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// DownloadHistory writes the history workbook to w and returns the file name
// the server suggested.
func (c *Client) DownloadHistory(ctx context.Context, f order.HistoryFilter, w io.Writer) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/history/download"+historyQuery(f), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("failed to read workbook: %w", err)
	}

	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return name, nil
}

func orderPath(ref, action string) string {
	return "/api/orders/" + url.PathEscape(ref) + "/" + action
}

func (c *Client) UpdateStatus(ctx context.Context, ref string, status order.Status) (*api.MutationResult, error) {
	return c.mutate(ctx, orderPath(ref, "status"), api.StatusRequest{Status: status})
}

func (c *Client) UpdateNotes(ctx context.Context, ref, notes string) (*api.MutationResult, error) {
	return c.mutate(ctx, orderPath(ref, "notes"), api.NotesRequest{Notes: notes})
}

func (c *Client) ClearNotes(ctx context.Context, ref string) (*api.MutationResult, error) {
	return c.mutate(ctx, orderPath(ref, "clear-notes"), nil)
}

func (c *Client) ToggleTask(ctx context.Context, taskID int64, done bool) (*api.MutationResult, error) {
	return c.mutate(ctx, "/api/tasks/"+strconv.FormatInt(taskID, 10), api.TaskRequest{Done: done})
}

func (c *Client) Archive(ctx context.Context, ref string) (*api.MutationResult, error) {
	return c.mutate(ctx, orderPath(ref, "archive"), nil)
}

func (c *Client) ArchiveBlock(ctx context.Context, blockID int64) (*api.MutationResult, error) {
	return c.mutate(ctx, "/api/blocks/"+strconv.FormatInt(blockID, 10)+"/archive", nil)
}

func (c *Client) Group(ctx context.Context, refs []string) (*api.MutationResult, error) {
	return c.mutate(ctx, "/api/blocks", api.RefsRequest{Refs: refs})
}

func (c *Client) Ungroup(ctx context.Context, refs []string) (*api.MutationResult, error) {
	return c.mutate(ctx, "/api/blocks/ungroup", api.RefsRequest{Refs: refs})
}

func (c *Client) Restore(ctx context.Context, historyID int64) (*api.MutationResult, error) {
	return c.mutate(ctx, "/api/history/"+strconv.FormatInt(historyID, 10)+"/restore", nil)
}

// Sync asks the server to import its configured spreadsheet.
func (c *Client) Sync(ctx context.Context) (*api.MutationResult, error) {
	return c.mutate(ctx, "/api/orders/sync", nil)
}

// SyncFile uploads a workbook and imports it.
func (c *Client) SyncFile(ctx context.Context, filename string, r io.Reader) (*api.MutationResult, error) {
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/orders/sync", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.result(req)
}
