package hostdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const restPrefix = "/rest/v1/"

// RESTClient speaks the PostgREST dialect exposed by hosted Postgres providers.
type RESTClient struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewRESTClient returns nil-safe defaults: a 15s HTTP client when none is given.
func NewRESTClient(settings Settings, httpClient *http.Client) *RESTClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(settings.URL, "/"),
		key:        settings.Key,
		httpClient: httpClient,
	}
}

func (c *RESTClient) Configured() bool {
	return c.baseURL != "" && c.key != ""
}

func (c *RESTClient) Select(ctx context.Context, table string, columns string, limit int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("select", columns)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.call(ctx, http.MethodGet, restPrefix+table+"?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &Error{Message: "decode select response", Err: err}
	}
	return rows, nil
}

func (c *RESTClient) Insert(ctx context.Context, table string, row map[string]any) error {
	_, err := c.call(ctx, http.MethodPost, restPrefix+table, row, http.Header{"Prefer": {"return=minimal"}})
	return err
}

func (c *RESTClient) DeleteWhere(ctx context.Context, table string, column string, value any) error {
	q := url.Values{}
	q.Set(column, fmt.Sprintf("eq.%v", value))
	_, err := c.call(ctx, http.MethodDelete, restPrefix+table+"?"+q.Encode(), nil, nil)
	return err
}

func (c *RESTClient) RPC(ctx context.Context, fn string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := c.call(ctx, http.MethodPost, restPrefix+"rpc/"+fn, args, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// PostStatus sends body to path and returns the raw HTTP status without classifying it.
func (c *RESTClient) PostStatus(ctx context.Context, path string, body any) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, path, body, http.Header{"Prefer": {"return=minimal"}})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: "marshal request", Err: err}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, &Error{Message: "build request", Err: err}
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "request failed", Details: err.Error(), Err: err}
	}
	return resp, nil
}

func (c *RESTClient) call(ctx context.Context, method, path string, body any, header http.Header) ([]byte, error) {
	resp, err := c.do(ctx, method, path, body, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseErrorBody(resp.StatusCode, data)
	}
	return data, nil
}

func parseErrorBody(status int, data []byte) *Error {
	e := &Error{Status: status}
	if err := json.Unmarshal(data, e); err != nil || (e.Code == "" && e.Message == "") {
		e.Message = strings.TrimSpace(string(data))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	}
	return e
}
