package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/use-agent/farmdata/models"
)

// apiClient calls the farmdata HTTP API.
type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL, apiKey string, timeout time.Duration) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return &apiClient{http: c}
}

// apiError is returned when the API answers with a structured error.
type apiError struct {
	status int
	detail models.ErrorDetail
}

func (e *apiError) Error() string {
	return fmt.Sprintf("[%s] %s", e.detail.Code, e.detail.Message)
}

// get issues a GET and decodes a 2xx body into out.
func (c *apiClient) get(ctx context.Context, path string, query map[string]string, out any) error {
	req := c.http.R().SetContext(ctx).SetQueryParams(compact(query))
	return c.do(req, "GET", path, out)
}

// post issues a POST with a JSON body and decodes a 2xx body into out.
func (c *apiClient) post(ctx context.Context, path string, body, out any) error {
	req := c.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body)
	return c.do(req, "POST", path, out)
}

func (c *apiClient) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		var e models.ErrorResponse
		if jerr := json.Unmarshal(resp.Body(), &e); jerr == nil && e.Error != nil {
			return &apiError{status: resp.StatusCode(), detail: *e.Error}
		}
		return fmt.Errorf("API returned HTTP %d", resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// compact drops empty query values.
func compact(q map[string]string) map[string]string {
	out := make(map[string]string, len(q))
	for k, v := range q {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
