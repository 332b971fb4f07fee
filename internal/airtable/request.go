package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const contentType = "application/json"

func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, table string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.do(req, table, target)
}

func (c *Client) sendJSON(ctx context.Context, method, rawURL, table string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req, table, target)
}

func (c *Client) do(req *http.Request, table string, target any) error {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("airtable request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("table", table),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable %s %s: %w", req.Method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("airtable %s %s: reading body: %w", req.Method, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newRequestError(table, resp.StatusCode, data)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("airtable %s %s: decoding response: %w", req.Method, table, err)
	}

	return nil
}
