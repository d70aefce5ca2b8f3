// Package acapi issues authenticated requests against the AC management
// platform through the controlled browser page's own fetch, so every
// request automatically carries the page's session cookies and can be
// watched for a redirect-to-login.
package acapi

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"sort"
	"strings"
	"time"

	"github.com/cassiaops/acagent/internal/browserpage"
)

// Redirect controls whether pageFetch follows a 3xx response.
type Redirect string

const (
	RedirectFollow Redirect = "follow"
	RedirectManual Redirect = "manual"
)

// FetchResult is the decoded return value of the in-page fetch call.
type FetchResult struct {
	OK         bool   `json:"ok"`
	Status     int    `json:"status"`
	Text       string `json:"text"`
	Redirected bool   `json:"redirected"`
	URL        string `json:"url"`
}

// Client issues requests through a single browser page handle.
type Client struct {
	page    browserpage.Page
	baseURL string
}

// New builds a Client bound to page and baseURL (no trailing slash).
func New(page browserpage.Page, baseURL string) *Client {
	return &Client{page: page, baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the configured AC origin.
func (c *Client) BaseURL() string { return c.baseURL }

// PageFetch executes a fetch() inside the page against url, same-origin
// credentials included. When addCSRF is true, a CSRF token read from the
// page's localStorage key "t" is merged into body before encoding. The
// request is bounded by timeout via an in-page AbortController.
//
// A response whose Redirected is true and whose final URL mentions
// "session" or "login" is reported as ErrSessionExpired rather than
// returned as a normal result, matching the AC's login-page redirect
// behavior on an expired session.
func (c *Client) PageFetch(ctx context.Context, url, method string, body map[string]any, extraHeaders map[string]string, addCSRF bool, redirect Redirect, timeout time.Duration) (FetchResult, error) {
	if body == nil {
		body = map[string]any{}
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("acapi: marshal body: %w", err)
	}
	headersJSON, err := json.Marshal(extraHeaders)
	if err != nil {
		return FetchResult{}, fmt.Errorf("acapi: marshal headers: %w", err)
	}
	urlJSON, err := json.Marshal(url)
	if err != nil {
		return FetchResult{}, fmt.Errorf("acapi: marshal url: %w", err)
	}

	script := fmt.Sprintf(`async () => {
		let bodyObj = %s;
		const addCsrf = %t;
		if (addCsrf) {
			const csrfToken = localStorage.getItem('t');
			if (csrfToken) bodyObj.csrf = csrfToken;
		}
		const method = %q;
		const headers = Object.assign({"Content-Type": "application/json"}, %s);
		const controller = new AbortController();
		const timer = setTimeout(() => controller.abort(), %d);
		const init = {
			method: method,
			headers: headers,
			credentials: "same-origin",
			redirect: %q,
			signal: controller.signal
		};
		if (method !== "GET" && method !== "HEAD") init.body = JSON.stringify(bodyObj);
		let resp;
		try {
			resp = await fetch(%s, init);
		} catch (e) {
			clearTimeout(timer);
			if (e.name === 'AbortError') throw new Error("fetch timed out");
			throw e;
		}
		clearTimeout(timer);
		let text = '';
		if (resp.type !== 'opaqueredirect') text = await resp.text();
		return {
			ok: resp.ok,
			status: resp.status,
			text: text,
			redirected: resp.redirected,
			url: resp.url
		};
	}`, bodyJSON, addCSRF, method, headersJSON, timeout.Milliseconds(), redirect, urlJSON)

	var result FetchResult
	if err := c.page.Evaluate(ctx, script, &result); err != nil {
		return FetchResult{}, fmt.Errorf("acapi: page fetch %s: %w", url, err)
	}

	if result.Redirected {
		lower := strings.ToLower(result.URL)
		if strings.Contains(lower, "session") || strings.Contains(lower, "login") {
			return result, fmt.Errorf("acapi: redirected to %s: %w", result.URL, ErrSessionExpired)
		}
	}
	return result, nil
}

// EnableSSH turns on the SSH shell of the gateway identified by mac.
func (c *Client) EnableSSH(ctx context.Context, mac string, timeout time.Duration) error {
	url := fmt.Sprintf("%s/api2/cassia/info?mac=%s", c.baseURL, mac)
	result, err := c.PageFetch(ctx, url, "POST", map[string]any{"ssh-login": "1"}, nil, true, RedirectFollow, timeout)
	if err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("acapi: enable ssh for %s: HTTP %d: %s: %w", mac, result.Status, result.Text, ErrAPIError)
	}
	return nil
}

// OpenTunnel opens the SSH-over-websocket tunnel to mac. The AC responds
// with a redirect it expects the caller NOT to follow; an opaque redirect
// (status 0) or any 3xx counts as success.
func (c *Client) OpenTunnel(ctx context.Context, mac string, timeout time.Duration) error {
	url := fmt.Sprintf("%s/ap/remote/%s?ssh_port=9999&ap=1", c.baseURL, mac)
	result, err := c.PageFetch(ctx, url, "POST", map[string]any{}, nil, true, RedirectManual, timeout)
	if err != nil {
		return err
	}
	if !result.OK && result.Status != 0 && !(result.Status >= 300 && result.Status < 400) {
		return fmt.Errorf("acapi: open tunnel for %s: HTTP %d: %s: %w", mac, result.Status, result.Text, ErrAPIError)
	}
	return nil
}

// Call issues an arbitrary pass-through request against path (which may
// already include a query string) and returns the decoded FetchResult.
// GET requests skip CSRF injection entirely and go through a plain
// same-origin fetch, matching the AC's read-only endpoints.
func (c *Client) Call(ctx context.Context, method, path string, body map[string]any, query map[string]string, timeout time.Duration) (FetchResult, error) {
	url := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(query))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, neturl.QueryEscape(query[k])))
		}
		url += sep + strings.Join(parts, "&")
	}
	addCSRF := method != "GET" && method != "HEAD"
	return c.PageFetch(ctx, url, method, body, nil, addCSRF, RedirectFollow, timeout)
}
