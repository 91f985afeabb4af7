// Package apiclient is the HTTP client used to reach the REST backend. It
// resolves relative paths against a base URL, keeps cookies for credentialed
// requests, mirrors the XSRF cookie into a header and runs every call through
// request and response interceptor chains.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultXSRFCookieName = "XSRF-TOKEN"
	DefaultXSRFHeaderName = "X-XSRF-TOKEN"

	DefaultMaxBodyBytes = 10 << 20
)

// ErrBodyTooLarge is returned when a backend response exceeds the body limit.
var ErrBodyTooLarge = errors.New("response body too large")

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	WithCredentials bool
	XSRFCookieName  string
	XSRFHeaderName  string
	// MaxBodyBytes caps how much of a response is read. Zero means
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         30 * time.Second,
		WithCredentials: true,
		XSRFCookieName:  DefaultXSRFCookieName,
		XSRFHeaderName:  DefaultXSRFHeaderName,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// RequestInterceptor may mutate the outgoing request. A returned error aborts
// the call and is handed back to the caller as is.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResponseInterceptor observes the outcome of a call. OnSuccess runs while the
// chain holds a response, OnError while it holds an error; either may switch
// the chain to the other state by what it returns. A nil hook passes the
// current state through.
type ResponseInterceptor struct {
	OnSuccess func(ctx context.Context, resp *Response) (*Response, error)
	OnError   func(ctx context.Context, err error) (*Response, error)
}

type requestEntry struct {
	id          int
	interceptor RequestInterceptor
}

type responseEntry struct {
	id          int
	interceptor ResponseInterceptor
}

type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	jar    http.CookieJar
	mu     sync.RWMutex
	nextID int

	requestInterceptors  []requestEntry
	responseInterceptors []responseEntry
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.XSRFCookieName == "" {
		cfg.XSRFCookieName = DefaultXSRFCookieName
	}
	if cfg.XSRFHeaderName == "" {
		cfg.XSRFHeaderName = DefaultXSRFHeaderName
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	httpClient := &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}

	var jar http.CookieJar
	if cfg.WithCredentials {
		jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	return &Client{cfg: cfg, base: base, http: httpClient, jar: jar}, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) UseRequest(interceptor RequestInterceptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.requestInterceptors = append(c.requestInterceptors, requestEntry{id: c.nextID, interceptor: interceptor})
	return c.nextID
}

func (c *Client) EjectRequest(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.requestInterceptors {
		if entry.id == id {
			c.requestInterceptors = append(c.requestInterceptors[:i:i], c.requestInterceptors[i+1:]...)
			return
		}
	}
}

func (c *Client) UseResponse(interceptor ResponseInterceptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.responseInterceptors = append(c.responseInterceptors, responseEntry{id: c.nextID, interceptor: interceptor})
	return c.nextID
}

func (c *Client) EjectResponse(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.responseInterceptors {
		if entry.id == id {
			c.responseInterceptors = append(c.responseInterceptors[:i:i], c.responseInterceptors[i+1:]...)
			return
		}
	}
}

// ResponseInterceptorCount reports how many response interceptors are
// registered.
func (c *Client) ResponseInterceptorCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.responseInterceptors)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends a request. body is JSON encoded unless it is nil, a []byte or an
// io.Reader.
func (c *Client) Do(ctx context.Context, method string, path string, body any) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	requestChain := make([]RequestInterceptor, 0, len(c.requestInterceptors))
	for _, entry := range c.requestInterceptors {
		requestChain = append(requestChain, entry.interceptor)
	}
	responseChain := make([]ResponseInterceptor, 0, len(c.responseInterceptors))
	for _, entry := range c.responseInterceptors {
		responseChain = append(responseChain, entry.interceptor)
	}
	c.mu.RUnlock()

	for _, intercept := range requestChain {
		if err := intercept(ctx, req); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(req)
	for _, interceptor := range responseChain {
		if err == nil {
			if interceptor.OnSuccess != nil {
				resp, err = interceptor.OnSuccess(ctx, resp)
			}
			continue
		}
		if interceptor.OnError != nil {
			resp, err = interceptor.OnError(ctx, err)
		}
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, body any) (*http.Request, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	contentType := ""
	switch payload := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(payload)
	case io.Reader:
		reader = payload
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(target) {
			if cookie.Name == c.cfg.XSRFCookieName && cookie.Value != "" {
				req.Header.Set(c.cfg.XSRFHeaderName, cookie.Value)
				break
			}
		}
	}

	return req, nil
}

func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}

	ref.Path = strings.TrimPrefix(ref.Path, "/")
	return c.base.ResolveReference(ref), nil
}

func (c *Client) send(req *http.Request) (*Response, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &Error{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("read response body: %w", err)}
	}
	// a truncated body would be relayed as broken JSON
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return nil, &Error{
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    fmt.Errorf("%w: status %d, limit %d bytes", ErrBodyTooLarge, httpResp.StatusCode, c.cfg.MaxBodyBytes),
		}
	}

	resp := &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   body,
		URL:    req.URL.String(),
	}

	if !resp.OK() {
		return nil, &Error{
			Method:   req.Method,
			URL:      req.URL.String(),
			Response: resp,
			Err:      fmt.Errorf("request failed with status code %d", resp.Status),
		}
	}

	return resp, nil
}
