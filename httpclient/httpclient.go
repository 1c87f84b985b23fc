// Package httpclient provides the single fully-buffered HTTP client shared
// by manifest fetches, chunk downloads, and the identity provider client.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"unicode/utf8"

	"github.com/SirWaddles/wickdl/wickerr"
)

// defaultStartCapacity is used to preallocate a response buffer when the
// server does not send a usable Content-Length.
const defaultStartCapacity = 1024

// Client wraps *http.Client with GET/POST helpers that read the full
// response body into memory, as required by components B, C, and I.
type Client struct {
	http *http.Client
}

// New builds a Client tuned for many small, concurrent requests against a
// CDN: a higher per-host idle connection ceiling (sized to maxWorkers) and
// HTTP/2 where the server supports it.
func New(maxWorkers int) *Client {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 2
	}
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: maxWorkers,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// Request describes a POST request body and headers; used by auth's
// client-credentials token exchange and manifest fetches that require a
// bearer token.
type Request struct {
	URL     string
	Body    []byte
	Headers map[string]string
}

// Get issues an HTTP GET and returns the fully-buffered response body.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, wickerr.Wrap(wickerr.KindNetwork, err, "building GET %s", url)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// GetText issues an HTTP GET and decodes the response body as UTF-8 text.
func (c *Client) GetText(ctx context.Context, url string, headers map[string]string) (string, error) {
	body, err := c.Get(ctx, url, headers)
	if err != nil {
		return "", err
	}
	return toText(body)
}

// Post issues an HTTP POST and returns the fully-buffered response body.
func (c *Client) Post(ctx context.Context, r Request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, wickerr.Wrap(wickerr.KindNetwork, err, "building POST %s", r.URL)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// PostText issues an HTTP POST and decodes the response body as UTF-8 text.
func (c *Client) PostText(ctx context.Context, r Request) (string, error) {
	body, err := c.Post(ctx, r)
	if err != nil {
		return "", err
	}
	return toText(body)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wickerr.Wrap(wickerr.KindNetwork, err, "%s %s", req.Method, req.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, wickerr.New(wickerr.KindNetwork, "%s %s: HTTP %d", req.Method, req.URL, resp.StatusCode)
	}

	capacity := defaultStartCapacity
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.Atoi(cl); err == nil && n >= 0 {
			capacity = n
		} else if err != nil {
			return nil, wickerr.Wrap(wickerr.KindNetwork, err, "decoding Content-Length %q", cl)
		}
	}

	buf := bytes.NewBuffer(make([]byte, 0, capacity))
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return nil, wickerr.Wrap(wickerr.KindNetwork, err, "reading body of %s %s", req.Method, req.URL)
	}

	return buf.Bytes(), nil
}

func toText(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", wickerr.New(wickerr.KindNetwork, "response body is not valid UTF-8")
	}
	return string(body), nil
}
