// Package lms is a small HTTP client for the instructor endpoints of a
// server-rendered learning-management platform.
package lms

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// API is the interface panels use to reach the LMS.
type API interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DefaultMaxBodyBytes caps how much of a response body is read into memory.
const DefaultMaxBodyBytes = 32 << 20

// ErrBodyTooLarge is returned when a response body exceeds the client's cap.
var ErrBodyTooLarge = errors.New("response body too large")

// ClientParams holds configuration for creating a Client.
type ClientParams struct {
	BaseURL            string
	APIToken           string
	SessionID          string
	CSRFToken          string
	InsecureSkipVerify bool
	Timeout            time.Duration
	RequestsPerSecond  float64
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// DialContext replaces the network dialer, e.g. with an SSH tunnel.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
	// HTTPClient overrides the constructed client entirely (tests).
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements API over net/http.
type Client struct {
	baseURL   string
	apiToken  string
	sessionID string
	csrfToken string
	maxBody   int64
	http      *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewClient creates a Client from the given params.
func NewClient(p ClientParams) *Client {
	hc := p.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if p.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per server
		}
		if p.DialContext != nil {
			transport.DialContext = p.DialContext
		}
		hc = &http.Client{Transport: transport, Timeout: p.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if p.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.RequestsPerSecond), 1)
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBody := p.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &Client{
		baseURL:   strings.TrimRight(p.BaseURL, "/"),
		apiToken:  p.APIToken,
		sessionID: p.SessionID,
		csrfToken: p.CSRFToken,
		maxBody:   maxBody,
		http:      hc,
		limiter:   limiter,
		logger:    logger.Named("lms"),
	}
}

// Do sends req and returns the response, whatever its status code.
// Errors are returned only when no response was received.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", req.URL, err)
	}
	if int64(len(body)) > c.maxBody {
		c.logger.Warn("response too large",
			zap.String("request_id", requestID),
			zap.String("url", req.URL),
			zap.Int64("limit", c.maxBody))
		return nil, fmt.Errorf("reading response from %s: %w (limit %d bytes)", req.URL, ErrBodyTooLarge, c.maxBody)
	}

	c.logger.Debug("request completed",
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	var body io.Reader
	contentType := ""

	switch {
	case req.Encoding == EncodeQuery || method == http.MethodGet:
		if len(req.Params) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + req.values().Encode()
		}
	case req.Encoding == EncodeJSON:
		params := req.Params
		if params == nil {
			params = map[string]string{}
		}
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	default:
		body = strings.NewReader(req.values().Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", req.URL, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")

	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	if c.sessionID != "" {
		httpReq.AddCookie(&http.Cookie{Name: "sessionid", Value: c.sessionID})
	}
	if c.csrfToken != "" {
		httpReq.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.csrfToken})
		httpReq.Header.Set("X-CSRFToken", c.csrfToken)
		if c.baseURL != "" {
			httpReq.Header.Set("Referer", c.baseURL+"/")
		}
	}
	return httpReq, nil
}
