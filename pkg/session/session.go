package session

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"ripper/pkg/config"
	rerrors "ripper/pkg/errors"
	"ripper/pkg/logger"
	"ripper/pkg/ratelimit"
)

// Session is the single reusable HTTP context of a run. Connections are
// pooled by the transport and cookies persist across requests.
type Session struct {
	httpClient   *http.Client
	headers      map[string]string
	limiter      ratelimit.Limiter
	failOnStatus bool
	logger       logger.Logger
}

// New creates a Session from the "session" configuration section
func New(cfg config.SessionConfig, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &Session{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		headers:      map[string]string{"User-Agent": cfg.UserAgent},
		limiter:      ratelimit.PerMinute(cfg.RequestsPerMinute),
		failOnStatus: cfg.FailOnStatus,
		logger:       log,
	}
	s.SetHeaders(cfg.Headers)

	return s, nil
}

// SetHeader sets a header sent with every request
func (s *Session) SetHeader(key, value string) {
	s.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (s *Session) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		s.headers[key] = value
	}
}

// Jar returns the cookie jar shared by every request
func (s *Session) Jar() http.CookieJar {
	return s.httpClient.Jar
}

// Get issues a GET request and reads the whole response.
// Non-2xx responses are returned as pages, not errors, unless the session
// was configured with fail_on_status.
func (s *Session) Get(url string) (*Page, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &rerrors.Error{
			Type:    rerrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request for %s", url),
			Err:     err,
		}
	}

	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &rerrors.Error{
			Type:    rerrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body from %s", url),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	page := &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}

	if s.failOnStatus && !page.OK() {
		return page, &rerrors.Error{
			Type:    rerrors.ErrorTypeHTTPStatus,
			Message: fmt.Sprintf("unexpected status %q from %s", resp.Status, url),
			Code:    resp.StatusCode,
		}
	}

	return page, nil
}

// GetTree fetches url and parses the body into a document tree
func (s *Session) GetTree(url string) (*goquery.Document, error) {
	page, err := s.Get(url)
	if err != nil {
		return nil, err
	}
	return page.Tree()
}

// do performs an HTTP request with the configured headers
func (s *Session) do(req *http.Request) (*http.Response, error) {
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	s.limiter.Wait()

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		s.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &rerrors.Error{
			Type:    rerrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("request to %s failed", req.URL),
			Err:     err,
		}
	}

	logger.LogRequest(s.logger, req.Method, req.URL.String(), resp.StatusCode,
		float64(duration.Microseconds())/1000)

	return resp, nil
}
