package archivechaine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	nurl "net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	defaultUserAgent = "archivechaine-go/1.0"
	maxElapsedTime   = 30 * time.Second
)

// remoteClient is the HTTP implementation of Client. One remoteClient
// owns one connection pool; it is used by a single workflow invocation
// at a time.
type remoteClient struct {
	cfg        Config
	httpClient *http.Client
	userAgent  string

	// maxRetries bounds the retry attempts for idempotent calls.
	// Submissions are never retried.
	maxRetries int

	closeOnce sync.Once
}

// Dial validates cfg and returns a Client that talks to the remote
// service over HTTP.
func Dial(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jar, _ := cookiejar.New(nil)
	return &remoteClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Minute,
			Jar:     jar,
		},
		userAgent:  defaultUserAgent,
		maxRetries: 3,
	}, nil
}

func (c *remoteClient) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-ArchiveChain-Network", c.cfg.Network)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// doRetry performs an idempotent request, retrying on communication
// failures and on 5xx/429 responses with exponential backoff.
func (c *remoteClient) doRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	op := func() error {
		var err error
		resp, err = c.httpClient.Do(req) //nolint:bodyclose
		if err == nil && (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) {
			resp.Body.Close()
			err = fmt.Errorf("fetch failed with status code: %d", resp.StatusCode)
		}
		return err
	}
	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = maxElapsedTime
	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxRetries)), req.Context())
	err := backoff.Retry(op, bo)

	return resp, err
}

// apiError is the error body shape returned by the service.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mapStatusError converts a non-2xx response into the matching typed
// error. The body is consumed.
func (c *remoteClient) mapStatusError(resp *http.Response, archiveID string) error {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	message := strings.TrimSpace(string(body))

	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		message = ae.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &NotFoundError{ArchiveID: archiveID}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Field: "request", Reason: message}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ConfigError{Key: EnvAPIKey, Reason: "rejected by the service: " + message}
	default:
		return &RemoteError{Code: resp.StatusCode, Message: message}
	}
}

// Submit sends the archival request. It is performed exactly once,
// never retried: retrying a non-idempotent submission could archive
// the same URL twice.
func (c *remoteClient) Submit(ctx context.Context, req Request) (*Handle, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode archive request")
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.cfg.APIURL+"/archives", payload)
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, c.mapStatusError(resp, "")
	}
	defer resp.Body.Close()

	var handle Handle
	if err := json.NewDecoder(resp.Body).Decode(&handle); err != nil {
		return nil, &TransportError{Op: "submit", Err: errors.Wrap(err, "decode acknowledgment")}
	}

	return &handle, nil
}

// SubscribeUpdates opens the server-sent event stream for an archive.
func (c *remoteClient) SubscribeUpdates(ctx context.Context, archiveID string) (UpdateStream, error) {
	url := c.cfg.APIURL + "/archives/" + nurl.PathEscape(archiveID) + "/events"
	httpReq, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "subscribe", Err: err}
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	// Opening the stream is idempotent and may be retried; the open
	// stream itself is not restartable.
	resp, err := c.doRetry(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "subscribe", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapStatusError(resp, archiveID)
	}

	return &eventStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// Lookup fetches the persisted record for archiveID.
func (c *remoteClient) Lookup(ctx context.Context, archiveID string) (*Record, error) {
	url := c.cfg.APIURL + "/archives/" + nurl.PathEscape(archiveID)
	httpReq, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "lookup", Err: err}
	}

	resp, err := c.doRetry(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "lookup", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapStatusError(resp, archiveID)
	}
	defer resp.Body.Close()

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, &TransportError{Op: "lookup", Err: errors.Wrap(err, "decode record")}
	}

	return &record, nil
}

// Search queries the archive index.
func (c *remoteClient) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	params := nurl.Values{}
	if query.Query != "" {
		params.Set("q", query.Query)
	}
	for _, tag := range query.Tags {
		params.Add("tag", tag)
	}
	if query.Status != "" {
		params.Set("status", string(query.Status))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}

	url := c.cfg.APIURL + "/search"
	if encoded := params.Encode(); encoded != "" {
		url += "?" + encoded
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}

	resp, err := c.doRetry(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapStatusError(resp, "")
	}
	defer resp.Body.Close()

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Op: "search", Err: errors.Wrap(err, "decode search response")}
	}

	return &result, nil
}

// Fetch downloads archived content from an access URL. The caller
// must close the returned body.
func (c *remoteClient) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	if _, err := nurl.ParseRequestURI(rawURL); err != nil {
		return nil, "", &ValidationError{Field: "url", Reason: err.Error()}
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &TransportError{Op: "fetch", Err: err}
	}

	resp, err := c.doRetry(httpReq)
	if err != nil {
		return nil, "", &TransportError{Op: "fetch", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.mapStatusError(resp, "")
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return resp.Body, contentType, nil
}

// Close releases idle connections. Safe to call more than once.
func (c *remoteClient) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

// eventStream reads server-sent events off an open response body and
// decodes each data line into a StatusUpdate.
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	terminal  bool
	closeOnce sync.Once
	closeErr  error
}

// Next returns the next update in delivery order. After the first
// terminal update it returns io.EOF regardless of what the server
// sends, so a misbehaving producer cannot leak trailing updates.
func (s *eventStream) Next() (*StatusUpdate, error) {
	if s.terminal {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var update StatusUpdate
		if err := json.Unmarshal([]byte(payload), &update); err != nil {
			return nil, &TransportError{Op: "subscribe", Err: errors.Wrap(err, "decode status update")}
		}

		if update.Status.Terminal() {
			s.terminal = true
		}
		return &update, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, &TransportError{Op: "subscribe", Err: err}
	}
	return nil, io.EOF
}

// Close releases the stream. Safe to call more than once.
func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
