// Package remote is the HTTP client for the justification review API.
// Its read methods are the retrieval operations the cache binds to keys.
package remote

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justifica/datacache/internal/codec"
	"github.com/justifica/datacache/internal/codec/gzipcodec"
	"github.com/justifica/datacache/internal/codec/noopcodec"
	"github.com/justifica/datacache/internal/codec/zstdcodec"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// Client talks to the review API.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	codecs  map[string]codec.Codec
	accept  string
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the API rooted at baseURL,
// e.g. "https://api.example.edu/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	c.registerCodecs(gzipcodec.New(), zstdcodec.New(), noopcodec.New())
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) registerCodecs(codecs ...codec.Codec) {
	c.codecs = make(map[string]codec.Codec, len(codecs))
	names := make([]string, 0, len(codecs))
	for _, cd := range codecs {
		c.codecs[cd.Encoding()] = cd
		names = append(names, cd.Encoding())
	}
	c.accept = strings.Join(names, ", ")
}

// JustificationStats fetches the review counters.
func (c *Client) JustificationStats(ctx context.Context) (JustificationStats, error) {
	var env envelope[JustificationStats]
	if err := c.do(ctx, http.MethodGet, "/justifications/stats", nil, nil, &env); err != nil {
		return JustificationStats{}, err
	}
	return env.Data, nil
}

// Justifications fetches every justification, most recent first.
func (c *Client) Justifications(ctx context.Context) ([]Justification, error) {
	var env envelope[[]Justification]
	if err := c.do(ctx, http.MethodGet, "/justifications/all", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// StudentStats fetches enrolment counters.
func (c *Client) StudentStats(ctx context.Context) (StudentStats, error) {
	var env envelope[StudentStats]
	if err := c.do(ctx, http.MethodGet, "/students/stats", nil, nil, &env); err != nil {
		return StudentStats{}, err
	}
	return env.Data, nil
}

// Students fetches the student list with attendance statistics.
func (c *Client) Students(ctx context.Context, q StudentQuery) ([]Student, error) {
	query := url.Values{"include_stats": {"true"}}
	if q.IncludeInactive {
		query.Set("include_inactive", "true")
	}
	if q.Status != "" && q.Status != "todos" {
		query.Set("status", q.Status)
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	var env envelope[StudentList]
	if err := c.do(ctx, http.MethodGet, "/students/", query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data.Students, nil
}

// CreateStudent registers a new student. A student without a status is
// created active.
func (c *Client) CreateStudent(ctx context.Context, s NewStudent) error {
	if s.Status == "" {
		s.Status = StatusActive
	}
	var env envelope[json.RawMessage]
	return c.do(ctx, http.MethodPost, "/students/", nil, s, &env)
}

// UpdateStudent replaces the details of student id.
func (c *Client) UpdateStudent(ctx context.Context, id int, s NewStudent) error {
	var env envelope[json.RawMessage]
	return c.do(ctx, http.MethodPut, "/students/"+strconv.Itoa(id)+"/update", nil, s, &env)
}

// DeleteStudent marks a student inactive.
func (c *Client) DeleteStudent(ctx context.Context, id int) error {
	var env envelope[json.RawMessage]
	return c.do(ctx, http.MethodPatch, "/students/"+strconv.Itoa(id)+"/delete", nil, nil, &env)
}

// RestoreStudent marks an inactive student active again.
func (c *Client) RestoreStudent(ctx context.Context, id int) error {
	var env envelope[json.RawMessage]
	return c.do(ctx, http.MethodPatch, "/students/"+strconv.Itoa(id)+"/restore", nil, nil, &env)
}

// ImportStudents creates students in bulk.
func (c *Client) ImportStudents(ctx context.Context, students []NewStudent) error {
	var env envelope[json.RawMessage]
	return c.do(ctx, http.MethodPost, "/students/import", nil, importRequest{Students: students}, &env)
}

// ApproveJustification records an approval by adminID.
func (c *Client) ApproveJustification(ctx context.Context, id, adminID int) error {
	var env envelope[json.RawMessage]
	path := "/justifications/" + strconv.Itoa(id) + "/approve"
	return c.do(ctx, http.MethodPost, path, nil, reviewRequest{AdminID: adminID}, &env)
}

// RejectJustification records a rejection by adminID.
func (c *Client) RejectJustification(ctx context.Context, id, adminID int) error {
	var env envelope[json.RawMessage]
	path := "/justifications/" + strconv.Itoa(id) + "/reject"
	return c.do(ctx, http.MethodPost, path, nil, reviewRequest{AdminID: adminID}, &env)
}

// successEnvelope is satisfied by every envelope instantiation.
type successEnvelope interface {
	ok() (bool, string)
}

func (e *envelope[T]) ok() (bool, string) {
	return e.Success, e.Message
}

// do sends one request and decodes the JSON envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out successEnvelope) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", c.accept)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("requestID", requestID),
	)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	data, err := c.readBody(resp)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	if ok, msg := out.ok(); !ok {
		return &APIError{Path: path, Message: msg}
	}
	return nil
}

// readBody returns the response body decoded per its Content-Encoding.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" {
		encoding = "identity"
	}
	cd, ok := c.codecs[encoding]
	if !ok {
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	r, err := cd.Reader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("creating %s decoder: %w", encoding, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

// errorMessage extracts the message field of an error body, if any.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	return cmp.Or(body.Message, body.Error)
}

// IsUnauthorized reports whether err was caused by a rejected token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
