package fixer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"go-payout-simulator/domain"
)

const ApiUrlBase = "http://data.fixer.io/api/"

// Service wraps the Fixer REST API
type Service interface {
	// Latest loads the current rates relative to the provider's base currency.
	Latest(ctx context.Context) (domain.Quote, error)
	// Symbols loads the currency code to display name table.
	Symbols(ctx context.Context) (domain.SymbolTable, error)
}

// APIError is a failure reported inside a Fixer response body, e.g. an invalid access key
type APIError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	if e.Info == "" {
		return fmt.Sprintf("fixer error %d (%s)", e.Code, e.Type)
	}
	return fmt.Sprintf("fixer error %d (%s): %s", e.Code, e.Type, e.Info)
}

// StatusError a non-2xx HTTP response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures a Service
type Option func(*service)

// WithURL overrides the API base url
func WithURL(u string) Option {
	return func(s *service) { s.url = u }
}

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *service) { s.client.Timeout = d }
}

// WithRetries retries transient failures up to n times with exponential backoff starting at initial.
func WithRetries(n int, initial time.Duration) Option {
	return func(s *service) {
		s.maxRetries = n
		s.retryInterval = initial
	}
}

// service fixer API
type service struct {
	// url base API url
	url string

	// accessKey passed as the access_key query parameter
	accessKey string

	// client for HTTP requests
	client http.Client

	maxRetries    int
	retryInterval time.Duration
}

// response covers both endpoints; unused fields stay empty
type response struct {
	Success   bool               `json:"success"`
	Error     *APIError          `json:"error"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Symbols   map[string]string  `json:"symbols"`
}

// NewService constructs a valid fixer Service.
func NewService(accessKey string, opts ...Option) Service {
	s := &service{
		url:       ApiUrlBase,
		accessKey: accessKey,
		client: http.Client{
			Timeout: 5 * time.Second,
		},
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest loads the current exchange rates.
func (s *service) Latest(ctx context.Context) (domain.Quote, error) {
	var r response
	if err := s.get(ctx, "latest", &r); err != nil {
		return domain.Quote{}, err
	}
	if len(r.Rates) == 0 {
		return domain.Quote{}, errors.New("no rates in response")
	}

	rates := make(domain.Rates, len(r.Rates))
	for k, v := range r.Rates {
		rates[domain.Currency(k)] = domain.Rate(v)
	}

	return domain.Quote{
		Base:      domain.Currency(r.Base),
		Rates:     rates,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
	}, nil
}

// Symbols loads all supported currency codes and their names.
func (s *service) Symbols(ctx context.Context) (domain.SymbolTable, error) {
	var r response
	if err := s.get(ctx, "symbols", &r); err != nil {
		return nil, err
	}
	if len(r.Symbols) == 0 {
		return nil, errors.New("no symbols in response")
	}

	symbols := make(domain.SymbolTable, len(r.Symbols))
	for k, v := range r.Symbols {
		symbols[domain.Currency(k)] = v
	}
	return symbols, nil
}

// get calls an endpoint, retrying transient failures
func (s *service) get(ctx context.Context, endpoint string, into *response) error {
	u, err := url.Parse(strings.TrimRight(s.url, "/") + "/" + endpoint)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	q := u.Query()
	q.Set("access_key", s.accessKey)
	u.RawQuery = q.Encode()

	operation := func() error {
		return s.do(ctx, u.String(), into)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxRetries)), ctx))
}

// do performs a single attempt. Errors that retrying cannot fix are marked permanent.
func (s *service) do(ctx context.Context, u string, into *response) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("building http request: %w", err))
	}
	httpResponse, err := s.client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("http get: %w", ctx.Err()))
		}
		return fmt.Errorf("http get: %w", redact(err))
	}
	defer httpResponse.Body.Close()

	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("reading json: %w", err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: httpResponse.StatusCode, Body: truncate(string(bytes), 256)}
		if httpResponse.StatusCode == http.StatusTooManyRequests || httpResponse.StatusCode >= 500 {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	var r response
	if err := json.Unmarshal(bytes, &r); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding json: %w", err))
	}
	if !r.Success {
		if r.Error == nil {
			r.Error = &APIError{Type: "unknown_error"}
		}
		return backoff.Permanent(r.Error)
	}

	*into = r
	return nil
}

// redact strips the query string, and with it the access key, from url errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, perr := url.Parse(urlErr.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
		}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
