package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/userdeck-cli/internal/logging"
	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

// DefaultBaseURL is the public randomuser.me endpoint.
const DefaultBaseURL = "https://randomuser.me/api"

// Settings configures a Client. Zero values fall back to defaults.
type Settings struct {
	BaseURL          string
	HTTPTimeout      time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	// RateLimit is the steady request rate per second; 0 disables limiting.
	RateLimit float64
	// BreakerFailures consecutive failures open the circuit; 0 means 5.
	BreakerFailures int
	// BreakerTimeout is how long the circuit stays open before probing again.
	BreakerTimeout time.Duration
	Logger         *logrus.Logger
}

// FetchOptions selects which slice of the directory to download.
type FetchOptions struct {
	Results       int
	Seed          string
	Nationalities []string
	Page          int
}

// DefaultFetchOptions mirrors the dataset the mobile app always requested.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{Results: 1000, Seed: "windy", Nationalities: []string{"us", "gb", "ca", "au"}, Page: 1}
}

// Client downloads user records from the directory service.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	limiter          *rate.Limiter
	breaker          *gobreaker.CircuitBreaker[[]users.User]
	logger           *logrus.Logger
}

// NewClient builds a client with retry, rate limiting and a circuit breaker.
func NewClient(s Settings) *Client {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = 60 * time.Second
	}
	if s.RetryMaxAttempts <= 0 {
		s.RetryMaxAttempts = 3
	}
	if s.RetryBaseDelay <= 0 {
		s.RetryBaseDelay = 500 * time.Millisecond
	}
	if s.RetryMaxDelay <= 0 {
		s.RetryMaxDelay = 4 * time.Second
	}
	if s.BreakerFailures <= 0 {
		s.BreakerFailures = 5
	}
	if s.BreakerTimeout <= 0 {
		s.BreakerTimeout = 30 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Client{
		httpClient:       &http.Client{Timeout: s.HTTPTimeout},
		baseURL:          strings.TrimRight(s.BaseURL, "/"),
		retryMaxAttempts: s.RetryMaxAttempts,
		retryBaseDelay:   s.RetryBaseDelay,
		retryMaxDelay:    s.RetryMaxDelay,
		logger:           logger,
	}
	if s.RateLimit > 0 {
		burst := int(s.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(s.RateLimit), burst)
	}
	trip := uint32(s.BreakerFailures)
	c.breaker = gobreaker.NewCircuitBreaker[[]users.User](gobreaker.Settings{
		Name:        "directory",
		MaxRequests: 1,
		Timeout:     s.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		// Caller mistakes say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var bad *BadRequestError
			return err == nil || errors.As(err, &bad) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state change")
		},
	})
	return c
}

type apiResponse struct {
	Results []apiUser `json:"results"`
	Info    struct {
		Seed    string `json:"seed"`
		Results int    `json:"results"`
		Page    int    `json:"page"`
	} `json:"info"`
	Error string `json:"error"`
}

type apiUser struct {
	Gender string `json:"gender"`
	Name   struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Location struct {
		Country string `json:"country"`
	} `json:"location"`
	Email string `json:"email"`
	Login struct {
		UUID string `json:"uuid"`
	} `json:"login"`
	Dob struct {
		Age int `json:"age"`
	} `json:"dob"`
}

func (a apiUser) toUser() users.User {
	return users.User{
		ID:        a.Login.UUID,
		FirstName: a.Name.First,
		LastName:  a.Name.Last,
		Email:     a.Email,
		Age:       a.Dob.Age,
		Gender:    a.Gender,
		Country:   a.Location.Country,
	}
}

func (c *Client) endpoint(opt FetchOptions) string {
	q := url.Values{}
	if opt.Results > 0 {
		q.Set("results", strconv.Itoa(opt.Results))
	}
	if opt.Seed != "" {
		q.Set("seed", opt.Seed)
	}
	if len(opt.Nationalities) > 0 {
		q.Set("nat", strings.Join(opt.Nationalities, ","))
	}
	if opt.Page > 0 {
		q.Set("page", strconv.Itoa(opt.Page))
	}
	return c.baseURL + "/?" + q.Encode()
}

// Fetch downloads one page of users. Calls are rejected with an
// *UnreachableError while the circuit breaker is open.
func (c *Client) Fetch(ctx context.Context, opt FetchOptions) ([]users.User, error) {
	out, err := c.breaker.Execute(func() ([]users.User, error) {
		return c.fetchWithRetry(ctx, opt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &UnreachableError{Host: c.baseURL, Err: err}
	}
	return out, err
}

// FetchPages downloads pages opt.Page .. opt.Page+pages-1 with at most
// concurrency requests in flight. Records are returned in page order.
func (c *Client) FetchPages(ctx context.Context, opt FetchOptions, pages, concurrency int) ([]users.User, error) {
	if pages <= 0 {
		pages = 1
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	first := opt.Page
	if first <= 0 {
		first = 1
	}
	results := make([][]users.User, pages)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i := 0; i < pages; i++ {
		i := i
		pageOpt := opt
		pageOpt.Page = first + i
		eg.Go(func() error {
			list, err := c.Fetch(ctx, pageOpt)
			if err != nil {
				return fmt.Errorf("page %d: %w", pageOpt.Page, err)
			}
			results[i] = list
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var out []users.User
	for _, r := range results {
		out = append(out, r...)
	}
	c.logger.WithFields(logrus.Fields{"pages": pages, "users": len(out)}).Debug("fetched directory pages")
	return out, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, opt FetchOptions) ([]users.User, error) {
	endpoint := c.endpoint(opt)
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		log := c.logger.WithFields(logrus.Fields{"attempt": attempt, "page": opt.Page})
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("User-Agent", "userdeck-cli")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// network errors: potentially retryable
			if isRetryableNetErr(err) && attempt < maxAttempts {
				log.WithError(err).Debug("retrying after network error")
				lastErr = err
				if err := sleepCtx(ctx, c.backoffDelay(backoff)); err != nil {
					return nil, err
				}
				backoff *= 2
				continue
			}
			return nil, &UnreachableError{Host: c.baseURL, Err: err}
		}
		out, retryAfter, err := c.readResponse(resp)
		if err == nil {
			log.WithField("users", len(out)).Debug("fetched directory page")
			return out, nil
		}
		lastErr = err
		if !isRetryableStatus(err) || attempt >= maxAttempts {
			break
		}
		sleep := retryAfter
		if sleep <= 0 {
			sleep = c.backoffDelay(backoff)
			backoff *= 2
		}
		log.WithError(err).WithField("sleep", sleep).Debug("retrying after upstream error")
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// readResponse decodes one response. The returned duration is the server's
// Retry-After hint, if any.
func (c *Client) readResponse(resp *http.Response) ([]users.User, time.Duration, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
		if msg, ok := raw["error"].(string); ok {
			apiErr.Message = msg
		} else if msg, ok := raw["message"].(string); ok {
			apiErr.Message = msg
		}
		var retryAfter time.Duration
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, classifyAPIError(apiErr, resp)
	}
	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	// randomuser.me reports some failures in a 200 body
	if payload.Error != "" {
		return nil, 0, &ServerError{APIError: &APIError{StatusCode: resp.StatusCode, Message: payload.Error, RequestID: extractRequestID(resp)}}
	}
	out := make([]users.User, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, r.toUser())
	}
	return out, 0, nil
}

func isRetryableStatus(err error) bool {
	var rl *RateLimitError
	var se *ServerError
	return errors.As(err, &rl) || errors.As(err, &se)
}

func isRetryableNetErr(err error) bool {
	// net errors like timeouts
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return true
		}
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "CF-Ray", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// backoffDelay applies jitter to the current exponential backoff step and
// caps it at the configured maximum.
func (c *Client) backoffDelay(backoff time.Duration) time.Duration {
	d := withJitter(backoff)
	if c.retryMaxDelay > 0 && d > c.retryMaxDelay {
		d = c.retryMaxDelay
	}
	return d
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
