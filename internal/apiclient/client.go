package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 10 << 20

var errServerStatus = errors.New("server error status")

type Options struct {
	BaseURL string
	Timeout time.Duration

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Transport overrides the base round tripper; it is still wrapped
	// with OpenTelemetry instrumentation.
	Transport http.RoundTripper
	Logger    *zerolog.Logger
}

// Client is the typed collaborator for the remote POS API. All calls pass
// through one breaker, one limiter and one error-normalisation path.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*response]
	limiter *rate.Limiter
	log     zerolog.Logger

	Products       *Resource[domain.Product]
	Categories     *Resource[domain.Category]
	Customers      *Resource[domain.Customer]
	Employees      *Resource[domain.Employee]
	PaymentMethods *Resource[domain.PaymentMethod]
	Orders         *Resource[domain.Order]
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxFailures := opts.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "apiclient").Logger()
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Transport: otelhttp.NewTransport(transport)},
		timeout: timeout,
		log:     log,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "pos-api",
		Timeout: opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	c.Products = &Resource[domain.Product]{client: c, routes: productRoutes, encode: encodeProduct}
	c.Categories = newJSONResource[domain.Category](c, categoryRoutes)
	c.Customers = newJSONResource[domain.Customer](c, customerRoutes)
	c.Employees = newJSONResource[domain.Employee](c, employeeRoutes)
	c.PaymentMethods = newJSONResource[domain.PaymentMethod](c, paymentMethodRoutes)
	c.Orders = newJSONResource[domain.Order](c, orderRoutes)
	return c, nil
}

// do sends one request. Transport failures and 5xx responses count against
// the breaker; 4xx responses are returned for the caller to normalise.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*response, error) {
	op := method + " " + path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindUnavailable, Op: op, Message: "rate limit wait aborted", Err: err}
		}
	}

	target := c.base.ResolveReference(&url.URL{Path: path})
	start := time.Now()

	resp, err := c.breaker.Execute(func() (*response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		r := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if r.status >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.log.Warn().Ctx(ctx).Str("op", op).Msg("api call rejected by circuit breaker")
		return nil, &Error{Kind: KindUnavailable, Op: op, Message: "circuit breaker open", Err: err}
	case errors.Is(err, errServerStatus):
		c.log.Warn().Ctx(ctx).Str("op", op).Int("status", resp.status).Dur("duration", time.Since(start)).Msg("api call failed")
		return nil, statusError(op, resp.status, resp.body)
	case err != nil:
		c.log.Warn().Ctx(ctx).Err(err).Str("op", op).Msg("api transport failure")
		return nil, transportError(op, err)
	}

	c.log.Debug().Ctx(ctx).Str("op", op).Int("status", resp.status).Dur("duration", time.Since(start)).Msg("api call")
	if resp.status < 200 || resp.status > 299 {
		return nil, statusError(op, resp.status, resp.body)
	}
	return resp, nil
}
