// Package hh implements the hh.ru vacancy search client.
package hh

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

const (
	HHClientSubsystem = "hh_client"
	ResultKey         = "requests_total"
)

var hhClient = prometheus.NewCounterVec(prometheus.CounterOpts{
	Subsystem: HHClientSubsystem,
	Name:      ResultKey,
	Help:      "Number of HTTP requests to hh.ru, partitioned by status code.",
}, []string{"code"})

func init() {
	prometheus.MustRegister(hhClient)
}

const defaultBaseURL = "https://hh.ru/search/vacancy"

// hh.ru replies 403 to clients that do not look like a browser.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/76.0.3809.100 Safari/537.36"

const (
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 32 * time.Second
	// 5 attempts total, matching the backoff contract of the service.
	defaultRetryMax = 4
)

type Client struct {
	*retryablehttp.Client

	baseURL   string
	userAgent string

	// now is the clock used when resolving publication dates.
	now func() time.Time
}

// NewClient is a functional options constructor, based on this blog post:
// https://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
func NewClient(options ...func(*Client) error) (*Client, error) {
	client := &Client{
		Client:    newDefaultHTTPClient(),
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		now:       time.Now,
	}
	client.Logger = nil

	return applyOptions(client, options...)
}

func newDefaultHTTPClient() *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient:   &http.Client{Transport: http.DefaultTransport},
		RetryWaitMin: defaultRetryWaitMin,
		RetryWaitMax: defaultRetryWaitMax,
		RetryMax:     defaultRetryMax,
		CheckRetry:   checkRetry,
		Backoff:      backoffWithJitter,
	}
}

func applyOptions(client *Client, options ...func(*Client) error) (*Client, error) {
	for _, op := range options {
		err := op(client)
		if err != nil {
			return nil, err
		}
	}

	return client, nil
}

// OptionBaseURL points the client at a different search endpoint. Used by tests.
func OptionBaseURL(baseURL string) func(client *Client) error {
	return func(client *Client) error {
		client.baseURL = baseURL

		return nil
	}
}

// OptionClock replaces the clock used for publication date resolution.
func OptionClock(now func() time.Time) func(client *Client) error {
	return func(client *Client) error {
		client.now = now

		return nil
	}
}

// OptionRetryWait overrides the backoff window. Used by tests to avoid sleeping.
func OptionRetryWait(min, max time.Duration) func(client *Client) error {
	return func(client *Client) error {
		client.RetryWaitMin = min
		client.RetryWaitMax = max

		return nil
	}
}

// checkRetry retries transport errors and the statuses hh.ru is known to
// answer under rate limiting (403) and transient overload (500, 503).
// Everything else fails the request immediately.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true, nil
	}
	return false, nil
}

// backoffWithJitter is the default exponential backoff plus up to one
// RetryWaitMin of jitter, so parallel jobs do not hammer hh.ru in lockstep.
func backoffWithJitter(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	return retryablehttp.DefaultBackoff(min, max, attemptNum, resp) + time.Duration(rand.Int63n(int64(min)+1))
}

// getDocument fetches url and parses the response body as HTML.
func (client *Client) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", client.userAgent)

	zap.S().Debugf("GET request to URL %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("request to %s failed: %w", url, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	hhClient.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("HTTP error %d during requesting URL %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse response from %s: %w", url, err)
	}
	return doc, nil
}
