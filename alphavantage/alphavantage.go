// Package alphavantage fetches daily close prices from the AlphaVantage API.
//
// See https://www.alphavantage.co/documentation/ for TIME_SERIES_DAILY and
// GLOBAL_QUOTE.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public AlphaVantage endpoint.
const DefaultBaseURL = "https://www.alphavantage.co"

var (
	// ErrRateLimited is returned when the API keeps answering with a rate
	// limit note after all retries.
	ErrRateLimited = errors.New("alphavantage rate limit reached")
	// ErrAPI is returned when the API answers with an error message, typically
	// for an unknown ticker.
	ErrAPI = errors.New("alphavantage error")
)

// Client calls the AlphaVantage API.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTP       *http.Client
	MaxRetries int  // retries on rate limits and server errors
	Full       bool // fetch the full history instead of the last 100 closes
	Log        *zap.Logger

	minBackoff time.Duration
}

// New returns a client with default settings.
func New(apiKey string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		HTTP:       http.DefaultClient,
		MaxRetries: 3,
		Log:        log,
		minBackoff: time.Second,
	}
}

// Quote is the latest trade of a ticker.
type Quote struct {
	Ticker string
	Price  decimal.Decimal
	Date   date.Date // latest trading day
}

// Daily returns the daily closes of ticker. Errors belong to the
// stockfolio.ErrIO class.
func (c *Client) Daily(ctx context.Context, ticker string) (map[date.Date]decimal.Decimal, error) {
	prices, err := c.daily(ctx, ticker)
	return prices, stockfolio.IOError(err)
}

func (c *Client) daily(ctx context.Context, ticker string) (map[date.Date]decimal.Decimal, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)
	if c.Full {
		params.Set("outputsize", "full")
	}
	jobj, err := c.query(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "daily prices of %s", ticker)
	}
	jval, err := jsonpath.Get(`$["Time Series (Daily)"]`, jobj)
	if err != nil {
		return nil, errors.Wrapf(err, "daily prices of %s: unexpected response", ticker)
	}
	series, ok := jval.(map[string]any)
	if !ok {
		return nil, errors.Errorf("daily prices of %s: time series is a %T", ticker, jval)
	}

	prices := make(map[date.Date]decimal.Decimal, len(series))
	for day, v := range series {
		on, err := date.Parse(day)
		if err != nil {
			return nil, errors.Wrapf(err, "daily prices of %s", ticker)
		}
		bar, ok := v.(map[string]any)
		if !ok {
			return nil, errors.Errorf("daily prices of %s on %s: bar is a %T", ticker, day, v)
		}
		price, err := parseDecimal(bar["4. close"])
		if err != nil {
			return nil, errors.Wrapf(err, "daily prices of %s on %s", ticker, day)
		}
		prices[on] = price
	}
	c.Log.Debug("daily prices fetched", zap.String("ticker", ticker), zap.Int("closes", len(prices)))
	return prices, nil
}

// Quote returns the latest price of ticker. Errors belong to the
// stockfolio.ErrIO class.
func (c *Client) Quote(ctx context.Context, ticker string) (Quote, error) {
	q, err := c.quote(ctx, ticker)
	return q, stockfolio.IOError(err)
}

func (c *Client) quote(ctx context.Context, ticker string) (Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", ticker)
	jobj, err := c.query(ctx, params)
	if err != nil {
		return Quote{}, errors.Wrapf(err, "quote of %s", ticker)
	}
	jprice, err := jsonpath.Get(`$["Global Quote"]["05. price"]`, jobj)
	if err != nil {
		return Quote{}, errors.Wrapf(ErrAPI, "quote of %s: no price in response", ticker)
	}
	price, err := parseDecimal(jprice)
	if err != nil {
		return Quote{}, errors.Wrapf(err, "quote of %s", ticker)
	}
	q := Quote{Ticker: ticker, Price: price}
	if jday, err := jsonpath.Get(`$["Global Quote"]["07. latest trading day"]`, jobj); err == nil {
		if s, ok := jday.(string); ok {
			q.Date, _ = date.Parse(s)
		}
	}
	return q, nil
}

// parseDecimal reads the string encoded numbers of the API.
func parseDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case float64:
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.Zero, errors.Errorf("not a number: %v", v)
	}
}

// retryable marks errors worth another attempt.
type retryable struct{ error }

func (r retryable) Unwrap() error { return r.error }

// query performs the API call, retrying with an exponential backoff.
func (c *Client) query(ctx context.Context, params url.Values) (any, error) {
	b := &backoff.Backoff{Min: c.minBackoff, Max: 30 * time.Second, Factor: 2, Jitter: true}
	for {
		jobj, err := c.get(ctx, params)
		var r retryable
		if err == nil || !errors.As(err, &r) {
			return jobj, err
		}
		if int(b.Attempt()) >= c.MaxRetries {
			return nil, r.error
		}
		wait := b.Duration()
		c.Log.Warn("retrying alphavantage call",
			zap.String("function", params.Get("function")),
			zap.String("symbol", params.Get("symbol")),
			zap.Duration("wait", wait),
			zap.Error(r.error),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// get performs a single API call and decodes the JSON response.
func (c *Client) get(ctx context.Context, params url.Values) (any, error) {
	if c.APIKey == "" {
		return nil, errors.New("alphavantage API key is not set, use the ALPHAVANTAGE_API_KEY environment variable")
	}
	params.Set("apikey", c.APIKey)
	addr := strings.TrimSuffix(c.BaseURL, "/") + "/query?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retryable{err}
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, retryable{err}
	}
	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryable{fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}

	var jobj any
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		return nil, errors.Wrap(err, "malformed response")
	}
	if m, ok := jobj.(map[string]any); ok {
		if msg, ok := m["Error Message"].(string); ok {
			return nil, errors.Wrap(ErrAPI, msg)
		}
		for _, key := range []string{"Note", "Information"} {
			if msg, ok := m[key].(string); ok {
				return nil, retryable{errors.Wrap(ErrRateLimited, msg)}
			}
		}
	}
	return jobj, nil
}
