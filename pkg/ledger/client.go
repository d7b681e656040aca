// Package ledger reads per-day betting volume from the betting-contract
// indexer. The client is stateless and read-only; it carries a token bucket
// and a per-endpoint circuit-breaker so a degraded indexer endpoint cannot
// stall ingestion.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
)

// ErrUnavailable wraps transport and server-side failures: the fetch should
// be retried by the next ingestion cycle. It is never returned for an address
// that simply has no activity.
var ErrUnavailable = errors.New("ledger unavailable")

const volumePath = "/v1/volume"

// Client is a wrapper around an http.Client that implements a
// circuit-breaker and token-bucket across the configured indexer endpoints.
type Client struct {
	endpoints []string
	client    *http.Client

	// token-bucket
	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time

	// circuit-breaker
	mu       sync.Mutex
	failures map[string]int
	opened   map[string]time.Time

	breakerThreshold int
	breakerCooldown  time.Duration
}

// Opts is the set of options for a new Client.
type Opts struct {
	Endpoints       []string
	Timeout         time.Duration
	RPS             int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// NewWithOpts creates a new Client with the given options.
func NewWithOpts(o Opts) *Client {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	c := &Client{
		endpoints:        utils.Dedup(o.Endpoints),
		client:           client,
		maxTokens:        int64(o.Burst),
		refillEvery:      time.Second / time.Duration(o.RPS),
		failures:         map[string]int{},
		opened:           map[string]time.Time{},
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
	}
	c.tokens = c.maxTokens
	c.lastRefill.Store(time.Now())
	return c
}

// New creates a Client from the LEDGER_ADDR environment (comma-separated
// endpoints) with LEDGER_TIMEOUT applied per request.
func New() *Client {
	endpoints := strings.Split(utils.Env("LEDGER_ADDR", "http://localhost:8545"), ",")
	return NewWithOpts(Opts{
		Endpoints: endpoints,
		Timeout:   utils.EnvDuration("LEDGER_TIMEOUT", 15*time.Second),
		RPS:       utils.EnvInt("LEDGER_RPS", 20),
	})
}

// FetchVolume returns the authoritative per-day totals for address over the
// inclusive [sinceDay, untilDay] range, ordered by day ascending. Days with
// no activity are absent; an address with no activity at all yields an empty
// slice and a nil error. Transport failures wrap ErrUnavailable.
func (c *Client) FetchVolume(ctx context.Context, address string, sinceDay, untilDay time.Time) ([]DayVolume, error) {
	payload := volumeRequest{
		Address:  strings.ToLower(address),
		FromDay:  sinceDay.UTC().Format(dayFormat),
		UntilDay: untilDay.UTC().Format(dayFormat),
	}

	var resp volumeResponse
	if err := c.doJSON(ctx, http.MethodPost, volumePath, payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: fetch volume for %s: %v", ErrUnavailable, payload.Address, err)
	}

	out := make([]DayVolume, 0, len(resp.Days))
	for _, d := range resp.Days {
		day, err := time.Parse(dayFormat, d.Day)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed day %q in ledger response", ErrUnavailable, d.Day)
		}
		out = append(out, DayVolume{Day: day, Amount: d.Amount})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// refill refills the token-bucket with new tokens if necessary.
func (c *Client) refill() {
	last := c.lastRefill.Load().(time.Time)
	now := time.Now()
	if now.Sub(last) >= c.refillEvery {
		if atomic.LoadInt64(&c.tokens) < c.maxTokens {
			atomic.AddInt64(&c.tokens, 1)
		}
		c.lastRefill.Store(now)
	}
}

// acquire takes a token from the bucket, waiting for a refill. A cancelled
// ctx ends the wait immediately so a dead fetch never blocks on throttling.
func (c *Client) acquire(ctx context.Context) error {
	for {
		c.refill()
		if atomic.LoadInt64(&c.tokens) > 0 {
			atomic.AddInt64(&c.tokens, -1)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.refillEvery / 2):
		}
	}
}

// isOpen returns true if the endpoint is in the OPEN breaker state.
func (c *Client) isOpen(ep string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.opened[ep]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.opened, ep)
		c.failures[ep] = 0
		return false
	}
	return true
}

// noteFailure marks an endpoint as failed and opens the circuit-breaker if
// the failure count exceeds the threshold.
func (c *Client) noteFailure(ep string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[ep]++
	if c.failures[ep] >= c.breakerThreshold {
		c.opened[ep] = time.Now().Add(c.breakerCooldown)
	}
}

// doJSON sends a JSON request to a configured endpoint and decodes the reply
// into out. It retries across endpoints when an attempt fails with a
// transport error or a server-side status.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	if len(c.endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}

	var lastErr error
	for i := 0; i < len(c.endpoints); i++ {
		ep := c.endpoints[i%len(c.endpoints)]
		// Skip endpoints whose breaker is OPEN.
		if c.isOpen(ep) {
			continue
		}

		if err := c.acquire(ctx); err != nil {
			return err
		}

		var body *bytes.Reader
		if payload != nil {
			b, mErr := json.Marshal(payload)
			if mErr != nil {
				// Fatal for this attempt; don't mark the endpoint as failed.
				return mErr
			}
			body = bytes.NewReader(b)
		} else {
			body = bytes.NewReader(nil)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, ep+path, body)
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.noteFailure(ep)
			continue
		}

		// From here on, always drain+close the body before continuing/returning.
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server %d", resp.StatusCode)
			c.noteFailure(ep)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				_ = utils.DrainAndClose(resp.Body)
				lastErr = err
				continue
			}
		}

		if cerr := utils.DrainAndClose(resp.Body); cerr != nil {
			return cerr
		}
		return nil
	}

	return lastErr
}
