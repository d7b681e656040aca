// Package chain is the consensus-layer boundary: the metagraph roster, the
// current block height, and weight submission. The engine depends only on the
// Client interface; weight normalization beyond "submit this vector" belongs
// to the consensus layer itself.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
)

// Member is one metagraph entry: a subnet UID and the keys behind it.
type Member struct {
	UID     uint16 `json:"uid"`
	Hotkey  string `json:"hotkey"`
	Coldkey string `json:"coldkey"`
}

// Client is what the scheduler needs from the consensus layer.
type Client interface {
	// Members returns the current metagraph roster.
	Members(ctx context.Context) ([]Member, error)
	// CurrentBlock returns the chain's current block height.
	CurrentBlock(ctx context.Context) (uint64, error)
	// SubmitWeights submits the normalized weight vector for this epoch.
	// Irreversible once accepted; the caller guarantees single-flight.
	SubmitWeights(ctx context.Context, weights map[uint16]float64) error
}

// HTTPClient talks to the subnet RPC bridge over JSON.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// New creates an HTTPClient from the CHAIN_ADDR environment.
func New() *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimRight(utils.Env("CHAIN_ADDR", "http://localhost:9944"), "/"),
		client:   &http.Client{Timeout: utils.EnvDuration("CHAIN_TIMEOUT", 30*time.Second)},
	}
}

type membersResponse struct {
	Members []Member `json:"members"`
}

type blockResponse struct {
	Height uint64 `json:"height"`
}

type weightsRequest struct {
	Weights map[uint16]float64 `json:"weights"`
}

// Members implements Client.
func (c *HTTPClient) Members(ctx context.Context) ([]Member, error) {
	var resp membersResponse
	if err := c.do(ctx, http.MethodGet, "/metagraph", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch metagraph: %w", err)
	}
	return resp.Members, nil
}

// CurrentBlock implements Client.
func (c *HTTPClient) CurrentBlock(ctx context.Context) (uint64, error) {
	var resp blockResponse
	if err := c.do(ctx, http.MethodGet, "/block", nil, &resp); err != nil {
		return 0, fmt.Errorf("fetch current block: %w", err)
	}
	return resp.Height, nil
}

// SubmitWeights implements Client.
func (c *HTTPClient) SubmitWeights(ctx context.Context, weights map[uint16]float64) error {
	if err := c.do(ctx, http.MethodPost, "/weights", weightsRequest{Weights: weights}, nil); err != nil {
		return fmt.Errorf("submit weights: %w", err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		_ = utils.DrainAndClose(resp.Body)
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			_ = utils.DrainAndClose(resp.Body)
			return err
		}
	}

	return utils.DrainAndClose(resp.Body)
}
