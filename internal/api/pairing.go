package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrPairingPending = errors.New("pairing not yet confirmed on the agent")
	ErrPairingTimeout = errors.New("pairing timeout - request was not confirmed on the agent")
)

// pairingPendingType is the agent's error type for an unconfirmed request
const pairingPendingType = 101

// pairingRetryInterval is how often an unconfirmed request is retried
var pairingRetryInterval = time.Second

// pairingRequest is the body sent to create an agent key
type pairingRequest struct {
	DeviceType string `json:"devicetype"`
}

// pairingResponse represents a response from the pairing endpoint
type pairingResponse struct {
	Success *struct {
		Key string `json:"key"`
	} `json:"success,omitempty"`
	Error *struct {
		Type        int    `json:"type"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// CreateAgentKey requests a key from the agent at host. The operator must
// confirm the request on the agent within the timeout. Network errors are
// retried by the HTTP client; only unconfirmed requests are polled here.
func CreateAgentKey(ctx context.Context, host string, deviceType string, timeout time.Duration) (string, error) {
	client := newAgentHTTPClient()
	url := fmt.Sprintf("http://%s/v1/pair", host)

	bodyBytes, err := json.Marshal(pairingRequest{DeviceType: deviceType})
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		key, err := tryPair(ctx, client, url, bodyBytes)
		if err == nil {
			return key, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, ErrPairingPending) {
			return "", err
		}

		select {
		case <-time.After(pairingRetryInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", ErrPairingTimeout
}

func tryPair(ctx context.Context, client *http.Client, url string, body []byte) (key string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach agent: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	var responses []pairingResponse
	if err := json.NewDecoder(resp.Body).Decode(&responses); err != nil {
		return "", fmt.Errorf("failed to decode pairing response: %w", err)
	}

	if len(responses) == 0 {
		return "", ErrPairingPending
	}

	response := responses[0]
	if response.Success != nil {
		return response.Success.Key, nil
	}
	if response.Error != nil {
		if response.Error.Type == pairingPendingType {
			return "", ErrPairingPending
		}
		return "", fmt.Errorf("pairing error: %s", response.Error.Description)
	}

	return "", ErrPairingPending
}

// GetAgentID retrieves the agent ID from the config endpoint
func GetAgentID(ctx context.Context, host string) (agentID string, err error) {
	url := fmt.Sprintf("http://%s/v1/config", host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := newAgentHTTPClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get agent config: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent config returned status %d", resp.StatusCode)
	}

	var config struct {
		AgentID string `json:"agentid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&config); err != nil {
		return "", fmt.Errorf("failed to decode agent config: %w", err)
	}

	return config.AgentID, nil
}
