package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"grimm.is/firewatch/internal/brand"
)

// RemoteModel talks to the external classification service over HTTP. It
// implements both Vectorizer and Predictor; each call retries with
// exponential backoff before giving up.
type RemoteModel struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	maxRetries     uint64
	initialBackoff time.Duration
}

// NewRemoteModel builds a client for the model endpoint. maxRetries and
// initialBackoff come from configuration and bound the retry loop around
// every call.
func NewRemoteModel(baseURL, apiKey string, maxRetries int, initialBackoff time.Duration) *RemoteModel {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialBackoff <= 0 {
		initialBackoff = 500 * time.Millisecond
	}
	return &RemoteModel{
		baseURL:        baseURL,
		apiKey:         apiKey,
		client:         &http.Client{Timeout: 10 * time.Second},
		maxRetries:     uint64(maxRetries),
		initialBackoff: initialBackoff,
	}
}

type vectorizeRequest struct {
	Text string `json:"text"`
}

type vectorizeResponse struct {
	Features []float64 `json:"features"`
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Vectorize implements Vectorizer against the service's /vectorize route.
func (r *RemoteModel) Vectorize(text string) ([]float64, error) {
	var resp vectorizeResponse
	if err := r.post("/vectorize", vectorizeRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Features, nil
}

// Predict implements Predictor against the service's /predict route.
func (r *RemoteModel) Predict(features []float64) (string, float64, error) {
	var resp predictResponse
	if err := r.post("/predict", predictRequest{Features: features}, &resp); err != nil {
		return "", 0, err
	}
	return resp.Label, resp.Confidence, nil
}

func (r *RemoteModel) post(route string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encode model request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialBackoff

	op := func() error {
		return r.doPost(route, payload, respBody)
	}
	return backoff.Retry(op, backoff.WithMaxRetries(policy, r.maxRetries))
}

func (r *RemoteModel) doPost(route string, payload []byte, respBody any) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+route, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", brand.UserAgent(""))
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(respBody)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("model endpoint returned %d", resp.StatusCode)
	default:
		// Client errors will not heal with retries.
		return backoff.Permanent(fmt.Errorf("model endpoint returned %d", resp.StatusCode))
	}
}
