// Package enrich dispatches fire-and-forget enrichment triggers for
// batches containing prospects with missing company data.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Trigger asks a collaborator to enrich a persisted batch. The call is
// detached: failures are logged, never surfaced, never awaited.
type Trigger interface {
	Dispatch(batchID string)
}

// Dispatcher posts enrichment triggers to a webhook.
type Dispatcher struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewDispatcher creates a Dispatcher. An empty URL disables dispatch.
func NewDispatcher(url string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type triggerRequest struct {
	BatchID    string `json:"batch_id"`
	AutoEnrich bool   `json:"auto_enrich"`
}

// Dispatch fires the trigger on a detached goroutine. The invocation's
// context is deliberately not used: the trigger must outlive the request
// that spawned it.
func (d *Dispatcher) Dispatch(batchID string) {
	if d.url == "" {
		zap.L().Debug("enrich: no webhook configured, skipping dispatch",
			zap.String("batch_id", batchID))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		body, err := json.Marshal(triggerRequest{BatchID: batchID, AutoEnrich: true})
		if err != nil {
			zap.L().Warn("enrich: encode trigger failed", zap.Error(err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
		if err != nil {
			zap.L().Warn("enrich: build trigger request failed", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			zap.L().Warn("enrich: trigger dispatch failed",
				zap.String("batch_id", batchID), zap.Error(err))
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 300 {
			zap.L().Warn("enrich: trigger rejected",
				zap.String("batch_id", batchID), zap.Int("status", resp.StatusCode))
			return
		}
		zap.L().Info("enrich: trigger dispatched", zap.String("batch_id", batchID))
	}()
}
