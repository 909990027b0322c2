package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"slipstream/internal/metrics"
)

// Event is the JSON body posted after a successful publish.
type Event struct {
	Event     string    `json:"event"`
	RequestID string    `json:"request_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
	Posts     int       `json:"posts"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop discards events. Used when no webhook URL is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// errPermanent marks a response that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

type Webhook struct {
	URL     string
	Client  *http.Client
	Policy  Policy
	Timeout time.Duration // per attempt
	Metrics metrics.Recorder

	// Sleep waits between attempts; nil means a ctx-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewWebhook(url string, timeout time.Duration, p Policy, rec metrics.Recorder) *Webhook {
	return &Webhook{
		URL:     url,
		Client:  &http.Client{},
		Policy:  p,
		Timeout: timeout,
		Metrics: metrics.OrNoop(rec),
	}
}

// Notify posts ev, retrying transport errors and 5xx responses per Policy.
func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	rec := metrics.OrNoop(w.Metrics)
	sleep := w.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt <= w.Policy.MaxRetries; attempt++ {
		if attempt > 0 {
			rec.IncNotifyRetry()
			if err := sleep(ctx, w.Policy.Delay(attempt)); err != nil {
				lastErr = err
				break
			}
		}
		lastErr = w.post(ctx, body)
		if lastErr == nil {
			rec.IncNotifyResult(true)
			return nil
		}
		log.Warn().Err(lastErr).Str("url", w.URL).Int("attempt", attempt+1).Msg("webhook delivery failed")
		if errors.Is(lastErr, errPermanent) || ctx.Err() != nil {
			break
		}
	}
	rec.IncNotifyResult(false)
	return fmt.Errorf("notify %s: %w", w.URL, lastErr)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("status %d", resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", errPermanent, resp.StatusCode)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
