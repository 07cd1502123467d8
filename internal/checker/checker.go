// Package checker implements the alert evaluation and notification job:
// load every active alert, execute its query against the warehouse,
// evaluate the threshold condition, and for each triggered alert deliver
// the webhook and record an audit log entry. Failures are isolated per
// alert; only a failure to load the alert set aborts a run.
package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/slatedeck/slatedeck/internal/events"
	"github.com/slatedeck/slatedeck/internal/logger"
	"github.com/slatedeck/slatedeck/internal/metrics"
	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/query"
	"github.com/slatedeck/slatedeck/internal/storage"
)

// ErrRunInProgress is returned when Run is called while another run is
// still executing. Overlapping runs would double-fire webhooks for the
// same condition, so the second caller is rejected instead.
var ErrRunInProgress = errors.New("check run already in progress")

// Trigger describes one fired alert in a run summary.
type Trigger struct {
	AlertID     string  `json:"alert_id"`
	AlertName   string  `json:"alert_name"`
	ActualValue float64 `json:"actual_value"`
	// WebhookStatus is the HTTP status of the webhook delivery,
	// or 0 when the call could not be completed.
	WebhookStatus int `json:"webhook_status"`
}

// Summary is the result of one checker run.
type Summary struct {
	Success         bool      `json:"success"`
	CheckedAlerts   int       `json:"checked_alerts"`
	TriggeredAlerts int       `json:"triggered_alerts"`
	Triggers        []Trigger `json:"triggers"`
	Error           string    `json:"error,omitempty"`
}

// Options configures a Checker.
type Options struct {
	// Concurrency bounds how many alerts are evaluated at once.
	// 1 means sequential evaluation.
	Concurrency int

	// WebhookTimeout bounds each webhook delivery.
	WebhookTimeout time.Duration

	// WebhookRatePerSecond limits outbound webhook calls across the
	// run. 0 disables rate limiting.
	WebhookRatePerSecond float64
}

// DefaultOptions returns default checker options.
func DefaultOptions() *Options {
	return &Options{
		Concurrency:    1,
		WebhookTimeout: 15 * time.Second,
	}
}

// Checker runs the alert evaluation pipeline.
type Checker struct {
	store    storage.Storage
	executor query.Executor
	webhook  *WebhookClient
	events   *events.Publisher // nil when the event stream is disabled

	concurrency int
	running     atomic.Bool
	log         zerolog.Logger
}

// New creates a Checker. publisher may be nil.
func New(store storage.Storage, executor query.Executor, publisher *events.Publisher, opts *Options) *Checker {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	var limiter *rate.Limiter
	if opts.WebhookRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.WebhookRatePerSecond), 1)
	}

	return &Checker{
		store:       store,
		executor:    executor,
		webhook:     NewWebhookClient(opts.WebhookTimeout, limiter),
		events:      publisher,
		concurrency: opts.Concurrency,
		log:         logger.WithComponent("checker"),
	}
}

// webhookPayload is the JSON body POSTed to an alert's webhook URL.
type webhookPayload struct {
	AlertID        string        `json:"alert_id"`
	AlertName      string        `json:"alert_name"`
	ThresholdValue float64       `json:"threshold_value"`
	ActualValue    float64       `json:"actual_value"`
	QueryResult    *query.Result `json:"query_result"`
	TriggeredAt    time.Time     `json:"triggered_at"`
	QueryName      string        `json:"query_name"`
}

// Run executes one checker invocation: every active alert is evaluated
// exactly once, with per-alert isolation. It returns ErrRunInProgress
// if another run is still executing, or the loader's error if the
// active alert set could not be fetched.
func (c *Checker) Run(ctx context.Context) (*Summary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer c.running.Store(false)

	start := time.Now()

	alerts, err := c.store.Alerts().ListActive(ctx)
	if err != nil {
		metrics.CheckerRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load active alerts: %w", err)
	}

	summary := &Summary{
		Success:       true,
		CheckedAlerts: len(alerts),
		Triggers:      []Trigger{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, alert := range alerts {
		g.Go(func() error {
			trigger := c.checkAlert(gctx, alert)
			if trigger != nil {
				mu.Lock()
				summary.Triggers = append(summary.Triggers, *trigger)
				mu.Unlock()
			}
			// Per-alert failures never abort the run.
			return nil
		})
	}
	g.Wait()

	summary.TriggeredAlerts = len(summary.Triggers)

	metrics.CheckerRunsTotal.WithLabelValues("ok").Inc()
	metrics.CheckerRunDuration.Observe(time.Since(start).Seconds())
	metrics.AlertsChecked.Add(float64(summary.CheckedAlerts))

	c.log.Info().
		Int("checked", summary.CheckedAlerts).
		Int("triggered", summary.TriggeredAlerts).
		Dur("duration", time.Since(start)).
		Msg("checker run complete")

	return summary, nil
}

// checkAlert runs the evaluate → notify → record pipeline for a single
// alert. It returns a Trigger when the condition was met, nil otherwise
// (including on query failure, which only skips this alert).
func (c *Checker) checkAlert(ctx context.Context, alert *models.Alert) (trigger *Trigger) {
	log := c.log.With().Str("alert_id", alert.ID).Str("alert_name", alert.Name).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("alert evaluation panicked")
			trigger = nil
		}
	}()

	if alert.Query == "" {
		metrics.QueryErrors.Inc()
		log.Error().Msg("alert has no executable query")
		return nil
	}

	result, err := c.executor.Execute(ctx, alert.Query)
	if err != nil {
		metrics.QueryErrors.Inc()
		log.Error().Err(err).Msg("alert query failed, skipping")
		return nil
	}

	actual := extractScalar(result)
	if !conditionMet(alert.ThresholdOperator, actual, alert.ThresholdValue) {
		return nil
	}

	metrics.AlertsTriggered.Inc()
	triggeredAt := time.Now().UTC()

	payload := webhookPayload{
		AlertID:        alert.ID,
		AlertName:      alert.Name,
		ThresholdValue: alert.ThresholdValue,
		ActualValue:    actual,
		QueryResult:    result,
		TriggeredAt:    triggeredAt,
		QueryName:      alert.Name,
	}

	status, body, webhookErr := c.webhook.Send(ctx, alert.WebhookURL, payload)

	entry := &models.AlertLog{
		ID:             uuid.New().String(),
		AlertID:        alert.ID,
		ThresholdValue: alert.ThresholdValue,
		ActualValue:    actual,
		TriggeredAt:    triggeredAt,
	}

	if webhookErr != nil {
		// The condition was genuinely met; a dead receiver does not
		// un-trigger the alert. Record the failure reason in place of
		// a response.
		metrics.WebhookFailures.Inc()
		log.Error().Err(webhookErr).Str("url", alert.WebhookURL).Msg("webhook delivery failed")
		entry.WebhookBody = webhookErr.Error()
	} else {
		if status < 200 || status > 299 {
			metrics.WebhookFailures.Inc()
			log.Warn().Int("status", status).Msg("webhook returned non-2xx status")
		}
		entry.WebhookStatus = &status
		entry.WebhookBody = body
	}

	if err := c.store.AlertLogs().Create(ctx, entry); err != nil {
		// The webhook already fired; retrying would double-notify.
		// Only this alert's observability suffers.
		metrics.LogWriteFailures.Inc()
		log.Error().Err(err).Msg("alert log write failed")
	}

	c.publishEvent(ctx, alert, actual, entry.WebhookStatus, triggeredAt)

	return &Trigger{
		AlertID:       alert.ID,
		AlertName:     alert.Name,
		ActualValue:   actual,
		WebhookStatus: status,
	}
}

// publishEvent mirrors the trigger onto the event stream, best-effort.
func (c *Checker) publishEvent(ctx context.Context, alert *models.Alert, actual float64, status *int, triggeredAt time.Time) {
	if c.events == nil {
		return
	}

	ev := events.TriggerEvent{
		AlertID:        alert.ID,
		AlertName:      alert.Name,
		ThresholdValue: alert.ThresholdValue,
		ActualValue:    actual,
		WebhookStatus:  status,
		TriggeredAt:    triggeredAt,
	}
	if err := c.events.Publish(ctx, ev); err != nil {
		c.log.Error().Err(err).Str("alert_id", alert.ID).Msg("trigger event publish failed")
	}
}
