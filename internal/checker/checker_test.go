package checker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/query"
	"github.com/slatedeck/slatedeck/internal/storage"
)

// mockExecutor returns canned results keyed by query text.
type mockExecutor struct {
	results map[string]*query.Result
	errs    map[string]error
	mu      sync.Mutex
	calls   []string
}

func (m *mockExecutor) Execute(ctx context.Context, sqlText string) (*query.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sqlText)
	m.mu.Unlock()
	if err, ok := m.errs[sqlText]; ok {
		return nil, err
	}
	if res, ok := m.results[sqlText]; ok {
		return res, nil
	}
	return &query.Result{Columns: []string{"value"}, Rows: [][]any{}}, nil
}

func (m *mockExecutor) Close() error { return nil }

// mockAlertRepo serves a fixed alert set.
type mockAlertRepo struct {
	storage.AlertRepository
	active    []*models.Alert
	activeErr error
}

func (m *mockAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	return m.active, nil
}

// mockLogRepo records created entries.
type mockLogRepo struct {
	storage.AlertLogRepository
	mu        sync.Mutex
	entries   []*models.AlertLog
	createErr error
}

func (m *mockLogRepo) Create(ctx context.Context, entry *models.AlertLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLogRepo) logged() []*models.AlertLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AlertLog, len(m.entries))
	copy(out, m.entries)
	return out
}

type mockStorage struct {
	storage.Storage
	alerts *mockAlertRepo
	logs   *mockLogRepo
}

func (m *mockStorage) Alerts() storage.AlertRepository       { return m.alerts }
func (m *mockStorage) AlertLogs() storage.AlertLogRepository { return m.logs }

func newMockStorage(active ...*models.Alert) *mockStorage {
	return &mockStorage{
		alerts: &mockAlertRepo{active: active},
		logs:   &mockLogRepo{},
	}
}

func scalarResult(v float64) *query.Result {
	return &query.Result{Columns: []string{"value"}, Rows: [][]any{{v}}}
}

func testAlert(id, name, q string, op models.Operator, threshold float64, webhookURL string) *models.Alert {
	now := time.Now()
	return &models.Alert{
		ID:                id,
		Name:              name,
		Query:             q,
		ThresholdOperator: op,
		ThresholdValue:    threshold,
		WebhookURL:        webhookURL,
		IsActive:          true,
		CheckFrequency:    models.FrequencyDaily,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestRunTriggersAndNotifies(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alert := testAlert("a-1", "low sales", "SELECT count(*) FROM orders", models.OperatorLessThan, 10, srv.URL)
	store := newMockStorage(alert)
	exec := &mockExecutor{results: map[string]*query.Result{
		alert.Query: scalarResult(5),
	}}

	c := New(store, exec, nil, nil)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Success {
		t.Error("summary.Success = false, want true")
	}
	if summary.CheckedAlerts != 1 {
		t.Errorf("CheckedAlerts = %d, want 1", summary.CheckedAlerts)
	}
	if summary.TriggeredAlerts != 1 {
		t.Fatalf("TriggeredAlerts = %d, want 1", summary.TriggeredAlerts)
	}

	trig := summary.Triggers[0]
	if trig.AlertID != "a-1" || trig.AlertName != "low sales" {
		t.Errorf("trigger identity = %s/%s", trig.AlertID, trig.AlertName)
	}
	if trig.ActualValue != 5 {
		t.Errorf("ActualValue = %v, want 5", trig.ActualValue)
	}
	if trig.WebhookStatus != http.StatusOK {
		t.Errorf("WebhookStatus = %d, want 200", trig.WebhookStatus)
	}

	// Webhook payload carries the full notification shape.
	for _, key := range []string{"alert_id", "alert_name", "threshold_value", "actual_value", "query_result", "triggered_at", "query_name"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("webhook payload missing %q", key)
		}
	}
	if payload["query_name"] != "low sales" {
		t.Errorf("query_name = %v, want alert name", payload["query_name"])
	}

	logs := store.logs.logged()
	if len(logs) != 1 {
		t.Fatalf("alert logs = %d, want 1", len(logs))
	}
	entry := logs[0]
	if entry.AlertID != "a-1" || entry.ActualValue != 5 || entry.ThresholdValue != 10 {
		t.Errorf("log entry = %+v", entry)
	}
	if entry.WebhookStatus == nil || *entry.WebhookStatus != http.StatusOK {
		t.Errorf("log WebhookStatus = %v, want 200", entry.WebhookStatus)
	}
}

func TestRunConditionNotMet(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	alert := testAlert("a-1", "low sales", "SELECT count(*) FROM orders", models.OperatorLessThan, 10, srv.URL)
	store := newMockStorage(alert)
	exec := &mockExecutor{results: map[string]*query.Result{
		alert.Query: scalarResult(50),
	}}

	c := New(store, exec, nil, nil)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.CheckedAlerts != 1 || summary.TriggeredAlerts != 0 {
		t.Errorf("checked/triggered = %d/%d, want 1/0", summary.CheckedAlerts, summary.TriggeredAlerts)
	}
	if called {
		t.Error("webhook was called for a condition that was not met")
	}
	if len(store.logs.logged()) != 0 {
		t.Error("alert log written for a condition that was not met")
	}
}

func TestRunQueryFailureIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bad := testAlert("a-1", "broken", "SELECT broken", models.OperatorGreaterThan, 0, srv.URL)
	good := testAlert("a-2", "healthy", "SELECT 1", models.OperatorGreaterThan, 0, srv.URL)
	store := newMockStorage(bad, good)
	exec := &mockExecutor{
		results: map[string]*query.Result{good.Query: scalarResult(1)},
		errs:    map[string]error{bad.Query: errors.New("table does not exist")},
	}

	c := New(store, exec, nil, nil)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, one bad query must not fail the run", err)
	}

	if summary.CheckedAlerts != 2 {
		t.Errorf("CheckedAlerts = %d, want 2", summary.CheckedAlerts)
	}
	if summary.TriggeredAlerts != 1 {
		t.Fatalf("TriggeredAlerts = %d, want 1", summary.TriggeredAlerts)
	}
	if summary.Triggers[0].AlertID != "a-2" {
		t.Errorf("triggered alert = %s, want a-2", summary.Triggers[0].AlertID)
	}
}

func TestRunWebhookFailureStillLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	alert := testAlert("a-1", "dead receiver", "SELECT 1", models.OperatorGreaterThan, 0, url)
	store := newMockStorage(alert)
	exec := &mockExecutor{results: map[string]*query.Result{
		alert.Query: scalarResult(1),
	}}

	c := New(store, exec, nil, nil)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.TriggeredAlerts != 1 {
		t.Fatalf("TriggeredAlerts = %d, want 1", summary.TriggeredAlerts)
	}
	if summary.Triggers[0].WebhookStatus != 0 {
		t.Errorf("WebhookStatus = %d, want 0 for failed delivery", summary.Triggers[0].WebhookStatus)
	}

	logs := store.logs.logged()
	if len(logs) != 1 {
		t.Fatalf("alert logs = %d, want 1 even when webhook fails", len(logs))
	}
	if logs[0].WebhookStatus != nil {
		t.Errorf("log WebhookStatus = %v, want nil for failed delivery", *logs[0].WebhookStatus)
	}
	if logs[0].WebhookBody == "" {
		t.Error("log WebhookBody empty, want failure reason")
	}
}

func TestRunEmptyQuerySkipped(t *testing.T) {
	alert := testAlert("a-1", "no query", "", models.OperatorGreaterThan, 0, "http://example.invalid/hook")
	store := newMockStorage(alert)
	exec := &mockExecutor{}

	c := New(store, exec, nil, nil)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.TriggeredAlerts != 0 {
		t.Errorf("TriggeredAlerts = %d, want 0", summary.TriggeredAlerts)
	}
	if len(exec.calls) != 0 {
		t.Errorf("executor called %d times for an alert with no query", len(exec.calls))
	}
}

func TestRunNoActiveAlerts(t *testing.T) {
	store := newMockStorage()
	c := New(store, &mockExecutor{}, nil, nil)

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Success || summary.CheckedAlerts != 0 || summary.TriggeredAlerts != 0 {
		t.Errorf("summary = %+v, want empty successful run", summary)
	}
	if summary.Triggers == nil {
		t.Error("Triggers = nil, want empty slice so JSON renders []")
	}
}

func TestRunLoaderFailureIsFatal(t *testing.T) {
	store := newMockStorage()
	store.alerts.activeErr = errors.New("database is locked")

	c := New(store, &mockExecutor{}, nil, nil)
	summary, err := c.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want loader failure")
	}
	if summary != nil {
		t.Errorf("summary = %+v, want nil on fatal error", summary)
	}
}

func TestRunLogWriteFailureDoesNotFailRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alert := testAlert("a-1", "audit down", "SELECT 1", models.OperatorGreaterThan, 0, srv.URL)
	store := newMockStorage(alert)
	store.logs.createErr = errors.New("disk full")
	exec := &mockExecutor{results: map[string]*query.Result{
		alert.Query: scalarResult(1),
	}}

	c := New(store, exec, nil, nil)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.TriggeredAlerts != 1 {
		t.Errorf("TriggeredAlerts = %d, want 1", summary.TriggeredAlerts)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alert := testAlert("a-1", "slow hook", "SELECT 1", models.OperatorGreaterThan, 0, srv.URL)
	store := newMockStorage(alert)
	exec := &mockExecutor{results: map[string]*query.Result{
		alert.Query: scalarResult(1),
	}}

	c := New(store, exec, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Run(context.Background()); err != nil {
			t.Errorf("first Run() error = %v", err)
		}
	}()

	<-started
	if _, err := c.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second Run() error = %v, want ErrRunInProgress", err)
	}

	close(release)
	<-done

	// A finished run releases the lock.
	if _, err := c.Run(context.Background()); err != nil {
		t.Errorf("Run() after completion error = %v", err)
	}
}

func TestRunConcurrentAlerts(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := &mockExecutor{results: map[string]*query.Result{}}
	var alerts []*models.Alert
	for i := 0; i < 8; i++ {
		q := "SELECT " + string(rune('a'+i))
		exec.results[q] = scalarResult(float64(i + 1))
		alerts = append(alerts, testAlert(
			"a-"+string(rune('0'+i)), "alert", q,
			models.OperatorGreaterThan, 0, srv.URL))
	}
	store := newMockStorage(alerts...)

	c := New(store, exec, nil, &Options{Concurrency: 4, WebhookTimeout: 5 * time.Second})
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.TriggeredAlerts != 8 {
		t.Errorf("TriggeredAlerts = %d, want 8", summary.TriggeredAlerts)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits != 8 {
		t.Errorf("webhook hits = %d, want 8", hits)
	}
	if got := len(store.logs.logged()); got != 8 {
		t.Errorf("alert logs = %d, want 8", got)
	}
}
