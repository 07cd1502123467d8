package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/slatedeck/slatedeck/internal/checker"
	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/storage"
)

// Mock repositories
type mockAlertRepository struct {
	alerts      []*models.Alert
	getError    error
	createError error
	updateError error
	deleteError error
	listError   error
}

func (m *mockAlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if m.createError != nil {
		return m.createError
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockAlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, a := range m.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	if m.updateError != nil {
		return m.updateError
	}
	for i, a := range m.alerts {
		if a.ID == alert.ID {
			m.alerts[i] = alert
			return nil
		}
	}
	return nil
}

func (m *mockAlertRepository) Delete(ctx context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockAlertRepository) List(ctx context.Context) ([]*models.Alert, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.alerts, nil
}

func (m *mockAlertRepository) ListActive(ctx context.Context) ([]*models.Alert, error) {
	var out []*models.Alert
	for _, a := range m.alerts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAlertRepository) SetActive(ctx context.Context, id string, active bool) error {
	for _, a := range m.alerts {
		if a.ID == id {
			a.IsActive = active
			return nil
		}
	}
	return nil
}

type mockLogRepository struct {
	entries []*models.AlertLog
}

func (m *mockLogRepository) Create(ctx context.Context, entry *models.AlertLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AlertLog, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}

func (m *mockLogRepository) ListByAlert(ctx context.Context, alertID string, limit, offset int) ([]*models.AlertLog, int64, error) {
	var out []*models.AlertLog
	for _, e := range m.entries {
		if e.AlertID == alertID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

type mockQuestionRepository struct {
	storage.QuestionRepository
	questions []*models.Question
}

func (m *mockQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	for _, q := range m.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, nil
}

type mockStorage struct {
	storage.Storage
	alerts    *mockAlertRepository
	logs      *mockLogRepository
	questions *mockQuestionRepository
}

func (m *mockStorage) Alerts() storage.AlertRepository       { return m.alerts }
func (m *mockStorage) AlertLogs() storage.AlertLogRepository { return m.logs }
func (m *mockStorage) Questions() storage.QuestionRepository { return m.questions }

func newMockStorage() *mockStorage {
	return &mockStorage{
		alerts:    &mockAlertRepository{},
		logs:      &mockLogRepository{},
		questions: &mockQuestionRepository{},
	}
}

// mockRunner produces a canned summary.
type mockRunner struct {
	summary *checker.Summary
	err     error
}

func (m *mockRunner) Run(ctx context.Context) (*checker.Summary, error) {
	return m.summary, m.err
}

func setupRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/logs", h.Logs)
		r.HandleFunc("/check", h.Check)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Put("/active", h.SetActive)
			r.Get("/logs", h.Logs)
		})
	})
	return r
}

func seedAlert(store *mockStorage, id, name string) *models.Alert {
	now := time.Now()
	alert := &models.Alert{
		ID:                id,
		Name:              name,
		Query:             "SELECT count(*) FROM orders",
		ThresholdOperator: models.OperatorLessThan,
		ThresholdValue:    10,
		WebhookURL:        "https://hooks.example.com/notify",
		IsActive:          true,
		CheckFrequency:    models.FrequencyDaily,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	store.alerts.alerts = append(store.alerts.alerts, alert)
	return alert
}

func TestCreateAlert(t *testing.T) {
	store := newMockStorage()
	router := setupRouter(NewHandler(store, nil))

	body := `{
		"name": "Low daily orders",
		"query": "SELECT count(*) FROM orders WHERE created_at > now() - INTERVAL 1 DAY",
		"threshold_operator": "less_than",
		"threshold_value": 100,
		"webhook_url": "https://hooks.example.com/orders"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data AlertResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID == "" {
		t.Error("response missing generated id")
	}
	if !resp.Data.IsActive {
		t.Error("new alert should default to active")
	}
	if resp.Data.CheckFrequency != models.FrequencyDaily {
		t.Errorf("check_frequency = %q, want daily default", resp.Data.CheckFrequency)
	}
	if len(store.alerts.alerts) != 1 {
		t.Errorf("stored alerts = %d, want 1", len(store.alerts.alerts))
	}
}

func TestCreateAlertValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"query":"SELECT 1","threshold_operator":"less_than","webhook_url":"https://h.example.com"}`},
		{"missing query source", `{"name":"a","threshold_operator":"less_than","webhook_url":"https://h.example.com"}`},
		{"both query sources", `{"name":"a","query":"SELECT 1","question_id":"q-1","threshold_operator":"less_than","webhook_url":"https://h.example.com"}`},
		{"negative threshold", `{"name":"a","query":"SELECT 1","threshold_operator":"less_than","threshold_value":-5,"webhook_url":"https://h.example.com"}`},
		{"bad operator", `{"name":"a","query":"SELECT 1","threshold_operator":"between","webhook_url":"https://h.example.com"}`},
		{"missing webhook", `{"name":"a","query":"SELECT 1","threshold_operator":"less_than"}`},
		{"relative webhook", `{"name":"a","query":"SELECT 1","threshold_operator":"less_than","webhook_url":"/hook"}`},
		{"ftp webhook", `{"name":"a","query":"SELECT 1","threshold_operator":"less_than","webhook_url":"ftp://h.example.com"}`},
		{"bad frequency", `{"name":"a","query":"SELECT 1","threshold_operator":"less_than","webhook_url":"https://h.example.com","check_frequency":"sometimes"}`},
		{"unknown question", `{"name":"a","question_id":"q-missing","threshold_operator":"less_than","webhook_url":"https://h.example.com"}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStorage()
			router := setupRouter(NewHandler(store, nil))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if len(store.alerts.alerts) != 0 {
				t.Error("invalid alert was stored")
			}
		})
	}
}

func TestCreateAlertWithQuestion(t *testing.T) {
	store := newMockStorage()
	store.questions.questions = append(store.questions.questions, &models.Question{
		ID:    "q-1",
		Name:  "Daily orders",
		Query: "SELECT count(*) FROM orders",
	})
	router := setupRouter(NewHandler(store, nil))

	body := `{
		"name": "Order alert",
		"question_id": "q-1",
		"threshold_operator": "greater_than",
		"threshold_value": 1000,
		"webhook_url": "https://hooks.example.com/orders"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestGetAlert(t *testing.T) {
	store := newMockStorage()
	seedAlert(store, "a-1", "test alert")
	router := setupRouter(NewHandler(store, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/a-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/alerts/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown alert", rec.Code)
	}
}

func TestUpdateAlert(t *testing.T) {
	store := newMockStorage()
	seedAlert(store, "a-1", "old name")
	router := setupRouter(NewHandler(store, nil))

	body := `{"name":"new name","threshold_value":42,"is_active":false}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/alerts/a-1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	updated := store.alerts.alerts[0]
	if updated.Name != "new name" {
		t.Errorf("name = %q, want new name", updated.Name)
	}
	if updated.ThresholdValue != 42 {
		t.Errorf("threshold = %v, want 42", updated.ThresholdValue)
	}
	if updated.IsActive {
		t.Error("is_active = true, want false")
	}
}

func TestUpdateAlertCannotDropQuerySource(t *testing.T) {
	store := newMockStorage()
	seedAlert(store, "a-1", "alert")
	router := setupRouter(NewHandler(store, nil))

	body := `{"query":""}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/alerts/a-1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when removing the only query source", rec.Code)
	}
}

func TestDeleteAlert(t *testing.T) {
	store := newMockStorage()
	seedAlert(store, "a-1", "doomed")
	router := setupRouter(NewHandler(store, nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/a-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(store.alerts.alerts) != 0 {
		t.Error("alert not removed from storage")
	}
}

func TestSetActive(t *testing.T) {
	store := newMockStorage()
	seedAlert(store, "a-1", "toggle me")
	router := setupRouter(NewHandler(store, nil))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/alerts/a-1/active", bytes.NewBufferString(`{"active":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.alerts.alerts[0].IsActive {
		t.Error("alert still active after toggle")
	}
}

func TestLogs(t *testing.T) {
	store := newMockStorage()
	seedAlert(store, "a-1", "logged alert")
	status := 200
	store.logs.entries = append(store.logs.entries, &models.AlertLog{
		ID:             "l-1",
		AlertID:        "a-1",
		ThresholdValue: 10,
		ActualValue:    5,
		WebhookStatus:  &status,
		TriggeredAt:    time.Now(),
	})
	router := setupRouter(NewHandler(store, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/logs?alert_id=a-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data LogListResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Total != 1 || len(resp.Data.Items) != 1 {
		t.Errorf("total/items = %d/%d, want 1/1", resp.Data.Total, len(resp.Data.Items))
	}

	// The nested route scopes to the alert in the path.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/alerts/a-1/logs", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp.Data = LogListResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Total != 1 || len(resp.Data.Items) != 1 {
		t.Errorf("total/items = %d/%d, want 1/1", resp.Data.Total, len(resp.Data.Items))
	}

	// Unknown alert filter is a 404, not an empty list.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/alerts/logs?alert_id=missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown alert filter", rec.Code)
	}
}

func TestCheckEndpoint(t *testing.T) {
	store := newMockStorage()
	runner := &mockRunner{summary: &checker.Summary{
		Success:         true,
		CheckedAlerts:   3,
		TriggeredAlerts: 1,
		Triggers: []checker.Trigger{
			{AlertID: "a-1", AlertName: "low sales", ActualValue: 5, WebhookStatus: 200},
		},
	}}
	router := setupRouter(NewHandler(store, runner))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	// The summary is flat, not wrapped in a data envelope.
	var summary map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary["success"] != true {
		t.Errorf("success = %v, want true", summary["success"])
	}
	if summary["checked_alerts"] != float64(3) {
		t.Errorf("checked_alerts = %v, want 3", summary["checked_alerts"])
	}
	triggers, ok := summary["triggers"].([]any)
	if !ok || len(triggers) != 1 {
		t.Fatalf("triggers = %v, want one entry", summary["triggers"])
	}
	first := triggers[0].(map[string]any)
	if first["alert_id"] != "a-1" || first["webhook_status"] != float64(200) {
		t.Errorf("trigger = %v", first)
	}
}

func TestCheckEndpointOptions(t *testing.T) {
	router := setupRouter(NewHandler(newMockStorage(), &mockRunner{}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/alerts/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestCheckEndpointConflict(t *testing.T) {
	runner := &mockRunner{err: checker.ErrRunInProgress}
	router := setupRouter(NewHandler(newMockStorage(), runner))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestCheckEndpointFatalError(t *testing.T) {
	runner := &mockRunner{err: errors.New("load active alerts: database is locked")}
	router := setupRouter(NewHandler(newMockStorage(), runner))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	if resp["error"] == "" {
		t.Error("error message missing")
	}
}
