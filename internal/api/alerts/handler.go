// Package alerts provides HTTP handlers for alert management and for
// triggering the alert checker.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slatedeck/slatedeck/internal/checker"
	"github.com/slatedeck/slatedeck/internal/logger"
	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/storage"
)

// Response helpers
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Runner triggers one checker run.
type Runner interface {
	Run(ctx context.Context) (*checker.Summary, error)
}

// Handler handles alert endpoints.
type Handler struct {
	storage storage.Storage
	runner  Runner
	log     zerolog.Logger
}

// NewHandler creates an alert handler. runner may be nil when the
// checker is not wired, in which case the check endpoint reports 500.
func NewHandler(store storage.Storage, runner Runner) *Handler {
	return &Handler{
		storage: store,
		runner:  runner,
		log:     logger.WithComponent("api.alerts"),
	}
}

// Response types
type AlertResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	QuestionID        string  `json:"question_id,omitempty"`
	Query             string  `json:"query,omitempty"`
	ThresholdOperator string  `json:"threshold_operator"`
	ThresholdValue    float64 `json:"threshold_value"`
	WebhookURL        string  `json:"webhook_url"`
	IsActive          bool    `json:"is_active"`
	CheckFrequency    string  `json:"check_frequency"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type LogResponse struct {
	ID             string  `json:"id"`
	AlertID        string  `json:"alert_id"`
	ThresholdValue float64 `json:"threshold_value"`
	ActualValue    float64 `json:"actual_value"`
	WebhookStatus  *int    `json:"webhook_response_status"`
	WebhookBody    string  `json:"webhook_response_body,omitempty"`
	TriggeredAt    string  `json:"triggered_at"`
}

type LogListResponse struct {
	Items   []*LogResponse `json:"items"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// Request types
type CreateRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	QuestionID        string  `json:"question_id"`
	Query             string  `json:"query"`
	ThresholdOperator string  `json:"threshold_operator"`
	ThresholdValue    float64 `json:"threshold_value"`
	WebhookURL        string  `json:"webhook_url"`
	IsActive          *bool   `json:"is_active"`
	CheckFrequency    string  `json:"check_frequency"`
}

type UpdateRequest struct {
	Name              string   `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	QuestionID        *string  `json:"question_id,omitempty"`
	Query             *string  `json:"query,omitempty"`
	ThresholdOperator string   `json:"threshold_operator,omitempty"`
	ThresholdValue    *float64 `json:"threshold_value,omitempty"`
	WebhookURL        string   `json:"webhook_url,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
	CheckFrequency    string   `json:"check_frequency,omitempty"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

// List returns all alerts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.storage.Alerts().List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list alerts failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*AlertResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = alertToResponse(a)
	}
	jsonOK(w, resp)
}

// Create creates a new alert.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if err := ValidateName(req.Name); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}
	if err := ValidateQuerySource(req.QuestionID, req.Query); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}
	operator, err := ValidateOperator(req.ThresholdOperator)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}
	if err := ValidateThreshold(req.ThresholdValue); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}
	if err := ValidateWebhookURL(req.WebhookURL); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	frequency := req.CheckFrequency
	if frequency == "" {
		frequency = models.FrequencyDaily
	}
	if _, err := models.ParseFrequency(frequency); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()

	if req.QuestionID != "" {
		question, err := h.storage.Questions().GetByID(ctx, req.QuestionID)
		if err != nil {
			h.log.Error().Err(err).Msg("create alert: check question failed")
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		if question == nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "question not found")
			return
		}
	}

	now := time.Now()
	alert := &models.Alert{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		QuestionID:        req.QuestionID,
		Query:             req.Query,
		ThresholdOperator: operator,
		ThresholdValue:    req.ThresholdValue,
		WebhookURL:        req.WebhookURL,
		IsActive:          true,
		CheckFrequency:    frequency,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.IsActive != nil {
		alert.IsActive = *req.IsActive
	}

	if err := h.storage.Alerts().Create(ctx, alert); err != nil {
		h.log.Error().Err(err).Msg("create alert failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("alert_id", alert.ID).Str("name", alert.Name).Msg("alert created")
	jsonCreated(w, alertToResponse(alert))
}

// GetByID returns an alert by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "alert id required")
		return
	}

	alert, err := h.storage.Alerts().GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get alert failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if alert == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}

	jsonOK(w, alertToResponse(alert))
}

// Update updates an alert.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "alert id required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	alert, err := h.storage.Alerts().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("update alert: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if alert == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}

	if req.Name != "" {
		if err := ValidateName(req.Name); err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
		alert.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != nil {
		alert.Description = strings.TrimSpace(*req.Description)
	}
	if req.QuestionID != nil {
		if *req.QuestionID != "" {
			question, err := h.storage.Questions().GetByID(ctx, *req.QuestionID)
			if err != nil {
				h.log.Error().Err(err).Msg("update alert: check question failed")
				jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
				return
			}
			if question == nil {
				jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "question not found")
				return
			}
		}
		alert.QuestionID = *req.QuestionID
	}
	if req.Query != nil {
		alert.Query = *req.Query
	}
	if err := ValidateQuerySource(alert.QuestionID, alert.Query); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}
	if req.ThresholdOperator != "" {
		operator, err := ValidateOperator(req.ThresholdOperator)
		if err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
		alert.ThresholdOperator = operator
	}
	if req.ThresholdValue != nil {
		if err := ValidateThreshold(*req.ThresholdValue); err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
		alert.ThresholdValue = *req.ThresholdValue
	}
	if req.WebhookURL != "" {
		if err := ValidateWebhookURL(req.WebhookURL); err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
		alert.WebhookURL = req.WebhookURL
	}
	if req.CheckFrequency != "" {
		if _, err := models.ParseFrequency(req.CheckFrequency); err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
		alert.CheckFrequency = req.CheckFrequency
	}
	if req.IsActive != nil {
		alert.IsActive = *req.IsActive
	}

	alert.UpdatedAt = time.Now()

	if err := h.storage.Alerts().Update(ctx, alert); err != nil {
		h.log.Error().Err(err).Msg("update alert failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("alert_id", alert.ID).Str("name", alert.Name).Msg("alert updated")
	jsonOK(w, alertToResponse(alert))
}

// Delete deletes an alert and its logs.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "alert id required")
		return
	}

	ctx := r.Context()
	alert, err := h.storage.Alerts().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("delete alert: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if alert == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}

	if err := h.storage.Alerts().Delete(ctx, id); err != nil {
		h.log.Error().Err(err).Msg("delete alert failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("alert_id", id).Str("name", alert.Name).Msg("alert deleted")
	jsonNoContent(w)
}

// SetActive toggles an alert's active flag.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "alert id required")
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	alert, err := h.storage.Alerts().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("set alert active: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if alert == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}

	if err := h.storage.Alerts().SetActive(ctx, id, req.Active); err != nil {
		h.log.Error().Err(err).Msg("set alert active failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	alert.IsActive = req.Active
	jsonOK(w, alertToResponse(alert))
}

// Logs returns alert trigger logs with pagination. When mounted under
// an alert route the id path parameter scopes the list to that alert;
// otherwise an optional alert_id query parameter does the same.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID := chi.URLParam(r, "id")
	if alertID == "" {
		alertID = r.URL.Query().Get("alert_id")
	}

	page := 1
	perPage := 50
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if pp := r.URL.Query().Get("per_page"); pp != "" {
		if v, err := strconv.Atoi(pp); err == nil && v > 0 && v <= 100 {
			perPage = v
		}
	}

	offset := (page - 1) * perPage
	var (
		entries []*models.AlertLog
		total   int64
		err     error
	)

	if alertID != "" {
		alert, aErr := h.storage.Alerts().GetByID(ctx, alertID)
		if aErr != nil {
			h.log.Error().Err(aErr).Msg("list alert logs: get alert failed")
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		if alert == nil {
			jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
			return
		}
		entries, total, err = h.storage.AlertLogs().ListByAlert(ctx, alertID, perPage, offset)
	} else {
		entries, total, err = h.storage.AlertLogs().List(ctx, perPage, offset)
	}

	if err != nil {
		h.log.Error().Err(err).Msg("list alert logs failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	items := make([]*LogResponse, len(entries))
	for i, entry := range entries {
		items[i] = logToResponse(entry)
	}

	jsonOK(w, LogListResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// Check runs the alert checker and returns the run summary. The summary
// is returned unwrapped so external schedulers can consume it directly.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	type checkError struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}

	if h.runner == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(checkError{Error: "checker not configured"})
		return
	}

	summary, err := h.runner.Run(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, checker.ErrRunInProgress) {
			status = http.StatusConflict
		} else {
			h.log.Error().Err(err).Msg("checker run failed")
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(checkError{Error: err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
}

func alertToResponse(a *models.Alert) *AlertResponse {
	return &AlertResponse{
		ID:                a.ID,
		Name:              a.Name,
		Description:       a.Description,
		QuestionID:        a.QuestionID,
		Query:             a.Query,
		ThresholdOperator: string(a.ThresholdOperator),
		ThresholdValue:    a.ThresholdValue,
		WebhookURL:        a.WebhookURL,
		IsActive:          a.IsActive,
		CheckFrequency:    a.CheckFrequency,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.Format(time.RFC3339),
	}
}

func logToResponse(entry *models.AlertLog) *LogResponse {
	return &LogResponse{
		ID:             entry.ID,
		AlertID:        entry.AlertID,
		ThresholdValue: entry.ThresholdValue,
		ActualValue:    entry.ActualValue,
		WebhookStatus:  entry.WebhookStatus,
		WebhookBody:    entry.WebhookBody,
		TriggeredAt:    entry.TriggeredAt.Format(time.RFC3339),
	}
}
