// Package dashboards provides HTTP handlers for dashboards, their
// sections and widgets.
package dashboards

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slatedeck/slatedeck/internal/logger"
	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/storage"
)

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

// Handler handles dashboard endpoints.
type Handler struct {
	storage storage.Storage
	log     zerolog.Logger
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		storage: store,
		log:     logger.WithComponent("api.dashboards"),
	}
}

type DashboardResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Sections    []*SectionResponse `json:"sections,omitempty"`
	Widgets     []*WidgetResponse  `json:"widgets,omitempty"`
	CreatedAt   string             `json:"created_at"`
}

type SectionResponse struct {
	ID           string `json:"id"`
	DashboardID  string `json:"dashboard_id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
	CreatedAt    string `json:"created_at"`
}

type WidgetResponse struct {
	ID           string          `json:"id"`
	DashboardID  string          `json:"dashboard_id"`
	SectionID    string          `json:"section_id,omitempty"`
	QuestionID   string          `json:"question_id"`
	GridPosition json.RawMessage `json:"grid_position,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AddSectionRequest struct {
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

type AddWidgetRequest struct {
	SectionID    string          `json:"section_id"`
	QuestionID   string          `json:"question_id"`
	GridPosition json.RawMessage `json:"grid_position"`
}

// List returns all dashboards.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dashboards, err := h.storage.Dashboards().List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list dashboards failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*DashboardResponse, len(dashboards))
	for i, d := range dashboards {
		resp[i] = dashboardToResponse(d)
	}
	jsonOK(w, resp)
}

// Create creates a new dashboard.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "name is required")
		return
	}

	dashboard := &models.Dashboard{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}

	if err := h.storage.Dashboards().Create(r.Context(), dashboard); err != nil {
		h.log.Error().Err(err).Msg("create dashboard failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("dashboard_id", dashboard.ID).Str("name", dashboard.Name).Msg("dashboard created")
	jsonCreated(w, dashboardToResponse(dashboard))
}

// GetByID returns a dashboard with its sections and widgets.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "dashboard id required")
		return
	}

	ctx := r.Context()
	dashboard, err := h.storage.Dashboards().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("get dashboard failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if dashboard == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "dashboard not found")
		return
	}

	sections, err := h.storage.Dashboards().ListSections(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("get dashboard: list sections failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	widgets, err := h.storage.Dashboards().ListWidgets(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("get dashboard: list widgets failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := dashboardToResponse(dashboard)
	resp.Sections = make([]*SectionResponse, len(sections))
	for i, s := range sections {
		resp.Sections[i] = sectionToResponse(s)
	}
	resp.Widgets = make([]*WidgetResponse, len(widgets))
	for i, wgt := range widgets {
		resp.Widgets[i] = widgetToResponse(wgt)
	}

	jsonOK(w, resp)
}

// Delete deletes a dashboard and its sections and widgets.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "dashboard id required")
		return
	}

	ctx := r.Context()
	dashboard, err := h.storage.Dashboards().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("delete dashboard: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if dashboard == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "dashboard not found")
		return
	}

	if err := h.storage.Dashboards().Delete(ctx, id); err != nil {
		h.log.Error().Err(err).Msg("delete dashboard failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("dashboard_id", id).Msg("dashboard deleted")
	w.WriteHeader(http.StatusNoContent)
}

// AddSection adds a section to a dashboard.
func (h *Handler) AddSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AddSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "name is required")
		return
	}

	ctx := r.Context()
	dashboard, err := h.storage.Dashboards().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("add section: get dashboard failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if dashboard == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "dashboard not found")
		return
	}

	section := &models.DashboardSection{
		ID:           uuid.New().String(),
		DashboardID:  id,
		Name:         strings.TrimSpace(req.Name),
		DisplayOrder: req.DisplayOrder,
		CreatedAt:    time.Now(),
	}

	if err := h.storage.Dashboards().AddSection(ctx, section); err != nil {
		h.log.Error().Err(err).Msg("add section failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonCreated(w, sectionToResponse(section))
}

// DeleteSection removes a section.
func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	sectionID := chi.URLParam(r, "sectionID")
	if sectionID == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "section id required")
		return
	}

	if err := h.storage.Dashboards().DeleteSection(r.Context(), sectionID); err != nil {
		h.log.Error().Err(err).Msg("delete section failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddWidget places a question on a dashboard.
func (h *Handler) AddWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AddWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "question_id is required")
		return
	}

	ctx := r.Context()
	dashboard, err := h.storage.Dashboards().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("add widget: get dashboard failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if dashboard == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "dashboard not found")
		return
	}

	question, err := h.storage.Questions().GetByID(ctx, req.QuestionID)
	if err != nil {
		h.log.Error().Err(err).Msg("add widget: get question failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if question == nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "question not found")
		return
	}

	widget := &models.DashboardWidget{
		ID:           uuid.New().String(),
		DashboardID:  id,
		SectionID:    req.SectionID,
		QuestionID:   req.QuestionID,
		GridPosition: req.GridPosition,
		CreatedAt:    time.Now(),
	}

	if err := h.storage.Dashboards().AddWidget(ctx, widget); err != nil {
		h.log.Error().Err(err).Msg("add widget failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonCreated(w, widgetToResponse(widget))
}

// DeleteWidget removes a widget from a dashboard.
func (h *Handler) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetID")
	if widgetID == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "widget id required")
		return
	}

	if err := h.storage.Dashboards().DeleteWidget(r.Context(), widgetID); err != nil {
		h.log.Error().Err(err).Msg("delete widget failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func dashboardToResponse(d *models.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
}

func sectionToResponse(s *models.DashboardSection) *SectionResponse {
	return &SectionResponse{
		ID:           s.ID,
		DashboardID:  s.DashboardID,
		Name:         s.Name,
		DisplayOrder: s.DisplayOrder,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
}

func widgetToResponse(w *models.DashboardWidget) *WidgetResponse {
	return &WidgetResponse{
		ID:           w.ID,
		DashboardID:  w.DashboardID,
		SectionID:    w.SectionID,
		QuestionID:   w.QuestionID,
		GridPosition: w.GridPosition,
		CreatedAt:    w.CreatedAt.Format(time.RFC3339),
	}
}
