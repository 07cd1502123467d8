// Package collections provides HTTP handlers for collections and their
// question and dashboard membership.
package collections

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

// Handler handles collection endpoints.
type Handler struct {
	storage storage.Storage
	log     zerolog.Logger
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		storage: store,
		log:     logger.WithComponent("api.collections"),
	}
}

type CollectionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateRequest struct {
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type AddMemberRequest struct {
	QuestionID  string `json:"question_id,omitempty"`
	DashboardID string `json:"dashboard_id,omitempty"`
}

// List returns all collections.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.storage.Collections().List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list collections failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*CollectionResponse, len(collections))
	for i, c := range collections {
		resp[i] = collectionToResponse(c)
	}
	jsonOK(w, resp)
}

// Create creates a new collection.
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

	now := time.Now()
	collection := &models.Collection{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.storage.Collections().Create(r.Context(), collection); err != nil {
		h.log.Error().Err(err).Msg("create collection failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("collection_id", collection.ID).Str("name", collection.Name).Msg("collection created")
	jsonCreated(w, collectionToResponse(collection))
}

// GetByID returns a collection by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "collection id required")
		return
	}

	collection, err := h.storage.Collections().GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get collection failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if collection == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "collection not found")
		return
	}

	jsonOK(w, collectionToResponse(collection))
}

// Update updates a collection.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "collection id required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	collection, err := h.storage.Collections().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("update collection: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if collection == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "collection not found")
		return
	}

	if req.Name != "" {
		collection.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != nil {
		collection.Description = strings.TrimSpace(*req.Description)
	}
	collection.UpdatedAt = time.Now()

	if err := h.storage.Collections().Update(ctx, collection); err != nil {
		h.log.Error().Err(err).Msg("update collection failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, collectionToResponse(collection))
}

// Delete deletes a collection. Members are detached, not deleted.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "collection id required")
		return
	}

	ctx := r.Context()
	collection, err := h.storage.Collections().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("delete collection: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if collection == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "collection not found")
		return
	}

	if err := h.storage.Collections().Delete(ctx, id); err != nil {
		h.log.Error().Err(err).Msg("delete collection failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("collection_id", id).Msg("collection deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListQuestions returns the questions in a collection.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx := r.Context()
	collection, err := h.storage.Collections().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("list collection questions: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if collection == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "collection not found")
		return
	}

	questions, err := h.storage.Collections().ListQuestions(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("list collection questions failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, questions)
}

// ListDashboards returns the dashboards in a collection.
func (h *Handler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx := r.Context()
	collection, err := h.storage.Collections().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("list collection dashboards: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if collection == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "collection not found")
		return
	}

	dashboards, err := h.storage.Collections().ListDashboards(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("list collection dashboards failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, dashboards)
}

// AddMember adds a question or dashboard to a collection.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	if (req.QuestionID == "") == (req.DashboardID == "") {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "exactly one of question_id or dashboard_id is required")
		return
	}

	ctx := r.Context()
	collection, err := h.storage.Collections().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("add collection member: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if collection == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "collection not found")
		return
	}

	if req.QuestionID != "" {
		err = h.storage.Collections().AddQuestion(ctx, id, req.QuestionID)
	} else {
		err = h.storage.Collections().AddDashboard(ctx, id, req.DashboardID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("add collection member failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveQuestion removes a question from a collection.
func (h *Handler) RemoveQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	questionID := chi.URLParam(r, "questionID")

	if err := h.storage.Collections().RemoveQuestion(r.Context(), id, questionID); err != nil {
		h.log.Error().Err(err).Msg("remove collection question failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveDashboard removes a dashboard from a collection.
func (h *Handler) RemoveDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dashboardID := chi.URLParam(r, "dashboardID")

	if err := h.storage.Collections().RemoveDashboard(r.Context(), id, dashboardID); err != nil {
		h.log.Error().Err(err).Msg("remove collection dashboard failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func collectionToResponse(c *models.Collection) *CollectionResponse {
	return &CollectionResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}
