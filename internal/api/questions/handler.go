// Package questions provides HTTP handlers for saved questions.
package questions

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

// Handler handles question endpoints.
type Handler struct {
	storage storage.Storage
	log     zerolog.Logger
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		storage: store,
		log:     logger.WithComponent("api.questions"),
	}
}

type QuestionResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Query             string `json:"query"`
	VisualizationType string `json:"visualization_type"`
	CreatedAt         string `json:"created_at"`
}

type CreateRequest struct {
	Name              string `json:"name"`
	Query             string `json:"query"`
	VisualizationType string `json:"visualization_type"`
}

type UpdateRequest struct {
	Name              string `json:"name,omitempty"`
	Query             string `json:"query,omitempty"`
	VisualizationType string `json:"visualization_type,omitempty"`
}

// List returns all questions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.storage.Questions().List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list questions failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*QuestionResponse, len(questions))
	for i, q := range questions {
		resp[i] = questionToResponse(q)
	}
	jsonOK(w, resp)
}

// Create creates a new question.
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
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "query is required")
		return
	}

	question := &models.Question{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(req.Name),
		Query:             req.Query,
		VisualizationType: models.ParseVisualizationType(req.VisualizationType),
		CreatedAt:         time.Now(),
	}

	if err := h.storage.Questions().Create(r.Context(), question); err != nil {
		h.log.Error().Err(err).Msg("create question failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("question_id", question.ID).Str("name", question.Name).Msg("question created")
	jsonCreated(w, questionToResponse(question))
}

// GetByID returns a question by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "question id required")
		return
	}

	question, err := h.storage.Questions().GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get question failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if question == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "question not found")
		return
	}

	jsonOK(w, questionToResponse(question))
}

// Update updates a question.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "question id required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	question, err := h.storage.Questions().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("update question: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if question == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "question not found")
		return
	}

	if req.Name != "" {
		question.Name = strings.TrimSpace(req.Name)
	}
	if req.Query != "" {
		question.Query = req.Query
	}
	if req.VisualizationType != "" {
		question.VisualizationType = models.ParseVisualizationType(req.VisualizationType)
	}

	if err := h.storage.Questions().Update(ctx, question); err != nil {
		h.log.Error().Err(err).Msg("update question failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, questionToResponse(question))
}

// Delete deletes a question.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "question id required")
		return
	}

	ctx := r.Context()
	question, err := h.storage.Questions().GetByID(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("delete question: get failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if question == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "question not found")
		return
	}

	if err := h.storage.Questions().Delete(ctx, id); err != nil {
		h.log.Error().Err(err).Msg("delete question failed")
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	h.log.Info().Str("question_id", id).Msg("question deleted")
	w.WriteHeader(http.StatusNoContent)
}

func questionToResponse(q *models.Question) *QuestionResponse {
	return &QuestionResponse{
		ID:                q.ID,
		Name:              q.Name,
		Query:             q.Query,
		VisualizationType: string(q.VisualizationType),
		CreatedAt:         q.CreatedAt.Format(time.RFC3339),
	}
}
