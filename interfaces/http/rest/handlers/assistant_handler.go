package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	"secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// AssistantHandler serves the question answering and summarization endpoints
type AssistantHandler struct {
	baseHandler
	assistant *services.AssistantService
}

// NewAssistantHandler creates an assistant handler
func NewAssistantHandler(assistant *services.AssistantService, logger *zap.Logger, errorHandler *errors.ErrorHandler) *AssistantHandler {
	return &AssistantHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		assistant:   assistant,
	}
}

// AskRequest represents the request body for asking a question
type AskRequest struct {
	Question string `json:"question" validate:"required,min=1,max=2000"`
}

// Ask handles POST /ask
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	answer, err := h.assistant.AskQuestion(r.Context(), ownerID, req.Question)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"answer": answer})
}

// SummarizeRequest represents the request body for summarizing a text
type SummarizeRequest struct {
	Text     string `json:"text" validate:"required"`
	MaxWords int    `json:"max_words,omitempty" validate:"omitempty,gte=10,lte=1000"`
}

// Summarize handles POST /summarize
func (h *AssistantHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	_, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req SummarizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	summary, err := h.assistant.Summarize(r.Context(), req.Text, req.MaxWords)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}
