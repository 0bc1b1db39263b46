package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"duet-quiz-service/internal/app"
	"duet-quiz-service/internal/domain"
)

// Handler exposes the quiz engine over REST.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register wires the REST routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/quizzes", h.recovered(h.startQuiz))
	mux.HandleFunc("POST /v1/quizzes/{id}/answers", h.recovered(h.submitCreatorAnswers))
	mux.HandleFunc("GET /v1/codes/{code}", h.recovered(h.resolveCode))
	mux.HandleFunc("POST /v1/codes/{code}/responses", h.recovered(h.submitResponderAnswers))
	mux.HandleFunc("GET /v1/quizzes/{id}/result", h.recovered(h.getResult))
}

type startQuizRequest struct {
	OwnerID string      `json:"ownerId"`
	Mode    domain.Mode `json:"mode"`
	Bank    domain.Bank `json:"bank"`
}

type startQuizResponse struct {
	InstanceID string            `json:"instanceId"`
	Questions  []domain.Question `json:"questions"`
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inst, err := h.service.StartQuiz(r.Context(), req.OwnerID, req.Mode, req.Bank)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startQuizResponse{InstanceID: inst.ID, Questions: inst.Questions})
}

type answersRequest struct {
	Answers []domain.AnswerEntry `json:"answers"`
}

type shareCodeResponse struct {
	ShareCode string `json:"shareCode"`
}

func (h *Handler) submitCreatorAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code, err := h.service.SubmitCreatorAnswers(r.Context(), r.PathValue("id"), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareCodeResponse{ShareCode: code})
}

func (h *Handler) resolveCode(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ResolveCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type respondRequest struct {
	ResponderID string               `json:"responderId"`
	Answers     []domain.AnswerEntry `json:"answers"`
}

type resultResponse struct {
	Result domain.Result `json:"result"`
}

func (h *Handler) submitResponderAnswers(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.SubmitResponderAnswers(r.Context(), r.PathValue("code"), req.ResponderID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetResult(r.Context(), r.PathValue("id"), r.URL.Query().Get("viewerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

// recovered converts engine invariant panics into 500s instead of killing
// the process.
func (h *Handler) recovered(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next(w, r)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the domain error taxonomy to HTTP statuses. Retrying is
// safe for 404s; 409s are permanent for the same actor.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidBank), errors.Is(err, domain.ErrInvalidAnswers):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrInstanceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrWrongState), errors.Is(err, domain.ErrAlreadyResponded), errors.Is(err, domain.ErrResultNotReady):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		writeMessage(w, status, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
