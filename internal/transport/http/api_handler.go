package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Error codes returned in the "error" field.
const (
	codeAssignmentNotFound = "ASSIGNMENT_NOT_FOUND"
	codeStudentNotFound    = "NOT_FOUND"
	codeAttemptNotFound    = "ATTEMPT_NOT_FOUND"
	codeValidation         = "VALIDATION_ERROR"
	codeInternal           = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 16

type APIHandler struct {
	identity  *app.IdentityResolver
	attempts  *app.AttemptRegistrar
	snapshots *app.SnapshotAssembler
	validate  *validator.Validate
}

func NewAPIHandler(identity *app.IdentityResolver, attempts *app.AttemptRegistrar, snapshots *app.SnapshotAssembler) *APIHandler {
	return &APIHandler{
		identity:  identity,
		attempts:  attempts,
		snapshots: snapshots,
		validate:  newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type lookupRequest struct {
	JoinCode  string `json:"joinCode" validate:"required,min=4"`
	StudentNo string `json:"studentNo" validate:"required,min=1"`
}

type startRequest struct {
	JoinCode  string `json:"joinCode" validate:"required,min=4"`
	StudentID string `json:"studentId" validate:"required,min=1"`
}

type lookupResponse struct {
	OK      bool                   `json:"ok"`
	Student domain.StudentIdentity `json:"student"`
}

type startResponse struct {
	OK             bool                 `json:"ok"`
	AttemptID      string               `json:"attemptId"`
	AlreadyStarted bool                 `json:"alreadyStarted,omitempty"`
	Status         domain.AttemptStatus `json:"status,omitempty"`
	TotalScore     *int                 `json:"totalScore,omitempty"`
}

type quizResponse struct {
	OK      bool                   `json:"ok"`
	Attempt domain.AttemptSnapshot `json:"attempt"`
}

type fieldIssue struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type errorResponse struct {
	OK     bool         `json:"ok"`
	Error  string       `json:"error"`
	Issues []fieldIssue `json:"issues,omitempty"`
}

func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LookupStudent handles POST /api/student/lookup.
func (h *APIHandler) LookupStudent(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !h.decode(w, r, &req) {
		return
	}
	student, err := h.identity.Resolve(r.Context(), req.JoinCode, req.StudentNo)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{OK: true, Student: student})
}

// StartAttempt handles POST /api/attempt/start. A resumed attempt is still a 200.
func (h *APIHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.attempts.Start(r.Context(), req.JoinCode, req.StudentID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := startResponse{OK: true, AttemptID: res.AttemptID}
	if res.Resumed {
		score := res.TotalScore
		resp.AlreadyStarted = true
		resp.Status = res.Status
		resp.TotalScore = &score
	}
	writeJSON(w, http.StatusOK, resp)
}

// AttemptQuiz handles GET /api/attempt/{attemptId}/quiz.
func (h *APIHandler) AttemptQuiz(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptId")
	if attemptID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: codeValidation, Issues: []fieldIssue{{Field: "attemptId", Rule: "required"}}})
		return
	}
	snap, err := h.snapshots.Snapshot(r.Context(), attemptID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{OK: true, Attempt: snap})
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: codeValidation, Issues: []fieldIssue{{Field: "body", Rule: "json"}}})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: codeValidation})
			return false
		}
		issues := make([]fieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, fieldIssue{Field: fe.Field(), Rule: fe.Tag()})
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: codeValidation, Issues: issues})
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAssignmentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: codeAssignmentNotFound})
	case errors.Is(err, domain.ErrStudentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: codeStudentNotFound})
	case errors.Is(err, domain.ErrAttemptNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: codeAttemptNotFound})
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: codeInternal})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
