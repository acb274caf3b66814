package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/service"
)

// maxBodyBytes caps the contact submission payload.
const maxBodyBytes = 64 << 10

// Response messages shown to the site visitor.
const (
	msgSubmitted    = "Thank you! Your message has been sent successfully."
	msgSubmitFailed = "An error occurred while sending your message. Please try again."
	msgListFailed   = "An error occurred while retrieving messages."
)

// ContactHandler handles contact form submission and message listing.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// submitRequest is the expected JSON body for POST /api/contact.
type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type submitResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type errorResponse struct {
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req submitRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeValidationError(w, decodeError(err))
		return
	}
	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeValidationError(w, service.ShapeError())
		return
	}

	msg, err := h.contactService.Submit(r.Context(), model.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		slog.ErrorContext(r.Context(), "contact submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msgSubmitFailed})
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{Message: msgSubmitted, ID: msg.ID})
}

// List handles GET /api/contact-messages. Messages are returned oldest first;
// an empty store yields [].
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contactService.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list contact messages failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msgListFailed})
		return
	}
	if messages == nil {
		messages = []*model.ContactMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// decodeError maps a JSON decoding failure to a shape error. Wrong field types
// name the offending field; anything else (malformed JSON, oversized body,
// non-object payload) is reported without field detail.
func decodeError(err error) *service.ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return service.ShapeError(service.FieldError{Field: typeErr.Field, Message: "Expected string"})
	}
	return service.ShapeError()
}

func writeValidationError(w http.ResponseWriter, verr *service.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Message, Errors: verr.Fields})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
