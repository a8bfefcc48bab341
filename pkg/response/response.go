package response

import (
	"encoding/json"
	"net/http"

	"medical-messenger/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type ErrorBody struct {
	Kind   apperror.Kind     `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewMeta derives the pagination flags from page and totalPages.
func NewMeta(page, limit int, total int64, totalPages int) *Meta {
	return &Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithMeta(w http.ResponseWriter, statusCode int, message string, data interface{}, meta *Meta) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func Error(w http.ResponseWriter, statusCode int, kind apperror.Kind, message string, fields map[string]string) {
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Kind: kind, Fields: fields},
	})
}

func ValidationError(w http.ResponseWriter, fields map[string]string) {
	Error(w, http.StatusBadRequest, apperror.KindValidation, "Validation failed", fields)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, apperror.KindValidation, message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, apperror.KindUnauthenticated, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, apperror.KindNotFound, message, nil)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, apperror.KindConflict, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, apperror.KindInternal, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Error(w, http.StatusForbidden, apperror.KindForbidden, message, nil)
}

// FromError writes err using its application kind. Errors without a kind
// are reported as internal with the given fallback message, so store and
// transport details never reach the client.
func FromError(w http.ResponseWriter, err error, fallback string) {
	appErr, ok := apperror.As(err)
	if !ok {
		InternalServerError(w, fallback)
		return
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		Error(w, http.StatusBadRequest, appErr.Kind, appErr.Message, appErr.Fields)
	case apperror.KindUnauthenticated:
		Unauthorized(w, appErr.Message)
	case apperror.KindForbidden:
		Forbidden(w, appErr.Message)
	case apperror.KindNotFound:
		NotFound(w, appErr.Message)
	case apperror.KindConflict:
		Conflict(w, appErr.Message)
	default:
		InternalServerError(w, fallback)
	}
}
