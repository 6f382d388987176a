package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s.",
	"max":      "The field '%s' must be at most %s.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"oneof":    "The field '%s' must be one of: %s.",
	"datetime": "The field '%s' must be a date formatted as %s.",
}

func fieldMessage(e validator.FieldError) string {
	msg, ok := fieldMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("The field '%s' is invalid.", e.Field())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}

// validationError is a rejected payload, reported as 422
type validationError struct {
	message string
	fields  map[string]string
}

func (e *validationError) Error() string { return e.message }

// decodeJSON reads a JSON body into dst and validates it
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &validationError{message: "Request body is required."}
		}
		return &validationError{message: "Malformed JSON: " + err.Error()}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &validationError{message: err.Error()}
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return &validationError{message: "Request validation failed.", fields: fields}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the API error body. Unknown errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: verr.message,
			Fields:  verr.fields,
		})
		return
	}

	if e, ok := domain.AsError(err); ok {
		writeJSON(w, statusFor(e.Kind), ErrorResponse{Code: e.Code, Message: e.Message})
		return
	}

	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred.",
	})
}

// pathID parses a positive integer path parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.ErrInvalidRequest.WithMessage(fmt.Sprintf("Invalid %s.", name))
	}
	return id, nil
}

// pathDay parses a YYYY-MM-DD path parameter
func pathDay(r *http.Request, name string) (time.Time, error) {
	day, err := domain.ParseDay(r.PathValue(name))
	if err != nil {
		return time.Time{}, domain.ErrInvalidRequest.WithMessage(fmt.Sprintf("Invalid %s, expected YYYY-MM-DD.", name))
	}
	return day, nil
}

// pageFromQuery reads offset and limit query parameters
func pageFromQuery(r *http.Request) (domain.Page, error) {
	var page domain.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"offset": &page.Offset, "limit": &page.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.Page{}, domain.ErrInvalidRequest.WithMessage(fmt.Sprintf("Invalid %s.", name))
		}
		*dst = n
	}
	if page.Limit > domain.MaxPageSize {
		return domain.Page{}, domain.ErrInvalidRequest.WithMessage(fmt.Sprintf("limit must be at most %d.", domain.MaxPageSize))
	}
	return page.Normalize(), nil
}

// pathTime parses an RFC 3339 timestamp path parameter. A bare YYYY-MM-DD
// is read as midnight UTC.
func pathTime(r *http.Request, name string) (time.Time, error) {
	raw := r.PathValue(name)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := domain.ParseDay(raw); err == nil {
		return t, nil
	}
	return time.Time{}, domain.ErrInvalidRequest.WithMessage(fmt.Sprintf("Invalid %s, expected an RFC 3339 timestamp.", name))
}

// queryID parses a positive integer query parameter
func queryID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.ErrInvalidRequest.WithMessage(fmt.Sprintf("Invalid %s.", name))
	}
	return id, nil
}
