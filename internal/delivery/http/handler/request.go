package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"medical-messenger/internal/delivery/http/middleware"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/pkg/response"
	"medical-messenger/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// decodeAndValidate reads a JSON body into req and validates it, writing the
// error response itself when either step fails.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return validate(w, v, req)
}

func validate(w http.ResponseWriter, v *validator.CustomValidator, req interface{}) bool {
	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

// pathID parses a UUID path variable.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func caller(w http.ResponseWriter, r *http.Request) (entity.Identity, bool) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
	}
	return identity, ok
}

// queryParser reads typed query parameters, collecting malformed values as
// field errors instead of silently dropping them.
type queryParser struct {
	values url.Values
	errs   map[string]string
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query(), errs: map[string]string{}}
}

func (p *queryParser) String(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) Int(key string) *int {
	raw := p.String(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs[key] = key + " must be an integer"
		return nil
	}
	return &v
}

func (p *queryParser) Float(key string) *float64 {
	raw := p.String(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs[key] = key + " must be a number"
		return nil
	}
	return &v
}

func (p *queryParser) Bool(key string) *bool {
	raw := p.String(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs[key] = key + " must be true or false"
		return nil
	}
	return &v
}

// ok writes a validation error when any parameter was malformed.
func (p *queryParser) ok(w http.ResponseWriter) bool {
	if len(p.errs) > 0 {
		response.ValidationError(w, p.errs)
		return false
	}
	return true
}
