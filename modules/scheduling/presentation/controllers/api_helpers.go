package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/scheduling/modules/scheduling/services"
	"github.com/iota-uz/scheduling/pkg/configuration"
)

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Meta    map[string]string `json:"meta"`
}

func ensureRequestID(r *http.Request) string {
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

// requireTenant resolves the tenant from the request header. Session and
// RLS plumbing live in the host application; this module only needs the id.
func requireTenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	requestID := ensureRequestID(r)

	conf := configuration.Use()
	raw := strings.TrimSpace(r.Header.Get(conf.TenantIDHeader))
	if raw == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_NO_TENANT", "no tenant")
		return uuid.Nil, requestID, false
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil || tenantID == uuid.Nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_NO_TENANT", "tenant id is invalid")
		return uuid.Nil, requestID, false
	}
	return tenantID, requestID, true
}

func pathUUID(w http.ResponseWriter, requestID, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_PATH", "id is not a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		meta := map[string]string{}
		if requestID != "" {
			meta["request_id"] = requestID
		}
		writeJSON(w, svcErr.Status, APIError{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
			Meta:    meta,
		})
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "SCHEDULING_INTERNAL", err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, APIError{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
