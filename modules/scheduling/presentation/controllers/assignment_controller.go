package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
	"github.com/iota-uz/scheduling/modules/scheduling/services"
)

type SchedulingAPIController struct {
	assignments *services.AssignmentService
	apiPrefix   string
}

func NewSchedulingAPIController(assignments *services.AssignmentService) *SchedulingAPIController {
	return &SchedulingAPIController{
		assignments: assignments,
		apiPrefix:   "/scheduling/api",
	}
}

func (c *SchedulingAPIController) Key() string {
	return c.apiPrefix
}

func (c *SchedulingAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/assignments", c.ListAssignments).Methods(http.MethodGet)
	api.HandleFunc("/assignments", c.CreateAssignment).Methods(http.MethodPost)
	api.HandleFunc("/assignments/{id}", c.GetAssignment).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{id}", c.UpdateAssignment).Methods(http.MethodPatch)
	api.HandleFunc("/assignments/{id}:set-status", c.SetAssignmentStatus).Methods(http.MethodPost)

	api.HandleFunc("/departments/{id}/assignments", c.CreateDepartmentAssignments).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}/assignments", c.CreatePositionAssignments).Methods(http.MethodPost)
}

type assignmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	EmployeeID     uuid.UUID  `json:"employee_id"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	PositionID     *uuid.UUID `json:"position_id,omitempty"`
	ShiftID        uuid.UUID  `json:"shift_id"`
	ScheduleRuleID *uuid.UUID `json:"schedule_rule_id,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toAssignmentResponse(a assignment.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:             a.ID(),
		EmployeeID:     a.EmployeeID(),
		DepartmentID:   a.DepartmentID(),
		PositionID:     a.PositionID(),
		ShiftID:        a.ShiftID(),
		ScheduleRuleID: a.ScheduleRuleID(),
		StartDate:      a.StartDate(),
		EndDate:        a.EndDate(),
		Status:         string(a.Status()),
		CreatedAt:      a.CreatedAt(),
		UpdatedAt:      a.UpdatedAt(),
	}
}

func toAssignmentResponses(items []assignment.Assignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}

func (c *SchedulingAPIController) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var dto assignment.CreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_BODY", "request body is invalid")
		return
	}

	created, err := c.assignments.Create(r.Context(), tenantID, &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentResponse(created))
}

type departmentFanOutResponse struct {
	CreatedCount   int                  `json:"created_count"`
	DepartmentID   uuid.UUID            `json:"department_id"`
	DepartmentName string               `json:"department_name"`
	Assignments    []assignmentResponse `json:"assignments"`
}

func (c *SchedulingAPIController) CreateDepartmentAssignments(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	departmentID, ok := pathUUID(w, requestID, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var dto assignment.FanOutDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_BODY", "request body is invalid")
		return
	}

	result, err := c.assignments.CreateForDepartment(r.Context(), tenantID, departmentID, &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, departmentFanOutResponse{
		CreatedCount:   result.CreatedCount,
		DepartmentID:   result.DepartmentID,
		DepartmentName: result.DepartmentName,
		Assignments:    toAssignmentResponses(result.Assignments),
	})
}

func (c *SchedulingAPIController) CreatePositionAssignments(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	positionID, ok := pathUUID(w, requestID, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var dto assignment.FanOutDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_BODY", "request body is invalid")
		return
	}

	created, err := c.assignments.CreateForPosition(r.Context(), tenantID, positionID, &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentResponses(created))
}

func (c *SchedulingAPIController) ListAssignments(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	params, err := parseFindParams(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_QUERY", err.Error())
		return
	}

	items, err := c.assignments.List(r.Context(), tenantID, params)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponses(items))
}

func (c *SchedulingAPIController) GetAssignment(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, requestID, mux.Vars(r)["id"])
	if !ok {
		return
	}

	entity, err := c.assignments.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(entity))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (c *SchedulingAPIController) SetAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, requestID, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var body setStatusRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_BODY", "request body is invalid")
		return
	}

	entity, err := c.assignments.SetStatus(r.Context(), tenantID, id, assignment.Status(body.Status))
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(entity))
}

func (c *SchedulingAPIController) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, requestID, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var dto assignment.UpdateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "SCHEDULING_INVALID_BODY", "request body is invalid")
		return
	}

	entity, err := c.assignments.Update(r.Context(), tenantID, id, &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(entity))
}

func parseFindParams(r *http.Request) (*assignment.FindParams, error) {
	q := r.URL.Query()
	params := &assignment.FindParams{}

	if raw := strings.TrimSpace(q.Get("employee_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errInvalidQueryField("employee_id")
		}
		params.EmployeeID = &id
	}
	if raw := strings.TrimSpace(q.Get("department_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errInvalidQueryField("department_id")
		}
		params.DepartmentID = &id
	}
	if raw := strings.TrimSpace(q.Get("position_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errInvalidQueryField("position_id")
		}
		params.PositionID = &id
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := assignment.Status(raw)
		if !status.Valid() {
			return nil, errInvalidQueryField("status")
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("start_from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errInvalidQueryField("start_from")
		}
		t = t.UTC()
		params.StartFrom = &t
	}
	if raw := strings.TrimSpace(q.Get("start_to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errInvalidQueryField("start_to")
		}
		t = t.UTC()
		params.StartTo = &t
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errInvalidQueryField("limit")
		}
		params.Limit = n
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errInvalidQueryField("offset")
		}
		params.Offset = n
	}
	return params, nil
}

type queryFieldError struct{ field string }

func (e queryFieldError) Error() string { return e.field + " is invalid" }

func errInvalidQueryField(field string) error { return queryFieldError{field: field} }
