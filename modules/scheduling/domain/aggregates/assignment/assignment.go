package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links an employee to a shift definition over a date window.
// department/position provenance is informational only: fan-out creation
// stamps it, but targeting after creation always goes by employee.
type Assignment struct {
	tenantID       uuid.UUID
	id             uuid.UUID
	employeeID     uuid.UUID
	departmentID   *uuid.UUID
	positionID     *uuid.UUID
	shiftID        uuid.UUID
	scheduleRuleID *uuid.UUID
	startDate      time.Time
	endDate        *time.Time
	status         Status
	createdAt      time.Time
	updatedAt      time.Time
}

type Option func(*Assignment)

func WithEndDate(end time.Time) Option {
	return func(a *Assignment) { a.endDate = &end }
}

func WithDepartment(id uuid.UUID) Option {
	return func(a *Assignment) { a.departmentID = &id }
}

func WithPosition(id uuid.UUID) Option {
	return func(a *Assignment) { a.positionID = &id }
}

func WithScheduleRule(id uuid.UUID) Option {
	return func(a *Assignment) { a.scheduleRuleID = &id }
}

// New builds an assignment with its status derived fresh from the dates;
// no previous status exists yet, so terminal stickiness does not apply.
func New(tenantID, employeeID, shiftID uuid.UUID, startDate time.Time, now time.Time, opts ...Option) Assignment {
	a := Assignment{
		tenantID:   tenantID,
		employeeID: employeeID,
		shiftID:    shiftID,
		startDate:  startDate.UTC(),
	}
	for _, opt := range opts {
		opt(&a)
	}
	a.status = Derive(a.startDate, a.endDate, StatusNone, now)
	return a
}

func Hydrate(
	tenantID uuid.UUID,
	id uuid.UUID,
	employeeID uuid.UUID,
	departmentID *uuid.UUID,
	positionID *uuid.UUID,
	shiftID uuid.UUID,
	scheduleRuleID *uuid.UUID,
	startDate time.Time,
	endDate *time.Time,
	status Status,
	createdAt time.Time,
	updatedAt time.Time,
) Assignment {
	return Assignment{
		tenantID:       tenantID,
		id:             id,
		employeeID:     employeeID,
		departmentID:   departmentID,
		positionID:     positionID,
		shiftID:        shiftID,
		scheduleRuleID: scheduleRuleID,
		startDate:      startDate,
		endDate:        endDate,
		status:         status,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (a Assignment) TenantID() uuid.UUID        { return a.tenantID }
func (a Assignment) ID() uuid.UUID              { return a.id }
func (a Assignment) EmployeeID() uuid.UUID      { return a.employeeID }
func (a Assignment) DepartmentID() *uuid.UUID   { return a.departmentID }
func (a Assignment) PositionID() *uuid.UUID     { return a.positionID }
func (a Assignment) ShiftID() uuid.UUID         { return a.shiftID }
func (a Assignment) ScheduleRuleID() *uuid.UUID { return a.scheduleRuleID }
func (a Assignment) StartDate() time.Time       { return a.startDate }
func (a Assignment) EndDate() *time.Time        { return a.endDate }
func (a Assignment) Status() Status             { return a.status }
func (a Assignment) CreatedAt() time.Time       { return a.createdAt }
func (a Assignment) UpdatedAt() time.Time       { return a.updatedAt }
func (a Assignment) IsZero() bool               { return a.id == uuid.Nil }

func (a Assignment) WithStatus(s Status) Assignment {
	a.status = s
	return a
}

// Recompute returns the assignment with its status re-derived from its own
// dates, treating the stored status as the previous one.
func (a Assignment) Recompute(now time.Time) Assignment {
	a.status = Derive(a.startDate, a.endDate, a.status, now)
	return a
}

// Cancel marks the assignment cancelled regardless of its current status.
func (a Assignment) Cancel() Assignment {
	a.status = StatusCancelled
	return a
}
