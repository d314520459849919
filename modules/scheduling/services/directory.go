package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type DepartmentRow struct {
	ID   uuid.UUID
	Code string
	Name string
}

type PositionRow struct {
	ID   uuid.UUID
	Code string
	Name string
}

type EmployeeRow struct {
	ID          uuid.UUID
	Pernr       string
	DisplayName string
}

// PositionHolderRow is an open-ended employee-to-position relation; a
// holder with a set end date is no longer active and is never listed here.
type PositionHolderRow struct {
	EmployeeID    uuid.UUID
	PositionID    uuid.UUID
	EffectiveDate time.Time
}

type ShiftRow struct {
	ID   uuid.UUID
	Name string
}

type ScheduleRuleRow struct {
	ID   uuid.UUID
	Name string
}

// Directory is the employee/department/position lookup contract this module
// consumes. Absence is an explicit false, never an error dressed up as
// empty data.
type Directory interface {
	GetDepartment(ctx context.Context, tenantID, id uuid.UUID) (DepartmentRow, bool, error)
	GetPosition(ctx context.Context, tenantID, id uuid.UUID) (PositionRow, bool, error)
	ListActiveEmployeesByDepartment(ctx context.Context, tenantID, departmentID uuid.UUID) ([]EmployeeRow, error)
	ListActivePositionHolders(ctx context.Context, tenantID, positionID uuid.UUID) ([]PositionHolderRow, error)
}

// Catalog resolves shift and schedule-rule references; existence checks
// only, shift internals are not interpreted here.
type Catalog interface {
	GetShift(ctx context.Context, tenantID, id uuid.UUID) (ShiftRow, bool, error)
	GetScheduleRule(ctx context.Context, tenantID, id uuid.UUID) (ScheduleRuleRow, bool, error)
}
