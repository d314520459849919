package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

type FindParams struct {
	EmployeeID   *uuid.UUID
	DepartmentID *uuid.UUID
	PositionID   *uuid.UUID
	Status       *Status
	StartFrom    *time.Time
	StartTo      *time.Time
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, data Assignment) (Assignment, error)
	CreateMany(ctx context.Context, data []Assignment) ([]Assignment, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (Assignment, error)
	Find(ctx context.Context, tenantID uuid.UUID, params *FindParams) ([]Assignment, error)
	Update(ctx context.Context, data Assignment) error

	// UpdateStatus flips the status only if the stored status still equals
	// from; reports whether a row was updated.
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to Status) (bool, error)

	// ExpireEnded bulk-marks every non-terminal assignment whose end date
	// passed before now as expired, across all tenants. Cancelled records
	// are left alone.
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}
