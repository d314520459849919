package assignment

import (
	"github.com/google/uuid"
)

type CreatedEvent struct {
	TenantID uuid.UUID
	Result   Assignment
}

// BulkCreatedEvent is published once per fan-out, not per record.
type BulkCreatedEvent struct {
	TenantID     uuid.UUID
	DepartmentID *uuid.UUID
	PositionID   *uuid.UUID
	Result       []Assignment
}

type UpdatedEvent struct {
	TenantID uuid.UUID
	Result   Assignment
}

type CancelledEvent struct {
	TenantID uuid.UUID
	Result   Assignment
}

func NewCreatedEvent(result Assignment) *CreatedEvent {
	return &CreatedEvent{TenantID: result.TenantID(), Result: result}
}

func NewBulkCreatedEvent(tenantID uuid.UUID, departmentID, positionID *uuid.UUID, result []Assignment) *BulkCreatedEvent {
	return &BulkCreatedEvent{
		TenantID:     tenantID,
		DepartmentID: departmentID,
		PositionID:   positionID,
		Result:       result,
	}
}

func NewUpdatedEvent(result Assignment) *UpdatedEvent {
	return &UpdatedEvent{TenantID: result.TenantID(), Result: result}
}

func NewCancelledEvent(result Assignment) *CancelledEvent {
	return &CancelledEvent{TenantID: result.TenantID(), Result: result}
}
