package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func fromPgUUID(v pgtype.UUID) uuid.UUID {
	return uuid.UUID(v.Bytes)
}

func fromPgUUIDPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	u := uuid.UUID(v.Bytes)
	return &u
}

func pgTimestamptzPtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func fromPgTimestamptzPtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

type assignmentRow struct {
	ID             pgtype.UUID
	TenantID       pgtype.UUID
	EmployeeID     pgtype.UUID
	DepartmentID   pgtype.UUID
	PositionID     pgtype.UUID
	ShiftID        pgtype.UUID
	ScheduleRuleID pgtype.UUID
	StartDate      time.Time
	EndDate        pgtype.Timestamptz
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Hydrate(
		fromPgUUID(r.TenantID),
		fromPgUUID(r.ID),
		fromPgUUID(r.EmployeeID),
		fromPgUUIDPtr(r.DepartmentID),
		fromPgUUIDPtr(r.PositionID),
		fromPgUUID(r.ShiftID),
		fromPgUUIDPtr(r.ScheduleRuleID),
		r.StartDate.UTC(),
		fromPgTimestamptzPtr(r.EndDate),
		assignment.Status(r.Status),
		r.CreatedAt.UTC(),
		r.UpdatedAt.UTC(),
	)
}
