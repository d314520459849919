package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
	"github.com/iota-uz/scheduling/pkg/composables"
)

const assignmentFields = `
	id,
	tenant_id,
	employee_id,
	department_id,
	position_id,
	shift_id,
	schedule_rule_id,
	start_date,
	end_date,
	status,
	created_at,
	updated_at`

type PgAssignmentRepository struct{}

func NewAssignmentRepository() assignment.Repository {
	return &PgAssignmentRepository{}
}

func (r *PgAssignmentRepository) Create(ctx context.Context, data assignment.Assignment) (assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO scheduling_shift_assignments (
	tenant_id,
	employee_id,
	department_id,
	position_id,
	shift_id,
	schedule_rule_id,
	start_date,
	end_date,
	status
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING`+assignmentFields,
		pgUUID(data.TenantID()),
		pgUUID(data.EmployeeID()),
		pgUUIDPtr(data.DepartmentID()),
		pgUUIDPtr(data.PositionID()),
		pgUUID(data.ShiftID()),
		pgUUIDPtr(data.ScheduleRuleID()),
		data.StartDate(),
		pgTimestamptzPtr(data.EndDate()),
		string(data.Status()),
	)
	return scanAssignment(row)
}

// CreateMany inserts every record inside the ambient transaction; a single
// failure rolls the whole batch back, there is no partial success.
func (r *PgAssignmentRepository) CreateMany(ctx context.Context, data []assignment.Assignment) ([]assignment.Assignment, error) {
	out := make([]assignment.Assignment, 0, len(data))
	for _, a := range data {
		created, err := r.Create(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *PgAssignmentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT`+assignmentFields+`
FROM scheduling_shift_assignments
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id),
	)
	entity, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.Assignment{}, assignment.ErrAssignmentNotFound
		}
		return assignment.Assignment{}, err
	}
	return entity, nil
}

func (r *PgAssignmentRepository) Find(ctx context.Context, tenantID uuid.UUID, params *assignment.FindParams) ([]assignment.Assignment, error) {
	if params == nil {
		params = &assignment.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
SELECT` + assignmentFields + `
FROM scheduling_shift_assignments
WHERE tenant_id = $1`)
	args := []any{pgUUID(tenantID)}

	appendCond := func(cond string, arg any) {
		args = append(args, arg)
		fmt.Fprintf(&sb, " AND "+cond, len(args))
	}

	if params.EmployeeID != nil {
		appendCond("employee_id = $%d", pgUUID(*params.EmployeeID))
	}
	if params.DepartmentID != nil {
		appendCond("department_id = $%d", pgUUID(*params.DepartmentID))
	}
	if params.PositionID != nil {
		appendCond("position_id = $%d", pgUUID(*params.PositionID))
	}
	if params.Status != nil {
		appendCond("status = $%d", string(*params.Status))
	}
	if params.StartFrom != nil {
		appendCond("start_date >= $%d", *params.StartFrom)
	}
	if params.StartTo != nil {
		appendCond("start_date <= $%d", *params.StartTo)
	}

	sb.WriteString(" ORDER BY start_date, created_at")
	if params.Limit > 0 {
		args = append(args, params.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := tx.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []assignment.Assignment{}
	for rows.Next() {
		entity, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (r *PgAssignmentRepository) Update(ctx context.Context, data assignment.Assignment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE scheduling_shift_assignments
SET employee_id = $3,
	department_id = $4,
	position_id = $5,
	shift_id = $6,
	schedule_rule_id = $7,
	start_date = $8,
	end_date = $9,
	status = $10,
	updated_at = now()
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(data.TenantID()),
		pgUUID(data.ID()),
		pgUUID(data.EmployeeID()),
		pgUUIDPtr(data.DepartmentID()),
		pgUUIDPtr(data.PositionID()),
		pgUUID(data.ShiftID()),
		pgUUIDPtr(data.ScheduleRuleID()),
		data.StartDate(),
		pgTimestamptzPtr(data.EndDate()),
		string(data.Status()),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}

func (r *PgAssignmentRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to assignment.Status) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
UPDATE scheduling_shift_assignments
SET status = $4, updated_at = now()
WHERE tenant_id = $1 AND id = $2 AND status = $3`,
		pgUUID(tenantID), pgUUID(id), string(from), string(to),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireEnded is the sweep's single bulk statement. Cancelled records are
// excluded so a manual cancellation is never flipped to expired; the end
// date comparison is strict.
func (r *PgAssignmentRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
UPDATE scheduling_shift_assignments
SET status = 'expired', updated_at = now()
WHERE end_date IS NOT NULL
  AND end_date < $1
  AND status NOT IN ('expired', 'cancelled')`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAssignment(row pgx.Row) (assignment.Assignment, error) {
	var r assignmentRow
	if err := row.Scan(
		&r.ID,
		&r.TenantID,
		&r.EmployeeID,
		&r.DepartmentID,
		&r.PositionID,
		&r.ShiftID,
		&r.ScheduleRuleID,
		&r.StartDate,
		&r.EndDate,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return assignment.Assignment{}, err
	}
	return r.toDomain(), nil
}
