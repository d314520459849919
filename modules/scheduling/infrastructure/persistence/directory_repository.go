package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/scheduling/modules/scheduling/services"
	"github.com/iota-uz/scheduling/pkg/composables"
)

// PgDirectoryRepository serves the organizational lookups the assignment
// service needs. It reads the org tables directly rather than going through
// a sibling module's service layer.
type PgDirectoryRepository struct{}

func NewDirectoryRepository() *PgDirectoryRepository {
	return &PgDirectoryRepository{}
}

var (
	_ services.Directory = (*PgDirectoryRepository)(nil)
	_ services.Catalog   = (*PgDirectoryRepository)(nil)
)

func (r *PgDirectoryRepository) GetDepartment(ctx context.Context, tenantID, id uuid.UUID) (services.DepartmentRow, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.DepartmentRow{}, false, err
	}

	var (
		rowID pgtype.UUID
		code  string
		name  string
	)
	err = tx.QueryRow(ctx, `
SELECT id, code, name
FROM departments
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id),
	).Scan(&rowID, &code, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.DepartmentRow{}, false, nil
		}
		return services.DepartmentRow{}, false, err
	}
	return services.DepartmentRow{ID: fromPgUUID(rowID), Code: code, Name: name}, true, nil
}

func (r *PgDirectoryRepository) GetPosition(ctx context.Context, tenantID, id uuid.UUID) (services.PositionRow, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.PositionRow{}, false, err
	}

	var (
		rowID pgtype.UUID
		code  string
		name  string
	)
	err = tx.QueryRow(ctx, `
SELECT id, code, name
FROM positions
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id),
	).Scan(&rowID, &code, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.PositionRow{}, false, nil
		}
		return services.PositionRow{}, false, err
	}
	return services.PositionRow{ID: fromPgUUID(rowID), Code: code, Name: name}, true, nil
}

func (r *PgDirectoryRepository) ListActiveEmployeesByDepartment(ctx context.Context, tenantID, departmentID uuid.UUID) ([]services.EmployeeRow, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT id, pernr, display_name
FROM employees
WHERE tenant_id = $1 AND department_id = $2 AND status = 'active'
ORDER BY pernr`,
		pgUUID(tenantID), pgUUID(departmentID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []services.EmployeeRow{}
	for rows.Next() {
		var (
			id          pgtype.UUID
			pernr       string
			displayName string
		)
		if err := rows.Scan(&id, &pernr, &displayName); err != nil {
			return nil, err
		}
		out = append(out, services.EmployeeRow{ID: fromPgUUID(id), Pernr: pernr, DisplayName: displayName})
	}
	return out, rows.Err()
}

// ListActivePositionHolders returns the employees currently holding the
// position. A holder record is current while its end_date is unset.
func (r *PgDirectoryRepository) ListActivePositionHolders(ctx context.Context, tenantID, positionID uuid.UUID) ([]services.PositionHolderRow, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT employee_id, position_id, effective_date
FROM position_assignments
WHERE tenant_id = $1 AND position_id = $2 AND end_date IS NULL
ORDER BY effective_date, employee_id`,
		pgUUID(tenantID), pgUUID(positionID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []services.PositionHolderRow{}
	for rows.Next() {
		var (
			employeeID    pgtype.UUID
			posID         pgtype.UUID
			effectiveDate time.Time
		)
		if err := rows.Scan(&employeeID, &posID, &effectiveDate); err != nil {
			return nil, err
		}
		out = append(out, services.PositionHolderRow{
			EmployeeID:    fromPgUUID(employeeID),
			PositionID:    fromPgUUID(posID),
			EffectiveDate: effectiveDate,
		})
	}
	return out, rows.Err()
}

func (r *PgDirectoryRepository) GetShift(ctx context.Context, tenantID, id uuid.UUID) (services.ShiftRow, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.ShiftRow{}, false, err
	}

	var (
		rowID pgtype.UUID
		name  string
	)
	err = tx.QueryRow(ctx, `
SELECT id, name
FROM shifts
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id),
	).Scan(&rowID, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.ShiftRow{}, false, nil
		}
		return services.ShiftRow{}, false, err
	}
	return services.ShiftRow{ID: fromPgUUID(rowID), Name: name}, true, nil
}

func (r *PgDirectoryRepository) GetScheduleRule(ctx context.Context, tenantID, id uuid.UUID) (services.ScheduleRuleRow, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.ScheduleRuleRow{}, false, err
	}

	var (
		rowID pgtype.UUID
		name  string
	)
	err = tx.QueryRow(ctx, `
SELECT id, name
FROM schedule_rules
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id),
	).Scan(&rowID, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return services.ScheduleRuleRow{}, false, nil
		}
		return services.ScheduleRuleRow{}, false, err
	}
	return services.ScheduleRuleRow{ID: fromPgUUID(rowID), Name: name}, true, nil
}
