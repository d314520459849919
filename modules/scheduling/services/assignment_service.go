package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
	"github.com/iota-uz/scheduling/pkg/composables"
	"github.com/iota-uz/scheduling/pkg/eventbus"
)

type AssignmentService struct {
	repo      assignment.Repository
	directory Directory
	catalog   Catalog
	publisher eventbus.EventBus
	clock     clockwork.Clock
}

func NewAssignmentService(
	repo assignment.Repository,
	directory Directory,
	catalog Catalog,
	publisher eventbus.EventBus,
	clock clockwork.Clock,
) *AssignmentService {
	return &AssignmentService{
		repo:      repo,
		directory: directory,
		catalog:   catalog,
		publisher: publisher,
		clock:     clock,
	}
}

// DepartmentFanOutResult is the department path's summary wrapper. The
// position path intentionally returns a bare slice instead; the asymmetry
// is part of the contract.
type DepartmentFanOutResult struct {
	CreatedCount   int                     `json:"created_count"`
	DepartmentID   uuid.UUID               `json:"department_id"`
	DepartmentName string                  `json:"department_name"`
	Assignments    []assignment.Assignment `json:"-"`
}

// Create writes a single assignment for one employee. The shift reference
// is resolved and must exist; employee existence is the directory's
// concern and is not checked here.
func (s *AssignmentService) Create(ctx context.Context, tenantID uuid.UUID, data *assignment.CreateDTO) (assignment.Assignment, error) {
	var zero assignment.Assignment
	if tenantID == uuid.Nil {
		return zero, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}
	if fields, ok := data.Ok(); !ok {
		return zero, invalidBody(fields)
	}
	if err := validateWindow(data.StartDate, data.EndDate); err != nil {
		return zero, err
	}

	now := s.clock.Now().UTC()
	return composables.InTxResult(ctx, func(txCtx context.Context) (assignment.Assignment, error) {
		if err := s.resolveShift(txCtx, tenantID, data.ShiftID); err != nil {
			return zero, err
		}
		if err := s.resolveScheduleRule(txCtx, tenantID, data.ScheduleRuleID); err != nil {
			return zero, err
		}

		opts := []assignment.Option{}
		if data.EndDate != nil {
			opts = append(opts, assignment.WithEndDate(*data.EndDate))
		}
		if data.DepartmentID != nil {
			opts = append(opts, assignment.WithDepartment(*data.DepartmentID))
		}
		if data.PositionID != nil {
			opts = append(opts, assignment.WithPosition(*data.PositionID))
		}
		if data.ScheduleRuleID != nil {
			opts = append(opts, assignment.WithScheduleRule(*data.ScheduleRuleID))
		}

		created, err := s.repo.Create(txCtx, assignment.New(tenantID, data.EmployeeID, data.ShiftID, data.StartDate, now, opts...))
		if err != nil {
			return zero, mapPgError(err)
		}
		s.publisher.Publish(assignment.NewCreatedEvent(created))
		return created, nil
	})
}

// CreateForDepartment fans the payload out to every active employee of the
// department. The shift is resolved before the employee population is
// loaded so an invalid shift fails without a directory scan.
func (s *AssignmentService) CreateForDepartment(ctx context.Context, tenantID, departmentID uuid.UUID, data *assignment.FanOutDTO) (*DepartmentFanOutResult, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}
	if departmentID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHEDULING_INVALID_BODY", "department_id is required", nil)
	}
	if fields, ok := data.Ok(); !ok {
		return nil, invalidBody(fields)
	}
	if err := validateWindow(data.StartDate, data.EndDate); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	return composables.InTxResult(ctx, func(txCtx context.Context) (*DepartmentFanOutResult, error) {
		dep, found, err := s.directory.GetDepartment(txCtx, tenantID, departmentID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, newServiceError(
				http.StatusNotFound,
				"SCHEDULING_DEPARTMENT_NOT_FOUND",
				fmt.Sprintf("department %s not found", departmentID),
				nil,
			)
		}

		if err := s.resolveShift(txCtx, tenantID, data.ShiftID); err != nil {
			return nil, err
		}
		if err := s.resolveScheduleRule(txCtx, tenantID, data.ScheduleRuleID); err != nil {
			return nil, err
		}

		employees, err := s.directory.ListActiveEmployeesByDepartment(txCtx, tenantID, dep.ID)
		if err != nil {
			return nil, err
		}
		if len(employees) == 0 {
			return nil, &ServiceError{
				Status:  http.StatusBadRequest,
				Code:    "NO_EMPLOYEES_IN_DEPARTMENT",
				Message: fmt.Sprintf("department %q has no active employees", dep.Name),
				Details: map[string]string{
					"department_id":   dep.ID.String(),
					"department_name": dep.Name,
					"hint":            "assign active employees to the department before scheduling shifts for it",
				},
			}
		}

		records := make([]assignment.Assignment, 0, len(employees))
		for _, emp := range employees {
			records = append(records, s.buildFanOut(tenantID, emp.ID, data, now, assignment.WithDepartment(dep.ID)))
		}

		created, err := s.repo.CreateMany(txCtx, records)
		if err != nil {
			return nil, bulkInsertError(err)
		}

		s.publisher.Publish(assignment.NewBulkCreatedEvent(tenantID, &dep.ID, nil, created))
		return &DepartmentFanOutResult{
			CreatedCount:   len(created),
			DepartmentID:   dep.ID,
			DepartmentName: dep.Name,
			Assignments:    created,
		}, nil
	})
}

// CreateForPosition fans the payload out to the position's currently
// active holders; the employee comes from the holder relation, not from
// the position record.
func (s *AssignmentService) CreateForPosition(ctx context.Context, tenantID, positionID uuid.UUID, data *assignment.FanOutDTO) ([]assignment.Assignment, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}
	if positionID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHEDULING_INVALID_BODY", "position_id is required", nil)
	}
	if fields, ok := data.Ok(); !ok {
		return nil, invalidBody(fields)
	}
	if err := validateWindow(data.StartDate, data.EndDate); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]assignment.Assignment, error) {
		pos, found, err := s.directory.GetPosition(txCtx, tenantID, positionID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, newServiceError(
				http.StatusNotFound,
				"SCHEDULING_POSITION_NOT_FOUND",
				fmt.Sprintf("position %s not found", positionID),
				nil,
			)
		}

		if err := s.resolveShift(txCtx, tenantID, data.ShiftID); err != nil {
			return nil, err
		}
		if err := s.resolveScheduleRule(txCtx, tenantID, data.ScheduleRuleID); err != nil {
			return nil, err
		}

		holders, err := s.directory.ListActivePositionHolders(txCtx, tenantID, pos.ID)
		if err != nil {
			return nil, err
		}
		if len(holders) == 0 {
			return nil, newServiceError(
				http.StatusNotFound,
				"SCHEDULING_POSITION_HOLDERS_NOT_FOUND",
				fmt.Sprintf("position %q has no active holders", pos.Name),
				nil,
			)
		}

		records := make([]assignment.Assignment, 0, len(holders))
		for _, holder := range holders {
			records = append(records, s.buildFanOut(tenantID, holder.EmployeeID, data, now, assignment.WithPosition(pos.ID)))
		}

		created, err := s.repo.CreateMany(txCtx, records)
		if err != nil {
			return nil, bulkInsertError(err)
		}

		s.publisher.Publish(assignment.NewBulkCreatedEvent(tenantID, nil, &pos.ID, created))
		return created, nil
	})
}

// List serves filtered assignments and self-heals stale statuses along the
// way: any record whose derived status differs from the stored one is
// conditionally updated before being returned. A heal that loses the race
// to a concurrent writer is dropped and the winner's state is served.
func (s *AssignmentService) List(ctx context.Context, tenantID uuid.UUID, params *assignment.FindParams) ([]assignment.Assignment, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}
	if params == nil {
		params = &assignment.FindParams{}
	}

	now := s.clock.Now().UTC()
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]assignment.Assignment, error) {
		records, err := s.repo.Find(txCtx, tenantID, params)
		if err != nil {
			return nil, err
		}

		out := make([]assignment.Assignment, 0, len(records))
		for _, rec := range records {
			next := assignment.Derive(rec.StartDate(), rec.EndDate(), rec.Status(), now)
			if next == rec.Status() {
				out = append(out, rec)
				continue
			}
			ok, err := s.repo.UpdateStatus(txCtx, tenantID, rec.ID(), rec.Status(), next)
			if err != nil {
				return nil, err
			}
			if !ok {
				current, err := s.repo.GetByID(txCtx, tenantID, rec.ID())
				if err != nil {
					return nil, mapRepoError(err)
				}
				out = append(out, current)
				continue
			}
			out = append(out, rec.WithStatus(next))
		}
		return out, nil
	})
}

// GetByID returns the stored record as-is; single-record reads do not
// self-heal.
func (s *AssignmentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (assignment.Assignment, error) {
	var zero assignment.Assignment
	if tenantID == uuid.Nil {
		return zero, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (assignment.Assignment, error) {
		record, err := s.repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return zero, mapRepoError(err)
		}
		return record, nil
	})
}

// SetStatus processes an explicit status request. Cancellation always
// wins. An expired assignment can still be cancelled but accepts no other
// transition. Any other requested status is just a trigger to re-derive
// the truth from the record's own dates.
func (s *AssignmentService) SetStatus(ctx context.Context, tenantID, id uuid.UUID, requested assignment.Status) (assignment.Assignment, error) {
	var zero assignment.Assignment
	if tenantID == uuid.Nil {
		return zero, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}
	if !requested.Valid() {
		return zero, newServiceError(http.StatusBadRequest, "SCHEDULING_INVALID_BODY", fmt.Sprintf("unknown status %q", requested), nil)
	}

	now := s.clock.Now().UTC()
	return composables.InTxResult(ctx, func(txCtx context.Context) (assignment.Assignment, error) {
		record, err := s.repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return zero, mapRepoError(err)
		}

		if requested == assignment.StatusCancelled {
			cancelled := record.Cancel()
			if err := s.repo.Update(txCtx, cancelled); err != nil {
				return zero, mapPgError(err)
			}
			s.publisher.Publish(assignment.NewCancelledEvent(cancelled))
			return cancelled, nil
		}

		if record.Status() == assignment.StatusExpired {
			return zero, newServiceError(
				http.StatusBadRequest,
				"SCHEDULING_EXPIRED_IMMUTABLE",
				"expired assignments cannot change status",
				nil,
			)
		}

		next := assignment.Derive(record.StartDate(), record.EndDate(), record.Status(), now)
		if next == record.Status() {
			return record, nil
		}
		ok, err := s.repo.UpdateStatus(txCtx, tenantID, record.ID(), record.Status(), next)
		if err != nil {
			return zero, mapPgError(err)
		}
		if !ok {
			return s.repo.GetByID(txCtx, tenantID, record.ID())
		}
		updated := record.WithStatus(next)
		s.publisher.Publish(assignment.NewUpdatedEvent(updated))
		return updated, nil
	})
}

// Update applies date/relation edits, then re-derives status using the
// pre-edit stored status as previous. Editing the dates of a cancelled
// assignment therefore never un-cancels it.
func (s *AssignmentService) Update(ctx context.Context, tenantID, id uuid.UUID, data *assignment.UpdateDTO) (assignment.Assignment, error) {
	var zero assignment.Assignment
	if tenantID == uuid.Nil {
		return zero, newServiceError(http.StatusBadRequest, "SCHEDULING_NO_TENANT", "tenant_id is required", nil)
	}

	now := s.clock.Now().UTC()
	return composables.InTxResult(ctx, func(txCtx context.Context) (assignment.Assignment, error) {
		record, err := s.repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return zero, mapRepoError(err)
		}

		edited := data.Apply(record)
		if err := validateWindow(edited.StartDate(), edited.EndDate()); err != nil {
			return zero, err
		}
		if data.ShiftID != nil {
			if err := s.resolveShift(txCtx, tenantID, *data.ShiftID); err != nil {
				return zero, err
			}
		}
		if err := s.resolveScheduleRule(txCtx, tenantID, data.ScheduleRuleID); err != nil {
			return zero, err
		}

		edited = edited.Recompute(now)
		if err := s.repo.Update(txCtx, edited); err != nil {
			return zero, mapPgError(err)
		}
		s.publisher.Publish(assignment.NewUpdatedEvent(edited))
		return edited, nil
	})
}

func (s *AssignmentService) buildFanOut(tenantID, employeeID uuid.UUID, data *assignment.FanOutDTO, now time.Time, extra ...assignment.Option) assignment.Assignment {
	opts := make([]assignment.Option, 0, len(extra)+2)
	opts = append(opts, extra...)
	if data.EndDate != nil {
		opts = append(opts, assignment.WithEndDate(*data.EndDate))
	}
	if data.ScheduleRuleID != nil {
		opts = append(opts, assignment.WithScheduleRule(*data.ScheduleRuleID))
	}
	return assignment.New(tenantID, employeeID, data.ShiftID, data.StartDate, now, opts...)
}

func (s *AssignmentService) resolveShift(ctx context.Context, tenantID, shiftID uuid.UUID) error {
	_, found, err := s.catalog.GetShift(ctx, tenantID, shiftID)
	if err != nil {
		return err
	}
	if !found {
		return newServiceError(
			http.StatusNotFound,
			"SCHEDULING_SHIFT_NOT_FOUND",
			fmt.Sprintf("shift %s not found", shiftID),
			nil,
		)
	}
	return nil
}

func (s *AssignmentService) resolveScheduleRule(ctx context.Context, tenantID uuid.UUID, ruleID *uuid.UUID) error {
	if ruleID == nil {
		return nil
	}
	_, found, err := s.catalog.GetScheduleRule(ctx, tenantID, *ruleID)
	if err != nil {
		return err
	}
	if !found {
		return newServiceError(
			http.StatusNotFound,
			"SCHEDULING_RULE_NOT_FOUND",
			fmt.Sprintf("schedule rule %s not found", *ruleID),
			nil,
		)
	}
	return nil
}

func validateWindow(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return newServiceError(
			http.StatusBadRequest,
			"SCHEDULING_INVALID_BODY",
			"end_date must not precede start_date",
			nil,
		)
	}
	return nil
}

func invalidBody(fields map[string]string) error {
	return &ServiceError{
		Status:  http.StatusBadRequest,
		Code:    "SCHEDULING_INVALID_BODY",
		Message: "invalid request body",
		Details: fields,
	}
}

func bulkInsertError(err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return newServiceError(http.StatusBadRequest, "SCHEDULING_BULK_INSERT_FAILED", "bulk insert failed", err)
}

func mapRepoError(err error) error {
	if errors.Is(err, assignment.ErrAssignmentNotFound) {
		return newServiceError(http.StatusNotFound, "SCHEDULING_ASSIGNMENT_NOT_FOUND", "assignment not found", err)
	}
	return mapPgError(err)
}
