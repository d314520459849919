package assignment

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iota-uz/scheduling/pkg/constants"
)

// CreateDTO is the direct, single-employee creation payload.
type CreateDTO struct {
	EmployeeID     uuid.UUID  `json:"employee_id" validate:"required"`
	ShiftID        uuid.UUID  `json:"shift_id" validate:"required"`
	StartDate      time.Time  `json:"start_date" validate:"required"`
	EndDate        *time.Time `json:"end_date"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	PositionID     *uuid.UUID `json:"position_id"`
	ScheduleRuleID *uuid.UUID `json:"schedule_rule_id"`
}

// FanOutDTO is the shared payload for department and position fan-out:
// the same shift and window applied to every member of the resolved
// population.
type FanOutDTO struct {
	ShiftID        uuid.UUID  `json:"shift_id" validate:"required"`
	StartDate      time.Time  `json:"start_date" validate:"required"`
	EndDate        *time.Time `json:"end_date"`
	ScheduleRuleID *uuid.UUID `json:"schedule_rule_id"`
}

// UpdateDTO edits dates and relations; status is not directly writable
// here, it is re-derived after the edit.
type UpdateDTO struct {
	ShiftID        *uuid.UUID `json:"shift_id"`
	ScheduleRuleID *uuid.UUID `json:"schedule_rule_id"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	ClearEndDate   bool       `json:"clear_end_date"`
}

func (d *CreateDTO) Ok() (map[string]string, bool) {
	return validateStruct(d)
}

func (d *FanOutDTO) Ok() (map[string]string, bool) {
	return validateStruct(d)
}

func validateStruct(v any) (map[string]string, bool) {
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return map[string]string{}, true
	}
	out := map[string]string{}
	var validatorErrs validator.ValidationErrors
	if errors.As(errs, &validatorErrs) {
		for _, fieldErr := range validatorErrs {
			out[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return out, false
}

// Apply copies the edits onto a, leaving status untouched; the caller
// re-derives afterwards with the pre-edit status as previous.
func (d *UpdateDTO) Apply(a Assignment) Assignment {
	if d.ShiftID != nil {
		a.shiftID = *d.ShiftID
	}
	if d.ScheduleRuleID != nil {
		a.scheduleRuleID = d.ScheduleRuleID
	}
	if d.StartDate != nil {
		a.startDate = d.StartDate.UTC()
	}
	if d.ClearEndDate {
		a.endDate = nil
	} else if d.EndDate != nil {
		end := d.EndDate.UTC()
		a.endDate = &end
	}
	return a
}
