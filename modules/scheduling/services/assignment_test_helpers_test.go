package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
	"github.com/iota-uz/scheduling/pkg/composables"
)

// stubTx satisfies composables.Tx so services run their closures without a
// database; the in-memory repository ignores the transaction entirely.
type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func testCtx() context.Context {
	return composables.WithTx(context.Background(), stubTx{})
}

type memRepo struct {
	mu            sync.Mutex
	order         []uuid.UUID
	records       map[uuid.UUID]assignment.Assignment
	writes        int
	createManyErr error
	expireErr     error
	expireCalls   int

	// findStatusOverride makes Find return snapshots with this status
	// while the stored records keep theirs, to simulate a reader racing
	// a concurrent writer.
	findStatusOverride *assignment.Status
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[uuid.UUID]assignment.Assignment{}}
}

func (m *memRepo) put(a assignment.Assignment) assignment.Assignment {
	if a.ID() == uuid.Nil {
		a = rehydrate(a, uuid.New(), a.Status())
	}
	if _, ok := m.records[a.ID()]; !ok {
		m.order = append(m.order, a.ID())
	}
	m.records[a.ID()] = a
	return a
}

// seed inserts a record bypassing the write counters.
func (m *memRepo) seed(a assignment.Assignment) assignment.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(a)
}

func (m *memRepo) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memRepo) get(id uuid.UUID) assignment.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

func (m *memRepo) Create(_ context.Context, data assignment.Assignment) (assignment.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	return m.put(data), nil
}

func (m *memRepo) CreateMany(_ context.Context, data []assignment.Assignment) ([]assignment.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createManyErr != nil {
		return nil, m.createManyErr
	}
	out := make([]assignment.Assignment, 0, len(data))
	for _, a := range data {
		m.writes++
		out = append(out, m.put(a))
	}
	return out, nil
}

func (m *memRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (assignment.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok || a.TenantID() != tenantID {
		return assignment.Assignment{}, assignment.ErrAssignmentNotFound
	}
	return a, nil
}

func (m *memRepo) Find(_ context.Context, tenantID uuid.UUID, params *assignment.FindParams) ([]assignment.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []assignment.Assignment{}
	for _, id := range m.order {
		a := m.records[id]
		if a.TenantID() != tenantID {
			continue
		}
		if params.EmployeeID != nil && a.EmployeeID() != *params.EmployeeID {
			continue
		}
		if params.DepartmentID != nil && (a.DepartmentID() == nil || *a.DepartmentID() != *params.DepartmentID) {
			continue
		}
		if params.PositionID != nil && (a.PositionID() == nil || *a.PositionID() != *params.PositionID) {
			continue
		}
		if params.Status != nil && a.Status() != *params.Status {
			continue
		}
		if params.StartFrom != nil && a.StartDate().Before(*params.StartFrom) {
			continue
		}
		if params.StartTo != nil && a.StartDate().After(*params.StartTo) {
			continue
		}
		if m.findStatusOverride != nil {
			a = a.WithStatus(*m.findStatusOverride)
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, data assignment.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[data.ID()]; !ok {
		return assignment.ErrAssignmentNotFound
	}
	m.writes++
	m.records[data.ID()] = data
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, from, to assignment.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok || a.TenantID() != tenantID || a.Status() != from {
		return false, nil
	}
	m.writes++
	m.records[id] = a.WithStatus(to)
	return true, nil
}

func (m *memRepo) ExpireEnded(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireCalls++
	if m.expireErr != nil {
		err := m.expireErr
		m.expireErr = nil
		return 0, err
	}
	var n int64
	for id, a := range m.records {
		if a.Status() == assignment.StatusExpired || a.Status() == assignment.StatusCancelled {
			continue
		}
		if a.EndDate() != nil && a.EndDate().Before(now) {
			m.writes++
			m.records[id] = a.WithStatus(assignment.StatusExpired)
			n++
		}
	}
	return n, nil
}

func rehydrate(a assignment.Assignment, id uuid.UUID, status assignment.Status) assignment.Assignment {
	return assignment.Hydrate(
		a.TenantID(),
		id,
		a.EmployeeID(),
		a.DepartmentID(),
		a.PositionID(),
		a.ShiftID(),
		a.ScheduleRuleID(),
		a.StartDate(),
		a.EndDate(),
		status,
		a.CreatedAt(),
		a.UpdatedAt(),
	)
}

type stubDirectory struct {
	departments map[uuid.UUID]DepartmentRow
	positions   map[uuid.UUID]PositionRow
	employees   map[uuid.UUID][]EmployeeRow
	holders     map[uuid.UUID][]PositionHolderRow

	employeesListed bool
}

func (d *stubDirectory) GetDepartment(_ context.Context, _, id uuid.UUID) (DepartmentRow, bool, error) {
	row, ok := d.departments[id]
	return row, ok, nil
}

func (d *stubDirectory) GetPosition(_ context.Context, _, id uuid.UUID) (PositionRow, bool, error) {
	row, ok := d.positions[id]
	return row, ok, nil
}

func (d *stubDirectory) ListActiveEmployeesByDepartment(_ context.Context, _, departmentID uuid.UUID) ([]EmployeeRow, error) {
	d.employeesListed = true
	return d.employees[departmentID], nil
}

func (d *stubDirectory) ListActivePositionHolders(_ context.Context, _, positionID uuid.UUID) ([]PositionHolderRow, error) {
	return d.holders[positionID], nil
}

type stubCatalog struct {
	shifts map[uuid.UUID]ShiftRow
	rules  map[uuid.UUID]ScheduleRuleRow
}

func (c *stubCatalog) GetShift(_ context.Context, _, id uuid.UUID) (ShiftRow, bool, error) {
	row, ok := c.shifts[id]
	return row, ok, nil
}

func (c *stubCatalog) GetScheduleRule(_ context.Context, _, id uuid.UUID) (ScheduleRuleRow, bool, error) {
	row, ok := c.rules[id]
	return row, ok, nil
}

type stubPublisher struct {
	events []interface{}
}

func (s *stubPublisher) Publish(args ...interface{}) {
	s.events = append(s.events, args...)
}
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }
