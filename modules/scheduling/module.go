package scheduling

import (
	"embed"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/scheduling/modules/scheduling/infrastructure/persistence"
	"github.com/iota-uz/scheduling/modules/scheduling/presentation/controllers"
	"github.com/iota-uz/scheduling/modules/scheduling/services"
	"github.com/iota-uz/scheduling/pkg/eventbus"
)

//go:embed infrastructure/persistence/schema/scheduling-schema.sql
var migrationFiles embed.FS

// SchemaSQL returns the module's DDL for the host to apply at startup.
func SchemaSQL() (string, error) {
	b, err := migrationFiles.ReadFile("infrastructure/persistence/schema/scheduling-schema.sql")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type Module struct {
	assignments *services.AssignmentService
	sweeper     *services.ExpirationSweeper
}

func NewModule(publisher eventbus.EventBus, clock clockwork.Clock, sweep services.SweeperOptions) *Module {
	repo := persistence.NewAssignmentRepository()
	directory := persistence.NewDirectoryRepository()

	sweep.Clock = clock
	return &Module{
		assignments: services.NewAssignmentService(repo, directory, directory, publisher, clock),
		sweeper:     services.NewExpirationSweeper(repo, sweep),
	}
}

func (m *Module) Name() string {
	return "scheduling"
}

func (m *Module) AssignmentService() *services.AssignmentService {
	return m.assignments
}

// Sweeper is the background expiration job; the host runs it as a goroutine
// for the lifetime of the process.
func (m *Module) Sweeper() *services.ExpirationSweeper {
	return m.sweeper
}

func (m *Module) Register(r *mux.Router) {
	controllers.NewSchedulingAPIController(m.assignments).Register(r)
}
