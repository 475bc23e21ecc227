package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Scheduler runs the maintenance tasks (index rebuild, history prune) in
// the background of long-running commands.
type Scheduler interface {
	// Start runs due tasks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for tasks in flight and ends Start.
	Stop() error

	// Status reports each built-in task with up to recent of its latest
	// runs. Tasks that were never persisted are reported from config.
	Status(ctx context.Context, recent int) ([]domain.TaskStatus, error)
}
