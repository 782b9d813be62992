package worker

import (
	"context"
	"fmt"
	"time"

	"taskmate/backend/internal/cache"
	"taskmate/backend/internal/services"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const statsTTL = 10 * time.Minute

// NewTaskEventHandler returns the handler for task_event jobs: recount the
// owner's tasks and refresh the cached stats entry that GET /api/tasks/stats
// serves. The mutation already committed, so this runs off the request path.
func NewTaskEventHandler(db *gorm.DB, tasks services.TaskService, store cache.Cache) JobHandler {
	return func(ctx context.Context, job *Job) error {
		idStr, _ := job.Payload["user_id"].(string)
		ownerID, err := uuid.FromString(idStr)
		if err != nil {
			return fmt.Errorf("task_event job %s has invalid user_id %q", job.ID, idStr)
		}

		stats, err := tasks.TaskStats(db, ownerID)
		if err != nil {
			return fmt.Errorf("recount tasks for %s: %w", ownerID, err)
		}

		return store.Set(services.TaskStatsKey(ownerID), stats, statsTTL)
	}
}
