package services

import (
	"fmt"
	"time"

	"taskmate/backend/internal/cache"
	"taskmate/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	taskListTTL  = 15 * time.Minute
	taskEntryTTL = 30 * time.Minute
	taskStatsTTL = 10 * time.Minute
)

// CachedTaskService decorates a TaskService with a cache in front of reads.
// Every key carries the owner id, so a cache hit can never leak one user's
// task to another. Cache failures fall through to the store; they are never
// surfaced as request errors.
type CachedTaskService struct {
	tasks TaskService
	cache cache.Cache
}

func NewCachedTaskService(tasks TaskService, cacheInstance cache.Cache) *CachedTaskService {
	return &CachedTaskService{tasks: tasks, cache: cacheInstance}
}

func TaskListKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("user_tasks:%s", ownerID)
}

func TaskKey(ownerID, taskID uuid.UUID) string {
	return fmt.Sprintf("task:%s:%s", ownerID, taskID)
}

func TaskStatsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("task_stats:%s", ownerID)
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, ownerID uuid.UUID) ([]models.Task, error) {
	var cached []models.Task
	if err := s.cache.Get(TaskListKey(ownerID), &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.tasks.ListTasks(db, ownerID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(TaskListKey(ownerID), tasks, taskListTTL)
	return tasks, nil
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, ownerID uuid.UUID, input TaskInput) (models.Task, error) {
	task, err := s.tasks.CreateTask(db, ownerID, input)
	if err != nil {
		return task, err
	}

	s.invalidateOwner(ownerID)
	return task, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, ownerID, taskID uuid.UUID) (models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(TaskKey(ownerID, taskID), &cached); err == nil {
		return cached, nil
	}

	task, err := s.tasks.GetTaskByID(db, ownerID, taskID)
	if err != nil {
		return task, err
	}

	s.cache.Set(TaskKey(ownerID, taskID), task, taskEntryTTL)
	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, ownerID, taskID uuid.UUID, patch TaskPatch) (models.Task, error) {
	task, err := s.tasks.UpdateTask(db, ownerID, taskID, patch)
	if err != nil {
		return task, err
	}

	s.invalidateOwner(ownerID)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, ownerID, taskID uuid.UUID) error {
	if err := s.tasks.DeleteTask(db, ownerID, taskID); err != nil {
		return err
	}

	s.invalidateOwner(ownerID)
	return nil
}

func (s *CachedTaskService) ReorderTasks(db *gorm.DB, ownerID uuid.UUID, src, dst int) ([]models.Task, bool, error) {
	list, moved, err := s.tasks.ReorderTasks(db, ownerID, src, dst)
	if err != nil {
		return list, moved, err
	}

	if moved {
		s.invalidateOwner(ownerID)
	}
	return list, moved, nil
}

func (s *CachedTaskService) TaskStats(db *gorm.DB, ownerID uuid.UUID) (models.TaskStats, error) {
	var cached models.TaskStats
	if err := s.cache.Get(TaskStatsKey(ownerID), &cached); err == nil {
		return cached, nil
	}

	stats, err := s.tasks.TaskStats(db, ownerID)
	if err != nil {
		return stats, err
	}

	s.cache.Set(TaskStatsKey(ownerID), stats, taskStatsTTL)
	return stats, nil
}

// invalidateOwner drops everything cached for one user. Mutations always
// invalidate rather than update in place; the next read repopulates.
func (s *CachedTaskService) invalidateOwner(ownerID uuid.UUID) {
	s.cache.Delete(TaskListKey(ownerID))
	s.cache.Delete(TaskStatsKey(ownerID))
	s.cache.DeletePattern(fmt.Sprintf("task:%s:*", ownerID))
}
