package services

import (
	"errors"
	"strings"

	"taskmate/backend/internal/models"
	"taskmate/backend/internal/ordering"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTaskNotFound covers both "no such task" and "task owned by someone
	// else" so a caller cannot probe for other users' task ids.
	ErrTaskNotFound = errors.New("task not found")

	ErrTitleRequired = errors.New("task title is required")
)

type TaskInput struct {
	Title       string
	Description string
	Completed   bool
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TaskService is the owner-scoped task store. Every operation takes the
// caller's identity and never touches another owner's rows.
type TaskService interface {
	ListTasks(db *gorm.DB, ownerID uuid.UUID) ([]models.Task, error)
	CreateTask(db *gorm.DB, ownerID uuid.UUID, input TaskInput) (models.Task, error)
	GetTaskByID(db *gorm.DB, ownerID, taskID uuid.UUID) (models.Task, error)
	UpdateTask(db *gorm.DB, ownerID, taskID uuid.UUID, patch TaskPatch) (models.Task, error)
	DeleteTask(db *gorm.DB, ownerID, taskID uuid.UUID) error
	ReorderTasks(db *gorm.DB, ownerID uuid.UUID, src, dst int) ([]models.Task, bool, error)
	TaskStats(db *gorm.DB, ownerID uuid.UUID) (models.TaskStats, error)
}

type TaskServiceImpl struct {
	policy ordering.Policy
}

func NewTaskService(policy ordering.Policy) *TaskServiceImpl {
	return &TaskServiceImpl{policy: policy}
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, ownerID uuid.UUID) ([]models.Task, error) {
	return listFor(db, ownerID)
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, ownerID uuid.UUID, input TaskInput) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, ErrTitleRequired
	}

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      ownerID,
		Title:       title,
		Description: input.Description,
		Completed:   input.Completed,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		list, err := listFor(tx, ownerID)
		if err != nil {
			return err
		}

		task.Position = len(list)
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		return persistOrder(tx, s.policy.Place(list, task))
	})
	if err != nil {
		return models.Task{}, err
	}

	return s.GetTaskByID(db, ownerID, task.ID)
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, ownerID, taskID uuid.UUID) (models.Task, error) {
	var task models.Task
	err := db.Where("id = ? AND user_id = ?", taskID, ownerID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, ownerID, taskID uuid.UUID, patch TaskPatch) (models.Task, error) {
	var task models.Task

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", taskID, ownerID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		toggled := false
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return ErrTitleRequired
			}
			task.Title = title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Completed != nil && *patch.Completed != task.Completed {
			task.Completed = *patch.Completed
			toggled = true
		}

		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		// Only a completion toggle can change the list order; edits leave
		// the arrangement alone.
		if toggled {
			list, err := listFor(tx, ownerID)
			if err != nil {
				return err
			}
			return persistOrder(tx, s.policy.Rebalance(list))
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	return s.GetTaskByID(db, ownerID, taskID)
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, ownerID, taskID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", taskID, ownerID).Delete(&models.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTaskNotFound
		}

		// Compact positions; the survivors keep their relative order.
		list, err := listFor(tx, ownerID)
		if err != nil {
			return err
		}
		return persistOrder(tx, list)
	})
}

func (s *TaskServiceImpl) ReorderTasks(db *gorm.DB, ownerID uuid.UUID, src, dst int) ([]models.Task, bool, error) {
	var ordered []models.Task
	var moved bool

	err := db.Transaction(func(tx *gorm.DB) error {
		list, err := listFor(tx, ownerID)
		if err != nil {
			return err
		}

		ordered, moved, err = s.policy.Move(list, src, dst)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		return persistOrder(tx, ordered)
	})
	if err != nil {
		return nil, false, err
	}

	return ordered, moved, nil
}

func (s *TaskServiceImpl) TaskStats(db *gorm.DB, ownerID uuid.UUID) (models.TaskStats, error) {
	var stats models.TaskStats

	if err := db.Model(&models.Task{}).Where("user_id = ?", ownerID).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Task{}).Where("user_id = ? AND completed = ?", ownerID, true).Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	stats.Pending = stats.Total - stats.Completed

	return stats, nil
}

func listFor(db *gorm.DB, ownerID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	if err := db.Where("user_id = ?", ownerID).Order("position asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// persistOrder writes the derived arrangement back as dense positions,
// touching only the rows whose position actually changed.
func persistOrder(tx *gorm.DB, ordered []models.Task) error {
	for i, t := range ordered {
		if t.Position == i {
			continue
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", t.ID).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
