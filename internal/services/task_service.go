package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-be/internal/models"
)

// TaskCache is the per-user response cache for the task-list read path.
// Implementations must treat backend failures as misses on Get and must not
// let Set/Invalidate failures propagate; the store is always the source of
// truth.
type TaskCache interface {
	Get(ctx context.Context, ownerID string) ([]byte, bool)
	Set(ctx context.Context, ownerID string, payload []byte)
	Invalidate(ctx context.Context, ownerID string)
}

// TaskInput carries the client-settable task fields.
type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	ListForOwner(ctx context.Context, ownerID string) (json.RawMessage, error)
	GetForOwner(ctx context.Context, ownerID, id string) (models.Task, error)
	Create(ctx context.Context, ownerID string, in TaskInput) (models.Task, error)
	UpdateForOwner(ctx context.Context, ownerID, id string, in TaskInput) (models.Task, error)
	DeleteForOwner(ctx context.Context, ownerID, id string) error
	ListAll(ctx context.Context) ([]models.Task, error)
	DeleteAny(ctx context.Context, id string) error
}

// TaskService provides business logic for task management. All non-admin
// operations are scoped to the owning user; a row owned by someone else is
// indistinguishable from a missing one.
type TaskService struct {
	db    *sql.DB
	cache TaskCache
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB, cache TaskCache) *TaskService {
	return &TaskService{db: db, cache: cache}
}

const taskColumns = "id, title, description, status, priority, due_date, owner_id, created_at, updated_at"

// ListForOwner returns the serialized task list for a user, from cache when
// possible. A miss queries the store and repopulates the cache.
func (s *TaskService) ListForOwner(ctx context.Context, ownerID string) (json.RawMessage, error) {
	if payload, ok := s.cache.Get(ctx, ownerID); ok {
		return payload, nil
	}

	rows, err := s.db.Query(
		"SELECT "+taskColumns+" FROM tasks WHERE owner_id = ? ORDER BY created_at", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, ownerID, payload)
	return payload, nil
}

// GetForOwner retrieves one task scoped to its owner.
func (s *TaskService) GetForOwner(ctx context.Context, ownerID, id string) (models.Task, error) {
	row := s.db.QueryRow(
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// Create inserts a new task for a user and invalidates their cached list.
func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (models.Task, error) {
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if err := checkEnums(in); err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		"INSERT INTO tasks(id, title, description, status, priority, due_date, owner_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.Title, task.Description, task.Status, task.Priority, nullTime(task.DueDate), task.OwnerID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	s.cache.Invalidate(ctx, ownerID)
	return task, nil
}

// UpdateForOwner overlays the provided fields onto an owned task. Ownership
// itself is immutable; there is no way to move a task between users.
func (s *TaskService) UpdateForOwner(ctx context.Context, ownerID, id string, in TaskInput) (models.Task, error) {
	task, err := s.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return models.Task{}, err
	}

	if in.Title != "" {
		task.Title = in.Title
	}
	if in.Description != "" {
		task.Description = in.Description
	}
	if in.Status != "" {
		task.Status = in.Status
	}
	if in.Priority != "" {
		task.Priority = in.Priority
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if err := checkEnums(TaskInput{Status: task.Status, Priority: task.Priority}); err != nil {
		return models.Task{}, err
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		"UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
		task.Title, task.Description, task.Status, task.Priority, nullTime(task.DueDate), task.UpdatedAt, id, ownerID,
	)
	if err != nil {
		return models.Task{}, err
	}

	s.cache.Invalidate(ctx, ownerID)
	return task, nil
}

// DeleteForOwner permanently removes an owned task.
func (s *TaskService) DeleteForOwner(ctx context.Context, ownerID, id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.cache.Invalidate(ctx, ownerID)
	return nil
}

// ListAll retrieves every task regardless of owner. Admin use only.
func (s *TaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.Query("SELECT " + taskColumns + " FROM tasks ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// DeleteAny removes any task by id, bypassing ownership scoping. The owner
// is resolved first so the right cache entry gets invalidated.
func (s *TaskService) DeleteAny(ctx context.Context, id string) error {
	var ownerID string
	err := s.db.QueryRow("SELECT owner_id FROM tasks WHERE id = ?", id).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if _, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, ownerID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var due sql.NullTime
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&due, &task.OwnerID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if due.Valid {
		t := due.Time
		task.DueDate = &t
	}
	return task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func checkEnums(in TaskInput) error {
	if in.Status != "" && !models.ValidStatus(in.Status) {
		return fmt.Errorf("unknown status %q", in.Status)
	}
	if in.Priority != "" && !models.ValidPriority(in.Priority) {
		return fmt.Errorf("unknown priority %q", in.Priority)
	}
	return nil
}
