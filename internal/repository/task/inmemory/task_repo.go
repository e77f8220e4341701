package inmemory

import (
	"context"
	"sync"
	"time"

	"taskly/internal/models/task"
	repo "taskly/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage - потокобезопасное хранилище в памяти. Порядок вставки
// сохраняется, чтобы выборки были детерминированными.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	shares  map[uuid.UUID]*task.Share
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		shares:  make(map[uuid.UUID]*task.Share),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.CreatedAt = time.Now().UTC()
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	s.storage[taskToCreate.UUID] = taskToCreate
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existing.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now().UTC()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.storage[taskToUpdate.UUID] = taskToUpdate

	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet, nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}

	// каскад: строки шаринга уходят вместе с задачей
	for shareID, share := range s.shares {
		if share.TaskID == id {
			delete(s.shares, shareID)
		}
	}
	return nil
}

func (s *TaskStorage) ListByUser(ctx context.Context, userID uuid.UUID, status *task.Status, page, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	skip := (page - 1) * limit

	for _, id := range s.ids {
		t := s.storage[id]
		if t.UserID != userID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(res) >= limit {
			break
		}
		res = append(res, t)
	}

	return res, nil
}

func (s *TaskStorage) ListDueForReminder(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}

	for _, id := range s.ids {
		if len(res) >= limit {
			break
		}

		t := s.storage[id]
		if !t.ReminderEnabled ||
			t.DueDate == nil ||
			!t.DueDate.After(now) ||
			t.Status == task.StatusDone ||
			(t.Reminder24hSent && t.Reminder10minSent) {
			continue
		}

		res = append(res, t)
	}

	return res, nil
}

func (s *TaskStorage) ListUpcoming(ctx context.Context, userID uuid.UUID, email string, now time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	sharedWithMe := make(map[uuid.UUID]bool)
	for _, share := range s.shares {
		if share.SharedWithEmail == email {
			sharedWithMe[share.TaskID] = true
		}
	}

	horizon := now.Add(7 * 24 * time.Hour)
	res := []*task.Task{}

	for _, id := range s.ids {
		if len(res) >= limit {
			break
		}

		t := s.storage[id]
		if t.UserID != userID && !sharedWithMe[t.UUID] {
			continue
		}
		if t.Status == task.StatusDone || t.DueDate == nil || t.DueDate.After(horizon) {
			continue
		}

		res = append(res, t)
	}

	return res, nil
}

func (s *TaskStorage) MarkReminderSent(ctx context.Context, id uuid.UUID, window task.Window, sentAt time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[id]
	if !ok {
		return repo.ErrNotFound
	}

	if t.ReminderSent(window) {
		return repo.ErrAlreadySent
	}

	t.MarkReminderSent(window, sentAt)
	return nil
}

func (s *TaskStorage) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to task.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[id]
	if !ok {
		return repo.ErrNotFound
	}

	// статус уже изменился - тихий no-op, как и условный UPDATE
	if t.Status != from {
		return nil
	}

	now := time.Now().UTC()
	t.Status = to
	t.UpdatedAt = &now
	t.Version++
	return nil
}

func (s *TaskStorage) CreateShare(ctx context.Context, share *task.Share) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existing := range s.shares {
		if existing.TaskID == share.TaskID && existing.SharedWithEmail == share.SharedWithEmail {
			return repo.ErrDuplicate
		}
	}

	share.SharedAt = time.Now().UTC()
	s.shares[share.UUID] = share
	return nil
}

func (s *TaskStorage) DeleteShare(ctx context.Context, taskID uuid.UUID, email string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, share := range s.shares {
		if share.TaskID == taskID && share.SharedWithEmail == email {
			delete(s.shares, id)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *TaskStorage) ListSharedWith(ctx context.Context, email string) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		for _, share := range s.shares {
			if share.TaskID == t.UUID && share.SharedWithEmail == email {
				res = append(res, t)
				break
			}
		}
	}
	return res, nil
}
