package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskly/internal/handlers"
	"taskly/internal/models/task"
	"taskly/internal/service"
	"taskly/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, params service.CreateTaskParams) (*task.Task, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, userID uuid.UUID, status *task.Status, page, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, userID, status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskService) Score(t *task.Task) int {
	args := m.Called(t)
	return args.Int(0)
}

func (m *MockTaskService) ShareTask(ctx context.Context, ownerID, taskID uuid.UUID, emails []string) ([]*task.Share, error) {
	args := m.Called(ctx, ownerID, taskID, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Share), args.Error(1)
}

func (m *MockTaskService) UnshareTask(ctx context.Context, ownerID, taskID uuid.UUID, email string) error {
	args := m.Called(ctx, ownerID, taskID, email)
	return args.Error(0)
}

func (m *MockTaskService) ListSharedWithMe(ctx context.Context, email string) ([]*task.Task, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) UpcomingReminders(ctx context.Context, userID uuid.UUID, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ handlers.Service = (*MockTaskService)(nil)

// MockScanner - мок сканера напоминаний
type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, now time.Time) worker.Report {
	args := m.Called(ctx, now)
	return args.Get(0).(worker.Report)
}

var _ handlers.Scanner = (*MockScanner)(nil)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newHandler(svc *MockTaskService, scanner handlers.Scanner) handlers.TaskHandler {
	return handlers.NewTaskHandler(svc, scanner, func() time.Time { return fixedNow })
}

// withChiParam подкладывает параметр маршрута в контекст запроса
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("storage unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := newHandler(mockService, nil)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()

			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	taskID := uuid.New()
	userID := uuid.New()
	due := fixedNow.Add(48 * time.Hour)

	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - create task",
			requestBody: fmt.Sprintf(`{
				"user_id": "%s",
				"title": "Test Task",
				"description": "Test Description",
				"priority": "high",
				"urgency": 5,
				"effort": 2,
				"due_date": "%s"
			}`, userID, due.Format(time.RFC3339)),
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(p service.CreateTaskParams) bool {
					return p.UserID == userID && p.Title == "Test Task" && p.Urgency == 5
				})).Return(&task.Task{
					UUID:     taskID,
					UserID:   userID,
					Title:    "Test Task",
					Status:   task.StatusTodo,
					Priority: task.PriorityHigh,
					Urgency:  5,
					Effort:   2,
					DueDate:  &due,
				}, nil)
				m.On("Score", mock.Anything).Return(11)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing user_id",
			requestBody:    `{"title": "Test Task"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error - business validation",
			requestBody: fmt.Sprintf(`{
				"user_id": "%s",
				"reminder_enabled": true
			}`, userID),
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("title", "название не может быть пустым"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error - service error",
			requestBody: fmt.Sprintf(`{
				"user_id": "%s",
				"title": "Test Task"
			}`, userID),
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := newHandler(mockService, nil)

			req := httptest.NewRequest("POST", "/tasks", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.PostTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response struct {
					Success bool `json:"success"`
					Task    struct {
						Title string `json:"title"`
						Score int    `json:"score"`
					} `json:"task"`
				}
				err := json.NewDecoder(w.Body).Decode(&response)
				require.NoError(t, err)
				assert.True(t, response.Success)
				assert.Equal(t, "Test Task", response.Task.Title)
				assert.Equal(t, 11, response.Task.Score)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTasks тестирует выдачу задач с рангами
func TestTaskHandler_GetTasks(t *testing.T) {
	userID := uuid.New()
	due := fixedNow.Add(-26 * time.Hour) // просрочена со вчерашнего дня

	t.Run("success - overdue flag and score in response", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything, userID, (*task.Status)(nil), 1, 50).
			Return([]*task.Task{{
				UUID:     uuid.New(),
				UserID:   userID,
				Title:    "Просроченная",
				Status:   task.StatusTodo,
				Priority: task.PriorityHigh,
				Urgency:  2,
				Effort:   1,
				DueDate:  &due,
			}}, nil)
		mockService.On("Score", mock.Anything).Return(11)

		handler := newHandler(mockService, nil)

		req := httptest.NewRequest("GET", "/tasks?user_id="+userID.String(), nil)
		w := httptest.NewRecorder()

		handler.GetTasks(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Success bool `json:"success"`
			Count   int  `json:"count"`
			Tasks   []struct {
				Score     int  `json:"score"`
				IsOverdue bool `json:"is_overdue"`
			} `json:"tasks"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.True(t, response.Success)
		assert.Equal(t, 1, response.Count)
		require.Len(t, response.Tasks, 1)
		assert.Equal(t, 11, response.Tasks[0].Score)
		assert.True(t, response.Tasks[0].IsOverdue)

		mockService.AssertExpectations(t)
	})

	t.Run("error - missing user_id", func(t *testing.T) {
		handler := newHandler(new(MockTaskService), nil)

		req := httptest.NewRequest("GET", "/tasks", nil)
		w := httptest.NewRecorder()

		handler.GetTasks(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("error - invalid status filter", func(t *testing.T) {
		handler := newHandler(new(MockTaskService), nil)

		req := httptest.NewRequest("GET", "/tasks?user_id="+userID.String()+"&status=bogus", nil)
		w := httptest.NewRecorder()

		handler.GetTasks(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по ID
func TestTaskHandler_GetTaskByID(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(&task.Task{
						UUID:     taskID,
						Title:    "Test Task",
						Status:   task.StatusTodo,
						Priority: task.PriorityMedium,
					}, nil)
				m.On("Score", mock.Anything).Return(4)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid UUID",
			taskID:         "invalid-uuid",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(nil, service.NewNotFound("задача", taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - service error",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, taskID).
					Return(nil, errors.New("internal error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := newHandler(mockService, nil)

			req := httptest.NewRequest("GET", "/tasks/"+tt.taskID, nil)
			req = withChiParam(req, "id", tt.taskID)
			w := httptest.NewRecorder()

			handler.GetTaskByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует обновление задачи
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - update task",
			requestBody: `{
				"title": "Updated Title",
				"status": "inprogress"
			}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, taskID, mock.Anything).
					Return(&task.Task{
						UUID:     taskID,
						Title:    "Updated Title",
						Status:   task.StatusInProgress,
						Priority: task.PriorityMedium,
					}, nil)
				m.On("Score", mock.Anything).Return(3)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{broken`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - version conflict",
			requestBody: `{"title": "Updated Title"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, taskID, mock.Anything).
					Return(nil, service.NewVersionConflict(taskID.String()))
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := newHandler(mockService, nil)

			req := httptest.NewRequest("PUT", "/tasks/"+taskID.String(), bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			req = withChiParam(req, "id", taskID.String())
			w := httptest.NewRecorder()

			handler.UpdateTaskByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTaskByID тестирует удаление задачи
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - delete task",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, taskID).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "error - not found",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, taskID).
					Return(service.NewNotFound("задача", taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := newHandler(mockService, nil)

			req := httptest.NewRequest("DELETE", "/tasks/"+taskID.String(), nil)
			req = withChiParam(req, "id", taskID.String())
			w := httptest.NewRecorder()

			handler.DeleteTaskByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ShareTask тестирует шаринг задачи
func TestTaskHandler_ShareTask(t *testing.T) {
	taskID := uuid.New()
	ownerID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ShareTask", mock.Anything, ownerID, taskID, []string{"a@example.com"}).
			Return([]*task.Share{{UUID: uuid.New(), TaskID: taskID, SharedWithEmail: "a@example.com"}}, nil)

		handler := newHandler(mockService, nil)

		body := `{"emails": ["a@example.com"]}`
		req := httptest.NewRequest("POST", "/tasks/"+taskID.String()+"/share?user_id="+ownerID.String(),
			bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req = withChiParam(req, "id", taskID.String())
		w := httptest.NewRecorder()

		handler.ShareTask(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - not the owner", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ShareTask", mock.Anything, ownerID, taskID, []string{"a@example.com"}).
			Return(nil, service.NewForbidden(taskID.String()))

		handler := newHandler(mockService, nil)

		body := `{"emails": ["a@example.com"]}`
		req := httptest.NewRequest("POST", "/tasks/"+taskID.String()+"/share?user_id="+ownerID.String(),
			bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req = withChiParam(req, "id", taskID.String())
		w := httptest.NewRecorder()

		handler.ShareTask(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - empty emails", func(t *testing.T) {
		handler := newHandler(new(MockTaskService), nil)

		req := httptest.NewRequest("POST", "/tasks/"+taskID.String()+"/share?user_id="+ownerID.String(),
			bytes.NewBufferString(`{"emails": []}`))
		req.Header.Set("Content-Type", "application/json")
		req = withChiParam(req, "id", taskID.String())
		w := httptest.NewRecorder()

		handler.ShareTask(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskHandler_GetReminders тестирует ленту напоминаний
func TestTaskHandler_GetReminders(t *testing.T) {
	userID := uuid.New()

	overdueDate := fixedNow.Add(-26 * time.Hour)
	todayDate := fixedNow.Add(3 * time.Hour)
	upcomingDate := fixedNow.Add(3 * 24 * time.Hour)

	t.Run("success - labels and messages", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpcomingReminders", mock.Anything, userID, 50).
			Return([]*task.Task{
				{UUID: uuid.New(), Title: "Просрочена", DueDate: &overdueDate},
				{UUID: uuid.New(), Title: "Сегодня", DueDate: &todayDate},
				{UUID: uuid.New(), Title: "Скоро", DueDate: &upcomingDate},
			}, nil)
		mockService.On("Score", mock.Anything).Return(5)

		handler := newHandler(mockService, nil)

		req := httptest.NewRequest("GET", "/reminders?user_id="+userID.String(), nil)
		w := httptest.NewRecorder()

		handler.GetReminders(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Success   bool `json:"success"`
			Count     int  `json:"count"`
			Reminders []struct {
				Title   string `json:"title"`
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"reminders"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.True(t, response.Success)
		assert.Equal(t, 3, response.Count)
		require.Len(t, response.Reminders, 3)
		assert.Equal(t, "overdue", response.Reminders[0].Type)
		assert.Equal(t, "due_today", response.Reminders[1].Type)
		assert.Equal(t, "upcoming", response.Reminders[2].Type)
		assert.NotEmpty(t, response.Reminders[0].Message)

		mockService.AssertExpectations(t)
	})

	t.Run("error - storage failure", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpcomingReminders", mock.Anything, userID, 50).
			Return(nil, errors.New("connection refused"))

		handler := newHandler(mockService, nil)

		req := httptest.NewRequest("GET", "/reminders?user_id="+userID.String(), nil)
		w := httptest.NewRecorder()

		handler.GetReminders(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var response map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, false, response["success"])

		mockService.AssertExpectations(t)
	})

	t.Run("error - missing user_id", func(t *testing.T) {
		handler := newHandler(new(MockTaskService), nil)

		req := httptest.NewRequest("GET", "/reminders", nil)
		w := httptest.NewRecorder()

		handler.GetReminders(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskHandler_ScanReminders тестирует ручной запуск сканера
func TestTaskHandler_ScanReminders(t *testing.T) {
	t.Run("success - report returned", func(t *testing.T) {
		scanner := new(MockScanner)
		scanner.On("Scan", mock.Anything, fixedNow).
			Return(worker.Report{Found: 3, Sent24h: 1, Sent10min: 1, Failed: 1})

		handler := newHandler(new(MockTaskService), scanner)

		req := httptest.NewRequest("POST", "/reminders/scan", nil)
		w := httptest.NewRecorder()

		handler.ScanReminders(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Success bool          `json:"success"`
			Report  worker.Report `json:"report"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.True(t, response.Success)
		assert.Equal(t, 3, response.Report.Found)
		assert.Equal(t, 1, response.Report.Sent24h)

		scanner.AssertExpectations(t)
	})

	t.Run("error - scanner not configured", func(t *testing.T) {
		handler := newHandler(new(MockTaskService), nil)

		req := httptest.NewRequest("POST", "/reminders/scan", nil)
		w := httptest.NewRecorder()

		handler.ScanReminders(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
