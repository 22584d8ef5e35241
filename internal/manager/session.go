package manager

import (
	"context"

	"todo-mvp/internal/models"
)

// Session - репозиторий для одного действия пользователя (HTTP-запрос, команда).
// В отличие от TaskManager.SaveTask запоминает, сохранилась ли задача на самом деле.
type Session struct {
	tm  *TaskManager
	ctx context.Context

	saved *models.Task
	err   error
}

func (tm *TaskManager) Session(ctx context.Context) *Session {
	return &Session{tm: tm, ctx: ctx}
}

func (s *Session) GetTask(id string, callback GetTaskCallback) {
	s.tm.GetTask(id, callback)
}

func (s *Session) SaveTask(task *models.Task) {
	if err := s.tm.SaveTaskContext(s.ctx, task); err != nil {
		s.err = err
		return
	}
	s.saved = task
}

// Saved - сохраненная задача, nil если сохранения не было или оно не удалось
func (s *Session) Saved() *models.Task {
	return s.saved
}

// Err - ошибка последнего сохранения
func (s *Session) Err() error {
	return s.err
}
