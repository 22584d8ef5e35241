package models

import (
	"strings"

	"github.com/google/uuid"
)

// Task - задача списка дел. Пустой ID означает, что задача ещё не сохранена.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// NewTask создает новую задачу со свежим идентификатором
func NewTask(title, description string) *Task {
	return NewTaskWithID(uuid.NewString(), title, description)
}

// NewTaskWithID создает задачу с уже известным идентификатором (для обновления)
func NewTaskWithID(id, title, description string) *Task {
	return &Task{
		ID:          id,
		Title:       title,
		Description: description,
	}
}

// IsEmpty - задача без заголовка и без описания. Такие задачи не сохраняем.
func (t *Task) IsEmpty() bool {
	return strings.TrimSpace(t.Title) == "" && strings.TrimSpace(t.Description) == ""
}

// TitleForList возвращает заголовок, а если его нет - описание
func (t *Task) TitleForList() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return t.Description
}

// Структура для HTTP-запроса на создание/обновление задачи
type SaveTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
