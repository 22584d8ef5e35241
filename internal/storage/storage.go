package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"todo-mvp/internal/config"
	"todo-mvp/internal/models"
)

var ErrNotFound = errors.New("задача не найдена")

// Storage интерфейс для абстракции хранилища
type Storage interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// SaveTask создает задачу или перезаписывает существующую с тем же ID
	SaveTask(ctx context.Context, task *models.Task) error
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	CompleteTask(ctx context.Context, id string, completed bool) error

	// Закрытие соединения
	Close() error
}

// Open выбирает хранилище по конфигу
func Open(cfg config.Database) (Storage, error) {
	if cfg.Driver == "memory" {
		return NewMemoryStorage(), nil
	}
	s, err := NewSQLStorage(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("хранилище %s: %w", cfg.Driver, err)
	}
	return s, nil
}

// In-memory хранилище, используется в тестах и с драйвером memory
type MemoryStorage struct {
	mu    sync.Mutex
	tasks map[string]models.Task
	order []string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[string]models.Task),
	}
}

func (m *MemoryStorage) GetTask(_ context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("задача с ID %s: %w", id, ErrNotFound)
	}
	return &task, nil
}

func (m *MemoryStorage) SaveTask(_ context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return errors.New("нельзя сохранить задачу без ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[task.ID]; !exists {
		m.order = append(m.order, task.ID)
	}
	m.tasks[task.ID] = *task
	return nil
}

// GetAllTasks возвращает задачи в порядке создания
func (m *MemoryStorage) GetAllTasks(_ context.Context) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := make(map[string]int, len(m.order))
	for i, id := range m.order {
		pos[id] = i
	}

	tasks := make([]models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return pos[tasks[i].ID] < pos[tasks[j].ID] })
	return tasks, nil
}

func (m *MemoryStorage) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("задача с ID %s: %w", id, ErrNotFound)
	}
	delete(m.tasks, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStorage) CompleteTask(_ context.Context, id string, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("задача с ID %s: %w", id, ErrNotFound)
	}
	task.Completed = completed
	m.tasks[id] = task
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
