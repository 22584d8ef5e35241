package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todo-mvp/internal/logger"
	"todo-mvp/internal/models"
	"todo-mvp/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	saveTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_saved_total",
			Help: "Total number of SaveTask operations",
		},
		[]string{"status"},
	)

	loadTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_loaded_total",
			Help: "Total number of GetTask operations by source",
		},
		[]string{"source"},
	)

	taskDescLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_desc_length_bytes",
			Help:    "Length distribution of task descriptions",
			Buckets: []float64{50, 100, 500, 1000},
		},
	)

	saveTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_save_task_duration_seconds",
			Help:    "Duration of SaveTask operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

const defaultTimeout = 5 * time.Second

// GetTaskCallback получает результат GetTask. Может быть вызван
// синхронно или из другой горутины.
type GetTaskCallback interface {
	OnTaskLoaded(task *models.Task)
	OnDataNotAvailable()
}

// TaskManager - репозиторий задач. Источник истины - хранилище, кэш в памяти
// выручает, когда хранилище не отвечает.
type TaskManager struct {
	storage storage.Storage
	timeout time.Duration

	mu    sync.RWMutex
	cache map[string]models.Task
}

func NewTaskManager(s storage.Storage) *TaskManager {
	return NewTaskManagerWithTimeout(s, defaultTimeout)
}

// NewTaskManagerWithTimeout - timeout ограничивает обращения к хранилищу из GetTask/SaveTask
func NewTaskManagerWithTimeout(s storage.Storage, timeout time.Duration) *TaskManager {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TaskManager{
		storage: s,
		timeout: timeout,
		cache:   make(map[string]models.Task),
	}
}

// GetTask читает задачу из хранилища: другой процесс мог изменить или удалить её.
// Кэш используется, только если хранилище недоступно.
func (tm *TaskManager) GetTask(id string, callback GetTaskCallback) {
	ctx := logger.WithFields(context.Background(), "taskID", id)

	sctx, cancel := context.WithTimeout(ctx, tm.timeout)
	task, err := tm.storage.GetTask(sctx, id)
	cancel()

	switch {
	case err == nil:
		tm.mu.Lock()
		tm.cache[id] = *task
		tm.mu.Unlock()

		loadTaskCount.WithLabelValues("storage").Inc()
		callback.OnTaskLoaded(task)
	case errors.Is(err, storage.ErrNotFound):
		// Удалена в обход нас
		tm.mu.Lock()
		delete(tm.cache, id)
		tm.mu.Unlock()

		loadTaskCount.WithLabelValues("missing").Inc()
		callback.OnDataNotAvailable()
	default:
		logger.Error(ctx, err, "Ошибка загрузки задачи")

		tm.mu.RLock()
		cached, ok := tm.cache[id]
		tm.mu.RUnlock()
		if ok {
			loadTaskCount.WithLabelValues("cache").Inc()
			callback.OnTaskLoaded(&cached)
			return
		}
		loadTaskCount.WithLabelValues("missing").Inc()
		callback.OnDataNotAvailable()
	}
}

// SaveTask пишет задачу в хранилище и в кэш. Ошибки хранилища только логируются:
// у презентера нет канала для ошибки. Кому ошибка нужна - SaveTaskContext или Session.
func (tm *TaskManager) SaveTask(task *models.Task) {
	ctx := logger.WithFields(context.Background(), "taskID", task.ID)
	if err := tm.SaveTaskContext(ctx, task); err != nil {
		logger.Error(ctx, err, "Ошибка сохранения задачи")
	}
}

func (tm *TaskManager) SaveTaskContext(ctx context.Context, task *models.Task) error {
	startTime := time.Now()
	defer func() {
		saveTaskDuration.Observe(time.Since(startTime).Seconds())
	}()

	sctx, cancel := context.WithTimeout(ctx, tm.timeout)
	defer cancel()

	if err := tm.storage.SaveTask(sctx, task); err != nil {
		saveTaskCount.WithLabelValues("error").Inc()
		return fmt.Errorf("ошибка сохранения задачи %s: %w", task.ID, err)
	}

	tm.mu.Lock()
	tm.cache[task.ID] = *task
	tm.mu.Unlock()

	saveTaskCount.WithLabelValues("success").Inc()
	taskDescLength.Observe(float64(len(task.Description)))
	logger.Debug(ctx, "Задача сохранена")
	return nil
}

func (tm *TaskManager) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := tm.storage.GetAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка задач: %w", err)
	}

	tm.mu.Lock()
	for _, task := range tasks {
		tm.cache[task.ID] = task
	}
	tm.mu.Unlock()

	return tasks, nil
}

func (tm *TaskManager) DeleteTask(ctx context.Context, id string) error {
	if err := tm.storage.DeleteTask(ctx, id); err != nil {
		return err
	}

	tm.mu.Lock()
	delete(tm.cache, id)
	tm.mu.Unlock()
	return nil
}

// CompleteTask отмечает задачу выполненной (или снимает отметку)
func (tm *TaskManager) CompleteTask(ctx context.Context, id string, completed bool) error {
	if err := tm.storage.CompleteTask(ctx, id, completed); err != nil {
		return err
	}

	tm.mu.Lock()
	if task, ok := tm.cache[id]; ok {
		task.Completed = completed
		tm.cache[id] = task
	}
	tm.mu.Unlock()
	return nil
}

// RefreshTasks сбрасывает кэш, следующее чтение пойдёт в хранилище
func (tm *TaskManager) RefreshTasks() {
	tm.mu.Lock()
	tm.cache = make(map[string]models.Task)
	tm.mu.Unlock()
}
