package manager

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"todo-mvp/internal/models"
	"todo-mvp/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCallback запоминает, какой из методов колбэка был вызван
type recordingCallback struct {
	loaded       *models.Task
	notAvailable bool
}

func (c *recordingCallback) OnTaskLoaded(task *models.Task) { c.loaded = task }
func (c *recordingCallback) OnDataNotAvailable()            { c.notAvailable = true }

// countingStorage считает обращения к хранилищу, чтобы проверить кэш
type countingStorage struct {
	storage.Storage
	gets    int
	getErr  error
	saveErr error
}

func (s *countingStorage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Storage.GetTask(ctx, id)
}

func (s *countingStorage) SaveTask(ctx context.Context, task *models.Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Storage.SaveTask(ctx, task)
}

func newCountingStorage() *countingStorage {
	return &countingStorage{Storage: storage.NewMemoryStorage()}
}

func TestSaveAndGetTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	task := models.NewTask("Купить молоко", "2 литра")

	tm.SaveTask(task)

	cb := &recordingCallback{}
	tm.GetTask(task.ID, cb)

	require.NotNil(t, cb.loaded)
	assert.False(t, cb.notAvailable)
	assert.Equal(t, *task, *cb.loaded)
}

func TestGetMissingTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())

	cb := &recordingCallback{}
	tm.GetTask("missing", cb)

	assert.Nil(t, cb.loaded)
	assert.True(t, cb.notAvailable)
}

func TestGetTask_ReadsThroughToStorage(t *testing.T) {
	s := newCountingStorage()
	task := models.NewTask("title", "desc")
	require.NoError(t, s.Storage.SaveTask(context.Background(), task))

	tm := NewTaskManager(s)

	tm.GetTask(task.ID, &recordingCallback{})
	tm.GetTask(task.ID, &recordingCallback{})
	assert.Equal(t, 2, s.gets, "каждое чтение идет в хранилище")
}

func TestGetTask_FallsBackToCache(t *testing.T) {
	s := newCountingStorage()
	tm := NewTaskManager(s)
	task := models.NewTask("title", "desc")
	tm.SaveTask(task)

	s.getErr = errors.New("база недоступна")

	cb := &recordingCallback{}
	tm.GetTask(task.ID, cb)
	require.NotNil(t, cb.loaded)
	assert.Equal(t, "title", cb.loaded.Title)

	cb = &recordingCallback{}
	tm.GetTask("unknown", cb)
	assert.True(t, cb.notAvailable)
}

// Два процесса (HTTP сервер и CLI) работают с одним файлом SQLite
func TestGetTask_SeesChangesFromAnotherManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")

	serverStorage, err := storage.NewSQLStorage("sqlite", path)
	require.NoError(t, err)
	defer serverStorage.Close()
	cliStorage, err := storage.NewSQLStorage("sqlite", path)
	require.NoError(t, err)
	defer cliStorage.Close()

	server := NewTaskManager(serverStorage)
	cli := NewTaskManager(cliStorage)

	task := models.NewTask("old", "d")
	server.SaveTask(task)

	cb := &recordingCallback{}
	server.GetTask(task.ID, cb)
	require.NotNil(t, cb.loaded)

	cli.SaveTask(models.NewTaskWithID(task.ID, "new", "d"))

	cb = &recordingCallback{}
	server.GetTask(task.ID, cb)
	require.NotNil(t, cb.loaded)
	assert.Equal(t, "new", cb.loaded.Title)

	require.NoError(t, cli.DeleteTask(context.Background(), task.ID))

	cb = &recordingCallback{}
	server.GetTask(task.ID, cb)
	assert.Nil(t, cb.loaded)
	assert.True(t, cb.notAvailable)
}

func TestSaveTaskContext_ReturnsStorageError(t *testing.T) {
	s := newCountingStorage()
	s.saveErr = errors.New("диск переполнен")
	tm := NewTaskManager(s)

	err := tm.SaveTaskContext(context.Background(), models.NewTask("title", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "диск переполнен")
}

func TestSession(t *testing.T) {
	s := newCountingStorage()
	tm := NewTaskManager(s)

	ok := tm.Session(context.Background())
	task := models.NewTask("title", "")
	ok.SaveTask(task)
	assert.NoError(t, ok.Err())
	assert.Same(t, task, ok.Saved())

	cb := &recordingCallback{}
	ok.GetTask(task.ID, cb)
	assert.NotNil(t, cb.loaded)

	s.saveErr = errors.New("диск переполнен")
	failed := tm.Session(context.Background())
	failed.SaveTask(models.NewTask("other", ""))
	assert.Error(t, failed.Err())
	assert.Nil(t, failed.Saved())
}

func TestSaveTaskStorageError(t *testing.T) {
	s := newCountingStorage()
	s.saveErr = errors.New("диск переполнен")
	tm := NewTaskManager(s)

	task := models.NewTask("title", "")
	tm.SaveTask(task)

	// В кэш неудачное сохранение попасть не должно
	cb := &recordingCallback{}
	tm.GetTask(task.ID, cb)
	assert.True(t, cb.notAvailable)
}

func TestCompleteAndDeleteTask(t *testing.T) {
	ctx := context.Background()
	tm := NewTaskManager(storage.NewMemoryStorage())
	task := models.NewTask("title", "")
	tm.SaveTask(task)

	require.NoError(t, tm.CompleteTask(ctx, task.ID, true))
	cb := &recordingCallback{}
	tm.GetTask(task.ID, cb)
	require.NotNil(t, cb.loaded)
	assert.True(t, cb.loaded.Completed)

	require.NoError(t, tm.DeleteTask(ctx, task.ID))
	cb = &recordingCallback{}
	tm.GetTask(task.ID, cb)
	assert.True(t, cb.notAvailable)

	assert.ErrorIs(t, tm.DeleteTask(ctx, task.ID), storage.ErrNotFound)
}

func TestGetAllTasks(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	tm.SaveTask(models.NewTask("a", ""))
	tm.SaveTask(models.NewTask("b", ""))

	tasks, err := tm.GetAllTasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSaveTaskMetrics(t *testing.T) {
	// Сохраняем оригинальные метрики
	originalSaveTaskCount := saveTaskCount
	originalTaskDescLength := taskDescLength

	// Создаем новый регистр для тестов
	registry := prometheus.NewRegistry()

	testSaveTaskCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_saved_total",
			Help: "Test counter",
		},
		[]string{"status"},
	)
	testTaskDescLength := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_desc_length_bytes",
			Help:    "Test histogram",
			Buckets: []float64{50, 100, 500, 1000},
		},
	)

	registry.MustRegister(testSaveTaskCount)
	registry.MustRegister(testTaskDescLength)

	// Подменяем глобальные метрики
	saveTaskCount = testSaveTaskCount
	taskDescLength = testTaskDescLength
	defer func() {
		saveTaskCount = originalSaveTaskCount
		taskDescLength = originalTaskDescLength
	}()

	s := newCountingStorage()
	tm := NewTaskManager(s)

	tm.SaveTask(models.NewTask("title", "Valid description"))
	assert.Equal(t, float64(1), testutil.ToFloat64(testSaveTaskCount.WithLabelValues("success")))

	metrics, err := registry.Gather()
	require.NoError(t, err)

	foundHistogram := false
	for _, mf := range metrics {
		if mf.GetName() == "todoapp_task_desc_length_bytes" {
			foundHistogram = true
			assert.NotEmpty(t, mf.GetMetric())
		}
	}
	assert.True(t, foundHistogram, "Histogram metric not found")

	s.saveErr = errors.New("boom")
	tm.SaveTask(models.NewTask("title", ""))
	assert.Equal(t, float64(1), testutil.ToFloat64(testSaveTaskCount.WithLabelValues("error")))
}
