package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"todo-mvp/internal/config"
	"todo-mvp/internal/manager"
	"todo-mvp/internal/models"
	"todo-mvp/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, tm *manager.TaskManager, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(tm, config.Config{}, &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func onlyTaskID(t *testing.T, tm *manager.TaskManager) string {
	t.Helper()
	tasks, err := tm.GetAllTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	return tasks[0].ID
}

func TestAddCommand(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())

	out, err := run(t, tm, "add", "--title", "Купить молоко", "--desc", "2 литра")
	require.NoError(t, err)
	assert.Contains(t, out, "Task "+onlyTaskID(t, tm)+" added")

	out, err = run(t, tm, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Купить молоко [Pending]")
}

func TestAddCommand_EmptyTask(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())

	_, err := run(t, tm, "add")
	assert.ErrorIs(t, err, errEmptyTask)

	out, err := run(t, tm, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found")
}

func TestEditCommand_KeepsUnchangedFields(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())
	_, err := run(t, tm, "add", "--title", "Заголовок", "--desc", "Описание")
	require.NoError(t, err)
	id := onlyTaskID(t, tm)

	_, err = run(t, tm, "edit", id, "--desc", "Новое описание")
	require.NoError(t, err)

	out, err := run(t, tm, "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Title:       Заголовок")
	assert.Contains(t, out, "Description: Новое описание")
}

func TestEditCommand_MissingTask(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())

	_, err := run(t, tm, "edit", "missing", "--title", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDoneAndDeleteCommands(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())
	_, err := run(t, tm, "add", "--title", "Задача")
	require.NoError(t, err)
	id := onlyTaskID(t, tm)

	_, err = run(t, tm, "done", id)
	require.NoError(t, err)

	out, err := run(t, tm, "list", "--filter", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "[Completed]")

	out, err = run(t, tm, "list", "--filter", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found")

	_, err = run(t, tm, "delete", id)
	require.NoError(t, err)

	_, err = run(t, tm, "delete", id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestShowCommand_RequiresID(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())

	_, err := run(t, tm, "show")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "arg"))
}

// failingStorage отказывает в записи
type failingStorage struct {
	storage.Storage
}

func (failingStorage) SaveTask(context.Context, *models.Task) error {
	return errors.New("диск переполнен")
}

func TestAddCommand_StorageFailure(t *testing.T) {
	tm := manager.NewTaskManager(failingStorage{Storage: storage.NewMemoryStorage()})

	out, err := run(t, tm, "add", "--title", "Задача")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "диск переполнен")
	assert.NotContains(t, out, "added")
}
