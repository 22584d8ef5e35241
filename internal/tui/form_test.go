package tui

import (
	"errors"
	"testing"

	"todo-mvp/internal/addedit"
	"todo-mvp/internal/manager"
	"todo-mvp/internal/models"
	"todo-mvp/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ addedit.View = (*Form)(nil)

func typeText(f *Form, s string) {
	for _, r := range s {
		if r == ' ' {
			f.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestForm_CreateTask(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())
	form := NewForm(false)
	form.SetSaver(addedit.NewPresenter("", tm, form, true))

	typeText(form, "Купить молоко")
	form.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(form, "2 литра")

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd, "после сохранения форма закрывается")
	assert.True(t, form.Saved())
	assert.False(t, form.IsActive())

	tasks, err := tm.GetAllTasks(t.Context())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Купить молоко", tasks[0].Title)
	assert.Equal(t, "2 литра", tasks[0].Description)
}

func TestForm_EmptyTaskShowsError(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())
	form := NewForm(false)
	form.SetSaver(addedit.NewPresenter("", tm, form, true))

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Nil(t, cmd)
	assert.True(t, form.IsActive())
	assert.Contains(t, form.View(), "Задача не может быть пустой")

	// Ввод сбрасывает ошибку
	typeText(form, "x")
	assert.NotContains(t, form.View(), "Задача не может быть пустой")
}

func TestForm_EditLoadsTask(t *testing.T) {
	tm := manager.NewTaskManager(storage.NewMemoryStorage())
	task := models.NewTask("Старый", "текст")
	tm.SaveTask(task)

	form := NewForm(true)
	p := addedit.NewPresenter(task.ID, tm, form, true)
	form.SetSaver(p)
	p.Start()

	view := form.View()
	assert.Contains(t, view, "Редактирование задачи")
	assert.Contains(t, view, "Старый")
	assert.Contains(t, view, "текст")

	form.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	typeText(form, "ee")
	form.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	tm.RefreshTasks()
	tasks, err := tm.GetAllTasks(t.Context())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Старыee", tasks[0].Title)
}

func TestForm_EscQuitsWithoutSaving(t *testing.T) {
	form := NewForm(false)

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.NotNil(t, cmd)
	assert.False(t, form.IsActive())
	assert.False(t, form.Saved())
	assert.Empty(t, form.View())
}

type failingSaver struct{}

func (failingSaver) SaveTask(string, string) error { return errors.New("boom") }

func TestForm_SaveError(t *testing.T) {
	form := NewForm(true)
	form.SetSaver(failingSaver{})

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.NotNil(t, cmd)
	assert.EqualError(t, form.Err(), "boom")
}

func TestForm_EnterMovesToDescription(t *testing.T) {
	form := NewForm(false)

	typeText(form, "a")
	form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(form, "b")

	assert.Equal(t, "a", string(form.title))
	assert.Equal(t, "b", string(form.description))
}
