// Package addedit содержит презентер экрана создания и редактирования задачи.
//
// Презентер не знает, как устроен экран (HTTP, Telegram, консоль, TUI) и
// где лежат задачи: он работает через интерфейсы View и Repository.
package addedit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"todo-mvp/internal/logger"
	"todo-mvp/internal/manager"
	"todo-mvp/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrMissingTaskID - ошибка программиста: загрузка или обновление вызваны без ID задачи
var ErrMissingTaskID = errors.New("addedit: не задан ID задачи")

var (
	presenterSaveCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_presenter_saves_total",
			Help: "Total number of save requests handled by the add/edit presenter",
		},
		[]string{"path", "status"},
	)

	presenterLoadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_presenter_loads_total",
			Help: "Total number of task loads delivered to the add/edit presenter",
		},
		[]string{"status"},
	)
)

// View - экран редактирования задачи
type View interface {
	SetTitle(title string)
	SetDescription(description string)
	ShowEmptyTaskError()
	ShowTasksList()
	// IsActive - false, если экран уже закрыт и обновлять его нельзя
	IsActive() bool
}

// Repository - источник задач
type Repository interface {
	GetTask(id string, callback manager.GetTaskCallback)
	SaveTask(task *models.Task)
}

// Presenter слушает действия пользователя на экране, достает задачу
// из репозитория и обновляет экран.
type Presenter struct {
	taskID string
	repo   Repository
	view   View

	mu            sync.Mutex
	isDataMissing bool
}

// NewPresenter создает презентер. Пустой taskID - создание новой задачи.
// shouldLoadDataFromRepo=false, если поля экрана уже заполнены (например,
// экран восстановлен) и повторно грузить задачу не нужно.
func NewPresenter(taskID string, repo Repository, view View, shouldLoadDataFromRepo bool) *Presenter {
	return &Presenter{
		taskID:        taskID,
		repo:          repo,
		view:          view,
		isDataMissing: shouldLoadDataFromRepo,
	}
}

func (p *Presenter) Start() {
	if !p.isNewTask() && p.IsDataMissing() {
		p.repo.GetTask(p.taskID, p)
	}
}

// SaveTask создает новую задачу или обновляет редактируемую
func (p *Presenter) SaveTask(title, description string) error {
	if p.isNewTask() {
		p.createTask(title, description)
		return nil
	}
	return p.updateTask(title, description)
}

// PopulateTask запрашивает задачу из репозитория. Результат придет в OnTaskLoaded
// или OnDataNotAvailable.
func (p *Presenter) PopulateTask() error {
	if p.isNewTask() {
		return fmt.Errorf("populate task: %w", ErrMissingTaskID)
	}
	p.repo.GetTask(p.taskID, p)
	return nil
}

func (p *Presenter) OnTaskLoaded(task *models.Task) {
	// Экран мог закрыться, пока шла загрузка
	if p.view.IsActive() {
		p.view.SetTitle(task.Title)
		p.view.SetDescription(task.Description)
		presenterLoadCount.WithLabelValues("loaded").Inc()
	} else {
		presenterLoadCount.WithLabelValues("inactive").Inc()
	}

	p.mu.Lock()
	p.isDataMissing = false
	p.mu.Unlock()
}

func (p *Presenter) OnDataNotAvailable() {
	presenterLoadCount.WithLabelValues("missing").Inc()
	if p.view.IsActive() {
		p.view.ShowEmptyTaskError()
	}
}

func (p *Presenter) IsDataMissing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isDataMissing
}

func (p *Presenter) isNewTask() bool {
	return p.taskID == ""
}

func (p *Presenter) createTask(title, description string) {
	newTask := models.NewTask(title, description)
	if newTask.IsEmpty() {
		presenterSaveCount.WithLabelValues("create", "empty").Inc()
		p.view.ShowEmptyTaskError()
		return
	}

	p.repo.SaveTask(newTask)
	presenterSaveCount.WithLabelValues("create", "saved").Inc()
	logger.Debug(context.Background(), "Создана задача", "taskID", newTask.ID)
	p.view.ShowTasksList()
}

func (p *Presenter) updateTask(title, description string) error {
	if p.isNewTask() {
		return fmt.Errorf("update task: %w", ErrMissingTaskID)
	}

	p.repo.SaveTask(models.NewTaskWithID(p.taskID, title, description))
	presenterSaveCount.WithLabelValues("update", "saved").Inc()
	logger.Debug(context.Background(), "Обновлена задача", "taskID", p.taskID)
	// После редактирования возвращаемся к списку
	p.view.ShowTasksList()
	return nil
}
