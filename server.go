package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"todo-mvp/internal/addedit"
	"todo-mvp/internal/logger"
	"todo-mvp/internal/manager"
	"todo-mvp/internal/models"
	"todo-mvp/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const errEmptyTask = "empty_task"

func NewRouter(tm *manager.TaskManager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", listTasksHandler(tm))
		r.Post("/", saveTaskHandler(tm))
		r.Get("/{id}", editTaskHandler(tm))
		r.Put("/{id}", saveTaskHandler(tm))
		r.Delete("/{id}", deleteTaskHandler(tm))
		r.Post("/{id}/complete", completeTaskHandler(tm, true))
		r.Delete("/{id}/complete", completeTaskHandler(tm, false))
	})
	return r
}

// formView - экран редактирования для одного HTTP-запроса.
// Активен, пока клиент не отключился.
type formView struct {
	req *http.Request

	mu          sync.Mutex
	title       string
	description string
	emptyError  bool
	listShown   bool
}

func (v *formView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = title
}

func (v *formView) SetDescription(description string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.description = description
}

func (v *formView) ShowEmptyTaskError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.emptyError = true
}

func (v *formView) ShowTasksList() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listShown = true
}

func (v *formView) IsActive() bool {
	return v.req.Context().Err() == nil
}

func editTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		view := &formView{req: r}

		addedit.NewPresenter(id, tm, view, true).Start()

		view.mu.Lock()
		defer view.mu.Unlock()
		if view.emptyError {
			writeError(w, http.StatusNotFound, errEmptyTask)
			return
		}
		writeJSON(w, http.StatusOK, models.SaveTaskRequest{
			Title:       view.title,
			Description: view.description,
		})
	}
}

// saveTaskHandler: POST /tasks создает задачу, PUT /tasks/{id} обновляет
func saveTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SaveTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		defer r.Body.Close()

		id := chi.URLParam(r, "id")
		view := &formView{req: r}
		repo := tm.Session(r.Context())
		// Данные приходят из запроса, загружать задачу не нужно
		p := addedit.NewPresenter(id, repo, view, false)

		if err := p.SaveTask(req.Title, req.Description); err != nil {
			logger.Error(r.Context(), err, "Ошибка сохранения задачи", "requestID", middleware.GetReqID(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal")
			return
		}

		view.mu.Lock()
		defer view.mu.Unlock()
		switch {
		case view.emptyError:
			writeError(w, http.StatusUnprocessableEntity, errEmptyTask)
		case repo.Err() != nil:
			logger.Error(r.Context(), repo.Err(), "Задача не сохранена", "requestID", middleware.GetReqID(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal")
		case repo.Saved() == nil:
			writeError(w, http.StatusInternalServerError, "internal")
		case id == "":
			writeJSON(w, http.StatusCreated, repo.Saved())
		default:
			writeJSON(w, http.StatusOK, repo.Saved())
		}
	}
}

func listTasksHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := tm.GetAllTasks(r.Context())
		if err != nil {
			logger.Error(r.Context(), err, "Ошибка получения задач")
			writeError(w, http.StatusInternalServerError, "internal")
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func deleteTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tm.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeStorageError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func completeTaskHandler(tm *manager.TaskManager, completed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tm.CompleteTask(r.Context(), chi.URLParam(r, "id"), completed); err != nil {
			writeStorageError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	logger.Error(r.Context(), err, "Ошибка хранилища")
	writeError(w, http.StatusInternalServerError, "internal")
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), err, "Ошибка записи ответа")
	}
}
