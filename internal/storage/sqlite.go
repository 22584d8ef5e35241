package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"todo-mvp/internal/logger"
	"todo-mvp/internal/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLStorage хранит задачи через database/sql.
// Драйверы: "sqlite" (modernc, без cgo), "sqlite3" (mattn, cgo), "mysql".
type SQLStorage struct {
	db     *sql.DB
	driver string
}

func NewSQLStorage(driver, dsn string) (*SQLStorage, error) {
	switch driver {
	case "sqlite", "sqlite3", "mysql":
	default:
		return nil, fmt.Errorf("неподдерживаемый драйвер %q", driver)
	}

	if err := ensureSQLiteDir(driver, dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	if driver != "mysql" {
		// SQLite не любит параллельную запись, а :memory: живёт в одном соединении
		db.SetMaxOpenConns(1)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	s := &SQLStorage{db: db, driver: driver}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(context.Background(), "База данных инициализирована", "driver", driver)
	return s, nil
}

// ensureSQLiteDir создает каталог для файла SQLite, иначе драйвер не откроет базу
func ensureSQLiteDir(driver, dsn string) error {
	if driver == "mysql" {
		return nil
	}
	path := sqliteFilePath(dsn)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ошибка создания директории для БД: %w", err)
	}
	return nil
}

// sqliteFilePath достает путь к файлу из DSN ("file:" и параметры отбрасываются).
// Для баз в памяти возвращает пустую строку.
func sqliteFilePath(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

// Migrate создает таблицу задач, если её ещё нет
func (s *SQLStorage) Migrate(ctx context.Context) error {
	createTasksTable := `
	CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`

	if _, err := s.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("ошибка создания таблицы tasks: %w", err)
	}
	return nil
}

// Закрытие соединения
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT id, title, description, completed FROM tasks WHERE id = ?`

	var task models.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.Title, &task.Description, &task.Completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("задача с ID %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &task, nil
}

func (s *SQLStorage) SaveTask(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return errors.New("нельзя сохранить задачу без ID")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.upsertQuery(),
		task.ID, task.Title, task.Description, task.Completed, now, now,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения задачи %s: %w", task.ID, err)
	}
	return nil
}

// upsertQuery - синтаксис upsert отличается у SQLite и MySQL
func (s *SQLStorage) upsertQuery() string {
	if s.driver == "mysql" {
		return `
	INSERT INTO tasks (id, title, description, completed, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		title = VALUES(title),
		description = VALUES(description),
		completed = VALUES(completed),
		updated_at = VALUES(updated_at)`
	}
	return `
	INSERT INTO tasks (id, title, description, completed, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		completed = excluded.completed,
		updated_at = excluded.updated_at`
}

func (s *SQLStorage) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	query := `SELECT id, title, description, completed FROM tasks ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Вспомогательная функция для сканирования задач
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Completed); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLStorage) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(result, id)
}

func (s *SQLStorage) CompleteTask(ctx context.Context, id string, completed bool) error {
	query := "UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, completed, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("задача с ID %s: %w", id, ErrNotFound)
	}
	return nil
}
