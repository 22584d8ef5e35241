package main

import (
	"context"
	"log"

	"todo-mvp/internal/config"
	"todo-mvp/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Ошибка загрузки конфигурации:", err)
	}

	if cfg.Database.Driver == "memory" {
		log.Println("⚠️ Хранилище в памяти, миграция не нужна")
		return
	}

	log.Printf("🔄 Подключение к базе (%s)...", cfg.Database.Driver)

	// NewSQLStorage сам создает директорию для SQLite и таблицы
	s, err := storage.NewSQLStorage(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal("❌ Ошибка подключения:", err)
	}
	defer s.Close()

	// Повторный прогон безопасен: CREATE TABLE IF NOT EXISTS
	if err := s.Migrate(context.Background()); err != nil {
		log.Fatal("❌ Ошибка создания таблицы:", err)
	}

	log.Println("🎉 Миграция завершена успешно!")
}
