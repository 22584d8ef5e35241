package main

import (
	"fmt"
	"strings"

	"todo-mvp/internal/models"
)

// chatView - экран редактирования в чате Telegram
type chatView struct {
	bot    *Bot
	chatID int64

	title       string
	description string
	emptyError  bool
}

func (v *chatView) SetTitle(title string) {
	v.title = title
}

func (v *chatView) SetDescription(description string) {
	v.description = description
}

func (v *chatView) ShowEmptyTaskError() {
	v.emptyError = true
	v.bot.sendMessage(v.chatID, "❌ Задача пустая или не найдена. Нужен заголовок или описание.")
}

func (v *chatView) ShowTasksList() {
	v.bot.listTasks(v.chatID)
}

// Чат жив, пока бот работает
func (v *chatView) IsActive() bool {
	return v.bot.running.Load()
}

// parseTaskText разбирает "заголовок | описание". Без разделителя весь текст - заголовок.
func parseTaskText(text string) (title, description string) {
	title, description, _ = strings.Cut(text, "|")
	return strings.TrimSpace(title), strings.TrimSpace(description)
}

// parseEditArgs разбирает "ID заголовок | описание". Без текста после ID - ошибка:
// иначе /edit ID затер бы задачу пустой.
func parseEditArgs(args string) (id, title, description string, ok bool) {
	args = strings.TrimSpace(args)
	id, rest, _ := strings.Cut(args, " ")
	if id == "" || strings.Trim(rest, " |") == "" {
		return "", "", "", false
	}
	title, description = parseTaskText(rest)
	return id, title, description, true
}

func formatTask(task models.Task) string {
	status := "🟢"
	if task.Completed {
		status = "✅"
	}
	line := fmt.Sprintf("%s `%s`: %s", status, task.ID, task.TitleForList())
	if task.Title != "" && task.Description != "" {
		line += "\n    " + task.Description
	}
	return line
}
