package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"todo-mvp/internal/addedit"
	"todo-mvp/internal/config"
	"todo-mvp/internal/logger"
	"todo-mvp/internal/manager"
	"todo-mvp/internal/storage"
)

// sender - часть BotAPI, которая нужна боту
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api         sender
	taskManager *manager.TaskManager
	running     atomic.Bool
}

func NewBot(token string, debug bool, tm *manager.TaskManager) (*Bot, *tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	api.Debug = debug
	log.Printf("Авторизован как %s", api.Self.UserName)

	b := newBot(api, tm)
	return b, api, nil
}

func newBot(api sender, tm *manager.TaskManager) *Bot {
	b := &Bot{
		api:         api,
		taskManager: tm,
	}
	b.running.Store(true)
	return b
}

func (b *Bot) Start(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("ошибка получения updates: %w", err)
	}

	logger.Info(ctx, "Бот запущен и слушает сообщения...")

	for {
		select {
		case <-ctx.Done():
			b.running.Store(false)
			return nil
		case update, ok := <-updates:
			if !ok {
				b.running.Store(false)
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(update.Message)
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx := logger.WithFields(context.Background(), "chatID", msg.Chat.ID)
	logger.Info(ctx, "Получено сообщение", "text", msg.Text)

	// Обрабатываем команды
	if msg.IsCommand() {
		b.handleCommand(msg.Chat.ID, msg.Command(), msg.CommandArguments())
		return
	}

	// Обычный текст - новая задача
	if strings.TrimSpace(msg.Text) != "" {
		b.addTask(msg.Chat.ID, msg.Text)
	}
}

func (b *Bot) handleCommand(chatID int64, command, args string) {
	switch command {
	case "start", "help":
		b.sendHelp(chatID)
	case "add":
		if strings.TrimSpace(args) == "" {
			b.sendMessage(chatID, "Укажите задачу после команды: /add Купить молоко | 2 литра")
			return
		}
		b.addTask(chatID, args)
	case "edit":
		b.editTask(chatID, args)
	case "show":
		b.showTask(chatID, strings.TrimSpace(args))
	case "list":
		b.listTasks(chatID)
	case "done":
		b.completeTask(chatID, strings.TrimSpace(args))
	case "delete":
		b.deleteTask(chatID, strings.TrimSpace(args))
	default:
		b.sendMessage(chatID, "Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (b *Bot) addTask(chatID int64, text string) {
	title, description := parseTaskText(text)
	view := &chatView{bot: b, chatID: chatID}
	repo := b.taskManager.Session(context.Background())

	if err := addedit.NewPresenter("", repo, view, true).SaveTask(title, description); err != nil {
		b.reportError(chatID, err)
		return
	}
	if repo.Err() != nil {
		b.reportError(chatID, repo.Err())
		return
	}
	if !view.emptyError {
		b.sendMessage(chatID, "✅ *Задача добавлена!*")
	}
}

func (b *Bot) editTask(chatID int64, args string) {
	id, title, description, ok := parseEditArgs(args)
	if !ok {
		b.sendMessage(chatID, "Укажите задачу: /edit ID новый заголовок | новое описание")
		return
	}

	view := &chatView{bot: b, chatID: chatID}
	repo := b.taskManager.Session(context.Background())
	p := addedit.NewPresenter(id, repo, view, true)
	// Сначала убеждаемся, что задача существует
	p.Start()
	if view.emptyError {
		return
	}

	if err := p.SaveTask(title, description); err != nil {
		b.reportError(chatID, err)
		return
	}
	if repo.Err() != nil {
		b.reportError(chatID, repo.Err())
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✏️ Задача `%s` обновлена", id))
}

func (b *Bot) showTask(chatID int64, id string) {
	if id == "" {
		b.sendMessage(chatID, "Укажите ID задачи: /show ID")
		return
	}

	view := &chatView{bot: b, chatID: chatID}
	addedit.NewPresenter(id, b.taskManager, view, true).Start()
	if view.emptyError {
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("*%s*\n%s", view.title, view.description))
}

func (b *Bot) listTasks(chatID int64) {
	tasks, err := b.taskManager.GetAllTasks(context.Background())
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	if len(tasks) == 0 {
		b.sendMessage(chatID, "📭 Список задач пуст")
		return
	}

	var response strings.Builder
	response.WriteString("📋 *Ваши задачи:*\n\n")
	for _, task := range tasks {
		response.WriteString(formatTask(task))
		response.WriteString("\n\n")
	}
	b.sendMessage(chatID, response.String())
}

func (b *Bot) completeTask(chatID int64, id string) {
	if id == "" {
		b.sendMessage(chatID, "Укажите ID задачи: /done ID")
		return
	}
	if err := b.taskManager.CompleteTask(context.Background(), id, true); err != nil {
		b.reportError(chatID, err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Задача `%s` отмечена выполненной!", id))
}

func (b *Bot) deleteTask(chatID int64, id string) {
	if id == "" {
		b.sendMessage(chatID, "Укажите ID задачи: /delete ID")
		return
	}
	if err := b.taskManager.DeleteTask(context.Background(), id); err != nil {
		b.reportError(chatID, err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("🗑️ Задача `%s` удалена!", id))
}

func (b *Bot) reportError(chatID int64, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(chatID, "❌ Задача не найдена")
		return
	}
	logger.Error(logger.WithFields(context.Background(), "chatID", chatID), err, "Ошибка обработки команды")
	b.sendMessage(chatID, "❌ Внутренняя ошибка, попробуйте позже")
}

func (b *Bot) sendHelp(chatID int64) {
	helpText := `🤖 *Помощь по командам*

*/add заголовок | описание* - Добавить задачу
*/edit ID заголовок | описание* - Изменить задачу
*/show ID* - Показать задачу
*/list* - Показать все задачи
*/done ID* - Отметить задачу выполненной
*/delete ID* - Удалить задачу
*/help* - Показать эту справку

Любой текст без команды тоже станет задачей.`

	b.sendMessage(chatID, helpText)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Ошибка отправки сообщения: %v", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки конфигурации")
		return
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.Info(ctx, "Запуск Telegram-бота...")

	if cfg.Telegram.Token == "" {
		logger.Error(ctx, nil, "Не задан токен бота (TODOAPP_TELEGRAM_TOKEN)")
		return
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		logger.Error(ctx, err, "Ошибка инициализации хранилища")
		return
	}
	defer store.Close()

	taskManager := manager.NewTaskManagerWithTimeout(store, cfg.Database.Timeout)

	bot, api, err := NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, taskManager)
	if err != nil {
		logger.Error(ctx, err, "Ошибка создания бота")
		return
	}

	logger.Info(ctx, "Бот успешно инициализирован")
	if err := bot.Start(ctx, api); err != nil {
		logger.Error(ctx, err, "Бот остановлен с ошибкой")
	}
}
