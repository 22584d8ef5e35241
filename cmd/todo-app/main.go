package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "todo-mvp"
	"todo-mvp/internal/addedit"
	"todo-mvp/internal/config"
	"todo-mvp/internal/logger"
	"todo-mvp/internal/manager"
	"todo-mvp/internal/storage"
	"todo-mvp/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var errEmptyTask = errors.New("task must have a title or a description")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	store, err := storage.Open(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	tm := manager.NewTaskManagerWithTimeout(store, cfg.Database.Timeout)

	if err := newRootCommand(tm, cfg, os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}

func newRootCommand(tm *manager.TaskManager, cfg config.Config, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "Todo list: add, edit and list tasks",
		Long: `todo keeps a list of tasks with a title and a description.

Storage is configured with TODOAPP_DATABASE_DRIVER (memory|sqlite|sqlite3|mysql)
and TODOAPP_DATABASE_DSN, or with a todoapp.toml file (TODOAPP_CONFIG).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newAddCommand(tm),
		newEditCommand(tm),
		newShowCommand(tm),
		newListCommand(tm),
		newDoneCommand(tm),
		newDeleteCommand(tm),
		newTUICommand(tm),
		newServeCommand(tm, cfg),
	)
	return root
}

func newAddCommand(tm *manager.TaskManager) *cobra.Command {
	var title, desc string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add new task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := newConsoleView(cmd.OutOrStdout())
			repo := tm.Session(cmd.Context())
			if err := addedit.NewPresenter("", repo, view, true).SaveTask(title, desc); err != nil {
				return err
			}
			if view.emptyError {
				return errEmptyTask
			}
			if repo.Err() != nil {
				return repo.Err()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s added\n", repo.Saved().ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&desc, "desc", "", "Task description")
	return cmd
}

func newEditCommand(tm *manager.TaskManager) *cobra.Command {
	var title, desc string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit task title and/or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := newConsoleView(cmd.OutOrStdout())
			repo := tm.Session(cmd.Context())
			p := addedit.NewPresenter(args[0], repo, view, true)
			p.Start()
			if view.emptyError {
				return fmt.Errorf("task %s not found", args[0])
			}

			// Незаданные флаги оставляют текущее значение
			if cmd.Flags().Changed("title") {
				view.title = title
			}
			if cmd.Flags().Changed("desc") {
				view.description = desc
			}
			if err := p.SaveTask(view.title, view.description); err != nil {
				return err
			}
			if repo.Err() != nil {
				return repo.Err()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s updated\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New task title")
	cmd.Flags().StringVar(&desc, "desc", "", "New task description")
	return cmd
}

func newShowCommand(tm *manager.TaskManager) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := newConsoleView(cmd.OutOrStdout())
			addedit.NewPresenter(args[0], tm, view, true).Start()
			if view.emptyError {
				return fmt.Errorf("task %s not found", args[0])
			}
			view.print()
			return nil
		},
	}
}

func newListCommand(tm *manager.TaskManager) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := tm.GetAllTasks(cmd.Context())
			if err != nil {
				return err
			}

			shown := 0
			for _, task := range tasks {
				if (filter == "completed" && !task.Completed) || (filter == "pending" && task.Completed) {
					continue
				}
				status := "Pending"
				if task.Completed {
					status = "Completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s [%s]\n", task.ID, task.TitleForList(), status)
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter tasks (all|completed|pending)")
	return cmd
}

func newDoneCommand(tm *manager.TaskManager) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Mark task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tm.CompleteTask(cmd.Context(), args[0], !undo); err != nil {
				return err
			}
			if undo {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s marked as pending\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s marked as completed\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark task as pending again")
	return cmd
}

func newDeleteCommand(tm *manager.TaskManager) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tm.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s deleted\n", args[0])
			return nil
		},
	}
}

func newTUICommand(tm *manager.TaskManager) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [ID]",
		Short: "Add or edit a task in an interactive form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}

			form := tui.NewForm(id != "")
			p := addedit.NewPresenter(id, tm, form, true)
			form.SetSaver(p)
			p.Start()

			if _, err := tea.NewProgram(form).Run(); err != nil {
				return err
			}
			if form.Err() != nil {
				return form.Err()
			}
			if form.Saved() {
				fmt.Fprintln(cmd.OutOrStdout(), "Task saved")
			}
			return nil
		},
	}
}

func newServeCommand(tm *manager.TaskManager, cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           server.NewRouter(tm),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info(ctx, "HTTP сервер запущен", "addr", cfg.HTTP.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info(context.Background(), "Остановка HTTP сервера")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
