package main

import (
	"fmt"
	"io"
)

// consoleView - экран редактирования для командной строки
type consoleView struct {
	out io.Writer

	title       string
	description string
	emptyError  bool
	listShown   bool
}

func newConsoleView(out io.Writer) *consoleView {
	return &consoleView{out: out}
}

func (v *consoleView) SetTitle(title string) {
	v.title = title
}

func (v *consoleView) SetDescription(description string) {
	v.description = description
}

func (v *consoleView) ShowEmptyTaskError() {
	v.emptyError = true
}

func (v *consoleView) ShowTasksList() {
	v.listShown = true
}

// Консольный экран живет до конца команды
func (v *consoleView) IsActive() bool {
	return true
}

func (v *consoleView) print() {
	fmt.Fprintf(v.out, "Title:       %s\n", v.title)
	fmt.Fprintf(v.out, "Description: %s\n", v.description)
}
