// Package tui - терминальный экран редактирования задачи на bubbletea.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

type field int

const (
	fieldTitle field = iota
	fieldDescription
)

// Saver - то, что форма умеет попросить у презентера
type Saver interface {
	SaveTask(title, description string) error
}

// Form - экран редактирования задачи. Реализует addedit.View и tea.Model.
type Form struct {
	saver   Saver
	editing bool

	title       []rune
	description []rune
	focus       field

	emptyError bool
	saved      bool
	quitting   bool
	err        error
}

// NewForm создает форму. editing=true меняет заголовок экрана на "Редактирование".
func NewForm(editing bool) *Form {
	return &Form{editing: editing}
}

// SetSaver подключает презентер. Презентер создается после формы, поэтому не в конструкторе.
func (f *Form) SetSaver(s Saver) {
	f.saver = s
}

func (f *Form) SetTitle(title string) {
	f.title = []rune(title)
}

func (f *Form) SetDescription(description string) {
	f.description = []rune(description)
}

func (f *Form) ShowEmptyTaskError() {
	f.emptyError = true
}

func (f *Form) ShowTasksList() {
	f.saved = true
}

func (f *Form) IsActive() bool {
	return !f.quitting
}

// Saved - задача сохранена и экран закрыт
func (f *Form) Saved() bool {
	return f.saved
}

// Err - ошибка сохранения, если была
func (f *Form) Err() error {
	return f.err
}

func (f *Form) Init() tea.Cmd {
	return nil
}

func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		f.quitting = true
		return f, tea.Quit
	case tea.KeyCtrlS:
		return f.save()
	case tea.KeyTab, tea.KeyShiftTab:
		f.toggleFocus()
	case tea.KeyEnter:
		if f.focus == fieldTitle {
			f.focus = fieldDescription
		} else {
			f.appendRunes([]rune{'\n'})
		}
	case tea.KeyBackspace:
		f.backspace()
	case tea.KeySpace:
		f.appendRunes([]rune{' '})
	case tea.KeyRunes:
		f.appendRunes(key.Runes)
	}
	return f, nil
}

func (f *Form) save() (tea.Model, tea.Cmd) {
	if f.saver == nil {
		return f, nil
	}
	f.emptyError = false
	if err := f.saver.SaveTask(string(f.title), string(f.description)); err != nil {
		f.err = err
		f.quitting = true
		return f, tea.Quit
	}
	if f.saved {
		f.quitting = true
		return f, tea.Quit
	}
	return f, nil
}

func (f *Form) toggleFocus() {
	if f.focus == fieldTitle {
		f.focus = fieldDescription
	} else {
		f.focus = fieldTitle
	}
}

func (f *Form) current() *[]rune {
	if f.focus == fieldTitle {
		return &f.title
	}
	return &f.description
}

func (f *Form) appendRunes(r []rune) {
	cur := f.current()
	*cur = append(*cur, r...)
	f.emptyError = false
}

func (f *Form) backspace() {
	cur := f.current()
	if len(*cur) > 0 {
		*cur = (*cur)[:len(*cur)-1]
	}
}

func (f *Form) View() string {
	if f.quitting {
		return ""
	}

	var b strings.Builder
	header := "Новая задача"
	if f.editing {
		header = "Редактирование задачи"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	b.WriteString(f.renderField("Заголовок", f.title, fieldTitle))
	b.WriteString("\n")
	b.WriteString(f.renderField("Описание", f.description, fieldDescription))
	b.WriteString("\n")

	if f.emptyError {
		b.WriteString(errorStyle.Render("Задача не может быть пустой"))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab - поле • ctrl+s - сохранить • esc - выход"))
	b.WriteString("\n")
	return b.String()
}

func (f *Form) renderField(label string, value []rune, fl field) string {
	l := labelStyle.Render(label + ":")
	v := string(value)
	if f.focus == fl {
		l = focusedStyle.Render("> " + label + ":")
		v += "█"
	}
	return l + " " + v + "\n"
}
