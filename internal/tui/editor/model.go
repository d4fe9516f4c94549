// Package editor содержит модель экрана редактирования метаданных песни для TUI
package editor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/utils"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// SongUpdater сохраняет изменения песни
type SongUpdater interface {
	UpdateSong(song data.Song) error
}

// SongSavedMsg отправляется когда песня успешно сохранена
type SongSavedMsg struct {
	Song data.Song
}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

// fieldType определяет тип поля для редактирования
type fieldType int

const (
	titleField fieldType = iota
	versionField
	albumField
	genreField
	composerField
	yearField
	numFields
)

var labels = []string{"Название:", "Версия:", "Альбом:", "Жанр:", "Композитор:", "Год:"}

// Model представляет модель экрана редактирования песни
type Model struct {
	store        SongUpdater
	originalSong data.Song
	inputs       []textinput.Model
	focusIndex   int
	err          string
	success      string
}

// NewModel создает новую модель редактора песни
func NewModel(store SongUpdater, song data.Song) *Model {
	inputs := make([]textinput.Model, numFields)

	placeholders := []string{
		"Введите название песни",
		"Например, Remastered",
		"Введите название альбома",
		"Введите жанр",
		"Введите композитора",
		"Год выпуска",
	}
	values := []string{song.Title, song.Version, song.Album, song.Genre, song.Composer, ""}
	if song.Year > 0 {
		values[yearField] = strconv.Itoa(song.Year)
	}

	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].SetValue(values[i])
		inputs[i].PromptStyle = blurredStyle
		inputs[i].TextStyle = blurredStyle
	}
	inputs[titleField].Focus()
	inputs[titleField].PromptStyle = focusedStyle
	inputs[titleField].TextStyle = focusedStyle

	return &Model{
		store:        store,
		originalSong: song,
		inputs:       inputs,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "ctrl+s":
			return m, m.saveSong()

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			// Enter на кнопке сохранения
			if s == "enter" && m.focusIndex == len(m.inputs) {
				return m, m.saveSong()
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].PromptStyle = focusedStyle
					m.inputs[i].TextStyle = focusedStyle
				} else {
					m.inputs[i].Blur()
					m.inputs[i].PromptStyle = blurredStyle
					m.inputs[i].TextStyle = blurredStyle
				}
			}

			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 20
		}
		return m, nil
	}

	// Обновляем активное поле ввода
	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}

	return m, nil
}

// value возвращает значение поля без пробелов по краям
func (m *Model) value(field fieldType) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

// saveSong проверяет поля и сохраняет песню в библиотеке
func (m *Model) saveSong() tea.Cmd {
	return func() tea.Msg {
		title := m.value(titleField)
		if title == "" {
			m.err = "Поле 'Название' не может быть пустым"
			m.success = ""
			return nil
		}

		year := 0
		if yearStr := m.value(yearField); yearStr != "" {
			parsed, err := strconv.Atoi(yearStr)
			if err != nil || parsed < 0 {
				m.err = "Год должен быть положительным числом"
				m.success = ""
				return nil
			}
			year = parsed
		}

		updated := m.originalSong
		updated.Title = title
		updated.Version = m.value(versionField)
		updated.Album = m.value(albumField)
		updated.Genre = m.value(genreField)
		updated.Composer = m.value(composerField)
		updated.Year = year

		if err := m.store.UpdateSong(updated); err != nil {
			m.err = fmt.Sprintf("Ошибка сохранения песни: %v", err)
			m.success = ""
			return nil
		}

		m.originalSong = updated
		m.err = ""
		m.success = "Песня успешно сохранена!"

		return SongSavedMsg{Song: updated}
	}
}

// GoBackLater возвращает к списку после короткой паузы, чтобы было видно сообщение об успехе
func GoBackLater() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return GoBackMsg{}
	})
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Редактирование песни %s", utils.ShortID(m.originalSong.ID))))
	b.WriteString("\n\n")

	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	saveButton := "[ Сохранить ]"
	if m.focusIndex == len(m.inputs) {
		saveButton = focusedStyle.Render(saveButton)
	} else {
		saveButton = blurredStyle.Render(saveButton)
	}
	b.WriteString(saveButton)
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Tab/Enter: следующее поле • Shift+Tab: предыдущее поле"))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Ctrl+S: сохранить • Esc: отмена"))

	return b.String()
}
