// Package app содержит основную логику TUI приложения
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/tui/editor"
	tuiPlayer "github.com/hazadus/artistmusic/internal/tui/player"
	"github.com/hazadus/artistmusic/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран списка песен
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран плеера
	PlayerScreen
	// EditorScreen - экран редактирования
	EditorScreen
)

// Library объединяет операции библиотеки, которые используют экраны
type Library interface {
	tracklist.Library
	editor.SongUpdater
}

// MainModel представляет главную модель TUI
type MainModel struct {
	library        Library
	controller     tuiPlayer.Controller
	seekStep       time.Duration
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	editorModel    *editor.Model
}

// NewMainModel создает новую главную модель
func NewMainModel(library Library, controller tuiPlayer.Controller, seekStep time.Duration) *MainModel {
	return &MainModel{
		library:        library,
		controller:     controller,
		seekStep:       seekStep,
		currentScreen:  TracklistScreen,
		tracklistModel: tracklist.NewModel(library),
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return m.tracklistModel.Init()
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.controller.Stop()
			return m, tea.Quit
		}

	case tracklist.SongSelectedMsg:
		m.currentScreen = PlayerScreen
		m.playerModel = tuiPlayer.NewModel(m.controller, msg.Songs, msg.Index, m.seekStep)
		m.playerModel.SetArtistNames(lo.SliceToMap(m.library.Artists(), func(a data.Artist) (uuid.UUID, string) {
			return a.ID, a.Name
		}))
		return m, m.playerModel.Init()

	case tracklist.SongEditMsg:
		m.currentScreen = EditorScreen
		m.editorModel = editor.NewModel(m.library, msg.Song)
		return m, m.editorModel.Init()

	case tuiPlayer.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.playerModel = nil
		// Длительности песен могли обновиться во время воспроизведения
		m.tracklistModel.RefreshData()
		return m, nil

	case editor.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.editorModel = nil
		m.tracklistModel.RefreshData()
		return m, nil

	case editor.SongSavedMsg:
		// Остаемся в редакторе, пока видно сообщение об успехе
		return m, editor.GoBackLater()
	}

	return m, m.updateActive(msg)
}

// updateActive передает сообщение активной модели
func (m *MainModel) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch m.currentScreen {
	case TracklistScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)

	case PlayerScreen:
		if m.playerModel != nil {
			var updatedModel tea.Model
			updatedModel, cmd = m.playerModel.Update(msg)
			if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
				m.playerModel = playerModel
			}
		}

	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}

	return cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case TracklistScreen:
		return m.tracklistModel.View()

	case PlayerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: модель редактора не инициализирована"

	default:
		return "Неизвестный экран"
	}
}
