// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/artistmusic/internal/tui/app"
	tuiPlayer "github.com/hazadus/artistmusic/internal/tui/player"
)

// App представляет основное TUI приложение
type App struct {
	library    app.Library
	controller tuiPlayer.Controller
	seekStep   time.Duration
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(library app.Library, controller tuiPlayer.Controller, seekStep time.Duration) *App {
	return &App{
		library:    library,
		controller: controller,
		seekStep:   seekStep,
	}
}

// Model возвращает главную модель Bubble Tea
func (tuiApp *App) Model() *app.MainModel {
	return app.NewMainModel(tuiApp.library, tuiApp.controller, tuiApp.seekStep)
}

// Run запускает TUI приложение и останавливает воспроизведение после выхода
func (tuiApp *App) Run() error {
	p := tea.NewProgram(tuiApp.Model(), tea.WithAltScreen())

	_, err := p.Run()

	tuiApp.controller.Stop()

	return err
}
