package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/player"
	"github.com/hazadus/artistmusic/internal/tui/editor"
	tuiPlayer "github.com/hazadus/artistmusic/internal/tui/player"
	"github.com/hazadus/artistmusic/internal/tui/tracklist"
)

type mockLibrary struct {
	songs []data.Song
}

func (m *mockLibrary) Songs() []data.Song                   { return m.songs }
func (m *mockLibrary) Artists() []data.Artist               { return nil }
func (m *mockLibrary) DeleteSong(uuid.UUID, *uuid.UUID) error { return nil }
func (m *mockLibrary) UpdateSong(data.Song) error           { return nil }

type mockController struct {
	stopped bool
	updates chan player.Status
}

func (m *mockController) SetQueueAt([]data.Song, int) error { return nil }
func (m *mockController) Updates() <-chan player.Status     { return m.updates }
func (m *mockController) Status() player.Status             { return player.Status{} }
func (m *mockController) TogglePause()                      {}
func (m *mockController) Stop()                             { m.stopped = true }
func (m *mockController) SeekBy(time.Duration) error        { return nil }
func (m *mockController) SkipForward() error                { return nil }
func (m *mockController) SkipBackward() error               { return nil }
func (m *mockController) SetMode(data.PlaybackMode)         {}
func (m *mockController) SetVolume(float64)                 {}

func newTestModel() (*MainModel, *mockLibrary, *mockController) {
	library := &mockLibrary{songs: []data.Song{{ID: uuid.New(), Title: "Test Song"}}}
	controller := &mockController{updates: make(chan player.Status, 1)}
	return NewMainModel(library, controller, time.Second), library, controller
}

func TestMainModelRouting(t *testing.T) {
	model, library, controller := newTestModel()

	if model.currentScreen != TracklistScreen {
		t.Errorf("Expected initial screen to be TracklistScreen, got %v", model.currentScreen)
	}
	if model.playerModel != nil {
		t.Error("Expected playerModel to be nil initially")
	}

	model.Update(tracklist.SongSelectedMsg{Songs: library.songs, Index: 0})
	if model.currentScreen != PlayerScreen {
		t.Errorf("Expected PlayerScreen after SongSelectedMsg, got %v", model.currentScreen)
	}
	if model.playerModel == nil {
		t.Fatal("Expected playerModel to be initialized")
	}

	model.Update(tuiPlayer.GoBackMsg{})
	if model.currentScreen != TracklistScreen {
		t.Errorf("Expected TracklistScreen after GoBackMsg, got %v", model.currentScreen)
	}
	if model.playerModel != nil {
		t.Error("Expected playerModel to be nil after GoBackMsg")
	}

	model.Update(tracklist.SongEditMsg{Song: library.songs[0]})
	if model.currentScreen != EditorScreen || model.editorModel == nil {
		t.Error("Expected EditorScreen after SongEditMsg")
	}

	_, cmd := model.Update(editor.SongSavedMsg{Song: library.songs[0]})
	if cmd == nil {
		t.Error("Expected delayed return after save")
	}

	model.Update(editor.GoBackMsg{})
	if model.currentScreen != TracklistScreen || model.editorModel != nil {
		t.Error("Expected TracklistScreen after editor GoBackMsg")
	}

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("Expected tea.Quit command after Ctrl+C")
	}
	if !controller.stopped {
		t.Error("Expected controller to be stopped on exit")
	}
}

func TestMainModelView(t *testing.T) {
	model, library, _ := newTestModel()

	if view := model.View(); view == "" {
		t.Error("Expected non-empty view for tracklist screen")
	}

	model.Update(tracklist.SongSelectedMsg{Songs: library.songs, Index: 0})
	if view := model.View(); view == "" {
		t.Error("Expected non-empty view for player screen")
	}

	model.currentScreen = ScreenType(999)
	expected := "Неизвестный экран"
	if view := model.View(); view != expected {
		t.Errorf("Expected '%s' for unknown screen, got '%s'", expected, view)
	}
}
