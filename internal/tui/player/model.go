// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/player"
	"github.com/hazadus/artistmusic/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	songInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// volumeStep - шаг изменения громкости
const volumeStep = 0.1

// Controller - операции очереди воспроизведения, нужные экрану
type Controller interface {
	SetQueueAt(songs []data.Song, start int) error
	Updates() <-chan player.Status
	Status() player.Status
	TogglePause()
	Stop()
	SeekBy(delta time.Duration) error
	SkipForward() error
	SkipBackward() error
	SetMode(mode data.PlaybackMode)
	SetVolume(volume float64)
}

// GoBackMsg отправляется для возврата к списку песен
type GoBackMsg struct{}

// StatusMsg содержит обновление статуса воспроизведения
type StatusMsg struct {
	Status player.Status
}

// PlaybackFinishedMsg отправляется, когда контроллер закрыт
type PlaybackFinishedMsg struct{}

// PlaybackErrorMsg отправляется при ошибке воспроизведения
type PlaybackErrorMsg struct {
	Error error
}

// Model представляет модель экрана воспроизведения
type Model struct {
	controller  Controller
	queue       []data.Song
	start       int
	seekStep    time.Duration
	artistNames map[uuid.UUID]string

	progressBar progress.Model
	status      player.Status
	error       error
	width       int
	height      int
}

// NewModel создает модель плеера, которая воспроизводит очередь songs начиная с песни start
func NewModel(controller Controller, songs []data.Song, start int, seekStep time.Duration) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		controller:  controller,
		queue:       songs,
		start:       start,
		seekStep:    seekStep,
		artistNames: map[uuid.UUID]string{},
		progressBar: prog,
	}
}

// SetArtistNames задает имена исполнителей для отображения
func (m *Model) SetArtistNames(names map[uuid.UUID]string) {
	m.artistNames = names
}

// Init запускает воспроизведение и подписку на статус
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.startPlayback(),
		m.listenForStatus(),
	)
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			// Останавливаем воспроизведение и возвращаемся к списку
			m.controller.Stop()
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case " ":
			m.controller.TogglePause()
			return m, m.refresh()

		case "n":
			return m, m.run(m.controller.SkipForward)

		case "p":
			return m, m.run(m.controller.SkipBackward)

		case "right", "l":
			return m, m.run(func() error { return m.controller.SeekBy(m.seekStep) })

		case "left", "h":
			return m, m.run(func() error { return m.controller.SeekBy(-m.seekStep) })

		case "m":
			m.controller.SetMode(nextMode(m.status.Mode))
			return m, m.refresh()

		case "+", "=":
			m.controller.SetVolume(m.status.Volume + volumeStep)
			return m, m.refresh()

		case "-":
			m.controller.SetVolume(m.status.Volume - volumeStep)
			return m, m.refresh()
		}

	case StatusMsg:
		m.status = msg.Status

		var percent float64
		if msg.Status.Total > 0 {
			percent = float64(msg.Status.Current) / float64(msg.Status.Total)
		}

		return m, tea.Batch(
			m.progressBar.SetPercent(percent),
			m.listenForStatus(),
		)

	case PlaybackFinishedMsg:
		return m, func() tea.Msg {
			return GoBackMsg{}
		}

	case PlaybackErrorMsg:
		m.error = msg.Error
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View отображает модель
func (m *Model) View() string {
	if m.error != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Ошибка воспроизведения"),
			errorStyle.Render(m.error.Error()),
			controlsStyle.Render("Нажмите 'q' или 'esc' для возврата"),
		)
	}

	title := titleStyle.Render("🎵 Воспроизведение")

	songInfo := songInfoStyle.Render("Ничего не выбрано")
	if song := m.status.Song; song != nil {
		artist := ""
		if song.ArtistID != nil {
			artist = m.artistNames[*song.ArtistID]
		}
		songInfo = songInfoStyle.Render(fmt.Sprintf(
			"🎤 %s\n🎵 %s\n💿 %s",
			artist,
			song.DisplayTitle(),
			song.Album,
		))
	}

	statusText := statusStyle.Render(fmt.Sprintf("%s %s • %s • 🔊 %d%% • %d/%d",
		statusIcon(m.status.State),
		formatStatus(m.status.State),
		m.status.Mode,
		int(m.status.Volume*100+0.5),
		m.status.Index+1,
		m.status.QueueLen,
	))

	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatDuration(m.status.Current),
		utils.FormatDuration(m.status.Total),
	)

	controls := controlsStyle.Render(
		"Пробел: пауза • n/p: следующая/предыдущая • ←/→: перемотка • m: режим • +/-: громкость • q/esc: назад",
	)

	return fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n%s\n%s\n\n%s",
		title,
		songInfo,
		statusText,
		m.progressBar.View(),
		timeText,
		controls,
	)
}

// startPlayback ставит очередь в контроллер
func (m *Model) startPlayback() tea.Cmd {
	queue, start := m.queue, m.start
	return func() tea.Msg {
		if err := m.controller.SetQueueAt(queue, start); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return nil
	}
}

// run выполняет команду контроллера и сообщает об ошибке
func (m *Model) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return nil
	}
}

// refresh немедленно запрашивает статус, не дожидаясь наблюдателя
func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Status: m.controller.Status()}
	}
}

// listenForStatus ждет следующий статус от контроллера
func (m *Model) listenForStatus() tea.Cmd {
	updates := m.controller.Updates()
	return func() tea.Msg {
		status, ok := <-updates
		if !ok {
			return PlaybackFinishedMsg{}
		}
		return StatusMsg{Status: status}
	}
}

// Вспомогательные функции

func nextMode(mode data.PlaybackMode) data.PlaybackMode {
	return (mode + 1) % (data.ModeRepeatOne + 1)
}

func statusIcon(state data.PlaybackState) string {
	switch state {
	case data.StatePlaying:
		return "▶️"
	case data.StatePaused:
		return "⏸️"
	default:
		return "⏹️"
	}
}

func formatStatus(state data.PlaybackState) string {
	switch state {
	case data.StatePlaying:
		return "Воспроизведение"
	case data.StatePaused:
		return "Пауза"
	default:
		return "Остановлено"
	}
}
