// Package tracklist содержит модель экрана списка песен для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	errorStyle        = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("196"))
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// Library - операции библиотеки, нужные списку песен
type Library interface {
	Songs() []data.Song
	Artists() []data.Artist
	DeleteSong(id uuid.UUID, artistID *uuid.UUID) error
}

// SongSelectedMsg отправляется при выборе песни для воспроизведения.
// Songs содержит видимый список, который становится очередью.
type SongSelectedMsg struct {
	Songs []data.Song
	Index int
}

// SongEditMsg отправляется при выборе песни для редактирования
type SongEditMsg struct {
	Song data.Song
}

// songItem реализует интерфейс list.Item для песни
type songItem struct {
	song   data.Song
	artist string
}

func (i songItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.artist, i.song.DisplayTitle(), i.song.Album)
}

// songItemDelegate реализует отображение элементов списка
type songItemDelegate struct{}

func (d songItemDelegate) Height() int                             { return 1 }
func (d songItemDelegate) Spacing() int                            { return 0 }
func (d songItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d songItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(songItem)
	if !ok {
		return
	}

	// ID | Исполнитель | Название | Продолжительность
	str := fmt.Sprintf("%-8s %-20s %-50s %s",
		utils.ShortID(i.song.ID),
		utils.TruncateString(i.artist, 20),
		utils.TruncateString(i.song.DisplayTitle(), 50),
		utils.FormatSeconds(i.song.Duration))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана списка песен
type Model struct {
	list     list.Model
	library  Library
	err      error
	quitting bool
}

// NewModel создает новую модель списка песен
func NewModel(library Library) *Model {
	l := list.New(buildItems(library), songItemDelegate{}, 0, 0)
	l.Title = "Песни"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		list:    l,
		library: library,
	}
}

func buildItems(library Library) []list.Item {
	names := lo.SliceToMap(library.Artists(), func(a data.Artist) (uuid.UUID, string) {
		return a.ID, a.Name
	})
	return lo.Map(library.Songs(), func(song data.Song, _ int) list.Item {
		artist := ""
		if song.ArtistID != nil {
			artist = names[*song.ArtistID]
		}
		return songItem{song: song, artist: artist}
	})
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// RefreshData перечитывает песни из библиотеки без пересоздания модели
func (m *Model) RefreshData() {
	m.list.SetItems(buildItems(m.library))
}

// visibleSongs возвращает песни в порядке отображения с учетом фильтра
func (m *Model) visibleSongs() []data.Song {
	return lo.FilterMap(m.list.VisibleItems(), func(item list.Item, _ int) (data.Song, bool) {
		si, ok := item.(songItem)
		return si.song, ok
	})
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Оставляем место для заголовка и справки
		return m, nil

	case tea.KeyMsg:
		// Во время ввода фильтра клавиши обрабатывает список
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			item, ok := m.list.SelectedItem().(songItem)
			if !ok {
				return m, nil
			}
			songs := m.visibleSongs()
			index := lo.IndexOf(lo.Map(songs, func(s data.Song, _ int) uuid.UUID { return s.ID }), item.song.ID)
			if index < 0 {
				songs, index = []data.Song{item.song}, 0
			}
			return m, func() tea.Msg {
				return SongSelectedMsg{Songs: songs, Index: index}
			}

		case "e":
			if item, ok := m.list.SelectedItem().(songItem); ok {
				return m, func() tea.Msg {
					return SongEditMsg{Song: item.song}
				}
			}

		case "x":
			// Удаление выбранной песни из библиотеки
			if item, ok := m.list.SelectedItem().(songItem); ok {
				m.err = m.library.DeleteSong(item.song.ID, nil)
				m.RefreshData()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	view := m.list.View()
	if m.err != nil {
		view += "\n" + errorStyle.Render(fmt.Sprintf("Ошибка: %v", m.err))
	}
	extraHelp := helpStyle.Render("Enter: воспроизвести • e: редактировать • x: удалить • q: выход")
	return view + "\n" + extraHelp
}
