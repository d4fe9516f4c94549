// Package data содержит доменные записи библиотеки: исполнителей, песни, плейлисты и соавторов
package data

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyTitle возвращается, если у песни нет названия
	ErrEmptyTitle = errors.New("название песни не может быть пустым")
	// ErrNoAudio возвращается, если у песни не указан аудиофайл
	ErrNoAudio = errors.New("у песни не указан аудиофайл")
	// ErrEmptyName возвращается для исполнителя, плейлиста или соавтора без имени
	ErrEmptyName = errors.New("имя не может быть пустым")
)

// Song описывает одну песню библиотеки
type Song struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Version     string             `json:"version"`
	Artwork     Artwork            `json:"artworkURL"`
	AudioPath   AudioSource        `json:"audioURL"`
	Duration    float64            `json:"duration"` // Длительность в секундах, 0 пока неизвестна
	ArtistID    *uuid.UUID         `json:"artistID,omitempty"`
	Album       string             `json:"album,omitempty"`
	Composer    string             `json:"composer,omitempty"`
	Grouping    string             `json:"grouping,omitempty"`
	Genre       string             `json:"genre,omitempty"`
	Year        string             `json:"year,omitempty"`
	ReleaseDate *time.Time         `json:"releaseDate,omitempty"`
	BPM         float64            `json:"bpm,omitempty"`
	ISRC        string             `json:"isrc,omitempty"`
	Comments    string             `json:"comments,omitempty"`
	Credits     []SongCollaborator `json:"collaborators,omitempty"`
}

// Validate проверяет обязательные поля песни
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if s.AudioPath == "" {
		return ErrNoAudio
	}
	return nil
}

// DisplayTitle возвращает название вместе с версией, если она указана
func (s Song) DisplayTitle() string {
	if s.Version == "" {
		return s.Title
	}
	return s.Title + " (" + s.Version + ")"
}

// BelongsTo сообщает, принадлежит ли песня исполнителю
func (s Song) BelongsTo(artistID uuid.UUID) bool {
	return s.ArtistID != nil && *s.ArtistID == artistID
}

// Artist описывает исполнителя.
// Songs и Playlists заполняются хранилищем при чтении и не являются источником правды.
type Artist struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Artwork   Artwork    `json:"artworkURL"`
	Songs     []Song     `json:"songs,omitempty"`
	Playlists []Playlist `json:"playlists,omitempty"`
}

// Playlist описывает упорядоченный список песен
type Playlist struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Artwork     Artwork     `json:"artworkURL"`
	SongIDs     []uuid.UUID `json:"songIDs"`
	Songs       []Song      `json:"songs,omitempty"`
	ArtistID    *uuid.UUID  `json:"artistID,omitempty"`
	Description string      `json:"description,omitempty"`
	Genre       string      `json:"genre,omitempty"`
}

// BelongsTo сообщает, принадлежит ли плейлист исполнителю
func (p Playlist) BelongsTo(artistID uuid.UUID) bool {
	return p.ArtistID != nil && *p.ArtistID == artistID
}

// Collaborator описывает человека, участвовавшего в записи
type Collaborator struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role,omitempty"`
}

// SongCollaborator связывает песню с соавтором
type SongCollaborator struct {
	ID             uuid.UUID `json:"id"`
	CollaboratorID uuid.UUID `json:"collaboratorID"`
	Role           string    `json:"role,omitempty"` // Переопределяет роль соавтора для этой песни
}

// PlaybackState описывает состояние воспроизведения
type PlaybackState int

const (
	// StateStopped - ничего не воспроизводится
	StateStopped PlaybackState = iota
	// StatePlaying - песня воспроизводится
	StatePlaying
	// StatePaused - песня на паузе
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackMode определяет порядок перехода по очереди
type PlaybackMode int

const (
	// ModeSequential - по порядку
	ModeSequential PlaybackMode = iota
	// ModeShuffle - в случайном порядке
	ModeShuffle
	// ModeRepeatAll - повтор всей очереди
	ModeRepeatAll
	// ModeRepeatOne - повтор текущей песни
	ModeRepeatOne
)

func (m PlaybackMode) String() string {
	switch m {
	case ModeShuffle:
		return "shuffle"
	case ModeRepeatAll:
		return "repeat-all"
	case ModeRepeatOne:
		return "repeat-one"
	default:
		return "sequential"
	}
}

// ParsePlaybackMode разбирает режим воспроизведения из строки
func ParsePlaybackMode(s string) (PlaybackMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return ModeSequential, true
	case "shuffle":
		return ModeShuffle, true
	case "repeat-all", "all":
		return ModeRepeatAll, true
	case "repeat-one", "one":
		return ModeRepeatOne, true
	}
	return ModeSequential, false
}

// UUIDPtr возвращает указатель на копию идентификатора
func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
