// Package library содержит хранилище метаданных: исполнителей, песни, плейлисты и соавторов
package library

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/logging"
)

var (
	// ErrNotFound возвращается, если запись не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrEmptyName возвращается для исполнителя, плейлиста или соавтора без имени
	ErrEmptyName = data.ErrEmptyName
	// ErrInvalidPosition возвращается при перемещении песни на недопустимую позицию
	ErrInvalidPosition = errors.New("недопустимая позиция в плейлисте")
)

// Store хранит библиотеку в памяти и синхронно сохраняет каждое изменение на диск.
// Все методы безопасны для конкурентного использования.
type Store struct {
	mu         sync.Mutex
	dir        string
	state      state
	pendingAll bool
	logger     *zap.Logger

	listenersMu sync.Mutex
	listeners   []func(ids []uuid.UUID)
}

// NewStore открывает библиотеку в указанном каталоге, создавая его при необходимости
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога библиотеки: %w", err)
	}

	s := &Store{
		dir:    dir,
		logger: logging.OrNop(logger),
	}
	s.state, s.pendingAll = s.load()

	s.logger.Info("Библиотека загружена",
		zap.String("dir", dir),
		zap.Int("artists", len(s.state.artists)),
		zap.Int("songs", len(s.state.songs)),
		zap.Int("playlists", len(s.state.playlists)),
		zap.Bool("migrated", s.pendingAll))

	return s, nil
}

// Dir возвращает каталог библиотеки
func (s *Store) Dir() string {
	return s.dir
}

// OnSongsRemoved регистрирует обработчик, вызываемый после удаления песен
func (s *Store) OnSongsRemoved(fn func(ids []uuid.UUID)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// mutate применяет изменение к копии состояния, сохраняет документы и только затем фиксирует копию.
// При ошибке состояние в памяти не меняется.
func (s *Store) mutate(docs document, fn func(st *state) error) error {
	s.mu.Lock()

	next := s.state.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}

	if s.pendingAll {
		docs = docAll
	}
	if err := s.persist(next, docs); err != nil {
		s.mu.Unlock()
		s.logger.Error("Ошибка сохранения библиотеки", zap.Error(err))
		return fmt.Errorf("ошибка сохранения библиотеки: %w", err)
	}

	removed := removedSongIDs(s.state, next)
	s.state = next
	s.pendingAll = false
	s.mu.Unlock()

	if len(removed) > 0 {
		s.notifyRemoved(removed)
	}
	return nil
}

func (s *Store) notifyRemoved(ids []uuid.UUID) {
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(ids)
	}
}

// --- Исполнители ---

// AddArtist добавляет исполнителя вместе с его вложенными песнями и плейлистами.
// Повторное добавление исполнителя с тем же идентификатором ничего не делает.
func (s *Store) AddArtist(artist data.Artist) (data.Artist, error) {
	artist.Name = strings.TrimSpace(artist.Name)
	if artist.Name == "" {
		return data.Artist{}, ErrEmptyName
	}
	if artist.ID == uuid.Nil {
		artist.ID = uuid.New()
	}

	err := s.mutate(docArtists|docSongs|docPlaylists, func(st *state) error {
		if st.artistIndex(artist.ID) >= 0 {
			return nil
		}
		if err := insertChildren(st, artist); err != nil {
			return err
		}
		record := artist
		record.Songs, record.Playlists = nil, nil
		st.artists = append(st.artists, record)
		return nil
	})
	if err != nil {
		return data.Artist{}, err
	}

	s.logger.Info("Исполнитель добавлен", zap.String("id", artist.ID.String()), zap.String("name", artist.Name))
	return s.Artist(artist.ID)
}

// UpdateArtist обновляет имя и обложку исполнителя.
// Если Songs или Playlists не nil, дочерние записи исполнителя заменяются переданными.
func (s *Store) UpdateArtist(artist data.Artist) error {
	artist.Name = strings.TrimSpace(artist.Name)
	if artist.Name == "" {
		return ErrEmptyName
	}

	return s.mutate(docArtists|docSongs|docPlaylists, func(st *state) error {
		index := st.artistIndex(artist.ID)
		if index < 0 {
			return fmt.Errorf("исполнитель %s: %w", artist.ID, ErrNotFound)
		}
		st.artists[index].Name = artist.Name
		st.artists[index].Artwork = artist.Artwork

		if artist.Songs != nil {
			keep := lo.Map(artist.Songs, func(song data.Song, _ int) uuid.UUID { return song.ID })
			stale := lo.Without(st.artistSongIDs(artist.ID), keep...)
			st.removeSongs(stale)
			st.songs = lo.Reject(st.songs, func(song data.Song, _ int) bool { return lo.Contains(keep, song.ID) })
		}
		if artist.Playlists != nil {
			st.removePlaylists(st.artistPlaylistIDs(artist.ID))
		}
		return insertChildren(st, artist)
	})
}

// insertChildren добавляет вложенные песни и плейлисты исполнителя в глобальные коллекции
func insertChildren(st *state, artist data.Artist) error {
	for _, song := range artist.Songs {
		if err := song.Validate(); err != nil {
			return err
		}
		if song.ID == uuid.Nil {
			song.ID = uuid.New()
		}
		song.ArtistID = data.UUIDPtr(artist.ID)
		if index := st.songIndex(song.ID); index >= 0 {
			st.songs[index].ArtistID = song.ArtistID
			continue
		}
		st.insertSong(song)
	}
	for _, playlist := range artist.Playlists {
		if strings.TrimSpace(playlist.Name) == "" {
			return ErrEmptyName
		}
		if playlist.ID == uuid.Nil {
			playlist.ID = uuid.New()
		}
		playlist.ArtistID = data.UUIDPtr(artist.ID)
		if err := checkSongIDs(st, playlist.SongIDs); err != nil {
			return err
		}
		st.insertPlaylist(playlist)
	}
	return nil
}

// DeleteArtist удаляет исполнителя вместе со всеми его песнями и плейлистами
func (s *Store) DeleteArtist(id uuid.UUID) error {
	err := s.mutate(docArtists|docSongs|docPlaylists, func(st *state) error {
		index := st.artistIndex(id)
		if index < 0 {
			return fmt.Errorf("исполнитель %s: %w", id, ErrNotFound)
		}
		st.removePlaylists(st.artistPlaylistIDs(id))
		st.removeSongs(st.artistSongIDs(id))
		st.artists = slices.Delete(st.artists, index, index+1)
		return nil
	})
	if err == nil {
		s.logger.Info("Исполнитель удален", zap.String("id", id.String()))
	}
	return err
}

// --- Песни ---

// AddSong добавляет песню в библиотеку и, если указан artistID, привязывает ее к исполнителю.
// Повторное добавление песни с тем же идентификатором ничего не делает.
func (s *Store) AddSong(song data.Song, artistID *uuid.UUID) (data.Song, error) {
	if err := song.Validate(); err != nil {
		return data.Song{}, err
	}
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	song.ArtistID = nil
	if artistID != nil {
		song.ArtistID = data.UUIDPtr(*artistID)
	}

	var stored data.Song
	err := s.mutate(docSongs, func(st *state) error {
		if index := st.songIndex(song.ID); index >= 0 {
			stored = st.songs[index]
			return nil
		}
		if !st.hasArtist(song.ArtistID) {
			return fmt.Errorf("исполнитель %s: %w", *song.ArtistID, ErrNotFound)
		}
		if err := checkCredits(st, song.Credits); err != nil {
			return err
		}
		st.insertSong(song)
		stored = song
		return nil
	})
	if err != nil {
		return data.Song{}, err
	}
	return stored, nil
}

// UpdateSong заменяет запись песни
func (s *Store) UpdateSong(song data.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}
	return s.mutate(docSongs, func(st *state) error {
		index := st.songIndex(song.ID)
		if index < 0 {
			return fmt.Errorf("песня %s: %w", song.ID, ErrNotFound)
		}
		if !st.hasArtist(song.ArtistID) {
			return fmt.Errorf("исполнитель %s: %w", *song.ArtistID, ErrNotFound)
		}
		if err := checkCredits(st, song.Credits); err != nil {
			return err
		}
		song.Credits = slices.Clone(song.Credits)
		st.songs[index] = song
		return nil
	})
}

// SetSongDuration сохраняет длительность песни в секундах
func (s *Store) SetSongDuration(id uuid.UUID, seconds float64) error {
	return s.mutate(docSongs, func(st *state) error {
		index := st.songIndex(id)
		if index < 0 {
			return fmt.Errorf("песня %s: %w", id, ErrNotFound)
		}
		st.songs[index].Duration = seconds
		return nil
	})
}

// DeleteSong удаляет песню из библиотеки, из списка исполнителя и из всех плейлистов.
// Если artistID указан, песня должна принадлежать этому исполнителю.
func (s *Store) DeleteSong(id uuid.UUID, artistID *uuid.UUID) error {
	err := s.mutate(docSongs|docPlaylists, func(st *state) error {
		index := st.songIndex(id)
		if index < 0 {
			return fmt.Errorf("песня %s: %w", id, ErrNotFound)
		}
		if artistID != nil && !st.songs[index].BelongsTo(*artistID) {
			return fmt.Errorf("песня %s у исполнителя %s: %w", id, *artistID, ErrNotFound)
		}
		st.removeSongs([]uuid.UUID{id})
		return nil
	})
	if err == nil {
		s.logger.Info("Песня удалена", zap.String("id", id.String()))
	}
	return err
}

// CreditSong указывает соавтора песни. Повторный вызов обновляет роль.
func (s *Store) CreditSong(songID, collaboratorID uuid.UUID, role string) error {
	return s.mutate(docSongs, func(st *state) error {
		index := st.songIndex(songID)
		if index < 0 {
			return fmt.Errorf("песня %s: %w", songID, ErrNotFound)
		}
		if st.collaboratorIndex(collaboratorID) < 0 {
			return fmt.Errorf("соавтор %s: %w", collaboratorID, ErrNotFound)
		}
		song := &st.songs[index]
		_, credit, ok := lo.FindIndexOf(song.Credits, func(c data.SongCollaborator) bool {
			return c.CollaboratorID == collaboratorID
		})
		if ok {
			song.Credits[credit].Role = role
			return nil
		}
		song.Credits = append(song.Credits, data.SongCollaborator{
			ID:             uuid.New(),
			CollaboratorID: collaboratorID,
			Role:           role,
		})
		return nil
	})
}

// UncreditSong убирает соавтора из песни
func (s *Store) UncreditSong(songID, collaboratorID uuid.UUID) error {
	return s.mutate(docSongs, func(st *state) error {
		index := st.songIndex(songID)
		if index < 0 {
			return fmt.Errorf("песня %s: %w", songID, ErrNotFound)
		}
		song := &st.songs[index]
		credits := lo.Reject(song.Credits, func(c data.SongCollaborator, _ int) bool {
			return c.CollaboratorID == collaboratorID
		})
		if len(credits) == len(song.Credits) {
			return fmt.Errorf("соавтор %s: %w", collaboratorID, ErrNotFound)
		}
		song.Credits = credits
		return nil
	})
}

// --- Плейлисты ---

// AddPlaylist добавляет плейлист и, если указан artistID, привязывает его к исполнителю.
// Вложенные песни плейлиста, которых нет в библиотеке, добавляются в нее.
func (s *Store) AddPlaylist(playlist data.Playlist, artistID *uuid.UUID) (data.Playlist, error) {
	playlist.Name = strings.TrimSpace(playlist.Name)
	if playlist.Name == "" {
		return data.Playlist{}, ErrEmptyName
	}
	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}
	playlist.ArtistID = nil
	if artistID != nil {
		playlist.ArtistID = data.UUIDPtr(*artistID)
	}
	for _, song := range playlist.Songs {
		if err := song.Validate(); err != nil {
			return data.Playlist{}, err
		}
	}

	err := s.mutate(docSongs|docPlaylists, func(st *state) error {
		if st.playlistIndex(playlist.ID) >= 0 {
			return nil
		}
		if !st.hasArtist(playlist.ArtistID) {
			return fmt.Errorf("исполнитель %s: %w", *playlist.ArtistID, ErrNotFound)
		}
		if err := checkSongIDs(st, playlist.SongIDs); err != nil {
			return err
		}
		st.insertPlaylist(playlist)
		return nil
	})
	if err != nil {
		return data.Playlist{}, err
	}
	return s.Playlist(playlist.ID)
}

// UpdatePlaylist обновляет свойства плейлиста и порядок песен
func (s *Store) UpdatePlaylist(playlist data.Playlist) error {
	playlist.Name = strings.TrimSpace(playlist.Name)
	if playlist.Name == "" {
		return ErrEmptyName
	}
	return s.mutate(docPlaylists, func(st *state) error {
		index := st.playlistIndex(playlist.ID)
		if index < 0 {
			return fmt.Errorf("плейлист %s: %w", playlist.ID, ErrNotFound)
		}
		if !st.hasArtist(playlist.ArtistID) {
			return fmt.Errorf("исполнитель %s: %w", *playlist.ArtistID, ErrNotFound)
		}
		if err := checkSongIDs(st, playlist.SongIDs); err != nil {
			return err
		}
		playlist.Songs = nil
		playlist.SongIDs = slices.Clone(playlist.SongIDs)
		st.playlists[index] = playlist
		return nil
	})
}

// DeletePlaylist удаляет плейлист. Песни плейлиста остаются в библиотеке.
// Если artistID указан, плейлист должен принадлежать этому исполнителю.
func (s *Store) DeletePlaylist(id uuid.UUID, artistID *uuid.UUID) error {
	return s.mutate(docPlaylists, func(st *state) error {
		index := st.playlistIndex(id)
		if index < 0 {
			return fmt.Errorf("плейлист %s: %w", id, ErrNotFound)
		}
		if artistID != nil && !st.playlists[index].BelongsTo(*artistID) {
			return fmt.Errorf("плейлист %s у исполнителя %s: %w", id, *artistID, ErrNotFound)
		}
		st.playlists = slices.Delete(st.playlists, index, index+1)
		return nil
	})
}

// AddSongsToPlaylist добавляет песни в конец плейлиста, пропуская уже добавленные
func (s *Store) AddSongsToPlaylist(playlistID uuid.UUID, songIDs ...uuid.UUID) error {
	return s.mutate(docPlaylists, func(st *state) error {
		index := st.playlistIndex(playlistID)
		if index < 0 {
			return fmt.Errorf("плейлист %s: %w", playlistID, ErrNotFound)
		}
		if err := checkSongIDs(st, songIDs); err != nil {
			return err
		}
		playlist := &st.playlists[index]
		for _, id := range lo.Uniq(songIDs) {
			if !lo.Contains(playlist.SongIDs, id) {
				playlist.SongIDs = append(playlist.SongIDs, id)
			}
		}
		return nil
	})
}

// RemoveSongFromPlaylist убирает песню из плейлиста, не удаляя ее из библиотеки
func (s *Store) RemoveSongFromPlaylist(playlistID, songID uuid.UUID) error {
	return s.mutate(docPlaylists, func(st *state) error {
		index := st.playlistIndex(playlistID)
		if index < 0 {
			return fmt.Errorf("плейлист %s: %w", playlistID, ErrNotFound)
		}
		playlist := &st.playlists[index]
		if !lo.Contains(playlist.SongIDs, songID) {
			return fmt.Errorf("песня %s в плейлисте: %w", songID, ErrNotFound)
		}
		playlist.SongIDs = lo.Without(playlist.SongIDs, songID)
		return nil
	})
}

// MovePlaylistSong перемещает песню плейлиста с позиции from на позицию to
func (s *Store) MovePlaylistSong(playlistID uuid.UUID, from, to int) error {
	return s.mutate(docPlaylists, func(st *state) error {
		index := st.playlistIndex(playlistID)
		if index < 0 {
			return fmt.Errorf("плейлист %s: %w", playlistID, ErrNotFound)
		}
		ids := st.playlists[index].SongIDs
		if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
			return fmt.Errorf("%w: %d -> %d (песен %d)", ErrInvalidPosition, from, to, len(ids))
		}
		id := ids[from]
		ids = slices.Delete(ids, from, from+1)
		st.playlists[index].SongIDs = slices.Insert(ids, to, id)
		return nil
	})
}

// --- Соавторы ---

// AddCollaborator добавляет соавтора
func (s *Store) AddCollaborator(collaborator data.Collaborator) (data.Collaborator, error) {
	collaborator.Name = strings.TrimSpace(collaborator.Name)
	if collaborator.Name == "" {
		return data.Collaborator{}, ErrEmptyName
	}
	if collaborator.ID == uuid.Nil {
		collaborator.ID = uuid.New()
	}
	err := s.mutate(docCollaborators, func(st *state) error {
		if st.collaboratorIndex(collaborator.ID) >= 0 {
			return nil
		}
		st.collaborators = append(st.collaborators, collaborator)
		return nil
	})
	if err != nil {
		return data.Collaborator{}, err
	}
	return collaborator, nil
}

// UpdateCollaborator обновляет имя и роль соавтора
func (s *Store) UpdateCollaborator(collaborator data.Collaborator) error {
	collaborator.Name = strings.TrimSpace(collaborator.Name)
	if collaborator.Name == "" {
		return ErrEmptyName
	}
	return s.mutate(docCollaborators, func(st *state) error {
		index := st.collaboratorIndex(collaborator.ID)
		if index < 0 {
			return fmt.Errorf("соавтор %s: %w", collaborator.ID, ErrNotFound)
		}
		st.collaborators[index] = collaborator
		return nil
	})
}

// DeleteCollaborator удаляет соавтора и все его упоминания в песнях
func (s *Store) DeleteCollaborator(id uuid.UUID) error {
	return s.mutate(docCollaborators|docSongs, func(st *state) error {
		index := st.collaboratorIndex(id)
		if index < 0 {
			return fmt.Errorf("соавтор %s: %w", id, ErrNotFound)
		}
		st.collaborators = slices.Delete(st.collaborators, index, index+1)
		for i := range st.songs {
			st.songs[i].Credits = lo.Reject(st.songs[i].Credits, func(c data.SongCollaborator, _ int) bool {
				return c.CollaboratorID == id
			})
		}
		return nil
	})
}

// --- Чтение ---

// Artists возвращает всех исполнителей с их песнями и плейлистами
func (s *Store) Artists() []data.Artist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.state.artists, func(a data.Artist, _ int) data.Artist {
		return s.state.materializeArtist(a)
	})
}

// Artist возвращает исполнителя по идентификатору
func (s *Store) Artist(id uuid.UUID) (data.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.state.artistIndex(id)
	if index < 0 {
		return data.Artist{}, fmt.Errorf("исполнитель %s: %w", id, ErrNotFound)
	}
	return s.state.materializeArtist(s.state.artists[index]), nil
}

// Songs возвращает все песни библиотеки
func (s *Store) Songs() []data.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone().songs
}

// Song возвращает песню по идентификатору
func (s *Store) Song(id uuid.UUID) (data.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.state.songIndex(id)
	if index < 0 {
		return data.Song{}, fmt.Errorf("песня %s: %w", id, ErrNotFound)
	}
	song := s.state.songs[index]
	song.Credits = slices.Clone(song.Credits)
	return song, nil
}

// ArtistSongs возвращает песни исполнителя
func (s *Store) ArtistSongs(artistID uuid.UUID) ([]data.Song, error) {
	artist, err := s.Artist(artistID)
	if err != nil {
		return nil, err
	}
	return artist.Songs, nil
}

// LibrarySongs возвращает песни, не привязанные ни к одному исполнителю
func (s *Store) LibrarySongs() []data.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Filter(s.state.songs, func(song data.Song, _ int) bool { return song.ArtistID == nil })
}

// Playlists возвращает все плейлисты с их песнями
func (s *Store) Playlists() []data.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.state.playlists, func(p data.Playlist, _ int) data.Playlist {
		return s.state.materializePlaylist(p)
	})
}

// Playlist возвращает плейлист по идентификатору
func (s *Store) Playlist(id uuid.UUID) (data.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.state.playlistIndex(id)
	if index < 0 {
		return data.Playlist{}, fmt.Errorf("плейлист %s: %w", id, ErrNotFound)
	}
	return s.state.materializePlaylist(s.state.playlists[index]), nil
}

// PlaylistSongs возвращает песни плейлиста в порядке воспроизведения
func (s *Store) PlaylistSongs(id uuid.UUID) ([]data.Song, error) {
	playlist, err := s.Playlist(id)
	if err != nil {
		return nil, err
	}
	return playlist.Songs, nil
}

// Collaborators возвращает всех соавторов
func (s *Store) Collaborators() []data.Collaborator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.collaborators)
}

// Collaborator возвращает соавтора по идентификатору
func (s *Store) Collaborator(id uuid.UUID) (data.Collaborator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.state.collaboratorIndex(id)
	if index < 0 {
		return data.Collaborator{}, fmt.Errorf("соавтор %s: %w", id, ErrNotFound)
	}
	return s.state.collaborators[index], nil
}

func checkSongIDs(st *state, ids []uuid.UUID) error {
	for _, id := range ids {
		if st.songIndex(id) < 0 {
			return fmt.Errorf("песня %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

func checkCredits(st *state, credits []data.SongCollaborator) error {
	for _, credit := range credits {
		if st.collaboratorIndex(credit.CollaboratorID) < 0 {
			return fmt.Errorf("соавтор %s: %w", credit.CollaboratorID, ErrNotFound)
		}
	}
	return nil
}
