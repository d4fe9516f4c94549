package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/data"
)

// Имена файлов документов в каталоге библиотеки
const (
	ArtistsFile       = "artists.json"
	SongsFile         = "songs.json"
	PlaylistsFile     = "playlists.json"
	CollaboratorsFile = "collaborators.json"
)

// document - набор документов, которые нужно перезаписать
type document uint8

const (
	docArtists document = 1 << iota
	docSongs
	docPlaylists
	docCollaborators

	docAll = docArtists | docSongs | docPlaylists | docCollaborators
)

// load читает все документы библиотеки. Отсутствующий или поврежденный документ дает пустую коллекцию.
// Возвращает true, если документы были в старом вложенном формате и их нужно перезаписать.
func (s *Store) load() (state, bool) {
	st := state{
		artists:       readDocument[data.Artist](s, ArtistsFile),
		songs:         readDocument[data.Song](s, SongsFile),
		playlists:     readDocument[data.Playlist](s, PlaylistsFile),
		collaborators: readDocument[data.Collaborator](s, CollaboratorsFile),
	}

	migrated := s.normalize(&st)
	return st, migrated
}

// readDocument читает коллекцию из документа. encoding/json оставляет уже разобранные
// элементы при ошибке, поэтому результат возвращается только при успешном разборе.
func readDocument[T any](s *Store, name string) []T {
	path := filepath.Join(s.dir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("Ошибка чтения документа библиотеки", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	if len(content) == 0 {
		return nil
	}
	var records []T
	if err := json.Unmarshal(content, &records); err != nil {
		s.logger.Error("Ошибка разбора документа библиотеки, коллекция будет пустой",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	return records
}

// normalize переносит вложенные записи старого формата в глобальные коллекции
// и отбрасывает ссылки на несуществующие записи
func (s *Store) normalize(st *state) bool {
	migrated := false

	// Дубликаты идентификаторов: остается первая запись
	st.artists = lo.UniqBy(st.artists, func(a data.Artist) uuid.UUID { return a.ID })
	st.songs = lo.UniqBy(st.songs, func(s data.Song) uuid.UUID { return s.ID })
	st.collaborators = lo.UniqBy(st.collaborators, func(c data.Collaborator) uuid.UUID { return c.ID })

	playlists := st.playlists
	st.playlists = nil
	for _, playlist := range playlists {
		if len(playlist.Songs) > 0 {
			migrated = true
		}
		st.insertPlaylist(playlist)
	}

	for i := range st.artists {
		artist := &st.artists[i]
		if len(artist.Songs) > 0 || len(artist.Playlists) > 0 {
			migrated = true
		}
		for _, song := range artist.Songs {
			song.ArtistID = data.UUIDPtr(artist.ID)
			if index := st.songIndex(song.ID); index >= 0 {
				st.songs[index].ArtistID = song.ArtistID
				continue
			}
			st.insertSong(song)
		}
		for _, playlist := range artist.Playlists {
			playlist.ArtistID = data.UUIDPtr(artist.ID)
			if index := st.playlistIndex(playlist.ID); index >= 0 {
				st.playlists[index].ArtistID = playlist.ArtistID
				continue
			}
			st.insertPlaylist(playlist)
		}
		artist.Songs = nil
		artist.Playlists = nil
	}

	for i := range st.songs {
		song := &st.songs[i]
		if !st.hasArtist(song.ArtistID) {
			s.logger.Warn("Песня ссылается на неизвестного исполнителя", zap.String("song", song.ID.String()))
			song.ArtistID = nil
			migrated = true
		}
		credits := lo.Filter(song.Credits, func(c data.SongCollaborator, _ int) bool {
			return st.collaboratorIndex(c.CollaboratorID) >= 0
		})
		if len(credits) != len(song.Credits) {
			song.Credits = credits
			migrated = true
		}
	}

	for i := range st.playlists {
		playlist := &st.playlists[i]
		if !st.hasArtist(playlist.ArtistID) {
			s.logger.Warn("Плейлист ссылается на неизвестного исполнителя", zap.String("playlist", playlist.ID.String()))
			playlist.ArtistID = nil
			migrated = true
		}
		known := lo.Filter(playlist.SongIDs, func(id uuid.UUID, _ int) bool { return st.songIndex(id) >= 0 })
		if len(known) != len(playlist.SongIDs) {
			s.logger.Warn("Плейлист содержит неизвестные песни",
				zap.String("playlist", playlist.ID.String()),
				zap.Int("dropped", len(playlist.SongIDs)-len(known)))
			playlist.SongIDs = known
			migrated = true
		}
	}

	return migrated
}

// persist записывает указанные документы состояния на диск
func (s *Store) persist(st state, docs document) error {
	if docs&docArtists != 0 {
		if err := s.writeDocument(ArtistsFile, st.artists); err != nil {
			return err
		}
	}
	if docs&docSongs != 0 {
		if err := s.writeDocument(SongsFile, st.songs); err != nil {
			return err
		}
	}
	if docs&docPlaylists != 0 {
		if err := s.writeDocument(PlaylistsFile, st.playlists); err != nil {
			return err
		}
	}
	if docs&docCollaborators != 0 {
		if err := s.writeDocument(CollaboratorsFile, st.collaborators); err != nil {
			return err
		}
	}
	return nil
}

// writeDocument атомарно записывает документ: во временный файл, затем переименование
func (s *Store) writeDocument(name string, value any) error {
	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации %s: %w", name, err)
	}
	return writeFileAtomic(filepath.Join(s.dir, name), content)
}

func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка сохранения %s: %w", path, err)
	}
	return nil
}
