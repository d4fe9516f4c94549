package library

import (
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hazadus/artistmusic/internal/data"
)

// state - нормализованное содержимое библиотеки.
// Исполнители и плейлисты хранятся без вложенных копий песен.
type state struct {
	artists       []data.Artist
	songs         []data.Song
	playlists     []data.Playlist
	collaborators []data.Collaborator
}

func (st state) clone() state {
	next := state{
		artists:       slices.Clone(st.artists),
		songs:         make([]data.Song, len(st.songs)),
		playlists:     make([]data.Playlist, len(st.playlists)),
		collaborators: slices.Clone(st.collaborators),
	}
	for i, song := range st.songs {
		song.Credits = slices.Clone(song.Credits)
		next.songs[i] = song
	}
	for i, playlist := range st.playlists {
		playlist.SongIDs = slices.Clone(playlist.SongIDs)
		next.playlists[i] = playlist
	}
	return next
}

func (st *state) artistIndex(id uuid.UUID) int {
	_, index, _ := lo.FindIndexOf(st.artists, func(a data.Artist) bool { return a.ID == id })
	return index
}

func (st *state) songIndex(id uuid.UUID) int {
	_, index, _ := lo.FindIndexOf(st.songs, func(s data.Song) bool { return s.ID == id })
	return index
}

func (st *state) playlistIndex(id uuid.UUID) int {
	_, index, _ := lo.FindIndexOf(st.playlists, func(p data.Playlist) bool { return p.ID == id })
	return index
}

func (st *state) collaboratorIndex(id uuid.UUID) int {
	_, index, _ := lo.FindIndexOf(st.collaborators, func(c data.Collaborator) bool { return c.ID == id })
	return index
}

func (st *state) hasArtist(id *uuid.UUID) bool {
	return id == nil || st.artistIndex(*id) >= 0
}

// removeSongs удаляет песни из глобальной коллекции и из всех плейлистов
func (st *state) removeSongs(ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	st.songs = lo.Reject(st.songs, func(s data.Song, _ int) bool {
		return lo.Contains(ids, s.ID)
	})
	for i := range st.playlists {
		st.playlists[i].SongIDs = lo.Without(st.playlists[i].SongIDs, ids...)
	}
}

func (st *state) removePlaylists(ids []uuid.UUID) {
	st.playlists = lo.Reject(st.playlists, func(p data.Playlist, _ int) bool {
		return lo.Contains(ids, p.ID)
	})
}

func (st *state) artistSongIDs(artistID uuid.UUID) []uuid.UUID {
	return lo.FilterMap(st.songs, func(s data.Song, _ int) (uuid.UUID, bool) {
		return s.ID, s.BelongsTo(artistID)
	})
}

func (st *state) artistPlaylistIDs(artistID uuid.UUID) []uuid.UUID {
	return lo.FilterMap(st.playlists, func(p data.Playlist, _ int) (uuid.UUID, bool) {
		return p.ID, p.BelongsTo(artistID)
	})
}

// insertSong добавляет песню, если песни с таким идентификатором еще нет
func (st *state) insertSong(song data.Song) bool {
	if st.songIndex(song.ID) >= 0 {
		return false
	}
	song.Credits = slices.Clone(song.Credits)
	st.songs = append(st.songs, song)
	return true
}

// insertPlaylist добавляет плейлист вместе с вложенными песнями
func (st *state) insertPlaylist(playlist data.Playlist) bool {
	if st.playlistIndex(playlist.ID) >= 0 {
		return false
	}
	for _, song := range playlist.Songs {
		st.insertSong(song)
		if !lo.Contains(playlist.SongIDs, song.ID) {
			playlist.SongIDs = append(playlist.SongIDs, song.ID)
		}
	}
	playlist.Songs = nil
	playlist.SongIDs = slices.Clone(playlist.SongIDs)
	st.playlists = append(st.playlists, playlist)
	return true
}

// songsByID возвращает песни в порядке идентификаторов, пропуская неизвестные
func (st *state) songsByID(ids []uuid.UUID) []data.Song {
	byID := lo.KeyBy(st.songs, func(s data.Song) uuid.UUID { return s.ID })
	return lo.FilterMap(ids, func(id uuid.UUID, _ int) (data.Song, bool) {
		song, ok := byID[id]
		return song, ok
	})
}

func (st *state) materializePlaylist(playlist data.Playlist) data.Playlist {
	playlist.SongIDs = slices.Clone(playlist.SongIDs)
	playlist.Songs = st.songsByID(playlist.SongIDs)
	return playlist
}

func (st *state) materializeArtist(artist data.Artist) data.Artist {
	artist.Songs = lo.Filter(st.songs, func(s data.Song, _ int) bool { return s.BelongsTo(artist.ID) })
	artist.Playlists = lo.FilterMap(st.playlists, func(p data.Playlist, _ int) (data.Playlist, bool) {
		if !p.BelongsTo(artist.ID) {
			return data.Playlist{}, false
		}
		return st.materializePlaylist(p), true
	})
	return artist
}

// removedSongIDs возвращает идентификаторы песен, которых нет в next
func removedSongIDs(prev, next state) []uuid.UUID {
	kept := lo.KeyBy(next.songs, func(s data.Song) uuid.UUID { return s.ID })
	return lo.FilterMap(prev.songs, func(s data.Song, _ int) (uuid.UUID, bool) {
		_, ok := kept[s.ID]
		return s.ID, !ok
	})
}
