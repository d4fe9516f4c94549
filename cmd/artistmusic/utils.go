package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/library"
)

// errAmbiguousID возвращается, если префикс подходит к нескольким записям
var errAmbiguousID = errors.New("префикс идентификатора подходит к нескольким записям")

// resolveID находит запись по полному идентификатору или его уникальному префиксу
func resolveID[T any](arg string, items []T, id func(T) uuid.UUID, kind string) (T, error) {
	var zero T
	prefix := strings.ToLower(strings.TrimSpace(arg))
	if prefix == "" {
		return zero, fmt.Errorf("не указан идентификатор: %s", kind)
	}

	if full, err := uuid.Parse(prefix); err == nil {
		if item, ok := lo.Find(items, func(item T) bool { return id(item) == full }); ok {
			return item, nil
		}
		return zero, fmt.Errorf("%s %s: %w", kind, arg, library.ErrNotFound)
	}

	matches := lo.Filter(items, func(item T, _ int) bool {
		return strings.HasPrefix(id(item).String(), prefix)
	})
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%s %s: %w", kind, arg, library.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%s %s: %w", kind, arg, errAmbiguousID)
	}
}

func (app *Application) resolveArtist(arg string) (data.Artist, error) {
	return resolveID(arg, app.Store.Artists(), func(a data.Artist) uuid.UUID { return a.ID }, "исполнитель")
}

func (app *Application) resolveSong(arg string) (data.Song, error) {
	return resolveID(arg, app.Store.Songs(), func(s data.Song) uuid.UUID { return s.ID }, "песня")
}

func (app *Application) resolvePlaylist(arg string) (data.Playlist, error) {
	return resolveID(arg, app.Store.Playlists(), func(p data.Playlist) uuid.UUID { return p.ID }, "плейлист")
}

func (app *Application) resolveCollaborator(arg string) (data.Collaborator, error) {
	return resolveID(arg, app.Store.Collaborators(), func(c data.Collaborator) uuid.UUID { return c.ID }, "соавтор")
}

// resolveArtistFlag разбирает необязательный флаг --artist
func (app *Application) resolveArtistFlag(arg string) (*uuid.UUID, error) {
	if arg == "" {
		return nil, nil
	}
	artist, err := app.resolveArtist(arg)
	if err != nil {
		return nil, err
	}
	return &artist.ID, nil
}

// artistName возвращает имя исполнителя песни или плейлиста
func (app *Application) artistName(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	artist, err := app.Store.Artist(*id)
	if err != nil {
		return "-"
	}
	return artist.Name
}

// artworkLabel показывает путь к обложке или прочерк
func artworkLabel(artwork data.Artwork) string {
	if artwork == "" {
		return "-"
	}
	return string(artwork)
}

func songIDs(songs []data.Song) []uuid.UUID {
	return lo.Map(songs, func(song data.Song, _ int) uuid.UUID { return song.ID })
}
