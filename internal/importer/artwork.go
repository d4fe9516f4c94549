package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/data"
)

// ErrUnsupportedImage возвращается, если файл обложки не удалось декодировать
var ErrUnsupportedImage = errors.New("неподдерживаемый формат изображения")

// ImportArtwork сохраняет изображение в каталог обложек в формате PNG,
// уменьшая его до artworkMaxSize по большей стороне
func (s *Service) ImportArtwork(ctx context.Context, filePath, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return s.storeImage(file, name, folder)
}

func (s *Service) storeImageBytes(content []byte, name, folder string) (string, error) {
	return s.storeImage(bytes.NewReader(content), name, folder)
}

func (s *Service) storeImage(r io.Reader, name, folder string) (string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	maxSize := s.artworkMaxSize
	if maxSize > 0 && (bounds.Dx() > maxSize || bounds.Dy() > maxSize) {
		img = resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)
		s.logger.Debug("Обложка уменьшена",
			zap.String("format", format),
			zap.Int("width", bounds.Dx()),
			zap.Int("height", bounds.Dy()),
			zap.Int("max", maxSize))
	}

	dest, destPath, err := s.createUnique(folder, name+".png")
	if err != nil {
		return "", err
	}
	if err := png.Encode(dest, img); err != nil {
		dest.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("ошибка сохранения обложки: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("ошибка сохранения обложки: %w", err)
	}
	return destPath, nil
}

// SetArtistArtwork импортирует изображение и назначает его обложкой исполнителя
func (s *Service) SetArtistArtwork(ctx context.Context, artistID uuid.UUID, filePath string) (data.Artist, error) {
	artist, err := s.store.Artist(artistID)
	if err != nil {
		return data.Artist{}, err
	}
	path, err := s.ImportArtwork(ctx, filePath, ArtistArtworkFolder)
	if err != nil {
		return data.Artist{}, err
	}

	artist.Artwork = data.Artwork(path)
	// Дочерние записи не передаются, чтобы не заменять их
	update := artist
	update.Songs, update.Playlists = nil, nil
	if err := s.store.UpdateArtist(update); err != nil {
		os.Remove(path)
		return data.Artist{}, err
	}
	return artist, nil
}

// SetSongArtwork импортирует изображение и назначает его обложкой песни
func (s *Service) SetSongArtwork(ctx context.Context, songID uuid.UUID, filePath string) (data.Song, error) {
	song, err := s.store.Song(songID)
	if err != nil {
		return data.Song{}, err
	}
	path, err := s.ImportArtwork(ctx, filePath, SongArtworkFolder)
	if err != nil {
		return data.Song{}, err
	}

	song.Artwork = data.Artwork(path)
	if err := s.store.UpdateSong(song); err != nil {
		os.Remove(path)
		return data.Song{}, err
	}
	return song, nil
}

// SetPlaylistArtwork импортирует изображение и назначает его обложкой плейлиста
func (s *Service) SetPlaylistArtwork(ctx context.Context, playlistID uuid.UUID, filePath string) (data.Playlist, error) {
	playlist, err := s.store.Playlist(playlistID)
	if err != nil {
		return data.Playlist{}, err
	}
	path, err := s.ImportArtwork(ctx, filePath, PlaylistArtworkFolder)
	if err != nil {
		return data.Playlist{}, err
	}

	playlist.Artwork = data.Artwork(path)
	if err := s.store.UpdatePlaylist(playlist); err != nil {
		os.Remove(path)
		return data.Playlist{}, err
	}
	return playlist, nil
}
