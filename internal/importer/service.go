// Package importer копирует аудиофайлы и обложки в управляемое хранилище и создает записи библиотеки
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/logging"
	"github.com/hazadus/artistmusic/internal/metadata"
)

// Каталоги управляемого хранилища внутри каталога библиотеки
const (
	AudioFolder           = "AudioFiles"
	ArtistAudioFolder     = "ArtistAudio"
	ArtistArtworkFolder   = "ArtistArtworks"
	SongArtworkFolder     = "SongArtworks"
	PlaylistArtworkFolder = "PlaylistArtworks"
)

// ErrUnsupportedFormat возвращается для файлов с неподдерживаемым расширением
var ErrUnsupportedFormat = errors.New("неподдерживаемый тип аудиофайла")

var supportedExtensions = []string{".mp3", ".m4a", ".m4p", ".wav", ".aif", ".aiff"}

// IsSupported сообщает, можно ли импортировать файл с таким расширением
func IsSupported(path string) bool {
	return lo.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// SongStore - операции библиотеки, которые использует импорт
type SongStore interface {
	AddSong(song data.Song, artistID *uuid.UUID) (data.Song, error)
	Song(id uuid.UUID) (data.Song, error)
	UpdateSong(song data.Song) error
	Artists() []data.Artist
	Artist(id uuid.UUID) (data.Artist, error)
	AddArtist(artist data.Artist) (data.Artist, error)
	DeleteArtist(id uuid.UUID) error
	UpdateArtist(artist data.Artist) error
	Playlist(id uuid.UUID) (data.Playlist, error)
	UpdatePlaylist(playlist data.Playlist) error
}

// MetadataExtractor читает теги и длительность аудиофайла
type MetadataExtractor interface {
	ExtractFromFile(filePath string) metadata.TrackMetadata
	GetDuration(filePath string) (time.Duration, error)
}

// Service управляет импортом файлов в библиотеку
type Service struct {
	libraryDir        string
	store             SongStore
	metadataExtractor MetadataExtractor
	artworkMaxSize    int
	logger            *zap.Logger
}

// NewService создает новый сервис импорта. Если extractor равен nil, используется metadata.Extractor.
func NewService(libraryDir string, store SongStore, extractor MetadataExtractor, artworkMaxSize int, logger *zap.Logger) *Service {
	if extractor == nil {
		extractor = metadata.NewExtractor()
	}
	return &Service{
		libraryDir:        libraryDir,
		store:             store,
		metadataExtractor: extractor,
		artworkMaxSize:    artworkMaxSize,
		logger:            logging.OrNop(logger),
	}
}

// ImportOptions настраивает импорт песни
type ImportOptions struct {
	ArtistID       *uuid.UUID  // Исполнитель, к которому привязывается песня
	ArtistFromTags bool        // Найти или создать исполнителя по тегу, если ArtistID не задан
	Title          string      // Переопределяет название из тегов
	Version        string
	OnProgress     func(int64) // Получает число скопированных байт
}

// ImportResult содержит результат импорта
type ImportResult struct {
	Song     data.Song
	Path     string
	Size     int64
	Metadata metadata.TrackMetadata
}

// ImportSong копирует аудиофайл в хранилище и добавляет песню в библиотеку.
// При ошибке копирования запись не создается, при ошибке библиотеки скопированный файл удаляется.
func (s *Service) ImportSong(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	if !IsSupported(filePath) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(filePath))
	}

	// Проверяем существование файла
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("файл не найден: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s является каталогом", filePath)
	}

	// Извлекаем метаданные
	trackMetadata := s.metadataExtractor.ExtractFromFile(filePath)
	duration, err := s.metadataExtractor.GetDuration(filePath)
	if err != nil {
		// Длительность определит плеер при первом воспроизведении
		s.logger.Debug("Длительность не определена при импорте", zap.String("path", filePath), zap.Error(err))
		duration = 0
	}

	artistID := opts.ArtistID
	artistName := ""
	if artistID == nil && opts.ArtistFromTags {
		artistName = strings.TrimSpace(trackMetadata.Artist)
	}

	folder := AudioFolder
	if artistID != nil || artistName != "" {
		folder = ArtistAudioFolder
	}

	destPath, err := s.CopyInto(ctx, filePath, folder, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	var createdArtist *uuid.UUID
	if artistName != "" {
		artist, created, err := s.findOrCreateArtist(artistName)
		if err != nil {
			os.Remove(destPath)
			return nil, err
		}
		artistID = &artist.ID
		if created {
			createdArtist = &artist.ID
		}
	}

	song := data.Song{
		ID:        uuid.New(),
		Title:     lo.Ternary(opts.Title != "", opts.Title, trackMetadata.Title),
		Version:   opts.Version,
		AudioPath: data.AudioSource(destPath),
		Duration:  duration.Seconds(),
		Album:     trackMetadata.Album,
		Composer:  trackMetadata.Composer,
		Grouping:  trackMetadata.Grouping,
		Genre:     trackMetadata.Genre,
		Year:      trackMetadata.Year,
		BPM:       trackMetadata.BPM,
		ISRC:      trackMetadata.ISRC,
		Comments:  trackMetadata.Comment,
	}

	if trackMetadata.Picture != nil {
		artworkPath, err := s.storeImageBytes(trackMetadata.Picture.Data, song.ID.String(), SongArtworkFolder)
		if err != nil {
			s.logger.Warn("Встроенная обложка не сохранена", zap.String("path", filePath), zap.Error(err))
		} else {
			song.Artwork = data.Artwork(artworkPath)
		}
	}

	stored, err := s.store.AddSong(song, artistID)
	if err != nil {
		os.Remove(destPath)
		if song.Artwork != "" {
			os.Remove(string(song.Artwork))
		}
		if createdArtist != nil {
			if delErr := s.store.DeleteArtist(*createdArtist); delErr != nil {
				s.logger.Warn("Созданный при импорте исполнитель не удален",
					zap.String("id", createdArtist.String()), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("ошибка добавления песни в библиотеку: %w", err)
	}

	s.logger.Info("Песня импортирована",
		zap.String("id", stored.ID.String()),
		zap.String("title", stored.Title),
		zap.String("source", filePath),
		zap.String("path", destPath))

	return &ImportResult{
		Song:     stored,
		Path:     destPath,
		Size:     info.Size(),
		Metadata: trackMetadata,
	}, nil
}

// findOrCreateArtist ищет исполнителя по имени без учета регистра.
// created сообщает, что исполнитель был создан этим вызовом.
func (s *Service) findOrCreateArtist(name string) (artist data.Artist, created bool, err error) {
	if artist, ok := lo.Find(s.store.Artists(), func(a data.Artist) bool {
		return strings.EqualFold(a.Name, name)
	}); ok {
		return artist, false, nil
	}
	artist, err = s.store.AddArtist(data.Artist{Name: name})
	if err != nil {
		return data.Artist{}, false, fmt.Errorf("ошибка создания исполнителя %s: %w", name, err)
	}
	return artist, true, nil
}

// CopyInto копирует файл в каталог хранилища. При совпадении имени добавляется суффикс _1, _2 и т.д.
// Возвращает путь к копии.
func (s *Service) CopyInto(ctx context.Context, filePath, folder string, onProgress func(int64)) (string, error) {
	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	dest, destPath, err := s.createUnique(folder, filepath.Base(filePath))
	if err != nil {
		return "", err
	}

	// Создаем reader с отслеживанием прогресса
	var reader io.Reader = &contextReader{ctx: ctx, r: src}
	if onProgress != nil {
		reader = &ProgressReader{
			Reader:     reader,
			Size:       info.Size(),
			OnProgress: onProgress,
		}
	}

	if _, err := io.Copy(dest, reader); err != nil {
		dest.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("ошибка копирования %s: %w", filePath, err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("ошибка копирования %s: %w", filePath, err)
	}

	return destPath, nil
}

// createUnique создает новый файл в каталоге хранилища, подбирая свободное имя
func (s *Service) createUnique(folder, name string) (*os.File, string, error) {
	dir := filepath.Join(s.libraryDir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; ; n++ {
		path := filepath.Join(dir, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("ошибка создания файла %s: %w", path, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
}
