package importer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/library"
	"github.com/hazadus/artistmusic/internal/metadata"
)

// MockMetadataExtractor мок для извлечения метаданных
type MockMetadataExtractor struct {
	extractFunc  func(filePath string) metadata.TrackMetadata
	durationFunc func(filePath string) (time.Duration, error)
}

func (m *MockMetadataExtractor) ExtractFromFile(filePath string) metadata.TrackMetadata {
	if m.extractFunc == nil {
		name := filepath.Base(filePath)
		return metadata.TrackMetadata{Title: strings.TrimSuffix(name, filepath.Ext(name))}
	}
	return m.extractFunc(filePath)
}

func (m *MockMetadataExtractor) GetDuration(filePath string) (time.Duration, error) {
	if m.durationFunc == nil {
		return 3 * time.Minute, nil
	}
	return m.durationFunc(filePath)
}

// failingStore отклоняет добавление песен
type failingStore struct {
	*library.Store
}

func (f failingStore) AddSong(song data.Song, artistID *uuid.UUID) (data.Song, error) {
	return data.Song{}, errors.New("хранилище недоступно")
}

func newTestService(t *testing.T, extractor MetadataExtractor) (*Service, *library.Store, string) {
	t.Helper()
	libraryDir := t.TempDir()
	store, err := library.NewStore(libraryDir, nil)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища: %v", err)
	}
	if extractor == nil {
		extractor = &MockMetadataExtractor{}
	}
	return NewService(libraryDir, store, extractor, 1200, nil), store, libraryDir
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"song.mp3", true},
		{"SONG.MP3", true},
		{"song.m4a", true},
		{"song.m4p", true},
		{"song.wav", true},
		{"song.aif", true},
		{"song.aiff", true},
		{"notes.txt", false},
		{"song.flac", false},
		{"noext", false},
	}

	for _, test := range tests {
		if result := IsSupported(test.path); result != test.expected {
			t.Errorf("IsSupported(%s) = %v; expected %v", test.path, result, test.expected)
		}
	}
}

func TestImportSongCollision(t *testing.T) {
	service, store, libraryDir := newTestService(t, nil)
	source := filepath.Join(t.TempDir(), "track.mp3")
	writeFile(t, source, "audio")

	first, err := service.ImportSong(context.Background(), source, ImportOptions{})
	if err != nil {
		t.Fatalf("Ошибка первого импорта: %v", err)
	}
	second, err := service.ImportSong(context.Background(), source, ImportOptions{})
	if err != nil {
		t.Fatalf("Ошибка второго импорта: %v", err)
	}

	if first.Path != filepath.Join(libraryDir, AudioFolder, "track.mp3") {
		t.Errorf("Неожиданный путь первой копии: %s", first.Path)
	}
	if second.Path != filepath.Join(libraryDir, AudioFolder, "track_1.mp3") {
		t.Errorf("Ожидалась копия track_1.mp3, получено: %s", second.Path)
	}
	if len(store.Songs()) != 2 {
		t.Errorf("Ожидалось 2 песни, получено %d", len(store.Songs()))
	}
	if second.Song.Title != "track" || second.Song.Duration != 180 {
		t.Errorf("Неожиданная запись песни: %+v", second.Song)
	}
	if string(second.Song.AudioPath) != second.Path {
		t.Errorf("Путь песни %s не совпадает с копией %s", second.Song.AudioPath, second.Path)
	}
}

func TestImportSongUnsupportedFormat(t *testing.T) {
	service, store, libraryDir := newTestService(t, nil)
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "text")

	_, err := service.ImportSong(context.Background(), source, ImportOptions{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Ожидалась ErrUnsupportedFormat, получено %v", err)
	}
	if len(store.Songs()) != 0 {
		t.Errorf("Запись не должна создаваться, получено %d песен", len(store.Songs()))
	}
	if _, err := os.Stat(filepath.Join(libraryDir, AudioFolder, "notes.txt")); !os.IsNotExist(err) {
		t.Errorf("Файл не должен копироваться")
	}
}

func TestImportSongMissingFile(t *testing.T) {
	service, store, _ := newTestService(t, nil)

	_, err := service.ImportSong(context.Background(), "/non/existent/song.mp3", ImportOptions{})
	if err == nil {
		t.Fatal("Ожидалась ошибка для несуществующего файла")
	}
	if len(store.Songs()) != 0 {
		t.Errorf("Запись не должна создаваться")
	}
}

func TestImportSongStoreFailureRemovesCopy(t *testing.T) {
	libraryDir := t.TempDir()
	store, err := library.NewStore(libraryDir, nil)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища: %v", err)
	}
	service := NewService(libraryDir, failingStore{store}, &MockMetadataExtractor{}, 0, nil)

	source := filepath.Join(t.TempDir(), "song.mp3")
	writeFile(t, source, "audio")

	if _, err := service.ImportSong(context.Background(), source, ImportOptions{}); err == nil {
		t.Fatal("Ожидалась ошибка хранилища")
	}
	entries, _ := os.ReadDir(filepath.Join(libraryDir, AudioFolder))
	if len(entries) != 0 {
		t.Errorf("Скопированный файл должен быть удален, найдено %d файлов", len(entries))
	}
}

func TestImportSongStoreFailureRemovesCreatedArtist(t *testing.T) {
	libraryDir := t.TempDir()
	store, err := library.NewStore(libraryDir, nil)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища: %v", err)
	}
	existing, _ := store.AddArtist(data.Artist{Name: "Portishead"})
	extractor := &MockMetadataExtractor{
		extractFunc: func(filePath string) metadata.TrackMetadata {
			return metadata.TrackMetadata{Artist: "Massive Attack", Title: "Teardrop"}
		},
	}
	service := NewService(libraryDir, failingStore{store}, extractor, 0, nil)

	source := filepath.Join(t.TempDir(), "teardrop.mp3")
	writeFile(t, source, "audio")

	if _, err := service.ImportSong(context.Background(), source, ImportOptions{ArtistFromTags: true}); err == nil {
		t.Fatal("Ожидалась ошибка хранилища")
	}
	artists := store.Artists()
	if len(artists) != 1 || artists[0].ID != existing.ID {
		t.Errorf("Должен остаться только прежний исполнитель, получено %+v", artists)
	}
}

func TestImportSongArtistFromTags(t *testing.T) {
	extractor := &MockMetadataExtractor{
		extractFunc: func(filePath string) metadata.TrackMetadata {
			return metadata.TrackMetadata{Artist: "Air", Title: "La femme d'argent", Album: "Moon Safari"}
		},
		durationFunc: func(filePath string) (time.Duration, error) {
			return 0, metadata.ErrUnsupportedFormat
		},
	}
	service, store, libraryDir := newTestService(t, extractor)
	existing, _ := store.AddArtist(data.Artist{Name: "air"})

	source := filepath.Join(t.TempDir(), "01.m4a")
	writeFile(t, source, "audio")

	result, err := service.ImportSong(context.Background(), source, ImportOptions{ArtistFromTags: true, Version: "Live"})
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}
	if !result.Song.BelongsTo(existing.ID) {
		t.Errorf("Песня должна принадлежать существующему исполнителю")
	}
	if len(store.Artists()) != 1 {
		t.Errorf("Новый исполнитель не должен создаваться, получено %d", len(store.Artists()))
	}
	if result.Song.Duration != 0 {
		t.Errorf("Неизвестная длительность должна быть 0, получено %v", result.Song.Duration)
	}
	if result.Song.Album != "Moon Safari" || result.Song.Version != "Live" {
		t.Errorf("Метаданные не перенесены: %+v", result.Song)
	}
	if filepath.Dir(result.Path) != filepath.Join(libraryDir, ArtistAudioFolder) {
		t.Errorf("Песня исполнителя должна копироваться в %s, получено %s", ArtistAudioFolder, result.Path)
	}
}

func TestCopyIntoCancelled(t *testing.T) {
	service, _, libraryDir := newTestService(t, nil)
	source := filepath.Join(t.TempDir(), "song.mp3")
	writeFile(t, source, "audio")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := service.CopyInto(ctx, source, AudioFolder, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Ожидалась context.Canceled, получено %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(libraryDir, AudioFolder))
	if len(entries) != 0 {
		t.Errorf("Незавершенная копия должна быть удалена")
	}
}

func TestCopyIntoProgress(t *testing.T) {
	service, _, _ := newTestService(t, nil)
	source := filepath.Join(t.TempDir(), "song.mp3")
	writeFile(t, source, strings.Repeat("x", 4096))

	var last int64
	if _, err := service.CopyInto(context.Background(), source, AudioFolder, func(n int64) { last = n }); err != nil {
		t.Fatalf("Ошибка копирования: %v", err)
	}
	if last != 4096 {
		t.Errorf("Ожидался прогресс 4096 байт, получено %d", last)
	}
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		img.Set(x, x%height, color.RGBA{R: 200, A: 255})
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Ошибка создания изображения: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Ошибка кодирования изображения: %v", err)
	}
}

func TestImportArtworkResizes(t *testing.T) {
	service, _, libraryDir := newTestService(t, nil)
	source := filepath.Join(t.TempDir(), "cover.png")
	writePNG(t, source, 2400, 1200)

	path, err := service.ImportArtwork(context.Background(), source, ArtistArtworkFolder)
	if err != nil {
		t.Fatalf("Ошибка импорта обложки: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(libraryDir, ArtistArtworkFolder) {
		t.Errorf("Неожиданный каталог обложки: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Ошибка открытия обложки: %v", err)
	}
	defer file.Close()
	config, err := png.DecodeConfig(file)
	if err != nil {
		t.Fatalf("Ошибка чтения обложки: %v", err)
	}
	if config.Width != 1200 || config.Height != 600 {
		t.Errorf("Ожидался размер 1200x600, получено %dx%d", config.Width, config.Height)
	}
}

func TestImportArtworkInvalidImage(t *testing.T) {
	service, _, _ := newTestService(t, nil)
	source := filepath.Join(t.TempDir(), "cover.png")
	writeFile(t, source, "not an image")

	if _, err := service.ImportArtwork(context.Background(), source, SongArtworkFolder); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Ожидалась ErrUnsupportedImage, получено %v", err)
	}
}

func TestSetPlaylistArtwork(t *testing.T) {
	service, store, _ := newTestService(t, nil)
	playlist, _ := store.AddPlaylist(data.Playlist{Name: "Covers"}, nil)
	source := filepath.Join(t.TempDir(), "art.png")
	writePNG(t, source, 100, 100)

	updated, err := service.SetPlaylistArtwork(context.Background(), playlist.ID, source)
	if err != nil {
		t.Fatalf("Ошибка назначения обложки: %v", err)
	}
	stored, _ := store.Playlist(playlist.ID)
	if stored.Artwork == "" || stored.Artwork != updated.Artwork {
		t.Errorf("Обложка плейлиста не сохранена: %q", stored.Artwork)
	}
}

func TestSetArtistArtworkKeepsSongs(t *testing.T) {
	service, store, _ := newTestService(t, nil)
	artist, _ := store.AddArtist(data.Artist{Name: "Moby"})
	song, _ := store.AddSong(data.Song{Title: "Porcelain", AudioPath: "/a.mp3"}, &artist.ID)
	source := filepath.Join(t.TempDir(), "moby.png")
	writePNG(t, source, 50, 50)

	if _, err := service.SetArtistArtwork(context.Background(), artist.ID, source); err != nil {
		t.Fatalf("Ошибка назначения обложки: %v", err)
	}
	songs, _ := store.ArtistSongs(artist.ID)
	if len(songs) != 1 || songs[0].ID != song.ID {
		t.Errorf("Песни исполнителя изменились: %+v", songs)
	}
}
