// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat возвращается, если длительность файла нельзя определить
var ErrUnsupportedFormat = errors.New("формат не поддерживается для декодирования")

// Picture - встроенная обложка
type Picture struct {
	MIMEType string
	Ext      string
	Data     []byte
}

// TrackMetadata хранит метаданные трека
type TrackMetadata struct {
	Artist   string
	Title    string
	Album    string
	Composer string
	Grouping string
	Genre    string
	Year     string
	BPM      float64
	ISRC     string
	Comment  string
	Picture  *Picture
}

// FileInfo содержит информацию о файле
type FileInfo struct {
	Size     int64
	Duration time.Duration
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromReader извлекает метаданные из io.Reader
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackMetadata {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultMetadata(source)
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil {
		return e.getDefaultMetadata(source)
	}

	result := TrackMetadata{
		Artist:   metadata.Artist(),
		Title:    metadata.Title(),
		Album:    metadata.Album(),
		Composer: metadata.Composer(),
		Genre:    metadata.Genre(),
		Comment:  metadata.Comment(),
	}
	if year := metadata.Year(); year > 0 {
		result.Year = strconv.Itoa(year)
	}
	if picture := metadata.Picture(); picture != nil && len(picture.Data) > 0 {
		result.Picture = &Picture{
			MIMEType: picture.MIMEType,
			Ext:      picture.Ext,
			Data:     picture.Data,
		}
	}

	raw := metadata.Raw()
	result.Grouping = rawString(raw, "TIT1", "TT1", "\xa9grp")
	result.ISRC = rawString(raw, "TSRC", "TRC", "isrc")
	result.BPM = rawFloat(raw, "TBPM", "TBP", "tmpo")

	if result.Title == "" {
		fallback := e.getDefaultMetadata(source)
		result.Title = fallback.Title
		if result.Artist == "" {
			result.Artist = fallback.Artist
		}
	}
	return result
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) TrackMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultMetadata(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// GetDuration получает длительность MP3 или WAV файла
func (e *Extractor) GetDuration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	streamer, format, err := Decode(file, filePath)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	// Вычисляем длительность
	return format.SampleRate.D(streamer.Len()), nil
}

// Decode выбирает декодер beep по расширению файла
func Decode(file *os.File, filePath string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		streamer, format, err := mp3.Decode(file)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ошибка декодирования MP3: %w", err)
		}
		return streamer, format, nil
	case ".wav":
		streamer, format, err := wav.Decode(file)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ошибка декодирования WAV: %w", err)
		}
		return streamer, format, nil
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
}

// GetFileInfo получает информацию о файле (размер и длительность).
// Для форматов, которые нельзя декодировать, длительность равна нулю.
func (e *Extractor) GetFileInfo(filePath string) (*FileInfo, error) {
	// Получаем размер файла
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	// Для форматов без декодера длительность остается неизвестной
	duration, err := e.GetDuration(filePath)
	if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}

	return &FileInfo{
		Size:     fileInfo.Size(),
		Duration: duration,
	}, nil
}

// getDefaultMetadata возвращает метаданные по умолчанию на основе имени файла
func (e *Extractor) getDefaultMetadata(source string) TrackMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	// Исполнитель неизвестен, название берем из имени файла
	return TrackMetadata{
		Title: nameWithoutExt,
	}
}

func rawString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func rawFloat(raw map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch value := raw[key].(type) {
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				return f
			}
		case int:
			return float64(value)
		}
	}
	return 0
}
