package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/data"
)

// CleanReport описывает результат очистки ссылок на обложки
type CleanReport struct {
	Converted int      // file:// URL заменены обычными путями
	Removed   int      // ссылки на отсутствующие файлы обнулены
	Rewritten []string // перезаписанные документы
}

// CleanArtwork проходит по документам библиотеки в каталоге dir, обнуляет ссылки на
// отсутствующие обложки и переводит file:// URL в обычные пути.
// Работает с документами напрямую, поэтому подходит для каталога, который не открыт в Store.
func CleanArtwork(dir string, logger *zap.Logger) (CleanReport, error) {
	var report CleanReport

	for _, name := range []string{ArtistsFile, SongsFile, PlaylistsFile} {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("ошибка чтения %s: %w", path, err)
		}

		var records []map[string]any
		if err := json.Unmarshal(content, &records); err != nil {
			if logger != nil {
				logger.Warn("Документ пропущен при очистке обложек", zap.String("path", path), zap.Error(err))
			}
			continue
		}

		changed := false
		for _, record := range records {
			if cleanRecord(record, &report) {
				changed = true
			}
		}
		if !changed {
			continue
		}

		updated, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return report, fmt.Errorf("ошибка сериализации %s: %w", path, err)
		}
		if err := writeFileAtomic(path, updated); err != nil {
			return report, err
		}
		report.Rewritten = append(report.Rewritten, name)
	}

	return report, nil
}

// cleanRecord чистит поля записи и вложенных песен и плейлистов
func cleanRecord(record map[string]any, report *CleanReport) bool {
	changed := false

	if raw, ok := record["artworkURL"].(string); ok {
		path := data.PathFromURL(raw)
		switch {
		case path == "" || !fileExists(path):
			record["artworkURL"] = nil
			report.Removed++
			changed = true
		case path != raw:
			record["artworkURL"] = path
			report.Converted++
			changed = true
		}
	}

	if raw, ok := record["audioURL"].(string); ok {
		if path := data.PathFromURL(raw); path != raw {
			record["audioURL"] = path
			report.Converted++
			changed = true
		}
	}

	for _, key := range []string{"songs", "playlists"} {
		nested, ok := record[key].([]any)
		if !ok {
			continue
		}
		for _, item := range nested {
			if child, ok := item.(map[string]any); ok && cleanRecord(child, report) {
				changed = true
			}
		}
	}

	return changed
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
