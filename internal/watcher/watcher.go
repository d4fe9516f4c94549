// Package watcher следит за каталогом и импортирует появляющиеся в нем аудиофайлы
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/importer"
	"github.com/hazadus/artistmusic/internal/logging"
)

// DefaultDebounce - сколько файл должен оставаться без изменений перед импортом
const DefaultDebounce = 500 * time.Millisecond

// Importer импортирует один файл
type Importer interface {
	ImportSong(ctx context.Context, filePath string, opts importer.ImportOptions) (*importer.ImportResult, error)
}

// Options настраивает наблюдение
type Options struct {
	Import       importer.ImportOptions
	Debounce     time.Duration
	RemoveSource bool // Удалять файл из каталога после успешного импорта
	ScanExisting bool // Импортировать файлы, уже лежащие в каталоге при запуске
	OnImport     func(path string, result *importer.ImportResult, err error)
}

// Watcher импортирует аудиофайлы, попадающие в каталог
type Watcher struct {
	dir      string
	importer Importer
	opts     Options
	logger   *zap.Logger
}

// minTick - нижняя граница периода проверки: time.NewTicker паникует при нулевом интервале
const minTick = time.Millisecond

// tickInterval возвращает период проверки устоявшихся файлов
func tickInterval(debounce time.Duration) time.Duration {
	return max(debounce/2, minTick)
}

// New создает наблюдателя за каталогом dir
func New(dir string, imp Importer, opts Options, logger *zap.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		importer: imp,
		opts:     opts,
		logger:   logging.OrNop(logger),
	}
}

// Run наблюдает за каталогом до отмены контекста
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания каталога %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("ошибка наблюдения за %s: %w", w.dir, err)
	}
	w.logger.Info("Наблюдение за каталогом запущено", zap.String("dir", w.dir))

	// Время последнего изменения каждого ожидающего файла
	pending := make(map[string]time.Time)

	if w.opts.ScanExisting {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("ошибка чтения каталога %s: %w", w.dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				w.track(pending, filepath.Join(w.dir, entry.Name()))
			}
		}
	}

	ticker := time.NewTicker(tickInterval(w.opts.Debounce))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.track(pending, event.Name)
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pending, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Ошибка наблюдения за каталогом", zap.Error(err))

		case now := <-ticker.C:
			for path, changed := range pending {
				if now.Sub(changed) < w.opts.Debounce {
					continue
				}
				delete(pending, path)
				w.importFile(ctx, path)
			}
		}
	}
}

func (w *Watcher) track(pending map[string]time.Time, path string) {
	if !importer.IsSupported(path) {
		w.logger.Debug("Файл пропущен: неподдерживаемый тип", zap.String("path", path))
		return
	}
	pending[path] = time.Now()
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	result, err := w.importer.ImportSong(ctx, path, w.opts.Import)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error("Ошибка импорта из каталога", zap.String("path", path), zap.Error(err))
		}
	} else if w.opts.RemoveSource {
		if err := os.Remove(path); err != nil {
			w.logger.Warn("Исходный файл не удален", zap.String("path", path), zap.Error(err))
		}
	}

	if w.opts.OnImport != nil {
		w.opts.OnImport(path, result, err)
	}
}
