package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/config"
	"github.com/hazadus/artistmusic/internal/importer"
	"github.com/hazadus/artistmusic/internal/library"
	"github.com/hazadus/artistmusic/internal/logging"
	"github.com/hazadus/artistmusic/internal/metadata"
	"github.com/hazadus/artistmusic/internal/player"
)

const defaultConfigPath = "~/.artistmusic.yaml"

// Application содержит зависимости команд
type Application struct {
	Config     *config.Config
	Store      *library.Store
	Importer   *importer.Service
	Extractor  *metadata.Extractor
	Controller *player.Controller
	Logger     *zap.Logger
}

// NewApplication открывает библиотеку и связывает компоненты между собой
func NewApplication(cfg *config.Config, backend player.Backend) (*Application, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания журнала: %w", err)
	}

	store, err := library.NewStore(cfg.LibraryDir, logger.Named("library"))
	if err != nil {
		return nil, err
	}

	extractor := metadata.NewExtractor()
	imp := importer.NewService(cfg.LibraryDir, store, extractor, cfg.ArtworkMaxSize, logger.Named("importer"))

	controller := player.NewController(backend, cfg.ProgressInterval, logger.Named("player"))
	controller.SetVolume(cfg.VolumeLevel())

	// Удаленные из библиотеки песни не должны оставаться в очереди
	store.OnSongsRemoved(controller.Forget)
	// Длительность, найденная при воспроизведении, сохраняется в библиотеке
	controller.OnDuration(func(id uuid.UUID, seconds float64) {
		if err := store.SetSongDuration(id, seconds); err != nil {
			logger.Warn("Длительность песни не сохранена", zap.String("id", id.String()), zap.Error(err))
		}
	})

	return &Application{
		Config:     cfg,
		Store:      store,
		Importer:   imp,
		Extractor:  extractor,
		Controller: controller,
		Logger:     logger,
	}, nil
}

// Close останавливает воспроизведение и сбрасывает журнал
func (app *Application) Close() {
	if err := app.Controller.Close(); err != nil {
		app.Logger.Warn("Ошибка закрытия плеера", zap.Error(err))
	}
	_ = app.Logger.Sync()
}

func main() {
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		fmt.Printf("❌ Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApplication(cfg, player.NewBeepBackend())
	if err != nil {
		fmt.Printf("❌ Ошибка инициализации: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = app.createRootCommand(ctx).Execute()

	stop()
	app.Close()

	if err != nil {
		os.Exit(1)
	}
}
