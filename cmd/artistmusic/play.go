package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/player"
	"github.com/hazadus/artistmusic/internal/utils"
)

const volumeStep = 0.1

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var (
		artistArg   string
		playlistArg string
		modeArg     string
	)

	cmd := &cobra.Command{
		Use:   "play [song id...]",
		Short: "Play songs, an artist or a playlist",
		Long: `Play the given songs in order. With --artist plays all songs of the artist,
with --playlist plays the playlist in its order. Without arguments plays the whole library.`,
		RunE: func(_ *cobra.Command, args []string) error {
			mode, ok := data.ParsePlaybackMode(modeArg)
			if !ok {
				return fmt.Errorf("неизвестный режим воспроизведения: %s", modeArg)
			}
			queue, err := app.buildQueue(args, artistArg, playlistArg)
			if err != nil {
				return err
			}
			return app.playQueue(ctx, queue, mode)
		},
	}

	cmd.Flags().StringVar(&artistArg, "artist", "", "play all songs of this artist")
	cmd.Flags().StringVar(&playlistArg, "playlist", "", "play this playlist")
	cmd.Flags().StringVar(&modeArg, "mode", "sequential", "playback mode: sequential, shuffle, repeat-all, repeat-one")
	return cmd
}

// buildQueue собирает очередь из аргументов команды
func (app *Application) buildQueue(args []string, artistArg, playlistArg string) ([]data.Song, error) {
	var queue []data.Song

	switch {
	case playlistArg != "":
		playlist, err := app.resolvePlaylist(playlistArg)
		if err != nil {
			return nil, err
		}
		if queue, err = app.Store.PlaylistSongs(playlist.ID); err != nil {
			return nil, err
		}
	case artistArg != "":
		artist, err := app.resolveArtist(artistArg)
		if err != nil {
			return nil, err
		}
		queue = artist.Songs
	case len(args) == 0:
		queue = app.Store.Songs()
	}

	for _, arg := range args {
		song, err := app.resolveSong(arg)
		if err != nil {
			return nil, err
		}
		queue = append(queue, song)
	}

	if len(queue) == 0 {
		return nil, fmt.Errorf("нет песен для воспроизведения")
	}
	return queue, nil
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// readPlayKeys читает клавиши по одной и передает их в handle.
// Возвращает true, если пользователь нажал q, и false, когда ввод закончился.
func readPlayKeys(r io.Reader, handle func(byte)) bool {
	buffer := make([]byte, 1)
	for {
		n, err := r.Read(buffer)
		if n == 1 {
			if buffer[0] == 'q' {
				return true
			}
			handle(buffer[0])
		}
		if err != nil {
			// stdin закрыт или перенаправлен из файла: управление с клавиатуры недоступно
			return false
		}
	}
}

func (app *Application) playQueue(ctx context.Context, queue []data.Song, mode data.PlaybackMode) error {
	controller := app.Controller

	controller.SetMode(mode)
	if err := controller.SetQueue(queue); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}
	defer controller.Stop()

	fmt.Printf("🎵 В очереди песен: %d (режим: %s)\n", len(queue), mode)
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n] / [p] - следующая / предыдущая песня\n")
	fmt.Printf("   [.] / [,] - перемотка вперед / назад на %s\n", app.Config.SeekStep)
	fmt.Printf("   [m] - сменить режим, [+] / [-] - громкость\n")
	fmt.Printf("   [q] или [Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	enableRawMode()
	defer disableRawMode()

	quit := make(chan struct{})
	go func() {
		if readPlayKeys(os.Stdin, app.handlePlayKey) {
			close(quit)
		}
	}()

	var lastSong *data.Song
	for {
		select {
		case status, ok := <-controller.Updates():
			if !ok {
				return nil
			}
			if status.Song != nil && (lastSong == nil || lastSong.ID != status.Song.ID) {
				lastSong = status.Song
				app.printNowPlaying(status)
			}
			displayProgress(status)
		case <-quit:
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return nil
		case <-ctx.Done():
			fmt.Println("\n🚫 Воспроизведение остановлено")
			return nil
		}
	}
}

// handlePlayKey выполняет команду управления воспроизведением
func (app *Application) handlePlayKey(char byte) {
	controller := app.Controller
	status := controller.Status()

	var err error
	switch char {
	case ' ', '\n', '\r':
		controller.TogglePause()
	case 'n':
		err = controller.SkipForward()
	case 'p':
		err = controller.SkipBackward()
	case '.':
		err = controller.SeekBy(app.Config.SeekStep)
	case ',':
		err = controller.SeekBy(-app.Config.SeekStep)
	case 'm':
		mode := (status.Mode + 1) % (data.ModeRepeatOne + 1)
		controller.SetMode(mode)
		fmt.Printf("\r\033[K🔀 Режим: %s\n", mode)
	case '+', '=':
		controller.SetVolume(status.Volume + volumeStep)
	case '-':
		controller.SetVolume(status.Volume - volumeStep)
	}

	if err != nil {
		fmt.Printf("\r\033[K❌ %v\n", err)
	}
}

func (app *Application) printNowPlaying(status player.Status) {
	song := status.Song
	fmt.Printf("\r\033[K🎵 Сейчас играет (%d/%d):\n", status.Index+1, status.QueueLen)
	fmt.Printf("   ID: %s\n", song.ID)
	fmt.Printf("   Исполнитель: %s\n", app.artistName(song.ArtistID))
	fmt.Printf("   Название: %s\n", song.DisplayTitle())
	if song.Album != "" {
		fmt.Printf("   Альбом: %s\n", song.Album)
	}
	fmt.Println()
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(status player.Status) {
	var progress string
	if status.Total > 0 {
		percent := float64(status.Current) / float64(status.Total) * 100
		progress = fmt.Sprintf("%.1f%%", percent)
	} else {
		progress = "??%"
	}

	statusIcon := "⏱️"
	switch status.State {
	case data.StatePaused:
		statusIcon = "⏸️"
	case data.StateStopped:
		statusIcon = "⏹️"
	}

	fmt.Printf("\r\033[K%s  %s | %s / %s | 🔊 %d%% | %s",
		statusIcon,
		progress,
		utils.FormatDuration(status.Current),
		utils.FormatDuration(status.Total),
		int(status.Volume*100+0.5),
		status.Mode)
}
