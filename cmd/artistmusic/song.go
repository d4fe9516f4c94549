package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/importer"
	"github.com/hazadus/artistmusic/internal/metadata"
	"github.com/hazadus/artistmusic/internal/utils"
)

// createSongCommand создает группу команд для работы с песнями
func (app *Application) createSongCommand(ctx context.Context) *cobra.Command {
	songCmd := &cobra.Command{
		Use:   "song",
		Short: "Manage songs",
	}

	songCmd.AddCommand(
		app.createSongImportCommand(ctx),
		app.createSongListCommand(),
		app.createSongEditCommand(),
		&cobra.Command{
			Use:   "artwork [song id] [image path]",
			Short: "Set song artwork",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				song, err := app.resolveSong(args[0])
				if err != nil {
					return err
				}
				updated, err := app.Importer.SetSongArtwork(ctx, song.ID, args[1])
				if err != nil {
					return fmt.Errorf("ошибка установки обложки: %w", err)
				}
				fmt.Printf("🖼️  Обложка песни %s: %s\n", updated.DisplayTitle(), updated.Artwork)
				return nil
			},
		},
		app.createSongCreditCommand(),
		&cobra.Command{
			Use:   "delete [song id]",
			Short: "Delete a song from the library and all playlists",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return app.deleteSong(args[0])
			},
		},
	)

	return songCmd
}

func (app *Application) createSongImportCommand(ctx context.Context) *cobra.Command {
	var (
		artistArg      string
		artistFromTags bool
		title          string
		version        string
	)

	cmd := &cobra.Command{
		Use:   "import [file path...]",
		Short: "Import audio files into the library",
		Long:  `Copy audio files into the managed storage and create song records from their tags.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			artistID, err := app.resolveArtistFlag(artistArg)
			if err != nil {
				return err
			}
			if title != "" && len(args) > 1 {
				return fmt.Errorf("флаг --title можно использовать только для одного файла")
			}

			var failed int
			for _, path := range args {
				opts := importer.ImportOptions{
					ArtistID:       artistID,
					ArtistFromTags: artistFromTags,
					Title:          title,
					Version:        version,
				}
				if err := app.importSong(ctx, path, opts); err != nil {
					fmt.Printf("\n❌ %s: %v\n", path, err)
					failed++
				}
				if ctx.Err() != nil {
					return fmt.Errorf("операция отменена: %w", ctx.Err())
				}
			}
			if failed > 0 {
				return fmt.Errorf("не импортировано файлов: %d из %d", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&artistArg, "artist", "", "artist id to attach songs to")
	cmd.Flags().BoolVar(&artistFromTags, "artist-from-tags", false, "find or create the artist named in the file tags")
	cmd.Flags().StringVar(&title, "title", "", "override the title from tags")
	cmd.Flags().StringVar(&version, "version", "", "song version, e.g. Live or Remastered")

	return cmd
}

// importSong импортирует один файл с отображением прогресса копирования
func (app *Application) importSong(ctx context.Context, path string, opts importer.ImportOptions) error {
	info, err := app.Extractor.GetFileInfo(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		// Файл, который не удалось декодировать, все равно импортируется
		info = &metadata.FileInfo{}
	}

	fmt.Printf("📥 Импортируем файл:\n")
	fmt.Printf("   Файл: %s\n", path)
	if info.Size > 0 {
		fmt.Printf("   Размер: %s\n", utils.FormatFileSize(info.Size))
	}

	progressChan := make(chan int64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		startTime := time.Now()

		for progress := range progressChan {
			if progress <= 0 || info.Size <= 0 {
				continue
			}
			elapsed := time.Since(startTime)
			percentage := float64(progress) / float64(info.Size) * 100
			speed := float64(progress) / max(elapsed.Seconds(), 0.001)
			fmt.Printf("\r📊 Прогресс: %.1f%% | Скорость: %s/s | Прошло: %s",
				percentage,
				utils.FormatFileSize(int64(speed)),
				utils.FormatDuration(elapsed))
		}
	}()

	opts.OnProgress = func(bytesRead int64) {
		progressChan <- bytesRead
	}
	result, err := app.Importer.ImportSong(ctx, path, opts)

	close(progressChan)
	<-done

	if err != nil {
		return err
	}

	fmt.Printf("\n✅ Песня добавлена: %s\n", result.Song.DisplayTitle())
	fmt.Printf("   ID: %s\n", result.Song.ID)
	fmt.Printf("   Исполнитель: %s\n", app.artistName(result.Song.ArtistID))
	fmt.Printf("   Продолжительность: %s\n", utils.FormatSeconds(result.Song.Duration))
	fmt.Printf("   Файл: %s\n", result.Path)
	return nil
}

func (app *Application) createSongListCommand() *cobra.Command {
	var (
		artistArg   string
		libraryOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List songs",
		RunE: func(_ *cobra.Command, _ []string) error {
			songs := app.Store.Songs()
			switch {
			case artistArg != "":
				artist, err := app.resolveArtist(artistArg)
				if err != nil {
					return err
				}
				songs = artist.Songs
			case libraryOnly:
				songs = app.Store.LibrarySongs()
			}
			app.printSongs(songs)
			return nil
		},
	}

	cmd.Flags().StringVar(&artistArg, "artist", "", "show only songs of this artist")
	cmd.Flags().BoolVar(&libraryOnly, "library", false, "show only songs without an artist")
	return cmd
}

func (app *Application) printSongs(songs []data.Song) {
	if len(songs) == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте песни с помощью команды 'song import'.")
		return
	}

	fmt.Printf("📚 Найдено песен: %d\n\n", len(songs))
	fmt.Printf("%-10s %-25s %-35s %-20s %-10s\n",
		"ID", "Исполнитель", "Название", "Альбом", "Длительность")
	fmt.Println(strings.Repeat("-", 105))

	for _, song := range songs {
		fmt.Printf("%-10s %-25s %-35s %-20s %-10s\n",
			utils.ShortID(song.ID),
			utils.TruncateString(app.artistName(song.ArtistID), 23),
			utils.TruncateString(song.DisplayTitle(), 33),
			utils.TruncateString(song.Album, 18),
			utils.FormatSeconds(song.Duration))
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'artistmusic play [ID]' для воспроизведения песни")
}

func (app *Application) createSongEditCommand() *cobra.Command {
	var (
		title, version, album, genre, composer, grouping string
		isrc, comments, releaseDate, artistArg           string
		year                                             int
		bpm                                              float64
	)

	cmd := &cobra.Command{
		Use:   "edit [song id]",
		Short: "Edit song metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			song, err := app.resolveSong(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			set := func(name string, target *string, value string) {
				if flags.Changed(name) {
					*target = strings.TrimSpace(value)
				}
			}
			set("title", &song.Title, title)
			set("version", &song.Version, version)
			set("album", &song.Album, album)
			set("genre", &song.Genre, genre)
			set("composer", &song.Composer, composer)
			set("grouping", &song.Grouping, grouping)
			set("isrc", &song.ISRC, isrc)
			set("comments", &song.Comments, comments)
			if flags.Changed("year") {
				song.Year = year
			}
			if flags.Changed("bpm") {
				song.BPM = bpm
			}
			if flags.Changed("release-date") {
				song.ReleaseDate = nil
				if releaseDate != "" {
					parsed, err := time.Parse(time.DateOnly, releaseDate)
					if err != nil {
						return fmt.Errorf("неверная дата выпуска %q, ожидается ГГГГ-ММ-ДД: %w", releaseDate, err)
					}
					song.ReleaseDate = &parsed
				}
			}
			if flags.Changed("artist") {
				if song.ArtistID, err = app.resolveArtistFlag(artistArg); err != nil {
					return err
				}
			}

			if err := app.Store.UpdateSong(song); err != nil {
				return fmt.Errorf("ошибка обновления песни: %w", err)
			}
			fmt.Printf("✅ Песня обновлена: %s\n", song.DisplayTitle())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "song title")
	flags.StringVar(&version, "version", "", "song version")
	flags.StringVar(&album, "album", "", "album")
	flags.StringVar(&genre, "genre", "", "genre")
	flags.StringVar(&composer, "composer", "", "composer")
	flags.StringVar(&grouping, "grouping", "", "grouping")
	flags.StringVar(&isrc, "isrc", "", "ISRC code")
	flags.StringVar(&comments, "comments", "", "comments")
	flags.StringVar(&releaseDate, "release-date", "", "release date (YYYY-MM-DD), empty to clear")
	flags.StringVar(&artistArg, "artist", "", "artist id, empty to detach from artist")
	flags.IntVar(&year, "year", 0, "release year")
	flags.Float64Var(&bpm, "bpm", 0, "tempo in beats per minute")

	return cmd
}

func (app *Application) createSongCreditCommand() *cobra.Command {
	var (
		role   string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "credit [song id] [collaborator id]",
		Short: "Credit a collaborator on a song",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			song, err := app.resolveSong(args[0])
			if err != nil {
				return err
			}
			collaborator, err := app.resolveCollaborator(args[1])
			if err != nil {
				return err
			}

			if remove {
				if err := app.Store.UncreditSong(song.ID, collaborator.ID); err != nil {
					return fmt.Errorf("ошибка удаления соавтора: %w", err)
				}
				fmt.Printf("✅ %s больше не указан в песне %s\n", collaborator.Name, song.DisplayTitle())
				return nil
			}

			if err := app.Store.CreditSong(song.ID, collaborator.ID, role); err != nil {
				return fmt.Errorf("ошибка указания соавтора: %w", err)
			}
			fmt.Printf("✅ %s (%s) указан в песне %s\n",
				collaborator.Name, lo.Ternary(role != "", role, collaborator.Role), song.DisplayTitle())
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "role on this song, overrides the collaborator's default role")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the credit instead of adding it")
	return cmd
}

func (app *Application) deleteSong(arg string) error {
	song, err := app.resolveSong(arg)
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем песню: %s\n", song.DisplayTitle())
	if err := app.Store.DeleteSong(song.ID, nil); err != nil {
		return fmt.Errorf("ошибка удаления песни: %w", err)
	}

	fmt.Println("✅ Песня удалена из библиотеки")
	return nil
}
