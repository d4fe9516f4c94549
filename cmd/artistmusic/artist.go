package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/utils"
)

// createArtistCommand создает группу команд для работы с исполнителями
func (app *Application) createArtistCommand(ctx context.Context) *cobra.Command {
	artistCmd := &cobra.Command{
		Use:   "artist",
		Short: "Manage artists",
	}

	var artworkPath string
	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.addArtist(ctx, strings.Join(args, " "), artworkPath)
		},
	}
	addCmd.Flags().StringVar(&artworkPath, "artwork", "", "path to an artwork image")

	artistCmd.AddCommand(
		addCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List all artists",
			Run: func(_ *cobra.Command, _ []string) {
				app.listArtists()
			},
		},
		&cobra.Command{
			Use:   "show [artist id]",
			Short: "Show an artist with songs and playlists",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return app.showArtist(args[0])
			},
		},
		&cobra.Command{
			Use:   "rename [artist id] [name]",
			Short: "Rename an artist",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return app.renameArtist(args[0], strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "artwork [artist id] [image path]",
			Short: "Set artist artwork",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				artist, err := app.resolveArtist(args[0])
				if err != nil {
					return err
				}
				updated, err := app.Importer.SetArtistArtwork(ctx, artist.ID, args[1])
				if err != nil {
					return fmt.Errorf("ошибка установки обложки: %w", err)
				}
				fmt.Printf("🖼️  Обложка исполнителя %s: %s\n", updated.Name, updated.Artwork)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete [artist id]",
			Short: "Delete an artist with all songs and playlists",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return app.deleteArtist(args[0])
			},
		},
	)

	return artistCmd
}

func (app *Application) addArtist(ctx context.Context, name, artworkPath string) error {
	artist, err := app.Store.AddArtist(data.Artist{Name: name})
	if err != nil {
		return fmt.Errorf("ошибка добавления исполнителя: %w", err)
	}

	if artworkPath != "" {
		if artist, err = app.Importer.SetArtistArtwork(ctx, artist.ID, artworkPath); err != nil {
			return fmt.Errorf("исполнитель добавлен, но обложка не установлена: %w", err)
		}
	}

	fmt.Printf("✅ Исполнитель добавлен: %s\n", artist.Name)
	fmt.Printf("   ID: %s\n", artist.ID)
	return nil
}

func (app *Application) listArtists() {
	artists := app.Store.Artists()
	if len(artists) == 0 {
		fmt.Println("📚 Исполнителей нет. Добавьте исполнителя с помощью команды 'artist add'.")
		return
	}

	fmt.Printf("🎤 Найдено исполнителей: %d\n\n", len(artists))
	fmt.Printf("%-10s %-30s %-8s %-10s\n", "ID", "Имя", "Песен", "Плейлистов")
	fmt.Println(strings.Repeat("-", 60))

	for _, artist := range artists {
		fmt.Printf("%-10s %-30s %-8d %-10d\n",
			utils.ShortID(artist.ID),
			utils.TruncateString(artist.Name, 28),
			len(artist.Songs),
			len(artist.Playlists))
	}
}

func (app *Application) showArtist(arg string) error {
	artist, err := app.resolveArtist(arg)
	if err != nil {
		return err
	}

	fmt.Printf("🎤 %s\n", artist.Name)
	fmt.Printf("   ID: %s\n", artist.ID)
	fmt.Printf("   Обложка: %s\n", artworkLabel(artist.Artwork))
	fmt.Println()

	fmt.Printf("🎵 Песни (%d):\n", len(artist.Songs))
	for _, song := range artist.Songs {
		fmt.Printf("   %-10s %-40s %s\n",
			utils.ShortID(song.ID),
			utils.TruncateString(song.DisplayTitle(), 38),
			utils.FormatSeconds(song.Duration))
	}

	fmt.Printf("📀 Плейлисты (%d):\n", len(artist.Playlists))
	for _, playlist := range artist.Playlists {
		fmt.Printf("   %-10s %-40s песен: %d\n",
			utils.ShortID(playlist.ID),
			utils.TruncateString(playlist.Name, 38),
			len(playlist.SongIDs))
	}
	return nil
}

func (app *Application) renameArtist(arg, name string) error {
	artist, err := app.resolveArtist(arg)
	if err != nil {
		return err
	}

	update := artist
	update.Name = name
	update.Songs, update.Playlists = nil, nil
	if err := app.Store.UpdateArtist(update); err != nil {
		return fmt.Errorf("ошибка переименования исполнителя: %w", err)
	}

	fmt.Printf("✅ Исполнитель переименован: %s → %s\n", artist.Name, strings.TrimSpace(name))
	return nil
}

func (app *Application) deleteArtist(arg string) error {
	artist, err := app.resolveArtist(arg)
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем исполнителя: %s (песен: %d, плейлистов: %d)\n",
		artist.Name, len(artist.Songs), len(artist.Playlists))

	if err := app.Store.DeleteArtist(artist.ID); err != nil {
		return fmt.Errorf("ошибка удаления исполнителя: %w", err)
	}

	fmt.Println("✅ Исполнитель удален из библиотеки")
	return nil
}
