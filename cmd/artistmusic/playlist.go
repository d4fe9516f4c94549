package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/utils"
)

// createPlaylistCommand создает группу команд для работы с плейлистами
func (app *Application) createPlaylistCommand(ctx context.Context) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage playlists",
	}

	var (
		artistArg   string
		description string
		genre       string
	)
	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a playlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			artistID, err := app.resolveArtistFlag(artistArg)
			if err != nil {
				return err
			}
			playlist, err := app.Store.AddPlaylist(data.Playlist{
				Name:        strings.Join(args, " "),
				Description: description,
				Genre:       genre,
			}, artistID)
			if err != nil {
				return fmt.Errorf("ошибка создания плейлиста: %w", err)
			}
			fmt.Printf("✅ Плейлист создан: %s\n", playlist.Name)
			fmt.Printf("   ID: %s\n", playlist.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&artistArg, "artist", "", "artist id the playlist belongs to")
	createCmd.Flags().StringVar(&description, "description", "", "playlist description")
	createCmd.Flags().StringVar(&genre, "genre", "", "playlist genre")

	playlistCmd.AddCommand(
		createCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List all playlists",
			Run: func(_ *cobra.Command, _ []string) {
				app.listPlaylists()
			},
		},
		&cobra.Command{
			Use:   "show [playlist id]",
			Short: "Show playlist songs in playback order",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return app.showPlaylist(args[0])
			},
		},
		&cobra.Command{
			Use:   "add [playlist id] [song id...]",
			Short: "Append songs to a playlist",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				playlist, err := app.resolvePlaylist(args[0])
				if err != nil {
					return err
				}
				var songs []data.Song
				for _, arg := range args[1:] {
					song, err := app.resolveSong(arg)
					if err != nil {
						return err
					}
					songs = append(songs, song)
				}
				if err := app.Store.AddSongsToPlaylist(playlist.ID, songIDs(songs)...); err != nil {
					return fmt.Errorf("ошибка добавления песен в плейлист: %w", err)
				}
				fmt.Printf("✅ В плейлист %s добавлено песен: %d\n", playlist.Name, len(songs))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove [playlist id] [song id]",
			Short: "Remove a song from a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				playlist, err := app.resolvePlaylist(args[0])
				if err != nil {
					return err
				}
				song, err := app.resolveSong(args[1])
				if err != nil {
					return err
				}
				if err := app.Store.RemoveSongFromPlaylist(playlist.ID, song.ID); err != nil {
					return fmt.Errorf("ошибка удаления песни из плейлиста: %w", err)
				}
				fmt.Printf("✅ Песня %s убрана из плейлиста %s\n", song.DisplayTitle(), playlist.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "move [playlist id] [from] [to]",
			Short: "Move a song within a playlist (positions start at 1)",
			Args:  cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				playlist, err := app.resolvePlaylist(args[0])
				if err != nil {
					return err
				}
				from, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("неверная позиция: %s", args[1])
				}
				to, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("неверная позиция: %s", args[2])
				}
				if err := app.Store.MovePlaylistSong(playlist.ID, from-1, to-1); err != nil {
					return fmt.Errorf("ошибка перемещения песни: %w", err)
				}
				fmt.Printf("✅ Песня перемещена: %d → %d\n", from, to)
				return nil
			},
		},
		&cobra.Command{
			Use:   "artwork [playlist id] [image path]",
			Short: "Set playlist artwork",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				playlist, err := app.resolvePlaylist(args[0])
				if err != nil {
					return err
				}
				updated, err := app.Importer.SetPlaylistArtwork(ctx, playlist.ID, args[1])
				if err != nil {
					return fmt.Errorf("ошибка установки обложки: %w", err)
				}
				fmt.Printf("🖼️  Обложка плейлиста %s: %s\n", updated.Name, updated.Artwork)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete [playlist id]",
			Short: "Delete a playlist, keeping its songs",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				playlist, err := app.resolvePlaylist(args[0])
				if err != nil {
					return err
				}
				if err := app.Store.DeletePlaylist(playlist.ID, nil); err != nil {
					return fmt.Errorf("ошибка удаления плейлиста: %w", err)
				}
				fmt.Printf("✅ Плейлист %s удален\n", playlist.Name)
				return nil
			},
		},
	)

	return playlistCmd
}

func (app *Application) listPlaylists() {
	playlists := app.Store.Playlists()
	if len(playlists) == 0 {
		fmt.Println("📚 Плейлистов нет. Создайте плейлист с помощью команды 'playlist create'.")
		return
	}

	fmt.Printf("📀 Найдено плейлистов: %d\n\n", len(playlists))
	fmt.Printf("%-10s %-30s %-25s %-8s\n", "ID", "Название", "Исполнитель", "Песен")
	fmt.Println(strings.Repeat("-", 75))

	for _, playlist := range playlists {
		fmt.Printf("%-10s %-30s %-25s %-8d\n",
			utils.ShortID(playlist.ID),
			utils.TruncateString(playlist.Name, 28),
			utils.TruncateString(app.artistName(playlist.ArtistID), 23),
			len(playlist.SongIDs))
	}
}

func (app *Application) showPlaylist(arg string) error {
	playlist, err := app.resolvePlaylist(arg)
	if err != nil {
		return err
	}
	songs, err := app.Store.PlaylistSongs(playlist.ID)
	if err != nil {
		return err
	}

	fmt.Printf("📀 %s\n", playlist.Name)
	fmt.Printf("   ID: %s\n", playlist.ID)
	fmt.Printf("   Исполнитель: %s\n", app.artistName(playlist.ArtistID))
	if playlist.Description != "" {
		fmt.Printf("   Описание: %s\n", playlist.Description)
	}
	if playlist.Genre != "" {
		fmt.Printf("   Жанр: %s\n", playlist.Genre)
	}
	fmt.Printf("   Обложка: %s\n", artworkLabel(playlist.Artwork))
	fmt.Println()

	var total float64
	for i, song := range songs {
		total += song.Duration
		fmt.Printf("%3d. %-10s %-40s %s\n",
			i+1,
			utils.ShortID(song.ID),
			utils.TruncateString(song.DisplayTitle(), 38),
			utils.FormatSeconds(song.Duration))
	}
	fmt.Printf("\n🎵 Песен: %d, общая длительность: %s\n", len(songs), utils.FormatSeconds(total))
	return nil
}
