package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "artistmusic",
		Short:        "Manage an artist's music library and play it",
		Long:         `Manage artists, songs, playlists and collaborators stored in a local library and play them.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(app.createArtistCommand(ctx))
	rootCmd.AddCommand(app.createSongCommand(ctx))
	rootCmd.AddCommand(app.createPlaylistCommand(ctx))
	rootCmd.AddCommand(app.createCollaboratorCommand())
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand())
	rootCmd.AddCommand(app.createWatchCommand(ctx))
	rootCmd.AddCommand(app.createCleanArtworkCommand())

	return rootCmd
}
