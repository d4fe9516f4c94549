package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/importer"
	"github.com/hazadus/artistmusic/internal/watcher"
)

// createWatchCommand создает команду watch, импортирующую файлы из каталога приема
func (app *Application) createWatchCommand(ctx context.Context) *cobra.Command {
	var (
		artistArg      string
		artistFromTags bool
		keep           bool
		skipExisting   bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Import audio files dropped into a directory",
		Long: `Watch a drop directory and import every supported audio file that appears in it.
Defaults to drop_dir from the configuration. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := app.Config.DropDir
			if len(args) == 1 {
				dir = args[0]
			}
			artistID, err := app.resolveArtistFlag(artistArg)
			if err != nil {
				return err
			}

			w := watcher.New(dir, app.Importer, watcher.Options{
				Import: importer.ImportOptions{
					ArtistID:       artistID,
					ArtistFromTags: artistFromTags,
				},
				RemoveSource: !keep,
				ScanExisting: !skipExisting,
				OnImport: func(path string, result *importer.ImportResult, err error) {
					if err != nil {
						fmt.Printf("❌ %s: %v\n", filepath.Base(path), err)
						return
					}
					fmt.Printf("✅ %s → %s (%s)\n", filepath.Base(path), result.Song.DisplayTitle(), result.Song.ID)
				},
			}, app.Logger.Named("watcher"))

			fmt.Printf("👀 Наблюдаем за каталогом: %s\n", dir)
			fmt.Println("   [Ctrl+C] - остановить")

			if err := w.Run(ctx); err != nil {
				return err
			}
			fmt.Println("\n⏹️  Наблюдение остановлено")
			return nil
		},
	}

	cmd.Flags().StringVar(&artistArg, "artist", "", "artist id to attach imported songs to")
	cmd.Flags().BoolVar(&artistFromTags, "artist-from-tags", false, "find or create the artist named in the file tags")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep source files after import")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "ignore files already in the directory")
	return cmd
}
