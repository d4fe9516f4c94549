package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/library"
)

// createCleanArtworkCommand создает команду clean-artwork
func (app *Application) createCleanArtworkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean-artwork",
		Short: "Drop references to missing artwork files",
		Long: `Rewrite the library documents so that artwork references to missing files become empty
and file:// URLs become plain paths.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			report, err := library.CleanArtwork(app.Store.Dir(), app.Logger.Named("clean"))
			if err != nil {
				return fmt.Errorf("ошибка очистки обложек: %w", err)
			}

			if len(report.Rewritten) == 0 {
				fmt.Println("✅ Ссылки на обложки в порядке, изменений нет")
				return nil
			}

			fmt.Println("🧹 Ссылки на обложки очищены:")
			fmt.Printf("   Удалено ссылок на отсутствующие файлы: %d\n", report.Removed)
			fmt.Printf("   Преобразовано file:// URL: %d\n", report.Converted)
			fmt.Printf("   Перезаписано документов: %d\n", len(report.Rewritten))
			fmt.Println("💡 Изменения будут видны при следующем запуске")
			return nil
		},
	}
}
