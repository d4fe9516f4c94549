package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for browsing, editing and playing songs.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			tuiApp := tui.NewApp(app.Store, app.Controller, app.Config.SeekStep)
			if err := tuiApp.Run(); err != nil {
				return fmt.Errorf("ошибка TUI: %w", err)
			}
			return nil
		},
	}
}
