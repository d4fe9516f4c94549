package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/utils"
)

// createCollaboratorCommand создает группу команд для работы с соавторами
func (app *Application) createCollaboratorCommand() *cobra.Command {
	collaboratorCmd := &cobra.Command{
		Use:   "collaborator",
		Short: "Manage collaborators",
	}

	var role string
	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a collaborator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			collaborator, err := app.Store.AddCollaborator(data.Collaborator{
				Name: strings.Join(args, " "),
				Role: role,
			})
			if err != nil {
				return fmt.Errorf("ошибка добавления соавтора: %w", err)
			}
			fmt.Printf("✅ Соавтор добавлен: %s\n", collaborator.Name)
			fmt.Printf("   ID: %s\n", collaborator.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&role, "role", "", "default role, e.g. producer")

	collaboratorCmd.AddCommand(
		addCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List collaborators",
			Run: func(_ *cobra.Command, _ []string) {
				app.listCollaborators()
			},
		},
		&cobra.Command{
			Use:   "delete [collaborator id]",
			Short: "Delete a collaborator and remove their credits",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				collaborator, err := app.resolveCollaborator(args[0])
				if err != nil {
					return err
				}
				if err := app.Store.DeleteCollaborator(collaborator.ID); err != nil {
					return fmt.Errorf("ошибка удаления соавтора: %w", err)
				}
				fmt.Printf("✅ Соавтор %s удален\n", collaborator.Name)
				return nil
			},
		},
	)

	return collaboratorCmd
}

func (app *Application) listCollaborators() {
	collaborators := app.Store.Collaborators()
	if len(collaborators) == 0 {
		fmt.Println("📚 Соавторов нет. Добавьте соавтора с помощью команды 'collaborator add'.")
		return
	}

	// Сколько песен указывают каждого соавтора
	credits := map[uuid.UUID]int{}
	for _, song := range app.Store.Songs() {
		for _, credit := range song.Credits {
			credits[credit.CollaboratorID]++
		}
	}

	fmt.Printf("🤝 Найдено соавторов: %d\n\n", len(collaborators))
	fmt.Printf("%-10s %-30s %-20s %-8s\n", "ID", "Имя", "Роль", "Песен")
	fmt.Println(strings.Repeat("-", 70))

	for _, collaborator := range collaborators {
		fmt.Printf("%-10s %-30s %-20s %-8d\n",
			utils.ShortID(collaborator.ID),
			utils.TruncateString(collaborator.Name, 28),
			utils.TruncateString(collaborator.Role, 18),
			credits[collaborator.ID])
	}
}
