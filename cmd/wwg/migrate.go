package main

import (
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/app"
	"github.com/Freeeeeet/wherewego/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version]",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "version"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	migrator, err := app.NewMigrator(b.pool, migrations.FS, b.logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	out := cmd.OutOrStdout()
	switch action {
	case "down":
		return migrator.Down(ctx)
	case "status":
		states, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range states {
			mark := "pending"
			if st.Applied {
				mark = "applied"
			}
			fmt.Fprintf(out, "%5d  %-8s %s\n", st.Version, mark, st.Path)
		}
		return nil
	case "version":
		v, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "database version: %d\n", v)
		return nil
	}

	return migrator.Run(ctx)
}
