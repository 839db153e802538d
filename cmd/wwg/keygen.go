package main

import (
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/repository"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Issue a registration key for a class",
	Long:  `Issue a registration key for a class, creating the class first when it does not exist yet.`,
	Args:  cobra.NoArgs,
	RunE:  runKeygen,
}

func init() {
	keygenCmd.Flags().Int("class", 0, "class number")
	keygenCmd.Flags().Int("grad-year", 0, "graduation year")
	keygenCmd.Flags().Int64("curriculum", 1, "curriculum uid used when the class is created")
	_ = keygenCmd.MarkFlagRequired("class")
	_ = keygenCmd.MarkFlagRequired("grad-year")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	classNumber, _ := cmd.Flags().GetInt("class")
	gradYear, _ := cmd.Flags().GetInt("grad-year")
	curriculum, _ := cmd.Flags().GetInt64("curriculum")

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	classRepo := repository.NewClassRepository(b.pool)
	keyRepo := repository.NewRegistrationKeyRepository(b.pool)

	classes := service.NewClassService(classRepo, b.logger)
	keys := service.NewRegistrationKeyService(keyRepo, classRepo, b.cfg.RegistrationKeyTTL, metrics.Nop(), b.logger)

	class, err := classes.Ensure(ctx, classNumber, gradYear, curriculum)
	if err != nil {
		return fmt.Errorf("ensure class: %w", err)
	}

	system := &auth.Principal{Role: model.RoleSystem}
	key, err := keys.Create(ctx, system, service.KeyCreate{ClassNumber: class.ClassNumber, GradYear: class.GradYear})
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}

	b.logger.Info("Registration key issued from CLI",
		zap.Int("class_number", key.ClassNumber),
		zap.Int("grad_year", key.GradYear))

	fmt.Fprintf(cmd.OutOrStdout(), "%s\tclass %d/%d (%s)\texpires %s\n",
		key.Key, key.ClassNumber, key.GradYear, key.Curriculum, key.ExpirationDate.Format("2006-01-02"))
	return nil
}
