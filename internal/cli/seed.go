package cli

import (
	"context"
	"fmt"
	"log"

	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/postgres"
	"classroom-quiz-service/internal/seed"
	"github.com/spf13/cobra"
)

// NewSeedCmd provisions the demo class, quiz and assignment.
func NewSeedCmd(configPath *string) *cobra.Command {
	var joinCode string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the demo class, quiz and assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, joinCode)
		},
	}
	cmd.Flags().StringVar(&joinCode, "join-code", "", "join code for the assignment (random when empty)")
	return cmd
}

func runSeed(ctx context.Context, configPath, joinCode string) error {
	joinCode = domain.NormalizeJoinCode(joinCode)
	if joinCode != "" && !domain.IsCanonicalJoinCode(joinCode) {
		return fmt.Errorf("join code %q must be %d characters from %s", joinCode, domain.JoinCodeLength, domain.JoinCodeAlphabet)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := migrateDB(ctx, db); err != nil {
		return err
	}

	ds, err := postgres.NewSeeder(db).Seed(ctx, seed.Demo(joinCode))
	if err != nil {
		return err
	}
	log.Printf("seeded class %s with %d students", ds.Class.Name, len(ds.Students))
	log.Printf("join code: %s", ds.Assignment.JoinCode)
	return nil
}
