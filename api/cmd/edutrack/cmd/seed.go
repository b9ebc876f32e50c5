package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/service"
)

var (
	seedUserCount int
	seedPassword  string
	seedValue     int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create fake student accounts",
	Long: `Register fake student accounts through the auth service, for local
development and demos. Every account shares the given password.

Examples:
  edutrack seed --users 50
  edutrack seed --users 10 --password hunter2hunter2 --seed 7`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedUserCount, "users", 10, "number of accounts to create")
	seedCmd.Flags().StringVar(&seedPassword, "password", "edutrack-demo", "password for every seeded account")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (0 picks a random one)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedUserCount <= 0 {
		return fmt.Errorf("--users must be positive, got %d", seedUserCount)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.Database.Type != "postgres" {
		logger.Warn("Seeding the in-memory repository; accounts are lost on exit")
	}

	app, err := newApplication(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	created, err := seedUsers(cmd.Context(), app.auth, gofakeit.New(seedValue), seedUserCount, seedPassword, cmd.OutOrStdout())
	logger.Info("Seeding finished", slog.Int("created", created))
	return err
}

// seedUsers registers n students. Generated emails that already exist are
// skipped and replaced with new ones.
func seedUsers(ctx context.Context, auth *service.AuthService, faker *gofakeit.Faker, n int, password string, out io.Writer) (int, error) {
	created := 0
	for attempts := 0; created < n; attempts++ {
		if attempts >= n*3 {
			return created, fmt.Errorf("gave up after %d attempts, created %d of %d accounts", attempts, created, n)
		}

		user, err := auth.Register(ctx, &models.RegisterRequest{
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
			Password:  password,
			Type:      models.UserTypeStudent,
		})
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to register seeded user: %w", err)
		}
		created++
		fmt.Fprintf(out, "%s\t%s %s\n", user.Email, user.FirstName, user.LastName)
	}
	return created, nil
}
