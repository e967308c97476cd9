package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"socialdash-initdb/internal/bootstrap"
	"socialdash-initdb/internal/config"
	"socialdash-initdb/internal/logging"
	"socialdash-initdb/internal/migrations"
	"socialdash-initdb/internal/seed"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.Load()

	cleanupLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newCommand(cfg).Run(ctx, os.Args); err != nil {
		log.Printf("initdb: %v", err)
		return bootstrap.StatusOf(err)
	}
	return 0
}

func newCommand(cfg config.Config) *cli.Command {
	initializer := bootstrap.SchemaInitializer{
		DescriptorPath: cfg.DescriptorPath,
		ClientToken:    cfg.ClientToken,
	}
	return &cli.Command{
		Name:  "initdb",
		Usage: "Bootstrap the dashboard database once",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Apply pending migrations, ignoring the marker file",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() > 0 {
						return noArgs(cmd)
					}
					return initializer.Initialize(ctx)
				},
			},
			{
				Name:  "seed",
				Usage: "Insert the seed rows again; posts and engagements are duplicated",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() > 0 {
						return noArgs(cmd)
					}
					conn, err := initializer.Connect(ctx)
					if err != nil {
						return err
					}
					defer conn.Close()
					if err := seed.Reseed(ctx, conn); err != nil {
						return bootstrap.ExitError{Status: bootstrap.StatusStatement, Message: "seed failed", Err: err}
					}
					log.Printf("seed: done")
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the marker file and the migration ledger",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() > 0 {
						return noArgs(cmd)
					}
					return printStatus(ctx, cfg, initializer)
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 {
				return noArgs(cmd)
			}
			runner := bootstrap.Runner{MarkerPath: cfg.MarkerPath, Init: initializer}
			_, err := runner.Run(ctx)
			return err
		},
	}
}

func printStatus(ctx context.Context, cfg config.Config, initializer bootstrap.SchemaInitializer) error {
	marked, err := bootstrap.MarkerExists(cfg.MarkerPath)
	if err != nil {
		return err
	}
	fmt.Printf("marker     %s (present: %t)\n", cfg.MarkerPath, marked)
	fmt.Printf("descriptor %s\n", cfg.DescriptorPath)

	conn, err := initializer.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ledger, err := migrations.Applied(ctx, conn)
	if err != nil {
		return err
	}
	for _, entry := range ledger {
		fmt.Printf("applied    %-24s %s\n", deref(entry.Name), entry.AppliedAt.Format("2006-01-02 15:04:05Z07:00"))
	}
	migs, err := bootstrap.Migrations()
	if err != nil {
		return err
	}
	pending, err := migrations.Pending(ctx, conn, migs)
	if err != nil {
		return err
	}
	for _, name := range pending {
		fmt.Printf("pending    %s\n", name)
	}
	return nil
}

func noArgs(cmd *cli.Command) error {
	return bootstrap.ExitError{
		Status:  bootstrap.StatusConfig,
		Message: fmt.Sprintf("%s takes no arguments, got %v", cmd.Name, cmd.Args().Slice()),
	}
}

func deref(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}
