package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"storefront-service/internal/auth"
	"storefront-service/internal/client"
	"storefront-service/internal/config"
	"storefront-service/internal/store"
)

const (
	defaultAppName = "StorefrontService" // App name for logger
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)

	if err := newApp(logger).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("FATAL: %v", err)
	}
}

func newApp(logger *log.Logger) *cli.Command {
	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and gRPC health server",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx, logger)
		},
	}

	return &cli.Command{
		Name:   "storefront",
		Usage:  "Storefront catalog, category and order service",
		Action: serveCmd.Action,
		Commands: []*cli.Command{
			serveCmd,
			{
				Name:  "migrate",
				Usage: "Apply the PostgreSQL schema",
				Action: func(ctx context.Context, _ *cli.Command) error {
					pc, err := config.LoadPostgres()
					if err != nil {
						return err
					}
					st, err := store.OpenPostgres(ctx, pc.DSN())
					if err != nil {
						return err
					}
					defer st.Close()
					if err := st.Migrate(ctx); err != nil {
						return err
					}
					logger.Println("INFO: Migration complete")
					return nil
				},
			},
			{
				Name:  "hash-password",
				Usage: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Usage: "admin password to hash", Required: true},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					hash, err := auth.NewPasswordHasher().Hash(cmd.String("password"))
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.Root().Writer, hash)
					return nil
				},
			},
			{
				Name:  "catalog",
				Usage: "Print the storefront catalog in display order",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:5000/api", Usage: "API base URL"},
					&cli.StringFlag{Name: "category", Usage: "only print this category"},
					&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
					defer cancel()
					return printCatalog(ctx, cmd, client.New(cmd.String("api-url"), client.WithLogger(logger)))
				},
			},
		},
	}
}

func printCatalog(ctx context.Context, cmd *cli.Command, c *client.Client) error {
	sections, err := c.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	w := cmd.Root().Writer
	only := cmd.String("category")
	for _, section := range sections {
		if only != "" && !strings.EqualFold(section.Category, only) {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", section.Category, len(section.Products))
		for _, p := range section.Products {
			offer := ""
			if p.OnOffer() {
				offer = fmt.Sprintf("  was %.2f", p.OriginalPrice)
			}
			fmt.Fprintf(w, "  %-40s %10.2f%s\n", p.Name, p.SellingPrice, offer)
		}
	}
	return nil
}
