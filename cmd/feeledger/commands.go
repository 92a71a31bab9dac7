/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tomoncle/feeledger/config"
	"github.com/tomoncle/feeledger/database"
)

type cliOptions struct {
	configPath string
	envFile    string
	timeout    time.Duration
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "feeledger",
		Short:         "Schema and health tooling for the fee ledger database",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "env file loaded before the config")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall command timeout")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or list schema migrations",
	}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(cmd, opts, func(ctx context.Context, m database.AbstractDatabaseManager) error {
					if err := m.RunMigrations(ctx); err != nil {
						return err
					}
					return printStatus(ctx, cmd.OutOrStdout(), m)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(cmd, opts, func(ctx context.Context, m database.AbstractDatabaseManager) error {
					err := m.RollbackMigration(ctx)
					if errors.Is(err, database.ErrNothingToRollback) {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
						return nil
					}
					if err != nil {
						return err
					}
					return printStatus(ctx, cmd.OutOrStdout(), m)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List known migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(cmd, opts, func(ctx context.Context, m database.AbstractDatabaseManager) error {
					return printStatus(ctx, cmd.OutOrStdout(), m)
				})
			},
		},
	)

	health := &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, opts, func(ctx context.Context, m database.AbstractDatabaseManager) error {
				st := m.HealthCheck(ctx)
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "healthy: %t\n", st.Healthy)
				fmt.Fprintf(w, "response_time: %s\n", st.ResponseTime)
				fmt.Fprintf(w, "open_conns: %d/%d\n", st.ActiveConns+st.IdleConns, st.MaxOpenConns)
				if !st.Healthy {
					return fmt.Errorf("database unhealthy: %s", st.LastError)
				}
				return nil
			})
		},
	}

	root.AddCommand(migrate, health)
	return root
}

// withManager loads the config, connects without running startup
// migrations and disconnects when fn returns.
func withManager(cmd *cobra.Command, opts *cliOptions, fn func(context.Context, database.AbstractDatabaseManager) error) error {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	cfg.ApplyLogging()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	factory := database.NewDatabaseFactory()
	if _, err := factory.CreateFromConfig(&cfg.Database); err != nil {
		return err
	}
	if err := factory.InitializeDatabase(ctx, false); err != nil {
		return err
	}
	defer factory.Close()
	return fn(ctx, factory.GetManager())
}

func printStatus(ctx context.Context, out io.Writer, m database.AbstractDatabaseManager) error {
	states, err := m.MigrationStatus(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, st := range states {
		status, at := "pending", "-"
		if st.Applied {
			status, at = "applied", st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Version, st.Name, status, at)
	}
	return w.Flush()
}
