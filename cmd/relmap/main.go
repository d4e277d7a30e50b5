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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomoncle/relmap"
	"github.com/tomoncle/relmap/config"
	"github.com/tomoncle/relmap/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		configPath string
		settings   *config.Settings
	)

	rootCmd := &cobra.Command{
		Use:           "relmap",
		Short:         "Entity to table mapping demo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(configPath)
			if err != nil {
				return err
			}
			utils.ConfigureConsoleLogFormat(s.Log.Format)
			utils.ConfigureLogLevel(s.Log.Level)
			settings = s
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to application.yaml")

	rootCmd.AddCommand(demoCommand(&settings), schemaCommand(&settings))
	return rootCmd
}

func demoCommand(settings **config.Settings) *cobra.Command {
	var visitors string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the music, visitor and book demo tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *settings
			if visitors != "" {
				s.Data.Visitors = visitors
			}
			app, err := relmap.New(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = relmap.RunDemo(cmd.Context(), app, s.Data.Visitors, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&visitors, "visitors", "", "visitors document, JSON or YAML (overrides data.visitors)")
	return cmd
}

func schemaCommand(settings **config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every table, then run the seed scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := **settings
			s.Data.ResetSchema = true
			s.Data.SeedOnStartup = true
			app, err := relmap.New(cmd.Context(), &s)
			if err != nil {
				return err
			}
			defer app.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Schema reset")
			return nil
		},
	})
	return cmd
}
