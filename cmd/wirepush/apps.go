package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirepush/internal/config"
	"github.com/vovakirdan/wirepush/internal/log"
	"github.com/vovakirdan/wirepush/internal/store"
	"github.com/vovakirdan/wirepush/internal/store/sqlite"
)

const secretBytes = 32

func newAppsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Manage applications stored in the sqlite registry",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database path (defaults to database_path from config)")

	openStore := func() (store.Store, error) {
		path := dbPath
		if path == "" {
			cfg, _, err := config.Load(log.New("warn", "console"), configPath)
			if err != nil {
				return nil, err
			}
			path = cfg.DatabasePath
		}
		if path == "" {
			return nil, errors.New("no database configured: pass --db or set database_path")
		}
		return sqlite.New(path)
	}

	var secret string
	add := &cobra.Command{
		Use:   "add <key>",
		Short: "Register an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if secret == "" {
				secret, err = generateSecret()
				if err != nil {
					return err
				}
			}
			a, err := st.CreateApp(cmd.Context(), args[0], secret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key:    %s\nsecret: %s\n", a.Key, a.Secret)
			return nil
		},
	}
	add.Flags().StringVar(&secret, "secret", "", "use this secret instead of generating one")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			apps, err := st.ListApps(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tCREATED")
			for _, a := range apps {
				fmt.Fprintf(w, "%s\t%s\n", a.Key, a.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "remove <key>",
		Short: "Delete a stored application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteApp(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
