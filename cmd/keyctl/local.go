package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"inventory-envelope/config"
	"inventory-envelope/internal/app"
	"inventory-envelope/internal/infra"
	"inventory-envelope/internal/usecase"
)

// loadConfig は環境変数から設定を読み込んで検証する。
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// passphraseCmd は暗号化DB用のパスフレーズを16進で表示する。
func passphraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passphrase",
		Short: "Print the database passphrase as hex (opens the key store directly)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			passphrase, err := a.Passphrase.ExportPassphrase(ctx)
			if err != nil {
				return fmt.Errorf("exporting passphrase: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(passphrase))
			return nil
		},
	}
}

// keyCmd は管理鍵の運用コマンド。
func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the envelope key",
	}
	cmd.AddCommand(keyRecreateCmd())
	return cmd
}

func keyRecreateCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "recreate",
		Short: "Delete and regenerate the envelope key",
		Long: "Delete and regenerate the envelope key. Every existing token, encrypted setting " +
			"and derived passphrase becomes unreadable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to recreate the key without --force")
			}

			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := infra.NewDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			store, closeStore, err := app.NewKeyStore(ctx, cfg, db)
			if err != nil {
				return err
			}
			defer closeStore()

			provisioner := usecase.NewKeyProvisioner(store, app.KeySpec(cfg))
			if err := provisioner.Recreate(ctx, cfg.KeyAlias); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recreated key %q\n", cfg.KeyAlias)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm that existing encrypted data will be lost")
	return cmd
}
