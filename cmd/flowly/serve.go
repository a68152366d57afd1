package main

import (
	"crypto/tls"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/flowly/internal/api"
	"github.com/Veraticus/flowly/internal/certs"
	"github.com/Veraticus/flowly/internal/config"
	"github.com/Veraticus/flowly/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Serve metrics, accounts and transactions as JSON, plus CSV and
workbook exports and CSV import, until interrupted.

With --tls the server uses a self-signed localhost certificate kept in
the config directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			useTLS, _ := cmd.Flags().GetBool("tls")

			var tlsConfig *tls.Config
			if useTLS {
				var err error
				tlsConfig, err = certs.TLSConfig(certs.NewFileManager(filepath.Join(config.ConfigDir(), "certs")))
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			return withStorage(ctx, func(store *storage.SQLiteStorage) error {
				server := api.NewServer(store, appConfig.Now)
				return server.Serve(ctx, appConfig.ServerAddr, tlsConfig)
			})
		},
	}

	cmd.Flags().String("addr", config.DefaultServerAddr, "Address to listen on")
	cmd.Flags().Bool("tls", false, "Serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
