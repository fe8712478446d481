package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/assets"
	"github.com/ziadkadry99/overlay-studio/internal/audit"
	"github.com/ziadkadry99/overlay-studio/internal/db"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/server"
)

var (
	serverPort     int
	auditRetention time.Duration
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the site with the config and asset stores",
	Long:  `Serves the static site, the icon config store, icon uploads, the change feed and the admin page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		// Open database.
		database, err := db.Open(cfg.AuditPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		auditStore := audit.NewStore(database)
		if auditRetention > 0 {
			n, err := auditStore.DeleteBefore(cmd.Context(), time.Now().Add(-auditRetention))
			if err != nil {
				logger.Warn("pruning audit trail", zap.Error(err))
			} else if n > 0 {
				logger.Info("pruned audit trail", zap.Int64("entries", n))
			}
		}

		icons := iconconfig.NewStore(cfg.ConfigPath())
		if _, err := icons.Load(cmd.Context()); err != nil {
			return fmt.Errorf("reading %s: %w", cfg.ConfigPath(), err)
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			SiteDir:  cfg.SiteDir,
			AllowAll: cfg.Server.AllowAll,
			Admin: admin.Options{
				Secret:      cfg.Admin.Secret,
				RedirectURL: cfg.Admin.RedirectURL,
				Delay:       cfg.Admin.RedirectDelay,
			},
		}, server.Deps{
			Icons:  icons,
			Files:  assets.NewStore(cfg.SiteDir, cfg.Icons.Dir, cfg.Icons.Allowed),
			Audit:  auditStore,
			Logger: logger,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "studio server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Site: %s\n", cfg.SiteDir)
		fmt.Fprintf(os.Stderr, "  Config: %s\n", cfg.ConfigPath())
		fmt.Fprintf(os.Stderr, "  Admin: http://localhost:%d/admin\n", cfg.Server.Port)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	serverCmd.Flags().DurationVar(&auditRetention, "audit-retention", 90*24*time.Hour, "Drop audit entries older than this at startup (0 keeps all)")
	rootCmd.AddCommand(serverCmd)
}
