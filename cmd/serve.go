package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/vigil/internal/api"
	"github.com/darmiel/vigil/internal/tasks"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Vigil server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log.Info().Msg("Initializing snapshot store...")
		snapshots, err := buildSnapshotStore(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("building snapshot store: %w", err)
		}

		auditor, err := buildAuditor(cfg.Audit)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			if err := auditor.Close(); err != nil {
				log.Warn().Err(err).Msg("closing auditor")
			}
		}()

		log.Info().Msg("Initializing decision pipeline...")
		stack, err := buildStack(cfg, auditor, snapshots)
		if err != nil {
			return err
		}

		signingKey, err := adminSigningKey(cmd)
		if err != nil {
			return err
		}

		// background maintenance
		taskManager := tasks.NewManager()
		registerTask(taskManager, tasks.NewSessionSweepTask(stack.sessions, cfg.SweepInterval()))
		if snapshots != nil {
			registerTask(taskManager, tasks.NewIdentityFlushTask(stack.identities, identityFlushInterval))
		}

		// setup server
		srv := api.NewServer(stack.service, taskManager)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes(signingKey),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

const identityFlushInterval = 5 * time.Minute

func registerTask(m *tasks.Manager, def tasks.TaskDefinition) {
	m.Register(def.Name, def.Interval, def.Handler)
}

// adminSigningKey resolves the HMAC key that admin tokens must be signed with.
// Without a configured key, an ephemeral one is generated; admin routes then
// only accept tokens minted in-process, which is fine for local experiments
// but useless for a real deployment.
func adminSigningKey(cmd *cobra.Command) ([]byte, error) {
	key, _ := cmd.Flags().GetString("admin-key")
	if key == "" {
		key = os.Getenv("VIGIL_ADMIN_KEY")
	}
	if key != "" {
		return []byte(key), nil
	}

	log.Warn().Msg("no admin signing key configured, generating an ephemeral one (set --admin-key or VIGIL_ADMIN_KEY)")
	ephemeral := make([]byte, 32)
	if _, err := rand.Read(ephemeral); err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}
	return ephemeral, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	serveCmd.Flags().String("admin-key", "", "HMAC key for admin token verification")
	f.bindConfigFlag(serveCmd.Flags())

	_ = serveCmd.MarkFlagRequired("config")
}
