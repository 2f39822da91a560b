package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/socialnet/internal/api"
	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/monitoring"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/uploads"
	"github.com/isdelr/socialnet/internal/web"
	"github.com/isdelr/socialnet/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Set up database
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := uploads.New(cfg.UploadsPath)
	if err != nil {
		return err
	}

	pages, err := web.NewRenderer(web.NewSessionStore([]byte(cfg.SessionKey), cfg.IsProduction()))
	if err != nil {
		return err
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	sessionService := services.NewSessionService(db, cfg.SessionTTL, cfg.RememberTTL)
	friendService := services.NewFriendService(db, eventService)
	postService := services.NewPostService(db, eventService)
	streamService := services.NewStreamService(db)

	// Set up and run the background session janitor
	janitor, err := monitoring.NewJanitor(cfg.SessionPurgeSpec, sessionService)
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Users:    userService,
		Sessions: sessionService,
		Friends:  friendService,
		Posts:    postService,
		Stream:   streamService,
		Events:   eventService,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret),
		Pages:    pages,
		Uploads:  store,
		Hub:      hub,
		Health:   monitoring.NewHealth(db, cfg.UploadsPath),
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
