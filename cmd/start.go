package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"umbrella-station/core/channel"
	"umbrella-station/core/loader"
	"umbrella-station/core/logger"
	"umbrella-station/core/middleware/auth"
	"umbrella-station/core/middleware/rayid"
	"umbrella-station/core/scheduler"
	"umbrella-station/feature/integrity"
	"umbrella-station/feature/rental"
	"umbrella-station/feature/rental/coordinator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "umbrella-station/docs/swagger"
)

// @title Umbrella Station API
// @version 1.0
// @description API for borrowing and returning station umbrellas.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the umbrella station server",
	Long:  `Starts the HTTP server, the hardware channel consumer and the overdue sweep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		logg := st.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 1. Hardware channel
		ch, err := channel.New(st.cfg.Broker, logg)
		if err != nil {
			return err
		}
		defer ch.Close()

		opts := coordinator.Options{
			Encoding:             st.cfg.Rental.Encoding(),
			Policy:               st.cfg.Rental.Policy(),
			TrackUnauthenticated: st.cfg.Rental.TrackUnauthenticated,
		}
		coord := coordinator.New(st.resolver, st.ledger, ch, st.journal, opts, logg)

		consumerDone := make(chan struct{})
		go func() {
			defer close(consumerDone)
			if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error("Station consumer stopped", zap.Error(err))
			}
		}()

		// 2. Overdue sweep
		sched := scheduler.New(logg)
		if err := sched.Register("overdue", st.cfg.Rental.OverdueCron, scheduler.OverdueSweep(st.ledger, logg)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		// 3. HTTP
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		rentalSvc := rental.NewService(coord, st.ledger, st.journal, st.cfg.Rental.Encoding(), logg)
		mgr.Register(rental.NewFeature(rentalSvc))
		mgr.Register(integrity.NewFeature(integrity.NewService(st.ledger, st.db, st.client, st.cfg.Storage, st.cfg.Rental.Policy(), logg)))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger stays public
		app.Get("/swagger/*", swagger.HandlerDefault)

		if !st.cfg.Server.AuthEnabled() {
			logg.Warn("No API key or JWT secret configured, the API is open")
		}
		app.Use(auth.New(auth.Config{ApiKey: st.cfg.Server.ApiKey, JWTSecret: st.cfg.Server.JWTSecret}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		go func() {
			logg.Info("Starting server", zap.String("port", st.cfg.Server.Port))
			if err := app.Listen(":" + st.cfg.Server.Port); err != nil {
				logg.Error("Server failed to start", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)

		select {
		case <-consumerDone:
		case <-time.After(5 * time.Second):
			logg.Warn("Station consumer did not stop in time")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
