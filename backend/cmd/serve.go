package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillsync/backend/jobs"
	"skillsync/backend/middleware"
	"skillsync/backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rootOpts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	env, err := openEnvironment(opts)
	if err != nil {
		return err
	}
	defer env.store.Close()

	app := fiber.New(fiber.Config{AppName: "SkillSync"})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     env.cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: env.cfg.CORSOrigins != "*",
	}))
	app.Use(middleware.LoggingMiddleware(env.logger, env.cfg.LogColors))

	svc := routes.SetupRoutes(app, env.store, env.cfg, env.logger)

	if env.cfg.AuditSchedule != "" {
		scheduler, err := jobs.NewAuditScheduler(env.cfg.AuditSchedule, svc.Progress, 5*time.Minute, env.logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + env.cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		env.logger.Println("Shutting down")
		err := app.ShutdownWithTimeout(10 * time.Second)
		svc.Progress.Wait()
		return err
	}
}
