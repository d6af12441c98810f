package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"yolo-bot/config"
	telegram "yolo-bot/internal/api"
	"yolo-bot/internal/api/rest"
	app "yolo-bot/internal/application"
	"yolo-bot/internal/container"
	"yolo-bot/internal/infrastructure/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yolo-bot",
		Short:         "Telegram bot and YOLO prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(botCmd(), predictorCmd(), predictCmd())
	return root
}

// setup загружает конфигурацию и логгер для режима mode
func setup(mode string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: mode})
	if err := cfg.Validate(mode); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, log, err
	}
	return cfg, log, nil
}

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(config.ModeBot)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := container.Build(ctx, cfg, config.ModeBot, log)
			if err != nil {
				log.Error().Err(err).Msg("failed to build container")
				return err
			}
			defer closeContainer(c, log)

			bot, err := telegram.NewBot(cfg.TelegramToken, cfg.BotWorkers, cfg.RemoteTimeout, log)
			if err != nil {
				log.Error().Err(err).Msg("failed to create bot")
				return err
			}

			policy, err := c.Policy(cfg.BotPolicy, bot, cfg.AttachAnnotated)
			if err != nil {
				return err
			}
			gateway := app.NewChatGateway(policy, bot, log)

			log.Info().Str("policy", policy.Name()).Msg("bot is running")
			return bot.Run(ctx, gateway)
		},
	}
}

func predictorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predictor",
		Short: "Run the HTTP prediction service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(config.ModePredictor)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := container.Build(ctx, cfg, config.ModePredictor, log)
			if err != nil {
				log.Error().Err(err).Msg("failed to build container")
				return err
			}
			defer closeContainer(c, log)

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           rest.NewHandler(c.Predictor, c.Health, log).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.HTTPAddr).Msg("predictor listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			log.Info().Msg("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <image-key>",
		Short: "Run one prediction and print the summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(config.ModePredict)
			if err != nil {
				return err
			}

			c, err := container.Build(cmd.Context(), cfg, config.ModePredict, log)
			if err != nil {
				log.Error().Err(err).Msg("failed to build container")
				return err
			}
			defer closeContainer(c, log)

			summary, err := c.Predictor.Predict(cmd.Context(), args[0])
			if err != nil {
				log.Error().Err(err).Str("image_key", args[0]).Msg("prediction failed")
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

func closeContainer(c *container.Container, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("close resources")
	}
}
