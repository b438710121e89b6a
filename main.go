package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/srishtipnt/Parabot/application"
	"github.com/srishtipnt/Parabot/handler"
	"github.com/srishtipnt/Parabot/infrastructure"
)

var (
	envFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:          "parabot",
		Short:        "Telegram bot for personal and group reminders",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
)

func main() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "overrides LOG_LEVEL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("bot exited")
	}
}

func run(ctx context.Context) error {
	cfg, err := infrastructure.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	infrastructure.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := infrastructure.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Msg("store opened")

	bot, err := infrastructure.NewTelegramBot(cfg.TelegramToken)
	if err != nil {
		return err
	}
	messenger := infrastructure.NewTelegramMessenger(bot, store.Roster)

	opts := []application.Option{
		application.WithLocation(cfg.Location),
		application.WithCommandPrefix(cfg.CommandPrefix),
	}
	resolver := application.NewWhenResolver(cfg.Location)
	timers := application.NewTimerRegistry()

	reminders := application.NewReminderService(store.Reminders, messenger, resolver, timers, opts...)
	teamReminders := application.NewTeamReminderService(store.TeamReminders, messenger, resolver, timers, opts...)
	spam := application.NewSpamService(messenger, opts...)
	publicMode := application.NewPublicMode(store.Settings, messenger)
	if err := publicMode.Load(ctx); err != nil {
		return err
	}

	recovery := application.NewRecovery(reminders, teamReminders)
	if cfg.RearmOnStart {
		n, err := recovery.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("re-arming pending reminders")
		}
		log.Info().Int("rearmed", n).Msg("pending reminders re-armed")
	}
	if err := recovery.Start(cfg.ReconcileSchedule); err != nil {
		return err
	}

	dispatcher := handler.NewDispatcher(cfg.CommandPrefix, cfg.OwnerID, messenger, handler.Services{
		Reminders:     reminders,
		TeamReminders: teamReminders,
		Pins:          application.NewPinService(store.Pins, store.Contacts, messenger, opts...),
		Tools:         application.NewGroupTools(messenger, opts...),
		Spam:          spam,
		PublicMode:    publicMode,
		Roster:        store.Roster,
	})
	handler.NewBotHandler(bot, dispatcher, store.Roster).HandleMessages()

	var srv *http.Server
	if cfg.OpsAddr != "" {
		srv = &http.Server{
			Addr:              cfg.OpsAddr,
			Handler:           infrastructure.NewOpsRouter(store.Ping),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.OpsAddr).Msg("ops server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops server")
			}
		}()
	}

	go bot.Start()
	log.Info().Str("bot", cfg.BotName).Str("username", bot.Me.Username).Msg("bot started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	bot.Stop()
	recovery.Stop()
	log.Info().Int("timers", timers.Clear()).Msg("pending countdowns dropped")
	timers.Wait()
	spam.Shutdown()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops server shutdown")
		}
	}
	return nil
}
