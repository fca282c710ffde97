package main

import (
	"context"
	"fmt"
	"time"

	"attendance_notice_bot/internal/app"
	"attendance_notice_bot/internal/domain/notice"
	"attendance_notice_bot/internal/infra/config"
	"attendance_notice_bot/internal/infra/email"
	"attendance_notice_bot/internal/infra/i18n"
	"attendance_notice_bot/internal/infra/logger"
	"attendance_notice_bot/internal/infra/responder"
	"attendance_notice_bot/internal/infra/scheduler"
	"attendance_notice_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the webhook endpoint and the maintenance jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			logger.Init(cfg)
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	log := logger.Component("main")
	log.WithFields(logrus.Fields{
		"transport":   cfg.TransportMode,
		"store":       cfg.StoreDriver,
		"environment": cfg.Environment,
	}).Info("Configuration loaded")

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	words, err := i18n.Default()
	if err != nil {
		return fmt.Errorf("could not load message catalog: %w", err)
	}
	classifier, err := responder.Default(cfg.ResponderMinimum)
	if err != nil {
		return fmt.Errorf("could not load responder intents: %w", err)
	}
	mailer := newMailer(cfg)

	staffService := app.NewStaffService(st.users, st.sent, st.settings, st.tx)
	conversation := app.NewConversationService(app.ConversationDeps{
		Users:          st.users,
		Actions:        st.actions,
		Sent:           st.sent,
		Tx:             st.tx,
		Staff:          staffService,
		Mailer:         mailer,
		Words:          words,
		Responder:      classifier,
		TeacherCommand: cfg.TeacherCommand,
		Location:       cfg.Location,
		Logger:         logger.Component("conversation"),
	})
	maintenance := app.NewMaintenanceServiceImpl(
		st.actions, st.sent, staffService, st.tx, mailer,
		cfg.Location, cfg.ActionTTL, logger.Component("maintenance"),
	)

	jobs := scheduler.NewMaintenanceScheduler(
		maintenance,
		logger.Component("scheduler"),
		cfg.Location,
		cfg.CronSpecDigest,
		cfg.CronSpecSweep,
	)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	pref := telegram.BotSettings(cfg.TelegramToken, cfg.TransportMode == config.TransportPolling, logger.Component("telebot"))
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return fmt.Errorf("could not create Telegram bot: %w", err)
	}

	replier := telegram.NewTelebotAdapter(bot, cfg.StickerFileIDs, cfg.Location, logger.Component("replier"))
	telegram.RegisterConversationHandlers(ctx, bot, conversation, replier, logger.Component("telegram"))

	if cfg.TransportMode == config.TransportWebhook {
		return serveWebhook(ctx, cfg, bot)
	}
	return servePolling(ctx, bot)
}

func servePolling(ctx context.Context, bot *telebot.Bot) error {
	log := logger.Component("main")
	if err := bot.RemoveWebhook(); err != nil {
		return fmt.Errorf("could not remove webhook before polling: %w", err)
	}

	go bot.Start()
	log.Info("Bot is polling for updates")

	<-ctx.Done()
	log.Info("Shutting down application...")
	bot.Stop()
	log.Info("Application shut down gracefully")
	return nil
}

func serveWebhook(ctx context.Context, cfg *config.AppConfig, bot *telebot.Bot) error {
	log := logger.Component("main")
	if cfg.WebhookPublicURL != "" {
		if err := telegram.RegisterWebhook(bot, cfg.WebhookPublicURL, cfg.WebhookSecret); err != nil {
			return err
		}
		log.WithField("url", cfg.WebhookPublicURL).Info("Webhook registered")
	}

	srv := telegram.NewWebhookServer(bot, cfg.WebhookSecret, logger.Component("webhook"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.HTTPAddr)
	}()
	log.WithField("addr", cfg.HTTPAddr).Info("Webhook server listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("webhook server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("Webhook server did not stop cleanly")
	}
	log.Info("Application shut down gracefully")
	return nil
}

func newMailer(cfg *config.AppConfig) notice.Sender {
	if cfg.SendgridAPIKey == "" {
		logger.Log.Warn("SENDGRID_API_KEY not set, notices are only logged")
		return email.NewConsoleSender(logger.Component("mail"))
	}
	return email.NewSendgridSender(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress, logger.Component("mail"))
}
