package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	WebhookPath  = "/webhook/telegram"
	HealthPath   = "/healthz"
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// UpdateProcessor is satisfied by *telebot.Bot.
type UpdateProcessor interface {
	ProcessUpdate(u telebot.Update)
}

// WebhookServer receives Telegram updates over HTTP and hands them to the bot.
type WebhookServer struct {
	app    *echo.Echo
	bot    UpdateProcessor
	secret []byte
	logger *logrus.Entry
}

func NewWebhookServer(bot UpdateProcessor, secret string, logger *logrus.Entry) *WebhookServer {
	s := &WebhookServer{
		app:    echo.New(),
		bot:    bot,
		secret: []byte(secret),
		logger: logger,
	}
	s.setup()
	return s
}

func (s *WebhookServer) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Use(middleware.Recover())
	s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Debug("HTTP request")
			return nil
		},
	}))

	s.app.POST(WebhookPath, s.handleUpdate)
	s.app.GET(HealthPath, func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

func (s *WebhookServer) handleUpdate(c echo.Context) error {
	token := c.Request().Header.Get(SecretHeader)
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(token), s.secret) != 1 {
		s.logger.WithField("remote_ip", c.RealIP()).Warn("Rejected webhook call with bad secret")
		return c.String(http.StatusUnauthorized, "unauthorized")
	}

	var u telebot.Update
	if err := c.Echo().JSONSerializer.Deserialize(c, &u); err != nil {
		s.logger.WithError(err).Warn("Malformed webhook body")
		return c.String(http.StatusBadRequest, "bad request")
	}

	s.bot.ProcessUpdate(u)
	return c.String(http.StatusOK, "OK")
}

func (s *WebhookServer) Start(addr string) error {
	if err := s.app.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebhookServer) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *WebhookServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// RegisterWebhook points Telegram at publicURL and sets the secret it must echo back.
func RegisterWebhook(b *telebot.Bot, publicURL, secret string) error {
	payload := map[string]string{
		"url":          strings.TrimRight(publicURL, "/") + WebhookPath,
		"secret_token": secret,
	}
	if _, err := b.Raw("setWebhook", payload); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}
	return nil
}
