package notifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/andres10976/homework-bot/internal/failure"
)

// Delivery failure reasons.
const (
	ReasonUnauthorized = "unauthorized"
	ReasonBadRequest   = "bad request"
	ReasonChatMigrated = "chat migrated"
	ReasonTimedOut     = "timed out"
	ReasonNetwork      = "network error"
	ReasonUnclassified = "unclassified"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DialFunc creates the bot client. It is called lazily on first delivery
// because creating a client makes a getMe request.
type DialFunc func() (Sender, error)

// Dialer returns a DialFunc for the Telegram Bot API at endpoint, which uses
// the tgbotapi format with two %s verbs (token, method).
func Dialer(token, endpoint string, client *http.Client) DialFunc {
	return func() (Sender, error) {
		bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
		if err != nil {
			return nil, err
		}
		return bot, nil
	}
}

// Telegram delivers text messages to a single chat.
type Telegram struct {
	dial   DialFunc
	chat   string
	logger *zap.Logger

	mu  sync.Mutex
	bot Sender
}

// NewTelegram returns a notifier for chat, which is a numeric chat ID or an
// @channel username.
func NewTelegram(dial DialFunc, chat string, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{dial: dial, chat: chat, logger: logger}
}

// Notify sends text to the configured chat. Any failure is returned as a
// failure.KindNotification error.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return failure.Wrap(err, failure.KindNotification, "telegram delivery aborted")
	}

	bot, err := t.client()
	if err != nil {
		return classify(err)
	}

	msg, err := t.message(text)
	if err != nil {
		return failure.Wrap(err, failure.KindNotification, "telegram delivery failed ("+ReasonBadRequest+")")
	}

	t.logger.Info("sending telegram message", zap.String("chat", t.chat))
	if _, err := bot.Send(msg); err != nil {
		return classify(err)
	}
	t.logger.Info("telegram message sent", zap.String("chat", t.chat), zap.String("text", text))
	return nil
}

func (t *Telegram) client() (Sender, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := t.dial()
	if err != nil {
		return nil, err
	}
	t.bot = bot
	return bot, nil
}

func (t *Telegram) message(text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(t.chat, "@") {
		return tgbotapi.NewMessageToChannel(t.chat, text), nil
	}
	id, err := strconv.ParseInt(t.chat, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid chat id %q", t.chat)
	}
	return tgbotapi.NewMessage(id, text), nil
}

// Reason maps a delivery error to one of the Reason constants.
func Reason(err error) string {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.MigrateToChatID != 0:
			return ReasonChatMigrated
		case apiErr.Code == http.StatusUnauthorized:
			return ReasonUnauthorized
		case apiErr.Code == http.StatusBadRequest:
			return ReasonBadRequest
		}
		return ReasonUnclassified
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimedOut
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimedOut
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ReasonNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ReasonNetwork
	}
	return ReasonUnclassified
}

func classify(err error) error {
	reason := Reason(err)
	return failure.Wrap(redact(err), failure.KindNotification, "telegram delivery failed ("+reason+")")
}

// redact drops the request URL, which embeds the bot token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
