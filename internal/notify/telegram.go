// Package notify delivers bot messages to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/homework-bot/internal/domain"
	"github.com/tbourn/homework-bot/internal/sysutil"
)

var tracer = otel.Tracer("github.com/tbourn/homework-bot/internal/notify")

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatTarget identifies the chat messages go to: a numeric chat id or a
// public @channel username.
type ChatTarget struct {
	ID      int64
	Channel string
}

// ParseChatTarget accepts a signed integer id ("12345", "-100123") or a
// channel username starting with "@".
func ParseChatTarget(s string) (ChatTarget, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "@") && len(s) > 1 && !strings.ContainsAny(s, " \t") {
		return ChatTarget{Channel: s}, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return ChatTarget{}, domain.E(domain.KindConfig, "notify.ParseChatTarget",
			fmt.Errorf("%w: %q", domain.ErrInvalidChatID, s))
	}
	return ChatTarget{ID: id}, nil
}

func (t ChatTarget) String() string {
	if t.Channel != "" {
		return t.Channel
	}
	return strconv.FormatInt(t.ID, 10)
}

func (t ChatTarget) message(text string) tgbotapi.MessageConfig {
	if t.Channel != "" {
		return tgbotapi.NewMessageToChannel(t.Channel, text)
	}
	return tgbotapi.NewMessage(t.ID, text)
}

// NewBot builds a Bot API client without the getMe round trip that
// tgbotapi.NewBotAPI performs. endpoint is a format string taking the token
// and the method name, e.g. tgbotapi.APIEndpoint. A nil httpClient gets one
// with the given timeout.
func NewBot(token, endpoint string, timeout time.Duration, httpClient *http.Client) *tgbotapi.BotAPI {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: httpClient,
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return bot
}

// Notifier sends text to one fixed chat.
type Notifier struct {
	bot    Sender
	target ChatTarget
	redact *sysutil.Redactor
}

// New returns a Notifier posting to target through bot. When bot is a
// *tgbotapi.BotAPI its token is scrubbed from logged errors.
func New(bot Sender, target ChatTarget) *Notifier {
	var token string
	if b, ok := bot.(*tgbotapi.BotAPI); ok {
		token = b.Token
	}
	return &Notifier{bot: bot, target: target, redact: sysutil.NewRedactor(token)}
}

// SendMessage posts text to the chat. Delivery failures are logged and
// swallowed; the result only reports whether the message went out.
func (n *Notifier) SendMessage(ctx context.Context, text string) (delivered bool) {
	_, span := tracer.Start(ctx, "notify.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("telegram.chat", n.target.String()))

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("chat", n.target.String()).
				Msg("telegram send panicked")
			span.SetStatus(codes.Error, "panic")
			delivered = false
		}
	}()

	if _, err := n.bot.Send(n.target.message(text)); err != nil {
		err = domain.E(domain.KindDelivery, "notify.SendMessage", n.redact.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("kind", domain.KindDelivery.String()).Str("chat", n.target.String()).
			Msg("failed to send telegram message")
		return false
	}
	log.Debug().Str("chat", n.target.String()).Str("text", text).Msg("telegram message sent")
	return true
}
