package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-bot/internal/reply"
)

const (
	updateBuffer        = 100
	defaultDrainTimeout = 5 * time.Second
)

// Update kinds used as metric labels.
const (
	kindText           = "text"
	kindCommand        = "command"
	kindUnknownCommand = "unknown_command"
	kindOther          = "other"
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type responder interface {
	Reply(ctx context.Context, text string) string
}

type texts interface {
	Text(key string) string
}

type recorder interface {
	IncUpdate(kind string)
	IncDeliveryFailure()
}

type Options struct {
	Workers     int
	PollTimeout int
	DropPending bool
	// DrainTimeout bounds the wait for the update channel to close on shutdown.
	DrainTimeout time.Duration
}

// Handler long-polls Telegram and answers every message on a fixed worker pool.
type Handler struct {
	bot       botAPI
	responder responder
	texts     texts
	metrics   recorder
	opts      Options
	logger    zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// NewBot connects to the Bot API with token and routes the library log through logger.
func NewBot(token string, debug bool, logger zerolog.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(botLogger{l: logger}); err != nil {
		return nil, fmt.Errorf("set telegram logger: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = debug

	return bot, nil
}

func NewHandler(
	bot botAPI,
	r responder,
	t texts,
	m recorder,
	opts Options,
	logger zerolog.Logger,
) *Handler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	return &Handler{
		bot:       bot,
		responder: r,
		texts:     t,
		metrics:   m,
		opts:      opts,
		logger:    logger,
	}
}

// StartPolling blocks until ctx is cancelled, StopPolling is called or the
// update channel is closed. Updates already received are still answered.
// It returns at once when StopPolling was called first.
func (h *Handler) StartPolling(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		h.logger.Info().Msg("telegram polling stopped before it started")
		return nil
	}
	h.cancel = cancel
	h.mu.Unlock()

	if h.opts.DropPending {
		h.dropPendingUpdates()
	}
	h.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = h.opts.PollTimeout
	updates := h.bot.GetUpdatesChan(u)

	// in-flight replies are not cut short by shutdown; each lookup has its own timeout
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	jobs := make(chan tgbotapi.Update, updateBuffer)

	for i := 0; i < h.opts.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range jobs {
				h.handleUpdate(workCtx, id, up)
			}
		}(i)
	}

	h.logger.Info().Int("workers", h.opts.Workers).Msg("telegram polling started")

	defer func() {
		close(jobs)
		wg.Wait()
		h.logger.Info().Msg("telegram polling stopped, workers drained")
	}()

	for {
		select {
		case <-ctx.Done():
			h.drain(updates, jobs)
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			jobs <- up
		}
	}
}

// drain stops long polling and hands every update the library still delivers
// to the workers, until the channel closes or DrainTimeout passes.
func (h *Handler) drain(updates tgbotapi.UpdatesChannel, jobs chan<- tgbotapi.Update) {
	h.bot.StopReceivingUpdates()

	timer := time.NewTimer(h.opts.DrainTimeout)
	defer timer.Stop()

	drained := 0
	for {
		select {
		case up, ok := <-updates:
			if !ok {
				h.logger.Debug().Int("drained", drained).Msg("update channel closed")
				return
			}
			jobs <- up
			drained++
		case <-timer.C:
			h.logger.Warn().
				Int("drained", drained).
				Dur("timeout", h.opts.DrainTimeout).
				Msg("update channel did not close in time")
			return
		}
	}
}

// StopPolling cancels a running poll. Called before StartPolling, it makes
// StartPolling return immediately.
func (h *Handler) StopPolling() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Handler) handleUpdate(ctx context.Context, worker int, up tgbotapi.Update) {
	msg := up.Message
	if msg == nil || msg.Chat == nil {
		h.metrics.IncUpdate(kindOther)
		return
	}
	chatID := msg.Chat.ID

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().
				Int("worker", worker).
				Int64("chat_id", chatID).
				Interface("panic", rec).
				Msg("update handler panicked")
			h.sendPlain(chatID, h.texts.Text(reply.KeyGenericError))
		}
	}()

	if msg.IsCommand() {
		key, ok := commandRoutes[msg.Command()]
		if !ok {
			h.metrics.IncUpdate(kindUnknownCommand)
			h.logger.Debug().Str("command", msg.Command()).Msg("ignoring unknown command")
			return
		}
		h.metrics.IncUpdate(kindCommand)
		h.send(chatID, h.texts.Text(key))
		return
	}

	h.metrics.IncUpdate(kindText)
	if strings.TrimSpace(msg.Text) != "" {
		h.sendTyping(chatID)
	}
	h.send(chatID, h.responder.Reply(ctx, msg.Text))
}

// send delivers a Markdown reply and falls back once to the plain generic error.
func (h *Handler) send(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown

	if _, err := h.bot.Send(m); err != nil {
		h.metrics.IncDeliveryFailure()
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to deliver reply, sending fallback")
		h.sendPlain(chatID, h.texts.Text(reply.KeyGenericError))
	}
}

func (h *Handler) sendPlain(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to deliver fallback reply")
	}
}

func (h *Handler) sendTyping(chatID int64) {
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		h.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("failed to send typing action")
	}
}

func (h *Handler) dropPendingUpdates() {
	if _, err := h.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		h.logger.Warn().Err(err).Msg("failed to drop pending updates")
	}
}

func (h *Handler) registerCommands() {
	if _, err := h.bot.Request(tgbotapi.NewSetMyCommands(menuCommands...)); err != nil {
		h.logger.Warn().Err(err).Msg("failed to register menu commands")
	}
}

// botLogger adapts zerolog to the Bot API library logger.
type botLogger struct {
	l zerolog.Logger
}

func (b botLogger) Println(v ...interface{}) {
	b.l.Debug().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (b botLogger) Printf(format string, v ...interface{}) {
	b.l.Debug().Msgf(format, v...)
}
