// Package telegram implements the interactive bot front end: command
// handling over long polling, MarkdownV2 message formatting, and the hourly
// scheduler that delivers daily updates to subscribed chats.
//
// Sends are retried with linear backoff for resilience against transient
// Telegram API failures and rate limiting.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jlow/kalshipulse/internal/logger"
	"github.com/jlow/kalshipulse/internal/models"
	"github.com/jlow/kalshipulse/internal/store"
)

const helpText = `*KalshiPulse Bot*

Market commands:
/topvolume \- top events by 24h volume
/topmovers \- top events by 24h price change
/politics \- top politics events
/economics \- top economics events

Subscription commands:
/subscribe \- receive a daily market update
/settime \- choose your daily update hour
/unsubscribe \- stop daily updates
/status \- show your subscription`

// EventProvider supplies ranked events for a category. Satisfied by
// markets.Service.
type EventProvider interface {
	TopEventsByCategory(ctx context.Context, category string, topN int, sortBy string) ([]models.Event, error)
}

// sender is the subset of tgbotapi.BotAPI the bot uses to talk to Telegram.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options configures bot behavior.
type Options struct {
	TopN               int
	MaxOptionsPerEvent int
	Categories         []string
	Timezone           *time.Location
	MaxRetries         int
	RetryDelayBase     time.Duration
}

// Bot handles Telegram commands and sends scheduled daily updates.
type Bot struct {
	api      sender
	poller   *tgbotapi.BotAPI
	provider EventProvider
	subs     *store.Store
	opts     Options
	now      func() time.Time
}

// New creates a Bot authenticated with the given token.
func New(token string, provider EventProvider, subs *store.Store, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("Telegram bot authorized as @%s", api.Self.UserName)

	b := newBot(api, provider, subs, opts)
	b.poller = api
	return b, nil
}

// newBot wires a Bot around an arbitrary sender.
func newBot(api sender, provider EventProvider, subs *store.Store, opts Options) *Bot {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.MaxOptionsPerEvent <= 0 {
		opts.MaxOptionsPerEvent = 4
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelayBase <= 0 {
		opts.RetryDelayBase = time.Second
	}
	return &Bot{
		api:      api,
		provider: provider,
		subs:     subs,
		opts:     opts,
		now:      time.Now,
	}
}

// Run polls for updates and fires the scheduled daily sends until ctx is
// cancelled. The scheduler ticks at the top of every hour in the configured
// timezone; chats subscribed for that hour get the volume update.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.poller.GetUpdatesChan(u)
	defer b.poller.StopReceivingUpdates()

	timer := time.NewTimer(untilNextHour(b.now().In(b.opts.Timezone)))
	defer timer.Stop()

	logger.Info("Telegram bot running, %d subscribed chats", b.subs.Count())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Telegram bot shutting down")
			return nil
		case update := <-updates:
			b.handleUpdate(ctx, update)
		case <-timer.C:
			now := b.now().In(b.opts.Timezone)
			b.sendScheduledUpdates(ctx, now.Hour())
			timer.Reset(untilNextHour(now))
		}
	}
}

// untilNextHour returns the duration until the next top of the hour.
func untilNextHour(t time.Time) time.Duration {
	next := t.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(t)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	logger.Debug("Command /%s from chat %d", msg.Command(), chatID)

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "topvolume":
		b.sendTopEvents(ctx, chatID, b.opts.Categories, models.SortByVolume)
	case "topmovers":
		b.sendTopEvents(ctx, chatID, b.opts.Categories, models.SortByPriceChange)
	case "politics":
		b.sendTopEvents(ctx, chatID, []string{"Politics"}, models.SortByVolume)
	case "economics":
		b.sendTopEvents(ctx, chatID, []string{"Economics"}, models.SortByVolume)
	case "subscribe":
		b.handleSubscribe(chatID)
	case "unsubscribe":
		b.handleUnsubscribe(chatID)
	case "status":
		b.handleStatus(chatID)
	case "settime":
		b.handleSetTime(chatID)
	default:
		b.reply(chatID, "Unknown command\\. See /help for the list of commands\\.")
	}
}

// sendTopEvents posts a temporary progress message, fetches each requested
// category, then replaces the progress message with the formatted update.
func (b *Bot) sendTopEvents(ctx context.Context, chatID int64, categories []string, sortBy string) {
	progressText := "Fetching latest market data..."
	if sortBy == models.SortByPriceChange {
		progressText = "Fetching market data and 24h price history, this can take a little longer..."
	}
	progress, err := b.api.Send(tgbotapi.NewMessage(chatID, progressText))
	if err != nil {
		logger.Error("Failed to send progress message to chat %d: %v", chatID, err)
		return
	}

	sections := make([]string, 0, len(categories))
	for _, category := range categories {
		events, err := b.provider.TopEventsByCategory(ctx, category, b.opts.TopN, sortBy)
		if err != nil {
			logger.Error("Failed to fetch %s events: %v", category, err)
			edit := tgbotapi.NewEditMessageText(chatID, progress.MessageID,
				"Could not fetch market data right now. Please try again later.")
			if _, err := b.api.Send(edit); err != nil {
				logger.Error("Failed to edit progress message in chat %d: %v", chatID, err)
			}
			return
		}
		sections = append(sections, FormatCategorySection(events, category, sortBy, b.opts.MaxOptionsPerEvent))
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, progress.MessageID)); err != nil {
		logger.Warn("Failed to delete progress message in chat %d: %v", chatID, err)
	}

	text := FormatUpdate(b.now().In(b.opts.Timezone), sortBy, sections)
	if err := b.sendMarkdown(chatID, text); err != nil {
		logger.Error("Failed to send update to chat %d: %v", chatID, err)
	}
}

func (b *Bot) handleSubscribe(chatID int64) {
	created, err := b.subs.Subscribe(chatID)
	if err != nil {
		logger.Error("Failed to subscribe chat %d: %v", chatID, err)
		b.reply(chatID, "Something went wrong saving your subscription\\. Please try again\\.")
		return
	}
	sub, _ := b.subs.Get(chatID)
	hourLabel := EscapeMarkdownV2(formatHourDisplay(sub.Hour))
	if created {
		b.reply(chatID, fmt.Sprintf("Subscribed\\! You will receive a daily update at %s\\. Use /settime to change the hour\\.", hourLabel))
	} else {
		b.reply(chatID, fmt.Sprintf("You are already subscribed for %s\\. Use /settime to change the hour\\.", hourLabel))
	}
}

func (b *Bot) handleUnsubscribe(chatID int64) {
	removed, err := b.subs.Unsubscribe(chatID)
	if err != nil {
		logger.Error("Failed to unsubscribe chat %d: %v", chatID, err)
		b.reply(chatID, "Something went wrong saving your subscription\\. Please try again\\.")
		return
	}
	if removed {
		b.reply(chatID, "Unsubscribed\\. You will no longer receive daily updates\\.")
	} else {
		b.reply(chatID, "You were not subscribed\\.")
	}
}

func (b *Bot) handleStatus(chatID int64) {
	sub, ok := b.subs.Get(chatID)
	if !ok {
		b.reply(chatID, "You are not subscribed\\. Use /subscribe to receive daily updates\\.")
		return
	}
	hourLabel := EscapeMarkdownV2(formatHourDisplay(sub.Hour))
	b.reply(chatID, fmt.Sprintf("Subscribed\\. Daily update at %s \\(%s\\)\\.", hourLabel, EscapeMarkdownV2(b.opts.Timezone.String())))
}

func (b *Bot) handleSetTime(chatID int64) {
	if _, ok := b.subs.Get(chatID); !ok {
		b.reply(chatID, "Use /subscribe first, then /settime to pick your hour\\.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Pick your daily update hour:")
	msg.ReplyMarkup = setTimeKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to send settime keyboard to chat %d: %v", chatID, err)
	}
}

// setTimeKeyboard builds a 6x4 grid of hour buttons with callback data
// "settime_<hour>".
func setTimeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for start := 0; start < 24; start += 4 {
		var row []tgbotapi.InlineKeyboardButton
		for hour := start; hour < start+4; hour++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				formatHourDisplay(hour), fmt.Sprintf("settime_%d", hour)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || !strings.HasPrefix(cb.Data, "settime_") {
		return
	}
	chatID := cb.Message.Chat.ID

	hour, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "settime_"))
	if err != nil || hour < 0 || hour > 23 {
		logger.Warn("Ignoring callback with bad hour %q from chat %d", cb.Data, chatID)
		return
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Warn("Failed to answer callback from chat %d: %v", chatID, err)
	}

	if err := b.subs.SetHour(chatID, hour); err != nil {
		logger.Error("Failed to set hour for chat %d: %v", chatID, err)
		b.reply(chatID, "Use /subscribe first, then /settime to pick your hour\\.")
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID,
		fmt.Sprintf("Daily update time set to %s.", formatHourDisplay(hour)))
	if _, err := b.api.Send(edit); err != nil {
		logger.Error("Failed to confirm settime in chat %d: %v", chatID, err)
	}
}

// sendScheduledUpdates builds one volume update and delivers it to every chat
// subscribed for the given hour.
func (b *Bot) sendScheduledUpdates(ctx context.Context, hour int) {
	chats := b.subs.ChatsForHour(hour)
	if len(chats) == 0 {
		logger.Debug("No chats subscribed for hour %d", hour)
		return
	}
	logger.Info("Sending scheduled update for hour %d to %d chats", hour, len(chats))

	sections := make([]string, 0, len(b.opts.Categories))
	for _, category := range b.opts.Categories {
		events, err := b.provider.TopEventsByCategory(ctx, category, b.opts.TopN, models.SortByVolume)
		if err != nil {
			logger.Error("Scheduled update aborted, failed to fetch %s events: %v", category, err)
			return
		}
		sections = append(sections, FormatCategorySection(events, category, models.SortByVolume, b.opts.MaxOptionsPerEvent))
	}
	text := FormatUpdate(b.now().In(b.opts.Timezone), models.SortByVolume, sections)

	for _, chatID := range chats {
		if err := b.sendMarkdown(chatID, text); err != nil {
			logger.Error("Failed to deliver scheduled update to chat %d: %v", chatID, err)
		}
	}
}

// reply sends a MarkdownV2 message, logging delivery failures.
func (b *Bot) reply(chatID int64, text string) {
	if err := b.sendMarkdown(chatID, text); err != nil {
		logger.Error("Failed to send message to chat %d: %v", chatID, err)
	}
}

// sendMarkdown sends a MarkdownV2 message with linear-backoff retry.
func (b *Bot) sendMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < b.opts.MaxRetries; i++ {
		_, err := b.api.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(b.opts.RetryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("send message after %d attempts: %w", b.opts.MaxRetries, lastErr)
}
