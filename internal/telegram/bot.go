// Package telegram exposes the tracked-item commands over a Telegram bot.
// The bot is optional glue: without a token the service runs without it.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"bdo-market-watch/internal/notify"
	"bdo-market-watch/internal/service"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Bot wires chat commands to the item service and the watcher.
type Bot struct {
	bot     *bot.Bot
	items   *service.ItemService
	watcher *service.Watcher
	cancel  context.CancelFunc
}

// New creates the command bot. The same service objects back the HTTP API,
// so both surfaces see one tracked set.
func New(token string, items *service.ItemService, watcher *service.Watcher) (*Bot, error) {
	b := &Bot{items: items, watcher: watcher}

	tg, err := bot.New(token, bot.WithDefaultHandler(b.fallback))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = tg

	tg.RegisterHandler(bot.HandlerTypeMessageText, "/track", bot.MatchTypePrefix, b.track)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/untrack", bot.MatchTypePrefix, b.untrack)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/list", bot.MatchTypePrefix, b.list)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/check", bot.MatchTypePrefix, b.check)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, b.status)

	return b, nil
}

// Start registers the command menu and begins long-polling.
func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	if _, err := b.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "track", Description: "Track an item: /track <id> [sid]"},
			{Command: "untrack", Description: "Stop tracking: /untrack <id> [sid]"},
			{Command: "list", Description: "List tracked items"},
			{Command: "check", Description: "Run a market check now"},
			{Command: "status", Description: "Show watcher status"},
		},
	}); err != nil {
		return fmt.Errorf("could not set bot commands: %w", err)
	}

	go b.bot.Start(ctx)
	log.Printf("[TelegramBot] Started")
	return nil
}

// Stop ends long-polling.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bot) reply(ctx context.Context, update *models.Update, text string) {
	if update.Message == nil {
		return
	}
	_, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		log.Printf("[TelegramBot] Failed to send reply: %v", err)
	}
}

// parsePair reads "<id> [sid]" arguments after the command word.
func parsePair(text string) (itemID, sid int, hasSID bool, err error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, 0, false, fmt.Errorf("missing item id")
	}
	itemID, err = strconv.Atoi(fields[1])
	if err != nil || itemID <= 0 {
		return 0, 0, false, fmt.Errorf("item id must be a positive integer")
	}
	if len(fields) >= 3 {
		sid, err = strconv.Atoi(fields[2])
		if err != nil || sid < 0 {
			return 0, 0, false, fmt.Errorf("sid must be a non-negative integer")
		}
		hasSID = true
	}
	return itemID, sid, hasSID, nil
}

func (b *Bot) track(ctx context.Context, _ *bot.Bot, update *models.Update) {
	itemID, sid, _, err := parsePair(update.Message.Text)
	if err != nil {
		b.reply(ctx, update, "Usage: /track <item_id> [sid]")
		return
	}

	item, err := b.items.Track(ctx, itemID, sid)
	if err != nil {
		b.reply(ctx, update, fmt.Sprintf("Could not track %d (sid %d): %v", itemID, sid, err))
		return
	}
	b.reply(ctx, update, fmt.Sprintf("Tracking %s (id %d, sid %d) at %s",
		item.Name, item.ItemID, item.SID, notify.FormatSilver(item.LastPrice)))
}

func (b *Bot) untrack(ctx context.Context, _ *bot.Bot, update *models.Update) {
	itemID, sid, hasSID, err := parsePair(update.Message.Text)
	if err != nil {
		b.reply(ctx, update, "Usage: /untrack <item_id> [sid]")
		return
	}

	var sidArg *int
	if hasSID {
		sidArg = &sid
	}
	removed, err := b.items.Untrack(ctx, itemID, sidArg)
	if err != nil {
		b.reply(ctx, update, fmt.Sprintf("Could not untrack %d: %v", itemID, err))
		return
	}
	if !removed {
		b.reply(ctx, update, fmt.Sprintf("Item %d is not being tracked", itemID))
		return
	}
	b.reply(ctx, update, fmt.Sprintf("Stopped tracking item %d", itemID))
}

func (b *Bot) list(ctx context.Context, _ *bot.Bot, update *models.Update) {
	items, err := b.items.List(ctx)
	if err != nil {
		b.reply(ctx, update, fmt.Sprintf("Could not list items: %v", err))
		return
	}
	if len(items) == 0 {
		b.reply(ctx, update, "No items are being tracked. Add one with /track <id> [sid]")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tracking %d item(s):\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s (id %d, sid %d): %s, %d in stock\n",
			it.Name, it.ItemID, it.SID, notify.FormatSilver(it.LastPrice), it.LastStock)
	}
	b.reply(ctx, update, sb.String())
}

func (b *Bot) check(ctx context.Context, _ *bot.Bot, update *models.Update) {
	report, err := b.watcher.RunNow(ctx)
	if err != nil {
		b.reply(ctx, update, fmt.Sprintf("Check not started: %v", err))
		return
	}
	b.reply(ctx, update, fmt.Sprintf("Check done: %d attempted, %d succeeded, %d notified, %d failed",
		report.Attempted, report.Succeeded, report.Notified, len(report.Failures)))
}

func (b *Bot) status(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := fmt.Sprintf("Watcher is %s, interval %s", b.watcher.State(), b.watcher.Interval())
	if report := b.watcher.LastReport(); report != nil {
		msg += fmt.Sprintf("\nLast pass (%s): %d attempted, %d notified, %d failed",
			report.StartedAt.Format("15:04:05"), report.Attempted, report.Notified, len(report.Failures))
	}
	b.reply(ctx, update, msg)
}

func (b *Bot) fallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || !strings.HasPrefix(update.Message.Text, "/") {
		return
	}
	b.reply(ctx, update, "Commands: /track, /untrack, /list, /check, /status")
}
