package bot

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/observability"
	"github.com/jonathan/referat-bot/internal/pipeline"
	"github.com/jonathan/referat-bot/internal/ratelimit"
	"github.com/jonathan/referat-bot/internal/rendering"
	"github.com/jonathan/referat-bot/internal/session"
)

// Billing labels for the delivered documents metric
const (
	billingFree    = "free"
	billingBalance = "balance"
)

// generate checks the user can pay, runs the pipeline with live progress and
// delivers the file. The charge happens only after a successful render.
func (b *Bot) generate(ctx context.Context, from *tgbotapi.User, chatID int64, state *session.State) {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		log.Printf("[BOT] clear session %d failed: %v", chatID, err)
	}

	dt, ok := lookupDocType(state.Get(keyDocType))
	size, err := strconv.Atoi(state.Get(keySize))
	if !ok || err != nil || state.Get(stepTopic) == "" {
		b.sendHTML(chatID, msgError, mainMenu())
		return
	}

	if b.limiter != nil {
		allowed, info := b.limiter.Allow(strconv.FormatInt(from.ID, 10), ratelimit.ActionGenerate)
		if !allowed {
			minutes := int(math.Ceil(info.RetryAfter.Minutes()))
			b.sendHTML(chatID, fmt.Sprintf("⏳ Juda ko'p so'rov. %d daqiqadan keyin urinib ko'ring.", max(minutes, 1)), mainMenu())
			return
		}
	}

	u, err := b.store.GetOrCreateUser(ctx, from.ID, from.UserName, fullName(from))
	if err != nil {
		log.Printf("[BOT] load user %d failed: %v", from.ID, err)
		b.sendHTML(chatID, msgError, mainMenu())
		return
	}
	if u.IsBlocked {
		b.sendHTML(chatID, "🚫 Siz bloklangansiz.", mainMenu())
		return
	}

	priceKey := db.PriceKey(dt.priceFormat(), size)
	price, err := b.store.GetPrice(ctx, priceKey)
	if err != nil {
		log.Printf("[BOT] price %s failed: %v", priceKey, err)
		price = db.DefaultPrice(priceKey)
	}

	useFree := u.FreeQuota(dt.quota()) > 0
	if !useFree && u.Balance < price {
		b.sendHTML(chatID, "❌ <b>Mablag' yetarli emas!</b>", mainMenu())
		return
	}

	status, err := b.sendHTML(chatID, describeBilling(useFree, price), nil)
	if err != nil {
		return
	}

	if !b.slots.TryAcquire(1) {
		_ = b.editHTML(chatID, status.MessageID, "🕒 <b>Navbatdasiz...</b>\nBoshqa hujjatlar tayyorlanmoqda.", nil)
		if err := b.slots.Acquire(ctx, 1); err != nil {
			b.deleteMessage(chatID, status.MessageID)
			return
		}
	}
	observability.ActiveGenerations.Inc()
	defer func() {
		observability.ActiveGenerations.Dec()
		b.slots.Release(1)
	}()

	runCtx := ctx
	if b.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.config.GenerationTimeout)
		defer cancel()
	}

	format := rendering.Format(state.Get(keyFormat))
	if format == "" {
		format = pipeline.DefaultFormat(dt.Kind)
	}
	opts := pipeline.Options{
		Request: generation.Request{
			Topic:   state.Get(stepTopic),
			Size:    size,
			Kind:    dt.Kind,
			Outline: state.Get(stepOutline),
		},
		Format:     format,
		Theme:      state.Get(stepDesign),
		DocTitle:   dt.Title,
		Info:       titleInfo(state),
		OnProgress: b.progressEditor(chatID, status.MessageID),
	}

	result, err := b.generator.Run(runCtx, opts)
	if err != nil {
		log.Printf("[BOT] generation for %d failed: %v", from.ID, err)
		b.deleteMessage(chatID, status.MessageID)
		b.sendHTML(chatID, msgError, mainMenu())
		return
	}

	billing, ok := b.charge(ctx, from.ID, dt, useFree, price)
	if !ok {
		b.deleteMessage(chatID, status.MessageID)
		b.sendHTML(chatID, "❌ <b>Mablag' yetarli emas!</b>", mainMenu())
		return
	}

	if err := b.store.AddGenerationLog(ctx, from.ID, dt.Key, opts.Request.Topic, size); err != nil {
		log.Printf("[BOT] history for %d failed: %v", from.ID, err)
	}

	b.deleteMessage(chatID, status.MessageID)
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: result.File.Name, Bytes: result.File.Bytes})
	doc.Caption = fmt.Sprintf("✅ Tayyor!\n\n🤖 @%s", b.config.BotUsername)
	doc.ReplyMarkup = mainMenu()
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("[BOT] deliver %s to %d failed: %v", result.File.Name, chatID, err)
		return
	}
	observability.DocumentsDelivered.WithLabelValues(string(result.File.Ext), billing).Inc()
	log.Printf("[BOT] delivered %s to %d (%s, run %s)", result.File.Name, from.ID, billing, result.RunID)
}

// charge debits the free quota or the balance. A free quota spent by a
// concurrent generation falls back to the balance.
func (b *Bot) charge(ctx context.Context, userID int64, dt docType, useFree bool, price int) (string, bool) {
	if useFree {
		ok, err := b.store.DebitFreeQuota(ctx, userID, dt.quota())
		if err != nil {
			log.Printf("[BOT] debit quota for %d failed: %v", userID, err)
		}
		if ok {
			return billingFree, true
		}
	}
	ok, err := b.store.DebitBalance(ctx, userID, price)
	if err != nil {
		log.Printf("[BOT] debit balance for %d failed: %v", userID, err)
		return "", false
	}
	return billingBalance, ok
}

// progressEditor rewrites the status message on every progress event.
// Edit failures, such as an unchanged text, are ignored.
func (b *Bot) progressEditor(chatID int64, messageID int) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) error {
		text := fmt.Sprintf("⏳ <b>Jarayon: %d%%</b>\n\n📝 %s", event.Percent, escape(event.Message))
		_ = b.editHTML(chatID, messageID, text, nil)
		return nil
	}
}
