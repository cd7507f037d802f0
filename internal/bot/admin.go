package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/session"
)

// Admin steps share a prefix so the message router can recognize them
const (
	adminStepPrefix = "admin_"

	stepAdminAdd        = adminStepPrefix + "add_id"
	stepAdminRemove     = adminStepPrefix + "del_id"
	stepPriceValue      = adminStepPrefix + "price_value"
	stepBalanceID       = adminStepPrefix + "balance_id"
	stepBalanceAmount   = adminStepPrefix + "balance_amount"
	stepSampleFile      = adminStepPrefix + "sample_file"
	stepSampleCaption   = adminStepPrefix + "sample_caption"
	stepBroadcastTarget = adminStepPrefix + "broadcast_id"
	stepBroadcastMsg    = adminStepPrefix + "broadcast_msg"
	stepBlockID         = adminStepPrefix + "block_id"
	stepUnblockID       = adminStepPrefix + "unblock_id"
)

const (
	keyPriceKey  = "price_key"
	keyTarget    = "target"
	keyFileID    = "file_id"
	keyFileType  = "file_type"
	broadcastAll = "all"

	// telegram rejects longer messages
	maxMessageRunes = 4000
)

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(ctx, msg.From.ID) {
		return
	}
	_ = b.sessions.Clear(ctx, msg.Chat.ID)
	b.sendHTML(msg.Chat.ID, "Admin Panel", adminKeyboard())
}

// handleToken issues an admin API token to the super admin
func (b *Bot) handleToken(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.config.SuperAdminID {
		return
	}
	if b.tokens == nil {
		b.sendHTML(msg.Chat.ID, "🔒 Admin API o'chirilgan.", nil)
		return
	}
	token, err := b.tokens.GenerateToken(msg.From.ID)
	if err != nil {
		log.Printf("[BOT] issue token failed: %v", err)
		b.sendHTML(msg.Chat.ID, msgError, nil)
		return
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf("🔑 <b>API token:</b>\n<code>%s</code>", escape(token)), nil)
}

func (b *Bot) handleAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if !b.isAdmin(ctx, cb.From.ID) {
		b.alert(cb, "Ruxsat yo'q.")
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	if key, ok := strings.CutPrefix(cb.Data, cbEditPrice); ok {
		b.answer(cb, "")
		b.askPrice(ctx, chatID, key)
		return
	}
	if target, ok := strings.CutPrefix(cb.Data, cbBroadcast); ok {
		b.answer(cb, "")
		b.askBroadcast(ctx, chatID, target)
		return
	}

	action := strings.TrimPrefix(cb.Data, cbAdmin)
	if action == "manage" || action == "add_new" || action == "del_old" {
		if cb.From.ID != b.config.SuperAdminID {
			b.alert(cb, "Faqat Super Admin!")
			return
		}
	}
	b.answer(cb, "")

	switch action {
	case "stats":
		b.showStats(ctx, chatID, messageID)
	case "usage":
		b.showUsage(ctx, chatID, messageID)
	case "history":
		b.showFinance(ctx, chatID, messageID)
	case "manage":
		b.showAdmins(ctx, chatID, messageID)
	case "add_new":
		b.prompt(ctx, chatID, stepAdminAdd, "Yangi admin ID:")
	case "del_old":
		b.prompt(ctx, chatID, stepAdminRemove, "O'chiriladigan admin ID:")
	case "prices":
		b.showPrices(ctx, chatID, messageID)
	case "edit_bal":
		b.prompt(ctx, chatID, stepBalanceID, "User ID:")
	case "broadcast_menu":
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📢 Hammaga", cbBroadcast+broadcastAll),
				tgbotapi.NewInlineKeyboardButtonData("👤 Bittaga", cbBroadcast+"one"),
			),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙", cbAdmin+"back")),
		)
		_ = b.editHTML(chatID, messageID, "Kimga?", &kb)
	case "add_sample":
		b.prompt(ctx, chatID, stepSampleFile, "Fayl yoki rasm yuboring:")
	case "block":
		b.prompt(ctx, chatID, stepBlockID, "Bloklanadigan user ID:")
	case "unblock":
		b.prompt(ctx, chatID, stepUnblockID, "Blokdan chiqariladigan user ID:")
	case "back":
		kb := adminKeyboard()
		_ = b.editHTML(chatID, messageID, "Admin Panel", &kb)
	case "close":
		b.deleteMessage(chatID, messageID)
	}
}

// prompt asks for admin input and enters step
func (b *Bot) prompt(ctx context.Context, chatID int64, step, text string) {
	b.setState(ctx, chatID, &session.State{Step: step})
	b.sendHTML(chatID, text, cancelMenu())
}

func (b *Bot) showStats(ctx context.Context, chatID int64, messageID int) {
	s, err := b.store.Stats(ctx)
	if err != nil {
		log.Printf("[BOT] stats failed: %v", err)
		b.sendHTML(chatID, msgError, nil)
		return
	}
	text := fmt.Sprintf("📊 <b>Statistika</b>\n\n👥 Jami user: %d\n🚫 Bloklangan: %d\n🆕 Bugun: %d\n💰 Tushum (Bugun): %s\n📂 Yaratilgan fayllar: %d",
		s.TotalUsers, s.BlockedUsers, s.NewToday, money(s.IncomeToday), s.Documents)
	kb := backKeyboard()
	_ = b.editHTML(chatID, messageID, text, &kb)
}

func (b *Bot) showUsage(ctx context.Context, chatID int64, messageID int) {
	rows, err := b.store.UsageHistory(ctx)
	if err != nil {
		log.Printf("[BOT] usage failed: %v", err)
		b.sendHTML(chatID, msgError, nil)
		return
	}
	var sb strings.Builder
	sb.WriteString("📝 <b>Foydalanish Tarixi (Oxirgi 20):</b>\n\n")
	for _, r := range rows {
		emoji := "📑"
		if r.DocType == docTypes[btnSlides].Key {
			emoji = "📊"
		}
		fmt.Fprintf(&sb, "%s <b>%s</b>\n   mavzu: %s...\n   <i>%s</i>\n\n",
			emoji, escape(r.FullName), escape(truncate(r.Topic, 20)), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	if len(rows) == 0 {
		sb.WriteString("Hozircha ma'lumot yo'q.")
	}
	kb := backKeyboard()
	_ = b.editHTML(chatID, messageID, truncate(sb.String(), maxMessageRunes), &kb)
}

func (b *Bot) showFinance(ctx context.Context, chatID int64, messageID int) {
	r, err := b.store.FinancialReport(ctx)
	if err != nil {
		log.Printf("[BOT] finance failed: %v", err)
		b.sendHTML(chatID, msgError, nil)
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 <b>To'lovlar</b>\nBugun: %s\nOy: %s\nJami: %s\n\n📜 <b>Oxirgi to'lovlar:</b>\n",
		money(r.Daily), money(r.Monthly), money(r.Total))
	for _, t := range r.Recent {
		fmt.Fprintf(&sb, "🔹 %s | %s | %s\n", t.CreatedAt.Format("01-02 15:04"), escape(truncate(t.FullName, 10)), money(t.Amount))
	}
	kb := backKeyboard()
	_ = b.editHTML(chatID, messageID, truncate(sb.String(), maxMessageRunes), &kb)
}

func (b *Bot) showAdmins(ctx context.Context, chatID int64, messageID int) {
	admins, err := b.store.ListAdmins(ctx)
	if err != nil {
		log.Printf("[BOT] list admins failed: %v", err)
		b.sendHTML(chatID, msgError, nil)
		return
	}
	var sb strings.Builder
	sb.WriteString("👤 <b>Adminlar:</b>\n")
	for _, id := range admins {
		fmt.Fprintf(&sb, "👮 %d\n", id)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Qo'shish", cbAdmin+"add_new")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➖ O'chirish", cbAdmin+"del_old")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙", cbAdmin+"back")),
	)
	_ = b.editHTML(chatID, messageID, sb.String(), &kb)
}

func (b *Bot) showPrices(ctx context.Context, chatID int64, messageID int) {
	prices, err := b.store.ListPrices(ctx)
	if err != nil {
		log.Printf("[BOT] list prices failed: %v", err)
		b.sendHTML(chatID, msgError, nil)
		return
	}
	var buttons []tgbotapi.InlineKeyboardButton
	for _, p := range prices {
		label := fmt.Sprintf("%s (%s)", priceLabel(p.Key), money(p.Value))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, cbEditPrice+p.Key))
	}
	rows := chunk(buttons, 2)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙", cbAdmin+"back")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	_ = b.editHTML(chatID, messageID, "Narxni tanlang:", &kb)
}

func (b *Bot) askPrice(ctx context.Context, chatID int64, key string) {
	current, err := b.store.GetPrice(ctx, key)
	if err != nil {
		log.Printf("[BOT] price %s failed: %v", key, err)
		current = db.DefaultPrice(key)
	}
	state := &session.State{Step: stepPriceValue}
	state.Put(keyPriceKey, key)
	b.setState(ctx, chatID, state)
	b.sendHTML(chatID, fmt.Sprintf("Yangi narx (%s):", money(current)), cancelMenu())
}

func (b *Bot) askBroadcast(ctx context.Context, chatID int64, target string) {
	if target == broadcastAll {
		state := &session.State{Step: stepBroadcastMsg}
		state.Put(keyTarget, broadcastAll)
		b.setState(ctx, chatID, state)
		b.sendHTML(chatID, "Xabar:", cancelMenu())
		return
	}
	b.prompt(ctx, chatID, stepBroadcastTarget, "ID:")
}

// handleAdminMessage consumes input for the admin step in state
func (b *Bot) handleAdminMessage(ctx context.Context, msg *tgbotapi.Message, state *session.State) {
	chatID := msg.Chat.ID
	if !b.isAdmin(ctx, msg.From.ID) {
		_ = b.sessions.Clear(ctx, chatID)
		return
	}
	done := func(text string) {
		_ = b.sessions.Clear(ctx, chatID)
		b.sendHTML(chatID, text, mainMenu())
		b.sendHTML(chatID, "Admin Panel", adminKeyboard())
	}
	text := strings.TrimSpace(msg.Text)

	switch state.Step {
	case stepAdminAdd, stepAdminRemove, stepBlockID, stepUnblockID, stepBalanceID, stepBroadcastTarget:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || id <= 0 {
			b.sendHTML(chatID, "Xato ID. Raqam yozing.", nil)
			return
		}
		b.handleAdminID(ctx, chatID, state, id, done)

	case stepPriceValue:
		value, err := strconv.Atoi(text)
		if err != nil || value <= 0 {
			b.sendHTML(chatID, "Raqam yozing.", nil)
			return
		}
		if err := b.store.SetPrice(ctx, state.Get(keyPriceKey), value); err != nil {
			log.Printf("[BOT] set price failed: %v", err)
			done(msgError)
			return
		}
		done("✅ OK")

	case stepBalanceAmount:
		amount, err := strconv.Atoi(text)
		if err != nil {
			b.sendHTML(chatID, "Raqam yozing (+/-).", nil)
			return
		}
		target, _ := strconv.ParseInt(state.Get(keyTarget), 10, 64)
		if err := b.store.UpdateBalance(ctx, target, amount); err != nil {
			log.Printf("[BOT] update balance failed: %v", err)
			done(msgError)
			return
		}
		log.Printf("[BOT] admin %d changed balance of %d by %d", msg.From.ID, target, amount)
		done("✅ OK")

	case stepSampleFile:
		fileID, fileType, ok := sampleFile(msg)
		if !ok {
			b.sendHTML(chatID, "Faqat pptx/docx/pdf fayl yoki rasm!", nil)
			return
		}
		state.Step = stepSampleCaption
		state.Put(keyFileID, fileID)
		state.Put(keyFileType, fileType)
		b.setState(ctx, chatID, state)
		b.sendHTML(chatID, "Nom:", nil)

	case stepSampleCaption:
		if text == "" {
			b.sendHTML(chatID, "Nom yozing.", nil)
			return
		}
		if err := b.store.AddSample(ctx, state.Get(keyFileID), text, state.Get(keyFileType)); err != nil {
			log.Printf("[BOT] add sample failed: %v", err)
			done(msgError)
			return
		}
		done("✅ Saqlandi.")

	case stepBroadcastMsg:
		_ = b.sessions.Clear(ctx, chatID)
		b.runBroadcast(ctx, msg, state.Get(keyTarget))
	}
}

// handleAdminID completes the steps that take a user ID
func (b *Bot) handleAdminID(ctx context.Context, chatID int64, state *session.State, id int64, done func(string)) {
	switch state.Step {
	case stepAdminAdd:
		if err := b.store.AddAdmin(ctx, id); err != nil {
			log.Printf("[BOT] add admin failed: %v", err)
			done(msgError)
			return
		}
		done("✅ Qo'shildi")
	case stepAdminRemove:
		err := b.store.RemoveAdmin(ctx, id, b.config.SuperAdminID)
		switch {
		case errors.Is(err, db.ErrSuperAdmin):
			done("⛔ Super adminni o'chirib bo'lmaydi.")
		case err != nil:
			log.Printf("[BOT] remove admin failed: %v", err)
			done(msgError)
		default:
			done("🗑 O'chirildi")
		}
	case stepBlockID, stepUnblockID:
		block := state.Step == stepBlockID
		if err := b.store.SetBlocked(ctx, id, block); err != nil {
			log.Printf("[BOT] set blocked failed: %v", err)
			done(msgError)
			return
		}
		if block {
			done("🚫 Bloklandi")
		} else {
			done("♻️ Blokdan chiqarildi")
		}
	case stepBalanceID:
		u, err := b.store.GetUser(ctx, id)
		if err != nil || u == nil {
			b.sendHTML(chatID, "Foydalanuvchi topilmadi. Boshqa ID yozing.", nil)
			return
		}
		state.Step = stepBalanceAmount
		state.Put(keyTarget, strconv.FormatInt(id, 10))
		b.setState(ctx, chatID, state)
		b.sendHTML(chatID, fmt.Sprintf("User: %s (%s)\nSumma (+/-):", escape(u.FullName), money(u.Balance)), nil)
	case stepBroadcastTarget:
		state.Step = stepBroadcastMsg
		state.Put(keyTarget, strconv.FormatInt(id, 10))
		b.setState(ctx, chatID, state)
		b.sendHTML(chatID, "Xabar:", nil)
	}
}

// runBroadcast copies msg to one user or to everyone, paced by the
// broadcast limiter
func (b *Bot) runBroadcast(ctx context.Context, msg *tgbotapi.Message, target string) {
	chatID := msg.Chat.ID
	var ids []int64
	if target == broadcastAll {
		all, err := b.store.ListUserIDs(ctx)
		if err != nil {
			log.Printf("[BOT] list users failed: %v", err)
			b.sendHTML(chatID, msgError, mainMenu())
			return
		}
		ids = all
		b.sendHTML(chatID, fmt.Sprintf("⏳ %d...", len(ids)), nil)
	} else {
		id, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			b.sendHTML(chatID, msgError, mainMenu())
			return
		}
		ids = []int64{id}
	}

	sent := 0
	for _, id := range ids {
		if err := b.broadcast.Wait(ctx); err != nil {
			break
		}
		if _, err := b.api.Request(tgbotapi.NewCopyMessage(id, chatID, msg.MessageID)); err != nil {
			log.Printf("[BOT] broadcast to %d failed: %v", id, err)
			continue
		}
		sent++
	}
	log.Printf("[BOT] broadcast by %d delivered to %d/%d", msg.From.ID, sent, len(ids))

	if target != broadcastAll {
		if sent == 1 {
			b.sendHTML(chatID, "✅ Bordi.", mainMenu())
		} else {
			b.sendHTML(chatID, "❌ Xato", mainMenu())
		}
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("✅ %d bordi.", sent), mainMenu())
}

// sampleFile extracts an uploadable sample from a message
func sampleFile(msg *tgbotapi.Message) (fileID, fileType string, ok bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, db.SamplePhoto, true
	}
	if msg.Document == nil {
		return "", "", false
	}
	switch strings.ToLower(filepath.Ext(msg.Document.FileName)) {
	case ".pptx", ".docx", ".doc", ".pdf":
		return msg.Document.FileID, db.SampleDocument, true
	}
	return "", "", false
}
