package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/referat-bot/internal/session"
)

const (
	stepPayReceipt = "pay_receipt"
	keyAmount      = "amount"
)

func (b *Bot) handlePayMenu(ctx context.Context, chatID int64) {
	_ = b.sessions.Clear(ctx, chatID)
	b.sendHTML(chatID, "👇 <b>To'lov summasini tanlang:</b>", payKeyboard())
}

func (b *Bot) handlePayCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	b.answer(cb, "")

	if cb.Data == cbCancelPay {
		b.deleteMessage(chatID, cb.Message.MessageID)
		_ = b.sessions.Clear(ctx, chatID)
		return
	}

	amount, err := strconv.Atoi(strings.TrimPrefix(cb.Data, cbPay))
	if err != nil || amount <= 0 {
		return
	}
	state := &session.State{Step: stepPayReceipt}
	state.Put(keyAmount, strconv.Itoa(amount))
	b.setState(ctx, chatID, state)

	text := fmt.Sprintf("💳 <b>Karta Raqami:</b>\n<code>%s</code>\n\n💰 <b>Summa:</b> %s so'm\n\n📸 Chekni rasmga olib yuboring.",
		escape(b.config.CardNumber), money(amount))
	if err := b.editHTML(chatID, cb.Message.MessageID, text, nil); err != nil {
		b.sendHTML(chatID, text, nil)
	}
}

// handleReceipt forwards the receipt photo to every admin with approve and
// deny buttons
func (b *Bot) handleReceipt(ctx context.Context, msg *tgbotapi.Message, state *session.State) {
	if len(msg.Photo) == 0 {
		b.sendHTML(msg.Chat.ID, "📸 Chekni rasm ko'rinishida yuboring.", cancelMenu())
		return
	}
	amount, err := strconv.Atoi(state.Get(keyAmount))
	if err != nil || amount <= 0 {
		_ = b.sessions.Clear(ctx, msg.Chat.ID)
		b.sendHTML(msg.Chat.ID, msgError, mainMenu())
		return
	}

	admins, err := b.store.ListAdmins(ctx)
	if err != nil {
		log.Printf("[BOT] list admins failed: %v", err)
	}
	admins = withSuperAdmin(admins, b.config.SuperAdminID)

	fileID := msg.Photo[len(msg.Photo)-1].FileID
	caption := fmt.Sprintf("💸 <b>To'lov!</b>\n👤 %s\nID: %d\n💰 %s",
		escape(fullName(msg.From)), msg.From.ID, money(amount))
	for _, id := range admins {
		photo := tgbotapi.NewPhoto(id, tgbotapi.FileID(fileID))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = receiptKeyboard(msg.From.ID, amount)
		if _, err := b.api.Send(photo); err != nil {
			log.Printf("[BOT] forward receipt to admin %d failed: %v", id, err)
		}
	}

	_ = b.sessions.Clear(ctx, msg.Chat.ID)
	b.sendHTML(msg.Chat.ID, "✅ <b>Chek yuborildi!</b>", mainMenu())
}

// handlePaymentDecision credits or rejects a payment from an admin's
// receipt message
func (b *Bot) handlePaymentDecision(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if !b.isAdmin(ctx, cb.From.ID) {
		b.alert(cb, "Ruxsat yo'q.")
		return
	}

	userID, amount, approve, err := parseDecision(cb.Data)
	if err != nil {
		log.Printf("[BOT] bad payment callback %q: %v", cb.Data, err)
		b.answer(cb, "")
		return
	}

	chatID := cb.Message.Chat.ID
	if approve {
		if err := b.store.ApprovePayment(ctx, userID, amount); err != nil {
			log.Printf("[BOT] approve payment for %d failed: %v", userID, err)
			b.alert(cb, "Xatolik: "+err.Error())
			return
		}
		b.answer(cb, "✅")
		b.editCaption(chatID, cb.Message.MessageID, cb.Message.Caption+"\n✅ QABUL")
		b.sendHTML(userID, fmt.Sprintf("✅ +%s so'm", money(amount)), nil)
		log.Printf("[BOT] admin %d approved %d for %d", cb.From.ID, amount, userID)
		return
	}

	b.answer(cb, "❌")
	b.editCaption(chatID, cb.Message.MessageID, cb.Message.Caption+"\n❌ RAD")
	b.sendHTML(userID, "❌ To'lov rad etildi.", nil)
}

// parseDecision reads "ap_<user>_<amount>" or "de_<user>"
func parseDecision(data string) (userID int64, amount int, approve bool, err error) {
	switch {
	case strings.HasPrefix(data, cbApprove):
		parts := strings.Split(strings.TrimPrefix(data, cbApprove), "_")
		if len(parts) != 2 {
			return 0, 0, false, fmt.Errorf("want user and amount")
		}
		if userID, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
			return 0, 0, false, err
		}
		if amount, err = strconv.Atoi(parts[1]); err != nil || amount <= 0 {
			return 0, 0, false, fmt.Errorf("invalid amount %q", parts[1])
		}
		return userID, amount, true, nil
	case strings.HasPrefix(data, cbDeny):
		userID, err = strconv.ParseInt(strings.TrimPrefix(data, cbDeny), 10, 64)
		return userID, 0, false, err
	default:
		return 0, 0, false, fmt.Errorf("unknown decision")
	}
}

// editCaption replaces a caption and drops the inline buttons so a receipt
// cannot be decided twice
func (b *Bot) editCaption(chatID int64, messageID int, caption string) {
	edit := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("[BOT] edit caption failed: %v", err)
	}
}

func withSuperAdmin(admins []int64, super int64) []int64 {
	if super == 0 {
		return admins
	}
	for _, id := range admins {
		if id == super {
			return admins
		}
	}
	return append(admins, super)
}
