package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/referat-bot/internal/rendering"
)

// Reply keyboard buttons
const (
	btnSlides      = "📊 Taqdimot"
	btnIndependent = "📝 Mustaqil ish"
	btnReferat     = "📑 Referat"
	btnSamples     = "📂 Namunalar"
	btnAccount     = "💰 Mening hisobim"
	btnPay         = "💳 To'lov qilish"
	btnHelp        = "📞 Yordam"
	btnCancel      = "❌ Bekor qilish"
)

// Callback data prefixes
const (
	cbSkip      = "skip_step"
	cbDesign    = "design_"
	cbLength    = "len_"
	cbFormat    = "fmt_"
	cbPay       = "pay_"
	cbCancelPay = "cancel_pay"
	cbApprove   = "ap_"
	cbDeny      = "de_"
	cbAdmin     = "adm_"
	cbBroadcast = "brd_"
	cbEditPrice = "editpr_"
)

const msgError = "❌ Xatolik yuz berdi."

// Length options offered per document kind
var (
	slideCounts = []int{10, 15, 20}
	pageCounts  = []int{15, 20, 25, 30}
	payAmounts  = []int{5000, 10000, 15000, 20000, 30000, 50000}
)

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSlides), tgbotapi.NewKeyboardButton(btnIndependent)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnReferat), tgbotapi.NewKeyboardButton(btnSamples)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnAccount), tgbotapi.NewKeyboardButton(btnPay)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnHelp)),
	)
}

func cancelMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
}

func skipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➡️ O'tkazib yuborish", cbSkip)),
	)
}

// designKeyboard lists the slide themes two per row
func designKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, th := range rendering.Themes() {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(th.Label, cbDesign+th.Name))
	}
	return tgbotapi.NewInlineKeyboardMarkup(chunk(buttons, 2)...)
}

type lengthOption struct {
	Size  int
	Price int
}

// lengthKeyboard shows one priced button per length option
func lengthKeyboard(slides bool, options []lengthOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		label := fmt.Sprintf("%d-%d Bet (%s so'm)", o.Size, o.Size+5, money(o.Price))
		if slides {
			label = fmt.Sprintf("%d Slayd (%s so'm)", o.Size, money(o.Price))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbLength+strconv.Itoa(o.Size)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📄 Word (DOCX)", cbFormat+string(rendering.FormatDOCX)),
		tgbotapi.NewInlineKeyboardButtonData("📕 PDF", cbFormat+string(rendering.FormatPDF)),
	))
}

func payKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, a := range payAmounts {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("💎 "+money(a), cbPay+strconv.Itoa(a)))
	}
	rows := chunk(buttons, 2)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Yopish", cbCancelPay)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func receiptKeyboard(userID int64, amount int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", fmt.Sprintf("%s%d_%d", cbApprove, userID, amount)),
		tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", fmt.Sprintf("%s%d", cbDeny, userID)),
	))
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙", cbAdmin+"back"),
	))
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	buttons := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("📊 Statistika", cbAdmin+"stats"),
		tgbotapi.NewInlineKeyboardButtonData("📝 Foydalanish tarixi", cbAdmin+"usage"),
		tgbotapi.NewInlineKeyboardButtonData("📜 To'lovlar", cbAdmin+"history"),
		tgbotapi.NewInlineKeyboardButtonData("👤 Adminlar", cbAdmin+"manage"),
		tgbotapi.NewInlineKeyboardButtonData("🛠 Narxlar", cbAdmin+"prices"),
		tgbotapi.NewInlineKeyboardButtonData("💰 Balans", cbAdmin+"edit_bal"),
		tgbotapi.NewInlineKeyboardButtonData("✉️ Xabar", cbAdmin+"broadcast_menu"),
		tgbotapi.NewInlineKeyboardButtonData("➕ Namuna", cbAdmin+"add_sample"),
		tgbotapi.NewInlineKeyboardButtonData("🚫 Bloklash", cbAdmin+"block"),
		tgbotapi.NewInlineKeyboardButtonData("♻️ Blokdan chiqarish", cbAdmin+"unblock"),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Yopish", cbAdmin+"close"),
	}
	return tgbotapi.NewInlineKeyboardMarkup(chunk(buttons, 2)...)
}

func chunk(buttons []tgbotapi.InlineKeyboardButton, size int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		n := min(size, len(buttons))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[:n]...))
		buttons = buttons[n:]
	}
	return rows
}

// money formats an amount with thousands separators, e.g. 15,000
func money(amount int) string {
	return humanize.Comma(int64(amount))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// truncate shortens s to n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// priceLabel turns a price key into a button label
func priceLabel(key string) string {
	r := strings.NewReplacer("pptx_", "Taqdimot ", "docx_", "Referat ")
	return r.Replace(key)
}
