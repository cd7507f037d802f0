// Package bot implements the Telegram conversation: the document wizard,
// billing, payments and the admin panel.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/observability"
	"github.com/jonathan/referat-bot/internal/pipeline"
	"github.com/jonathan/referat-bot/internal/ratelimit"
	"github.com/jonathan/referat-bot/internal/session"
)

// Sender is the part of the Telegram API the bot uses. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Store is the persistence the bot needs. *db.DB satisfies it.
type Store interface {
	GetOrCreateUser(ctx context.Context, userID int64, username, fullName string) (*db.User, error)
	GetUser(ctx context.Context, userID int64) (*db.User, error)
	UpdateBalance(ctx context.Context, userID int64, amount int) error
	DebitBalance(ctx context.Context, userID int64, amount int) (bool, error)
	DebitFreeQuota(ctx context.Context, userID int64, q db.Quota) (bool, error)
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	ListUserIDs(ctx context.Context) ([]int64, error)

	ApprovePayment(ctx context.Context, userID int64, amount int) error
	AddGenerationLog(ctx context.Context, userID int64, docType, topic string, pages int) error

	GetPrice(ctx context.Context, key string) (int, error)
	SetPrice(ctx context.Context, key string, value int) error
	ListPrices(ctx context.Context) ([]db.Price, error)

	AddAdmin(ctx context.Context, userID int64) error
	RemoveAdmin(ctx context.Context, userID, superAdminID int64) error
	ListAdmins(ctx context.Context) ([]int64, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	AddSample(ctx context.Context, fileID, caption, fileType string) error
	ListSamples(ctx context.Context) ([]db.Sample, error)

	Stats(ctx context.Context) (*db.Stats, error)
	FinancialReport(ctx context.Context) (*db.FinancialReport, error)
	UsageHistory(ctx context.Context) ([]db.UsageRow, error)
}

// Generator produces a rendered document. *pipeline.Runner satisfies it.
type Generator interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// TokenIssuer mints admin API tokens
type TokenIssuer interface {
	GenerateToken(adminID int64) (string, error)
}

// Config holds the bot settings
type Config struct {
	SuperAdminID  int64
	AdminUsername string
	BotUsername   string
	CardNumber    string
	PDFEnabled    bool
	// MaxConcurrent caps generations running at once; <= 0 means 4
	MaxConcurrent int
	// GenerationTimeout bounds one generation; zero means none
	GenerationTimeout time.Duration
	// BroadcastRate is messages per second for broadcasts; <= 0 means 20
	BroadcastRate float64
}

// Bot routes Telegram updates to handlers
type Bot struct {
	api       Sender
	store     Store
	sessions  session.Store
	generator Generator
	limiter   *ratelimit.Limiter
	tokens    TokenIssuer
	config    Config

	slots     *semaphore.Weighted
	broadcast *rate.Limiter

	wg sync.WaitGroup
}

// Option configures optional collaborators
type Option func(*Bot)

// WithLimiter limits generations per user
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(b *Bot) { b.limiter = l }
}

// WithTokenIssuer enables the /token command
func WithTokenIssuer(t TokenIssuer) Option {
	return func(b *Bot) { b.tokens = t }
}

// New creates a bot
func New(api Sender, store Store, sessions session.Store, generator Generator, cfg Config, opts ...Option) *Bot {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.BroadcastRate <= 0 {
		cfg.BroadcastRate = 20
	}
	b := &Bot{
		api:       api,
		store:     store,
		sessions:  sessions,
		generator: generator,
		config:    cfg,
		slots:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		broadcast: rate.NewLimiter(rate.Limit(cfg.BroadcastRate), 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run handles updates until ctx is cancelled or the channel closes, then
// waits for in-flight handlers. Each update is handled in its own goroutine
// so a long generation never blocks other chats.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	log.Println("[BOT] waiting for updates...")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Println("[BOT] stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate dispatches one update synchronously
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BOT] panic handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		observability.BotUpdatesTotal.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		observability.BotUpdatesTotal.WithLabelValues("message").Inc()
		b.handleMessage(ctx, update.Message)
	default:
		observability.BotUpdatesTotal.WithLabelValues("other").Inc()
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "cancel":
			b.handleCancel(ctx, chatID)
		case "help":
			b.handleHelp(chatID)
		case "admin":
			b.handleAdminCommand(ctx, msg)
		case "token":
			b.handleToken(ctx, msg)
		default:
			b.sendHTML(chatID, "❓ Noma'lum buyruq.", mainMenu())
		}
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case btnCancel:
		b.handleCancel(ctx, chatID)
		return
	case btnHelp:
		b.handleHelp(chatID)
		return
	case btnAccount:
		b.handleAccount(ctx, msg)
		return
	case btnPay:
		b.handlePayMenu(ctx, chatID)
		return
	case btnSamples:
		b.handleSamples(ctx, chatID)
		return
	case btnSlides, btnIndependent, btnReferat:
		b.handleWizardStart(ctx, msg)
		return
	}

	state, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		log.Printf("[BOT] session lookup for %d failed: %v", chatID, err)
		b.sendHTML(chatID, msgError, mainMenu())
		return
	}
	if state == nil {
		b.sendHTML(chatID, "👇 Menyudan tanlang.", mainMenu())
		return
	}

	if b.handleWizardMessage(ctx, msg, state) {
		return
	}
	if state.Step == stepPayReceipt {
		b.handleReceipt(ctx, msg, state)
		return
	}
	if strings.HasPrefix(state.Step, adminStepPrefix) {
		b.handleAdminMessage(ctx, msg, state)
		return
	}
	b.sendHTML(chatID, "👇 Menyudan tanlang.", mainMenu())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		b.answer(cb, "")
		return
	}
	data := cb.Data

	switch {
	case data == cbSkip || strings.HasPrefix(data, cbDesign) || strings.HasPrefix(data, cbLength) || strings.HasPrefix(data, cbFormat):
		b.handleWizardCallback(ctx, cb)
	case strings.HasPrefix(data, cbPay) || data == cbCancelPay:
		b.handlePayCallback(ctx, cb)
	case strings.HasPrefix(data, cbApprove) || strings.HasPrefix(data, cbDeny):
		b.handlePaymentDecision(ctx, cb)
	case strings.HasPrefix(data, cbAdmin) || strings.HasPrefix(data, cbBroadcast) || strings.HasPrefix(data, cbEditPrice):
		b.handleAdminCallback(ctx, cb)
	default:
		b.answer(cb, "")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.store.GetOrCreateUser(ctx, msg.From.ID, msg.From.UserName, fullName(msg.From)); err != nil {
		log.Printf("[BOT] register %d failed: %v", msg.From.ID, err)
	}
	_ = b.sessions.Clear(ctx, msg.Chat.ID)
	text := fmt.Sprintf("👋 Salom, <b>%s</b>!\n\nAI yordamida hujjatlar tayyorlovchi botga xush kelibsiz.",
		escape(msg.From.FirstName))
	b.sendHTML(msg.Chat.ID, text, mainMenu())
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		log.Printf("[BOT] clear session %d failed: %v", chatID, err)
	}
	b.sendHTML(chatID, "Bekor qilindi.", mainMenu())
}

func (b *Bot) handleHelp(chatID int64) {
	text := fmt.Sprintf("👨‍💻 <b>Admin:</b> @%s\n\nBot ishlatish bo'yicha savollaringiz bo'lsa adminga yozing.",
		escape(b.config.AdminUsername))
	b.sendHTML(chatID, text, mainMenu())
}

func (b *Bot) handleAccount(ctx context.Context, msg *tgbotapi.Message) {
	u, err := b.store.GetOrCreateUser(ctx, msg.From.ID, msg.From.UserName, fullName(msg.From))
	if err != nil {
		log.Printf("[BOT] account %d failed: %v", msg.From.ID, err)
		b.sendHTML(msg.Chat.ID, msgError, mainMenu())
		return
	}
	text := fmt.Sprintf("👤 <b>Foydalanuvchi:</b> %s\n🆔 %d\n\n💳 <b>Balans:</b> %s so'm\n🎁 <b>Bepul PPTX:</b> %d\n🎁 <b>Bepul DOCX:</b> %d",
		escape(u.FullName), u.UserID, money(u.Balance), u.FreePPTX, u.FreeDOCX)
	b.sendHTML(msg.Chat.ID, text, nil)
}

func (b *Bot) handleSamples(ctx context.Context, chatID int64) {
	samples, err := b.store.ListSamples(ctx)
	if err != nil {
		log.Printf("[BOT] list samples failed: %v", err)
		b.sendHTML(chatID, msgError, mainMenu())
		return
	}
	if len(samples) == 0 {
		b.sendHTML(chatID, "Hozircha namunalar yo'q.", nil)
		return
	}
	for _, s := range samples {
		var c tgbotapi.Chattable
		if s.FileType == db.SamplePhoto {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(s.FileID))
			photo.Caption = s.Caption
			c = photo
		} else {
			doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(s.FileID))
			doc.Caption = s.Caption
			c = doc
		}
		if _, err := b.api.Send(c); err != nil {
			log.Printf("[BOT] send sample %d failed: %v", s.ID, err)
		}
	}
}

// isAdmin checks admin rights; the super admin always has them
func (b *Bot) isAdmin(ctx context.Context, userID int64) bool {
	if userID == b.config.SuperAdminID {
		return true
	}
	ok, err := b.store.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("[BOT] admin check for %d failed: %v", userID, err)
		return false
	}
	return ok
}

func (b *Bot) setState(ctx context.Context, chatID int64, state *session.State) {
	if err := b.sessions.Set(ctx, chatID, state); err != nil {
		log.Printf("[BOT] save session %d failed: %v", chatID, err)
	}
}

// sendHTML sends an HTML message; markup may be nil
func (b *Bot) sendHTML(chatID int64, text string, markup any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("[BOT] send to %d failed: %v", chatID, err)
	}
	return sent, err
}

// editHTML replaces a message's text; markup may be nil
func (b *Bot) editHTML(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	_, err := b.api.Request(edit)
	return err
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Printf("[BOT] delete message %d in %d failed: %v", messageID, chatID, err)
	}
}

// answer acknowledges a callback query
func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.Printf("[BOT] answer callback failed: %v", err)
	}
}

func (b *Bot) alert(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, text)); err != nil {
		log.Printf("[BOT] answer callback failed: %v", err)
	}
}
