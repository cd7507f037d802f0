package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/rendering"
	"github.com/jonathan/referat-bot/internal/session"
)

// Wizard steps
const (
	stepTopic     = "topic"
	stepOutline   = "outline"
	stepStudent   = "student"
	stepEduPlace  = "edu_place"
	stepDirection = "direction"
	stepGroup     = "group"
	stepSubject   = "subject"
	stepTeacher   = "teacher"
	stepDesign    = "design"
	stepLength    = "length"
	stepFormat    = "format"
)

// Session data keys
const (
	keyDocType = "doc_type"
	keySize    = "size"
	keyFormat  = "format"
)

// docType is one of the document kinds offered in the main menu
type docType struct {
	Key   string
	Title string
	Kind  generation.Kind
}

var docTypes = map[string]docType{
	btnSlides:      {Key: "taqdimot", Title: "Taqdimot", Kind: generation.KindSlides},
	btnReferat:     {Key: "referat", Title: "Referat", Kind: generation.KindDocument},
	btnIndependent: {Key: "mustaqil_ish", Title: "Mustaqil ish", Kind: generation.KindDocument},
}

func lookupDocType(key string) (docType, bool) {
	for _, d := range docTypes {
		if d.Key == key {
			return d, true
		}
	}
	return docType{}, false
}

// quota is the free generation counter a document type draws from
func (d docType) quota() db.Quota {
	if d.Kind == generation.KindSlides {
		return db.QuotaPPTX
	}
	return db.QuotaDOCX
}

// priceFormat is the prices table prefix for the document type
func (d docType) priceFormat() string {
	if d.Kind == generation.KindSlides {
		return string(rendering.FormatPPTX)
	}
	return string(rendering.FormatDOCX)
}

// wizardStep describes a free-text question. Skippable steps show the skip
// button and store rendering.Skipped when it is pressed.
type wizardStep struct {
	Prompt    string
	Label     string
	Skippable bool
}

var wizardSteps = map[string]wizardStep{
	stepTopic:     {Prompt: "📝 <b>Mavzuni kiriting:</b>"},
	stepOutline:   {Prompt: "📋 <b>Reja kiritasizmi?</b>\n\nBo'limlarni vergul yoki yangi qatordan yozing.", Label: "📋 Reja", Skippable: true},
	stepStudent:   {Prompt: "👤 <b>F.I.O:</b>"},
	stepEduPlace:  {Prompt: "🏫 <b>O'qish joyi:</b>", Label: "🏫 O'qish joyi", Skippable: true},
	stepDirection: {Prompt: "📚 <b>Yo'nalish:</b>", Label: "📚 Yo'nalish", Skippable: true},
	stepGroup:     {Prompt: "🔢 <b>Guruh:</b>", Label: "🔢 Guruh", Skippable: true},
	stepSubject:   {Prompt: "📘 <b>Fan nomi:</b>"},
	stepTeacher:   {Prompt: "👨‍🏫 <b>O'qituvchi:</b>"},
}

// nextStep is the free-text step order; teacher is followed by design or
// length depending on the document kind
var nextStep = map[string]string{
	stepTopic:     stepOutline,
	stepOutline:   stepStudent,
	stepStudent:   stepEduPlace,
	stepEduPlace:  stepDirection,
	stepDirection: stepGroup,
	stepGroup:     stepSubject,
	stepSubject:   stepTeacher,
}

func (b *Bot) handleWizardStart(ctx context.Context, msg *tgbotapi.Message) {
	dt := docTypes[strings.TrimSpace(msg.Text)]

	u, err := b.store.GetOrCreateUser(ctx, msg.From.ID, msg.From.UserName, fullName(msg.From))
	if err != nil {
		log.Printf("[BOT] register %d failed: %v", msg.From.ID, err)
		b.sendHTML(msg.Chat.ID, msgError, mainMenu())
		return
	}
	if u.IsBlocked {
		b.sendHTML(msg.Chat.ID, "🚫 Siz bloklangansiz.", nil)
		return
	}

	state := &session.State{Step: stepTopic}
	state.Put(keyDocType, dt.Key)
	b.setState(ctx, msg.Chat.ID, state)
	b.sendHTML(msg.Chat.ID, wizardSteps[stepTopic].Prompt, cancelMenu())
}

// handleWizardMessage consumes a free-text answer. It returns false when the
// chat is not in a text step of the wizard.
func (b *Bot) handleWizardMessage(ctx context.Context, msg *tgbotapi.Message, state *session.State) bool {
	if _, ok := wizardSteps[state.Step]; !ok {
		if state.Step == stepDesign || state.Step == stepLength || state.Step == stepFormat {
			b.sendHTML(msg.Chat.ID, "👆 Tugmalardan birini tanlang.", nil)
			return true
		}
		return false
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.sendHTML(msg.Chat.ID, "✍️ Matn ko'rinishida yozing.", nil)
		return true
	}
	state.Put(state.Step, text)
	b.advance(ctx, msg.Chat.ID, state)
	return true
}

// advance moves past the current text step and asks the next question
func (b *Bot) advance(ctx context.Context, chatID int64, state *session.State) {
	if next, ok := nextStep[state.Step]; ok {
		state.Step = next
		b.setState(ctx, chatID, state)
		step := wizardSteps[next]
		var markup any
		if step.Skippable {
			markup = skipKeyboard()
		}
		b.sendHTML(chatID, step.Prompt, markup)
		return
	}

	// after the teacher
	dt, _ := lookupDocType(state.Get(keyDocType))
	if dt.Kind == generation.KindSlides {
		state.Step = stepDesign
		b.setState(ctx, chatID, state)
		b.sendHTML(chatID, "🎨 <b>Dizayn:</b>", designKeyboard())
		return
	}
	state.Step = stepLength
	b.setState(ctx, chatID, state)
	b.askLength(ctx, chatID, 0, dt)
}

// askLength shows the priced length buttons, editing messageID when set
func (b *Bot) askLength(ctx context.Context, chatID int64, messageID int, dt docType) {
	slides := dt.Kind == generation.KindSlides
	sizes := pageCounts
	title := "📄 <b>Hajm:</b>"
	if slides {
		sizes = slideCounts
		title = "📄 <b>Slaydlar:</b>"
	}

	options := make([]lengthOption, 0, len(sizes))
	for _, n := range sizes {
		key := db.PriceKey(dt.priceFormat(), n)
		price, err := b.store.GetPrice(ctx, key)
		if err != nil {
			log.Printf("[BOT] price %s failed: %v", key, err)
			price = db.DefaultPrice(key)
		}
		options = append(options, lengthOption{Size: n, Price: price})
	}

	kb := lengthKeyboard(slides, options)
	if messageID != 0 {
		if err := b.editHTML(chatID, messageID, title, &kb); err == nil {
			return
		}
	}
	b.sendHTML(chatID, title, kb)
}

func (b *Bot) handleWizardCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	state, err := b.sessions.Get(ctx, chatID)
	if err != nil || state == nil {
		b.answer(cb, "Sessiya tugagan. Qaytadan boshlang.")
		return
	}
	b.answer(cb, "")

	switch {
	case cb.Data == cbSkip:
		step, ok := wizardSteps[state.Step]
		if !ok || !step.Skippable {
			return
		}
		state.Put(state.Step, rendering.Skipped)
		shown := rendering.Skipped
		if state.Step == stepOutline {
			shown = "<i>AI tuzadi</i>"
		}
		_ = b.editHTML(chatID, messageID, step.Label+": "+shown, nil)
		b.advance(ctx, chatID, state)

	case strings.HasPrefix(cb.Data, cbDesign) && state.Step == stepDesign:
		theme := rendering.LookupTheme(strings.TrimPrefix(cb.Data, cbDesign))
		state.Put(stepDesign, theme.Name)
		state.Step = stepLength
		b.setState(ctx, chatID, state)
		dt, _ := lookupDocType(state.Get(keyDocType))
		b.askLength(ctx, chatID, messageID, dt)

	case strings.HasPrefix(cb.Data, cbLength) && state.Step == stepLength:
		size, err := strconv.Atoi(strings.TrimPrefix(cb.Data, cbLength))
		if err != nil || size <= 0 {
			return
		}
		state.Put(keySize, strconv.Itoa(size))
		dt, _ := lookupDocType(state.Get(keyDocType))
		if b.config.PDFEnabled && dt.Kind == generation.KindDocument {
			state.Step = stepFormat
			b.setState(ctx, chatID, state)
			fk := formatKeyboard()
			if err := b.editHTML(chatID, messageID, "🗂 <b>Format:</b>", &fk); err != nil {
				b.sendHTML(chatID, "🗂 <b>Format:</b>", fk)
			}
			return
		}
		b.deleteMessage(chatID, messageID)
		b.generate(ctx, cb.From, chatID, state)

	case strings.HasPrefix(cb.Data, cbFormat) && state.Step == stepFormat:
		format, err := rendering.ParseFormat(strings.TrimPrefix(cb.Data, cbFormat))
		if err != nil {
			return
		}
		state.Put(keyFormat, string(format))
		b.deleteMessage(chatID, messageID)
		b.generate(ctx, cb.From, chatID, state)
	}
}

// titleInfo builds the title page fields from the collected answers
func titleInfo(state *session.State) rendering.TitleInfo {
	get := func(key string) string {
		if v := state.Get(key); v != "" {
			return v
		}
		return rendering.Skipped
	}
	return rendering.TitleInfo{
		Topic:     state.Get(stepTopic),
		Student:   get(stepStudent),
		EduPlace:  get(stepEduPlace),
		Direction: get(stepDirection),
		Group:     get(stepGroup),
		Subject:   get(stepSubject),
		Teacher:   get(stepTeacher),
	}
}

func describeBilling(free bool, price int) string {
	if free {
		return "⏳ <b>Tayyorlanmoqda...</b>\n🎁 Bepul limit."
	}
	return fmt.Sprintf("⏳ <b>Tayyorlanmoqda...</b>\n💳 Balansdan: %s so'm", money(price))
}
