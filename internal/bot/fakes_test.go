package bot

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/pipeline"
	"github.com/jonathan/referat-bot/internal/rendering"
)

// fakeSender records every outgoing call
type fakeSender struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text or caption of every sent message to chatID
func (f *fakeSender) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.PhotoConfig:
			if m.ChatID == chatID {
				out = append(out, m.Caption)
			}
		case tgbotapi.DocumentConfig:
			if m.ChatID == chatID {
				out = append(out, m.Caption)
			}
		}
	}
	return out
}

func (f *fakeSender) last(chatID int64) string {
	texts := f.texts(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeSender) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeSender) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSender) copies() []tgbotapi.CopyMessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CopyMessageConfig
	for _, c := range f.requests {
		if cp, ok := c.(tgbotapi.CopyMessageConfig); ok {
			out = append(out, cp)
		}
	}
	return out
}

// fakeStore is an in-memory Store
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*db.User
	admins   map[int64]bool
	prices   map[string]int
	payments []int
	history  []db.UsageRow
	samples  []db.Sample
}

func newFakeStore() *fakeStore {
	prices := make(map[string]int)
	for k, v := range db.DefaultPrices {
		prices[k] = v
	}
	return &fakeStore{
		users:  make(map[int64]*db.User),
		admins: make(map[int64]bool),
		prices: prices,
	}
}

func (s *fakeStore) user(id int64) *db.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (s *fakeStore) GetOrCreateUser(_ context.Context, userID int64, username, fullName string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &db.User{UserID: userID, FreePPTX: db.DefaultFreePPTX, FreeDOCX: db.DefaultFreeDOCX, JoinedAt: time.Now()}
		s.users[userID] = u
	}
	u.Username, u.FullName = username, fullName
	c := *u
	return &c, nil
}

func (s *fakeStore) GetUser(_ context.Context, userID int64) (*db.User, error) {
	return s.user(userID), nil
}

func (s *fakeStore) UpdateBalance(_ context.Context, userID int64, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Balance += amount
	}
	return nil
}

func (s *fakeStore) DebitBalance(_ context.Context, userID int64, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.Balance < amount {
		return false, nil
	}
	u.Balance -= amount
	return true, nil
}

func (s *fakeStore) DebitFreeQuota(_ context.Context, userID int64, q db.Quota) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	counter := &u.FreeDOCX
	if q == db.QuotaPPTX {
		counter = &u.FreePPTX
	}
	if *counter <= 0 {
		return false, nil
	}
	*counter--
	return true, nil
}

func (s *fakeStore) SetBlocked(_ context.Context, userID int64, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.IsBlocked = blocked
	}
	return nil
}

func (s *fakeStore) ListUserIDs(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeStore) ApprovePayment(_ context.Context, userID int64, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Balance += amount
	s.payments = append(s.payments, amount)
	return nil
}

func (s *fakeStore) AddGenerationLog(_ context.Context, userID int64, docType, topic string, pages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, db.UsageRow{DocType: docType, Topic: topic, Pages: pages, CreatedAt: time.Now()})
	return nil
}

func (s *fakeStore) GetPrice(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.prices[key]; ok {
		return v, nil
	}
	return db.DefaultPrice(key), nil
}

func (s *fakeStore) SetPrice(_ context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[key] = value
	return nil
}

func (s *fakeStore) ListPrices(context.Context) ([]db.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Price
	for k, v := range s.prices {
		out = append(out, db.Price{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *fakeStore) AddAdmin(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[userID] = true
	return nil
}

func (s *fakeStore) RemoveAdmin(_ context.Context, userID, superAdminID int64) error {
	if userID == superAdminID {
		return db.ErrSuperAdmin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.admins, userID)
	return nil
}

func (s *fakeStore) ListAdmins(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.admins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeStore) IsAdmin(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[userID], nil
}

func (s *fakeStore) AddSample(_ context.Context, fileID, caption, fileType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, db.Sample{ID: len(s.samples) + 1, FileID: fileID, Caption: caption, FileType: fileType})
	return nil
}

func (s *fakeStore) ListSamples(context.Context) ([]db.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.Sample(nil), s.samples...), nil
}

func (s *fakeStore) Stats(context.Context) (*db.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &db.Stats{TotalUsers: len(s.users), Documents: len(s.history)}, nil
}

func (s *fakeStore) FinancialReport(context.Context) (*db.FinancialReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, p := range s.payments {
		total += p
	}
	return &db.FinancialReport{Daily: total, Monthly: total, Total: total}, nil
}

func (s *fakeStore) UsageHistory(context.Context) ([]db.UsageRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.UsageRow(nil), s.history...), nil
}

// fakeGenerator reports progress and returns a small file
type fakeGenerator struct {
	mu    sync.Mutex
	calls []pipeline.Options
	err   error
}

func (g *fakeGenerator) Run(_ context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, opts)
	g.mu.Unlock()

	if opts.OnProgress != nil {
		_ = opts.OnProgress(pipeline.ProgressEvent{Step: pipeline.StepGenerate, Percent: 50, Message: "Yozilmoqda: <Kirish>"})
	}
	if g.err != nil {
		return nil, g.err
	}
	return &pipeline.Result{
		RunID: uuid.New(),
		File: &rendering.File{
			Name:  rendering.FileName(opts.Request.Topic, opts.Format),
			Ext:   opts.Format,
			Bytes: []byte("file"),
		},
	}, nil
}

func (g *fakeGenerator) lastCall() (pipeline.Options, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return pipeline.Options{}, false
	}
	return g.calls[len(g.calls)-1], true
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(int64) (string, error) {
	return "header.payload.sig", nil
}
