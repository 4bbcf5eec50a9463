package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/motivatem3/server/internal/database"
	"github.com/motivatem3/server/internal/mail"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/safety"
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) SetVerificationCode(ctx context.Context, params model.SetVerificationCodeParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockAccountRepo) MarkVerified(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountRepo) SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error) {
	args := m.Called(ctx, email, isAdmin)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) List(ctx context.Context, limit, offset int) ([]model.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *mockAccountRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) CountVerified(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) ClearExpiredCodes(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockMotivationRepo struct {
	mock.Mock
}

func (m *mockMotivationRepo) Create(ctx context.Context, params model.CreateMotivationParams) (*model.Motivation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Motivation), args.Error(1)
}

func (m *mockMotivationRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Motivation, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Motivation), args.Error(1)
}

func (m *mockMotivationRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *mockMotivationRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// inlineTx runs fn without a real transaction; mocked repositories return
// themselves from WithTx.
type inlineTx struct {
	calls int
}

func (t *inlineTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	t.calls++
	return fn(nil)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePending struct {
	entries map[string]model.PendingVerification
	next    int
	err     error
}

func newFakePending() *fakePending {
	return &fakePending{entries: make(map[string]model.PendingVerification)}
}

func (f *fakePending) Create(ctx context.Context, account *model.Account) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.next++
	token := "pending-" + string(rune('0'+f.next))
	f.entries[token] = model.PendingVerification{Email: account.Email, AccountID: account.ID}
	return token, nil
}

func (f *fakePending) Get(ctx context.Context, token string) (*model.PendingVerification, error) {
	p, ok := f.entries[token]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePending) Delete(ctx context.Context, token string) error {
	delete(f.entries, token)
	return nil
}

type fakeLimiter struct {
	deny map[string]bool
	keys []string
}

func (f *fakeLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Time) {
	f.keys = append(f.keys, key)
	return !f.deny[key], time.Now().Add(window)
}

type fakeGate struct {
	prompt safety.Prompt
	got    [][2]string
}

func (f *fakeGate) Reframe(ctx context.Context, feeling, goal string) safety.Prompt {
	f.got = append(f.got, [2]string{feeling, goal})
	return f.prompt
}

type fakeChatModel struct {
	reply string
	err   error
	got   [][]model.ChatMessage
}

func (f *fakeChatModel) Chat(ctx context.Context, messages []model.ChatMessage) (string, error) {
	cp := make([]model.ChatMessage, len(messages))
	copy(cp, messages)
	f.got = append(f.got, cp)
	return f.reply, f.err
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.text, f.err
}
