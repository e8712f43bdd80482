// Package portstest содержит реализации портов в памяти для тестов usecase'ов и хендлеров
package portstest

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/messaging/payloads"
	"github.com/google/uuid"
)

// Cloneable — запись, которую хранилище копирует при чтении и записи
type Cloneable[R any] interface {
	domain.Record
	Clone() R
}

// RecordStore хранит записи в памяти с той же семантикой владельца, что и postgres
type RecordStore[R Cloneable[R]] struct {
	mu    sync.Mutex
	items map[uuid.UUID]R
	order []uuid.UUID
	// UniqueKey возвращает номер документа, уникальный в пределах владельца
	UniqueKey func(R) string
	// Err, если задан, возвращается всеми методами
	Err error
}

func NewRecordStore[R Cloneable[R]](uniqueKey func(R) string) *RecordStore[R] {
	return &RecordStore[R]{items: map[uuid.UUID]R{}, UniqueKey: uniqueKey}
}

// notFound повторяет сообщение postgres-хранилищ ("memo not found")
func (s *RecordStore[R]) notFound() error {
	var zero R
	return domain.NewError(domain.ErrNotFound, string(zero.Kind())+" not found")
}

func (s *RecordStore[R]) Create(_ context.Context, rec R) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if rec.GetID() == uuid.Nil {
		rec.SetID(uuid.New())
	}
	if s.duplicate(rec) {
		return domain.NewError(domain.ErrConflict, "number already exists")
	}
	s.items[rec.GetID()] = rec.Clone()
	s.order = append(s.order, rec.GetID())
	return nil
}

func (s *RecordStore[R]) GetByID(_ context.Context, ownerID, id uuid.UUID) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero R
	if s.Err != nil {
		return zero, s.Err
	}
	rec, ok := s.items[id]
	if !ok || rec.GetOwnerID() != ownerID {
		return zero, s.notFound()
	}
	return rec.Clone(), nil
}

func (s *RecordStore[R]) List(_ context.Context, ownerID uuid.UUID, filter domain.RecordFilter) ([]R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []R{}
	for _, id := range s.order {
		rec, ok := s.items[id]
		if !ok || rec.GetOwnerID() != ownerID || !filter.Match(rec.GetCompany()) {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *RecordStore[R]) Update(_ context.Context, rec R) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cur, ok := s.items[rec.GetID()]
	if !ok || cur.GetOwnerID() != rec.GetOwnerID() {
		return s.notFound()
	}
	if s.duplicate(rec) {
		return domain.NewError(domain.ErrConflict, "number already exists")
	}
	s.items[rec.GetID()] = rec.Clone()
	return nil
}

func (s *RecordStore[R]) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	rec, ok := s.items[id]
	if !ok || rec.GetOwnerID() != ownerID {
		return s.notFound()
	}
	delete(s.items, id)
	return nil
}

// Len возвращает число хранимых записей всех владельцев
func (s *RecordStore[R]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// All возвращает копии записей в порядке создания
func (s *RecordStore[R]) All() []R {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []R{}
	for _, id := range s.order {
		if rec, ok := s.items[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

func (s *RecordStore[R]) duplicate(rec R) bool {
	if s.UniqueKey == nil {
		return false
	}
	key := s.UniqueKey(rec)
	for id, other := range s.items {
		if id != rec.GetID() && other.GetOwnerID() == rec.GetOwnerID() && s.UniqueKey(other) == key {
			return true
		}
	}
	return false
}

// MemoStore — RecordStore мемо с выборкой актуальных
type MemoStore struct {
	*RecordStore[*domain.Memo]
}

func NewMemoStore() *MemoStore {
	return &MemoStore{RecordStore: NewRecordStore(func(m *domain.Memo) string { return m.MemoNumber })}
}

func (s *MemoStore) ListUpcoming(ctx context.Context, ownerID uuid.UUID, from domain.Date) ([]*domain.Memo, error) {
	all, err := s.List(ctx, ownerID, domain.RecordFilter{})
	if err != nil {
		return nil, err
	}
	out := []*domain.Memo{}
	for _, m := range all {
		if !m.ExpiryDate.IsZero() && !m.ExpiryDate.Before(from.Time) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate.Time) })
	return out, nil
}

func NewInvoiceStore() *RecordStore[*domain.Invoice] {
	return NewRecordStore(func(i *domain.Invoice) string { return i.InvoiceNumber })
}

// CompanyStore собирает компании из хранилищ мемо и счетов
type CompanyStore struct {
	Memos    *MemoStore
	Invoices *RecordStore[*domain.Invoice]
}

func (s *CompanyStore) ListCompanies(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	memos, err := s.Memos.List(ctx, ownerID, domain.RecordFilter{})
	if err != nil {
		return nil, err
	}
	for _, m := range memos {
		seen[m.Company] = true
	}
	invoices, err := s.Invoices.List(ctx, ownerID, domain.RecordFilter{})
	if err != nil {
		return nil, err
	}
	for _, i := range invoices {
		seen[i.Company] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// UserStore — пользователи в памяти
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[uuid.UUID]domain.User{}}
}

func (s *UserStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.NewError(domain.ErrConflict, "username already exists")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.NewError(domain.ErrNotFound, "user not found")
}

func (s *UserStore) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "user not found")
	}
	return &u, nil
}

func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SessionStore — сессии в памяти; Users нужен для выдачи владельца
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	Users    *UserStore
	// RenewErr, если задан, возвращается RenewSession
	RenewErr error
}

func NewSessionStore(users *UserStore) *SessionStore {
	return &SessionStore{sessions: map[string]domain.Session{}, Users: users}
}

func (s *SessionStore) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

func (s *SessionStore) ValidateSession(ctx context.Context, token string, now time.Time) (*domain.SessionInfo, error) {
	s.mu.Lock()
	session, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok || !session.ExpiresAt.After(now) {
		return nil, domain.NewError(domain.ErrUnauthorized, "session is invalid or expired")
	}
	user, err := s.Users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, domain.NewError(domain.ErrUnauthorized, "session is invalid or expired")
	}
	return &domain.SessionInfo{User: *user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *SessionStore) RenewSession(_ context.Context, token string, now, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RenewErr != nil {
		return s.RenewErr
	}
	if session, ok := s.sessions[token]; ok {
		session.ExpiresAt = expiresAt
		session.LastActivity = now
		s.sessions[token] = session
	}
	return nil
}

func (s *SessionStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *SessionStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// Get возвращает сессию по токену
func (s *SessionStore) Get(token string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	return session, ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CategoryStore — справочник категорий в памяти
type CategoryStore struct {
	mu         sync.Mutex
	categories []domain.Category
}

func NewCategoryStore(names ...string) *CategoryStore {
	s := &CategoryStore{}
	_ = s.SeedCategories(context.Background(), names)
	return s
}

func (s *CategoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Category{}, s.categories...), nil
}

func (s *CategoryStore) CategoryExists(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *CategoryStore) SeedCategories(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
next:
	for _, name := range names {
		for _, c := range s.categories {
			if c.Name == name {
				continue next
			}
		}
		s.categories = append(s.categories, domain.Category{ID: len(s.categories) + 1, Name: name})
	}
	return nil
}

// Publisher запоминает опубликованные уведомления
type Publisher struct {
	mu        sync.Mutex
	Published []payloads.NotificationPayload
	Err       error
	// Deadlines — было ли у контекста публикации ограничение по времени
	Deadlines []bool
}

func (p *Publisher) PublishNotification(ctx context.Context, payload payloads.NotificationPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := ctx.Deadline()
	p.Deadlines = append(p.Deadlines, ok)
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Err != nil {
		return p.Err
	}
	p.Published = append(p.Published, payload)
	return nil
}

func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Published)
}

// Sender запоминает отправленные письма
type Sender struct {
	mu   sync.Mutex
	Sent []payloads.NotificationPayload
	Err  error
}

func (s *Sender) Send(_ context.Context, payload payloads.NotificationPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, payload)
	return nil
}

// FileStore хранит загруженные объекты в памяти
type FileStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewFileStore() *FileStore {
	return &FileStore{Objects: map[string][]byte{}}
}

func (s *FileStore) UploadFile(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	s.Objects[key] = buf.Bytes()
	return "memory://" + key, nil
}
