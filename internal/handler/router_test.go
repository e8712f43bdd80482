package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/core/ports/portstest"
	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/logger"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type RouterSuite struct {
	suite.Suite

	router    http.Handler
	deps      RouterDeps
	users     *portstest.UserStore
	sessions  *portstest.SessionStore
	memos     *portstest.MemoStore
	invoices  *portstest.RecordStore[*domain.Invoice]
	publisher *portstest.Publisher
}

func (s *RouterSuite) SetupTest() {
	log := logger.Discard()

	s.users = portstest.NewUserStore()
	s.sessions = portstest.NewSessionStore(s.users)
	s.memos = portstest.NewMemoStore()
	s.invoices = portstest.NewInvoiceStore()
	s.publisher = &portstest.Publisher{}
	categories := portstest.NewCategoryStore(domain.DefaultCategories...)

	auth := usecase.NewAuthUseCase(s.users, s.sessions, categories, usecase.AuthConfig{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log)
	recordCfg := usecase.RecordConfig{NotifyTimeout: time.Second}
	memoUC := usecase.NewMemoUseCase(s.memos, s.publisher, recordCfg, log)
	invoiceUC := usecase.NewInvoiceUseCase(s.invoices, s.publisher, recordCfg, log)
	companyUC := usecase.NewCompanyUseCase(&portstest.CompanyStore{Memos: s.memos, Invoices: s.invoices})

	s.deps = RouterDeps{
		Auth: NewAuthHandler(auth, CookieConfig{}, log),
		Memos: NewRecordHandler[*domain.Memo](memoUC, domain.KindMemo,
			func() domain.Patch[*domain.Memo] { return &domain.MemoPatch{} }, log),
		Invoices: NewRecordHandler[*domain.Invoice](invoiceUC, domain.KindInvoice,
			func() domain.Patch[*domain.Invoice] { return &domain.InvoicePatch{} }, log),
		Directory: NewDirectoryHandler(memoUC, companyUC, usecase.NewCategoryUseCase(categories), log),
		Timeout:   5 * time.Second,
		Logger:    log,
	}
	s.router = NewRouter(s.deps)
}

func (s *RouterSuite) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func (s *RouterSuite) signup(username string) *http.Cookie {
	body := `{"username":"` + username + `","password":"secret1","name":"Ann","lastname":"Lee","age":30,"category_id":1}`
	rec := s.do(http.MethodPost, "/signup", body, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	c := sessionCookie(rec)
	s.Require().NotNil(c)
	return c
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

const memoJSON = `{
	"title": "Pearls",
	"memo_number": "M-1",
	"expiry_date": "2026-12-01",
	"wholesaler_details": "W",
	"buyer_details": "B",
	"items": "10 pearls",
	"total_value": 1500,
	"company": "Acme Corp",
	"email": "buyer@acme.test"
}`

func (s *RouterSuite) TestSignupSetsSessionCookie() {
	rec := s.do(http.MethodPost, "/signup",
		`{"username":"ann","password":"secret1","name":"Ann","lastname":"Lee","age":30,"category_id":1}`, nil)

	s.Equal(http.StatusCreated, rec.Code)
	c := sessionCookie(rec)
	s.Require().NotNil(c)
	s.True(c.HttpOnly)
	s.Equal("/", c.Path)
	s.Equal(http.SameSiteLaxMode, c.SameSite)
	s.Len(c.Value, 64)

	var identity domain.Identity
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &identity))
	s.Equal("ann", identity.Username)
	s.NotContains(rec.Body.String(), "password")
}

func (s *RouterSuite) TestSignupValidation() {
	rec := s.do(http.MethodPost, "/signup",
		`{"username":"ann","password":"secret1","name":"Ann","lastname":"Lee","age":12,"category_id":1}`, nil)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(errorBody(s.T(), rec), "age")
	s.Equal(0, s.users.Len())
}

func (s *RouterSuite) TestSignupDuplicateUsername() {
	s.signup("ann")
	rec := s.do(http.MethodPost, "/signup",
		`{"username":"ann","password":"secret1","name":"Ann","lastname":"Lee","age":30,"category_id":1}`, nil)

	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestMalformedJSON() {
	rec := s.do(http.MethodPost, "/login", `{"username":`, nil)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid JSON body", errorBody(s.T(), rec))
}

func (s *RouterSuite) TestLoginAndCheck() {
	s.signup("ann")

	rec := s.do(http.MethodPost, "/login", `{"username":"ann","password":"wrong-pass"}`, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("invalid username or password", errorBody(s.T(), rec))

	rec = s.do(http.MethodPost, "/login", `{"username":"ann","password":"secret1"}`, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	c := sessionCookie(rec)
	s.Require().NotNil(c)

	rec = s.do(http.MethodGet, "/check", "", c)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"username":"ann"`)
}

func (s *RouterSuite) TestCheckAnonymous() {
	rec := s.do(http.MethodGet, "/check", "", nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("not authenticated", errorBody(s.T(), rec))
}

func (s *RouterSuite) TestLogoutClearsCookieAndSession() {
	c := s.signup("ann")

	rec := s.do(http.MethodDelete, "/logout", "", c)
	s.Equal(http.StatusNoContent, rec.Code)
	cleared := sessionCookie(rec)
	s.Require().NotNil(cleared)
	s.Equal(-1, cleared.MaxAge)
	s.Equal(0, s.sessions.Len())

	rec = s.do(http.MethodGet, "/memos", "", c)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestLogoutWithoutSession() {
	rec := s.do(http.MethodDelete, "/logout", "", nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *RouterSuite) TestGuardRejectsMissingCookie() {
	rec := s.do(http.MethodPost, "/memos", memoJSON, nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(0, s.memos.Len())
	s.Equal(0, s.publisher.Count())
}

func (s *RouterSuite) TestGuardRejectsUnknownToken() {
	rec := s.do(http.MethodGet, "/invoices", "", &http.Cookie{Name: SessionCookieName, Value: "nope"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestMemoLifecycle() {
	c := s.signup("ann")

	rec := s.do(http.MethodPost, "/memos", memoJSON, c)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Memo
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal("Pearls", created.Title)
	s.Equal("2026-12-01", created.ExpiryDate.String())
	s.Equal(1, s.publisher.Count())

	id := created.ID.String()

	rec = s.do(http.MethodGet, "/memos/"+id, "", c)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPatch, "/memos/"+id, `{"remarks":"urgent"}`, c)
	s.Require().Equal(http.StatusOK, rec.Code)
	var patched domain.Memo
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &patched))
	s.Equal("urgent", patched.Remarks)
	s.Equal("Pearls", patched.Title)

	rec = s.do(http.MethodPut, "/memos/"+id, `{"title":"Only title"}`, c)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/memos/"+id, "", c)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/memos/"+id, "", c)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("memo not found", errorBody(s.T(), rec))
}

func (s *RouterSuite) TestMemoCreateValidation() {
	c := s.signup("ann")

	rec := s.do(http.MethodPost, "/memos", `{"title":"Pearls"}`, c)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("memo_number is required", errorBody(s.T(), rec))

	rec = s.do(http.MethodPost, "/memos", strings.Replace(memoJSON, "1500", "-1", 1), c)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(errorBody(s.T(), rec), "total_value")

	s.Equal(0, s.memos.Len())
}

func (s *RouterSuite) TestMemoNumberConflict() {
	c := s.signup("ann")

	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/memos", memoJSON, c).Code)
	rec := s.do(http.MethodPost, "/memos", memoJSON, c)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestNotificationFailureDoesNotFailCreate() {
	c := s.signup("ann")
	s.publisher.Err = errors.New("broker down")

	rec := s.do(http.MethodPost, "/memos", memoJSON, c)
	s.Equal(http.StatusCreated, rec.Code)
	s.Equal(1, s.memos.Len())
}

func (s *RouterSuite) TestMalformedIDIsNotFound() {
	c := s.signup("ann")

	rec := s.do(http.MethodGet, "/invoices/not-a-uuid", "", c)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("invoice not found", errorBody(s.T(), rec))
}

func (s *RouterSuite) TestOwnerIsolation() {
	alice := s.signup("alice")
	bob := s.signup("bob")

	rec := s.do(http.MethodPost, "/memos", memoJSON, alice)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created domain.Memo
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	rec = s.do(http.MethodGet, "/memos/"+created.ID.String(), "", bob)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/memos/"+created.ID.String(), "", bob)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/memos", "", bob)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	// один и тот же номер у разных владельцев допустим
	rec = s.do(http.MethodPost, "/memos", memoJSON, bob)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *RouterSuite) TestCompanyFilterAndCompanies() {
	c := s.signup("ann")

	for i, company := range []string{"Acme Corp", "Acme", "The Acme"} {
		body := strings.NewReplacer(
			`"Acme Corp"`, `"`+company+`"`,
			`"M-1"`, `"M-`+string(rune('a'+i))+`"`,
		).Replace(memoJSON)
		s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/memos", body, c).Code)
	}

	rec := s.do(http.MethodGet, "/memos?company=Acme*", "", c)
	s.Require().Equal(http.StatusOK, rec.Code)
	var memos []domain.Memo
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &memos))
	s.Len(memos, 2)

	rec = s.do(http.MethodGet, "/memos?company=Acme", "", c)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &memos))
	s.Len(memos, 1)

	rec = s.do(http.MethodGet, "/companies", "", c)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`["Acme","Acme Corp","The Acme"]`, rec.Body.String())
}

func (s *RouterSuite) TestInvoiceCreate() {
	c := s.signup("ann")
	body := `{
		"title": "Sale",
		"invoice_number": "INV-1",
		"wholesaler_details": "W",
		"buyer_details": "B",
		"items": "ring",
		"total_value": 99.5,
		"company": "Acme"
	}`

	rec := s.do(http.MethodPost, "/invoices", body, c)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal(1, s.invoices.Len())
	// без email уведомление не отправляется
	s.Equal(0, s.publisher.Count())
}

func (s *RouterSuite) TestUpcomingMemos() {
	c := s.signup("ann")

	future := strings.Replace(memoJSON, "2026-12-01", "2999-01-01", 1)
	past := strings.NewReplacer("2026-12-01", "2000-01-01", `"M-1"`, `"M-2"`).Replace(memoJSON)
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/memos", future, c).Code)
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/memos", past, c).Code)

	rec := s.do(http.MethodGet, "/memos/upcoming", "", c)
	s.Require().Equal(http.StatusOK, rec.Code)
	var memos []domain.Memo
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &memos))
	s.Require().Len(memos, 1)
	s.Equal("2999-01-01", memos[0].ExpiryDate.String())
}

func (s *RouterSuite) TestCategoriesArePublic() {
	rec := s.do(http.MethodGet, "/api/categories", "", nil)

	s.Equal(http.StatusOK, rec.Code)
	var categories []domain.Category
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &categories))
	s.Len(categories, len(domain.DefaultCategories))
}

func (s *RouterSuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) loginAs(router http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"nobody","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func (s *RouterSuite) TestLoginLimiterIgnoresForwardedHeaders() {
	deps := s.deps
	deps.LoginLimiter = NewLoginLimiter(0.001, 1, logger.Discard())
	router := NewRouter(deps)

	s.NotEqual(http.StatusTooManyRequests, s.loginAs(router, "203.0.113.7:40000", "10.0.0.1"))
	s.Equal(http.StatusTooManyRequests, s.loginAs(router, "203.0.113.7:40001", "10.0.0.2"))
}

func (s *RouterSuite) TestLoginLimiterBehindTrustedProxy() {
	deps := s.deps
	deps.TrustProxy = true
	deps.LoginLimiter = NewLoginLimiter(0.001, 1, logger.Discard())
	router := NewRouter(deps)

	s.NotEqual(http.StatusTooManyRequests, s.loginAs(router, "192.0.2.1:40000", "198.51.100.1"))
	s.NotEqual(http.StatusTooManyRequests, s.loginAs(router, "192.0.2.1:40000", "198.51.100.2"))
	s.Equal(http.StatusTooManyRequests, s.loginAs(router, "192.0.2.1:40000", "198.51.100.1"))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "request body is empty"},
		{"wrong type", `{"title": 5}`, "title has invalid type"},
		{"syntax", `{"title"`, "invalid JSON body"},
		{"bad money", `{"total_value": "abc"}`, "total_value must be numeric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var patch domain.MemoPatch
			err := decodeJSON(httptest.NewRecorder(), req, &patch)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.want, domain.Message(err))
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.Validation("x", "x is required")))
	assert.Equal(t, http.StatusUnauthorized, statusFor(domain.ErrUnauthorized))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrConflict))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/memos", nil)

	writeError(rec, req, errors.New("pq: connection refused"), logger.Discard())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
