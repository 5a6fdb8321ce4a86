package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"papaya-users/internal/domain"
	"papaya-users/internal/events"
	"papaya-users/internal/repository"
	"papaya-users/internal/service"
)

const testCookie = "Authentication"

type testServer struct {
	router *gin.Engine
	issuer *service.TokenIssuer
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := service.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	issuer, err := service.NewTokenIssuer("secret", 15*time.Minute, "")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	commands, queries, err := service.NewBuses(service.Dependencies{
		Logger:    zap.NewNop(),
		Users:     repository.NewMemoryUserRepository(),
		Hasher:    hasher,
		Tokens:    issuer,
		Publisher: events.NopPublisher{},
		Limiter:   service.NewLoginRateLimiter(time.Minute, 5),
	})
	if err != nil {
		t.Fatalf("new buses: %v", err)
	}
	userSvc := service.NewUserService(zap.NewNop(), commands, queries)
	handler := NewUserHandler(zap.NewNop(), userSvc, testCookie, false)
	return testServer{
		router: NewRouter(zap.NewNop(), handler, issuer, testCookie),
		issuer: issuer,
	}
}

func (s testServer) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) createUser(t *testing.T, email string) domain.UserView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users", map[string]string{
		"email":     email,
		"password":  "Abc12345!",
		"firstName": "Ana",
		"lastName":  "Diaz",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view domain.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return view
}

func TestCreateUser_Success(t *testing.T) {
	s := newTestServer(t)
	view := s.createUser(t, "a@x.com")
	if view.ID == "" || view.Email != "a@x.com" || view.FirstName != "Ana" {
		t.Fatalf("unexpected user: %+v", view)
	}
}

func TestCreateUser_DuplicateIsConflict(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/users", map[string]string{
		"email": "a@x.com", "password": "Abc12345!", "firstName": "Ana", "lastName": "Diaz",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreateUser_ValidationDetails(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/users", map[string]string{
		"email": "bad", "password": "weak", "firstName": "A", "lastName": "Diaz",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"email", "password", "firstName"} {
		if body.Details[field] == "" {
			t.Fatalf("expected detail for %s, got %+v", field, body.Details)
		}
	}
}

func TestCreateUser_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/users", `{"email":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin_SetsCookieAndToken(t *testing.T) {
	s := newTestServer(t)
	view := s.createUser(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/users/login", map[string]string{"email": "a@x.com", "password": "Abc12345!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := s.issuer.Verify(result.AccessToken)
	if err != nil || claims.Subject != view.ID {
		t.Fatalf("unexpected token claims %+v, err %v", claims, err)
	}

	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, testCookie+"="+result.AccessToken) || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("expected HttpOnly auth cookie, got %q", cookie)
	}
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "a@x.com")

	wrong := s.do(t, http.MethodPost, "/users/login", map[string]string{"email": "a@x.com", "password": "Nope1234!"})
	unknown := s.do(t, http.MethodPost, "/users/login", map[string]string{"email": "b@x.com", "password": "Abc12345!"})
	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("expected identical bodies, got %s and %s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestGetUpdateDeleteUser(t *testing.T) {
	s := newTestServer(t)
	view := s.createUser(t, "a@x.com")

	rec := s.do(t, http.MethodGet, "/users/"+view.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPut, "/users/"+view.ID, map[string]string{"lastName": "Lopez"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.LastName != "Lopez" || updated.FirstName != "Ana" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	rec = s.do(t, http.MethodDelete, "/users/"+view.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/users/"+view.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, "/users/"+view.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 12; i++ {
		s.createUser(t, fmt.Sprintf("u%02d@x.com", i))
	}

	rec := s.do(t, http.MethodGet, "/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page domain.UserPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 10 || page.Meta.Total != 12 || page.Meta.Page != 1 || page.Meta.Limit != 10 || page.Meta.TotalPages != 2 {
		t.Fatalf("unexpected default page: %+v", page.Meta)
	}

	for _, path := range []string{"/users?page=0", "/users?limit=101", "/users?page=abc"} {
		if rec := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestMe_BearerAndCookie(t *testing.T) {
	s := newTestServer(t)
	view := s.createUser(t, "a@x.com")
	token, err := s.issuer.Issue(view.ID, view.Email)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := s.do(t, http.MethodGet, "/users/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/users/me", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/users/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
