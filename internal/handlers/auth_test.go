package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mealgrid/apiserver/internal/services"
	"github.com/mealgrid/apiserver/internal/store"
	"github.com/mealgrid/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, user := range f.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func newAuthRouter(repo *fakeUserRepo) http.Handler {
	router := chi.NewRouter()
	AuthRouter(router, services.NewUserService(repo), testSecret)
	return router
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthRouter(repo)

	rec := postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Registration successful" {
		t.Fatalf("message = %q", resp.Message)
	}

	user, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.PasswordHash == "secret123" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	router := newAuthRouter(newFakeUserRepo())

	rec := postJSON(t, router, "/register", map[string]string{"username": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: status = %d", rec.Code)
	}

	rec = postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "secret123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: status = %d", rec.Code)
	}
}

func TestRegisterConflict(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthRouter(repo)

	rec := postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", rec.Code)
	}

	// Same username, different email.
	rec = postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("username conflict: status = %d", rec.Code)
	}

	// Same email, different username.
	rec = postJSON(t, router, "/register", map[string]string{
		"username": "bob",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("email conflict: status = %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "user or email already exists" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestLoginUniformFailures(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthRouter(repo)

	rec := postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	// Unknown account and wrong password are indistinguishable.
	unknown := postJSON(t, router, "/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	wrongPass := postJSON(t, router, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want both 401", unknown.Code, wrongPass.Code)
	}
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Fatalf("failure bodies differ: %q vs %q", unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestLoginAndMe(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthRouter(repo)

	rec := postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	rec = postJSON(t, router, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var login LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" || login.Username != "alice" {
		t.Fatalf("unexpected login response: %+v", login)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, req)
	if meRec.Code != http.StatusOK {
		t.Fatalf("me: status = %d, body = %s", meRec.Code, meRec.Body.String())
	}

	meBody := meRec.Body.Bytes()
	var me types.User
	if err := json.Unmarshal(meBody, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "alice" || me.Email != "alice@example.com" {
		t.Fatalf("unexpected me response: %+v", me)
	}
	// The password hash never leaves the server.
	if bytes.Contains(meBody, []byte("password")) {
		t.Fatalf("me response leaks password material: %s", meBody)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	router := newAuthRouter(newFakeUserRepo())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}

	// A token signed with a different secret must not pass.
	token, err := issueToken(1, []byte("other-secret"), defaultTokenTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d", rec.Code)
	}
}
