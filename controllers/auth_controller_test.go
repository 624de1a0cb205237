package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"equipment_lending_tool/app"
	"equipment_lending_tool/db"
	"equipment_lending_tool/models"
	"equipment_lending_tool/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memSessions keeps sessions in a map so handler tests run without Redis.
type memSessions struct {
	m map[string]*session.AppSession
}

func newMemSessions() *memSessions { return &memSessions{m: map[string]*session.AppSession{}} }

func (s *memSessions) Create(_ context.Context, id, userID string) error {
	now := time.Now()
	s.m[id] = &session.AppSession{UserID: userID, IssuedAt: now.Unix(), ExpiresAt: now.Add(time.Hour).Unix()}
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*session.AppSession, error) {
	as, ok := s.m[id]
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	return as, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	delete(s.m, id)
	return nil
}

func (s *memSessions) RevokeAllForUser(_ context.Context, userID string) error {
	for id, as := range s.m {
		if as.UserID == userID {
			delete(s.m, id)
		}
	}
	return nil
}

type authTestEnv struct {
	router *gin.Engine
	repo   *db.Repo
	sess   *memSessions
}

func setupAuthTest(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:ctl_%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := db.NewRepo(gdb)
	sess := newMemSessions()
	srv := &Srv{
		Repo:      repo,
		AppSess:   sess,
		Log:       zap.NewNop(),
		WebOrigin: "http://localhost:5173",
		Cfg:       app.Config{SessionTTL: time.Hour},
	}
	authCtl := GetAuthController(srv)

	r := gin.New()
	r.POST("/login", authCtl.Login)
	r.POST("/password-reset/confirm", authCtl.ConfirmPasswordReset)
	authMW := app.AuthRequired(sess, repo)
	r.GET("/whoami", authMW, authCtl.Whoami)
	r.POST("/logout", authMW, authCtl.Logout)

	return &authTestEnv{router: r, repo: repo, sess: sess}
}

func (e *authTestEnv) seedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := e.repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_MissingFields(t *testing.T) {
	env := setupAuthTest(t)

	for _, body := range []map[string]string{
		{},
		{"email": "mario@laba.edu"},
		{"password": "secret123"},
	} {
		w := postJSON(t, env.router, "/login", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d, want 400", body, w.Code)
		}
	}
}

func TestLogin_UniformUnauthorized(t *testing.T) {
	env := setupAuthTest(t)
	env.seedUser(t, "mario@laba.edu", "secret123")

	unknown := postJSON(t, env.router, "/login",
		map[string]string{"email": "nobody@laba.edu", "password": "secret123"}, nil)
	wrongPwd := postJSON(t, env.router, "/login",
		map[string]string{"email": "mario@laba.edu", "password": "nope-nope"}, nil)

	for _, w := range []*httptest.ResponseRecorder{unknown, wrongPwd} {
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	}
	// 同一个提示语，不区分原因
	if unknown.Body.String() != wrongPwd.Body.String() {
		t.Fatalf("401 bodies differ: %q vs %q", unknown.Body.String(), wrongPwd.Body.String())
	}
}

func TestLogin_Success(t *testing.T) {
	env := setupAuthTest(t)
	u := env.seedUser(t, "mario@laba.edu", "secret123")

	// 邮箱大小写与首尾空格都归一化
	w := postJSON(t, env.router, "/login",
		map[string]string{"email": "  MARIO@laba.edu ", "password": "secret123"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("no token in response")
	}
	if resp.User.ID != u.ID || resp.User.Email != "mario@laba.edu" {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}

	// the hash must never appear in the body
	if strings.Contains(w.Body.String(), u.PasswordHash) ||
		strings.Contains(w.Body.String(), "passwordHash") ||
		strings.Contains(w.Body.String(), "password_hash") {
		t.Fatalf("response leaks the password hash: %s", w.Body.String())
	}

	// token works as a bearer credential
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("whoami status = %d, want 200", rec.Code)
	}
}

func TestWhoami_RequiresSession(t *testing.T) {
	env := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bogus-token")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status with bogus token = %d, want 401", w.Code)
	}
}

func TestConfirmPasswordReset_RevokesSessions(t *testing.T) {
	env := setupAuthTest(t)
	env.seedUser(t, "mario@laba.edu", "secret123")

	// log in, then reset the password via a minted token
	login := postJSON(t, env.router, "/login",
		map[string]string{"email": "mario@laba.edu", "password": "secret123"}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login status = %d", login.Code)
	}
	var lr struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(login.Body.Bytes(), &lr)

	if _, err := env.repo.CreatePasswordReset(context.Background(),
		"mario@laba.edu", "tok-reset", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create reset: %v", err)
	}

	w := postJSON(t, env.router, "/password-reset/confirm",
		map[string]string{"token": "tok-reset", "newPassword": "brandnewpwd"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d (body %s)", w.Code, w.Body.String())
	}

	// old session is gone
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.Token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old session still valid after reset: %d", rec.Code)
	}

	// old password rejected, new one accepted
	if w := postJSON(t, env.router, "/login",
		map[string]string{"email": "mario@laba.edu", "password": "secret123"}, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("old password still works: %d", w.Code)
	}
	if w := postJSON(t, env.router, "/login",
		map[string]string{"email": "mario@laba.edu", "password": "brandnewpwd"}, nil); w.Code != http.StatusOK {
		t.Fatalf("new password rejected: %d", w.Code)
	}

	// token is single-use
	if w := postJSON(t, env.router, "/password-reset/confirm",
		map[string]string{"token": "tok-reset", "newPassword": "anotherpwd1"}, nil); w.Code != http.StatusConflict {
		t.Fatalf("second confirm status = %d, want 409", w.Code)
	}
}
