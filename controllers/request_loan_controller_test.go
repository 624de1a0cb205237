package controllers

import (
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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type loanTestEnv struct {
	router *gin.Engine
	repo   *db.Repo
	sess   *memSessions
}

func setupLoanTest(t *testing.T) *loanTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:loanctl_%s?mode=memory&cache=shared", name)
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
		Repo:    repo,
		AppSess: sess,
		Log:     zap.NewNop(),
		Cfg:     app.Config{SessionTTL: time.Hour},
	}
	ctl := NewRequestController(srv)

	r := gin.New()
	authMW := app.AuthRequired(sess, repo)
	r.GET("/api/loans", authMW, ctl.ListLoans)
	r.POST("/api/loans/:id/return", authMW, ctl.Return)

	return &loanTestEnv{router: r, repo: repo, sess: sess}
}

// seedActor creates a user plus a live session and returns the bearer token.
func (e *loanTestEnv) seedActor(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := e.repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token := uuid.NewString()
	if err := e.sess.Create(context.Background(), token, u.ID); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return u, token
}

// seedApprovedLoan sets up an item with one unit, a request by owner and an
// approved loan on it, returning the loan.
func (e *loanTestEnv) seedApprovedLoan(t *testing.T, owner *models.User) *models.Loan {
	t.Helper()
	ctx := context.Background()
	item := &models.InventoryItem{Name: "Canon EOS R6"}
	if err := e.repo.CreateItem(ctx, item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if _, err := e.repo.AddUnit(ctx, item.ID, "CAM-"+uuid.NewString()[:8]); err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	req := &models.Request{
		UserID:    owner.ID,
		ItemID:    item.ID,
		Quantity:  1,
		StartDate: time.Now(),
		EndDate:   time.Now().Add(48 * time.Hour),
	}
	if err := e.repo.CreateRequest(ctx, req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	_, loans, err := e.repo.ApproveRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("loans = %d, want 1", len(loans))
	}
	return &loans[0]
}

func getLoans(t *testing.T, r *gin.Engine, token string) (int, []models.Loan) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/loans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out struct {
		Loans []models.Loan `json:"loans"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out.Loans
}

func TestListLoans_ScopedToOwnRequests(t *testing.T) {
	env := setupLoanTest(t)
	owner, ownerTok := env.seedActor(t, "mario@laba.edu", models.RoleUser)
	_, otherTok := env.seedActor(t, "luigi@laba.edu", models.RoleUser)
	_, adminTok := env.seedActor(t, "admin@laba.edu", models.RoleAdmin)
	loan := env.seedApprovedLoan(t, owner)

	code, ls := getLoans(t, env.router, ownerTok)
	if code != http.StatusOK || len(ls) != 1 || ls[0].ID != loan.ID {
		t.Fatalf("owner: code=%d loans=%v, want own loan", code, ls)
	}

	code, ls = getLoans(t, env.router, otherTok)
	if code != http.StatusOK {
		t.Fatalf("other user: code = %d, want 200", code)
	}
	if len(ls) != 0 {
		t.Fatalf("other user sees %d loans, want 0", len(ls))
	}

	code, ls = getLoans(t, env.router, adminTok)
	if code != http.StatusOK || len(ls) != 1 {
		t.Fatalf("admin: code=%d loans=%d, want all loans", code, len(ls))
	}
}

func TestReturnLoan_OnlyOwnerOrAdmin(t *testing.T) {
	env := setupLoanTest(t)
	owner, ownerTok := env.seedActor(t, "mario@laba.edu", models.RoleUser)
	_, otherTok := env.seedActor(t, "luigi@laba.edu", models.RoleUser)
	loan := env.seedApprovedLoan(t, owner)

	w := postJSON(t, env.router, "/api/loans/"+loan.ID+"/return", nil,
		map[string]string{"Authorization": "Bearer " + otherTok})
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign return: code = %d, want 403", w.Code)
	}

	// 归还失败时 unit 必须保持 loaned
	unit, err := env.repo.FindUnitByID(context.Background(), loan.UnitID)
	if err != nil {
		t.Fatalf("find unit: %v", err)
	}
	if unit.Status != models.UnitLoaned {
		t.Fatalf("unit status = %q, want %q", unit.Status, models.UnitLoaned)
	}

	w = postJSON(t, env.router, "/api/loans/"+loan.ID+"/return", nil,
		map[string]string{"Authorization": "Bearer " + ownerTok})
	if w.Code != http.StatusOK {
		t.Fatalf("owner return: code = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestReturnLoan_AdminCanReturnAnyLoan(t *testing.T) {
	env := setupLoanTest(t)
	owner, _ := env.seedActor(t, "mario@laba.edu", models.RoleUser)
	admin, adminTok := env.seedActor(t, "admin@laba.edu", models.RoleAdmin)
	loan := env.seedApprovedLoan(t, owner)

	w := postJSON(t, env.router, "/api/loans/"+loan.ID+"/return", nil,
		map[string]string{"Authorization": "Bearer " + adminTok})
	if w.Code != http.StatusOK {
		t.Fatalf("admin return: code = %d, want 200: %s", w.Code, w.Body.String())
	}
	got, err := env.repo.FindLoanByID(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("find loan: %v", err)
	}
	if got.ReturnedBy == nil || *got.ReturnedBy != admin.ID {
		t.Fatalf("returnedBy = %v, want admin", got.ReturnedBy)
	}
}
