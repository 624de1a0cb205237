// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"equipment_lending_tool/app"
	"equipment_lending_tool/db"
	"equipment_lending_tool/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Srv struct {
	Repo      *db.Repo
	AppSess   session.Store
	Log       *zap.Logger
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      db.NewRepo(a.DB),
		AppSess:   a.AppSessions(),
		Log:       a.Log,
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

func (s *Srv) GetAppSess() session.Store { return s.AppSess }

// --- helpers ---

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登录成功：创建会话 + 触发登录快照
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID string, ip, ua string) (string, error) {
	_ = s.Repo.TouchUserLogin(ctx, userID, ip, ua) // 审计，不阻塞
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, userID); err != nil {
		return "", err
	}
	s.setAppCookie(w, id, s.Cfg.SessionTTL)
	return id, nil
}

func currentUserID(c *app.Ctx) (string, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return "", false
	}
	uid, _ := v.(string)
	return uid, uid != ""
}

func callerIsAdmin(c *app.Ctx) bool {
	v, ok := c.Get("isAdmin")
	if !ok {
		return false
	}
	isAdmin, _ := v.(bool)
	return isAdmin
}
