package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"equipment_lending_tool/app"
	"equipment_lending_tool/db"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct{ *Srv }

func GetAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /login
// 400 缺字段；401 统一 invalid credentials；200 {token, user}
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "email and password are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := ac.Repo.FindUserByEmail(c.Request.Context(), email)
	if err != nil {
		// 不区分“用户不存在”和“密码错误”
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}

	token, err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"token": token, "user": u})
}

// POST /logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(ac.WebOrigin, "https://"),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /whoami
func (ac *AuthController) Whoami(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	u, err := ac.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /password-reset/request
// 无论邮箱是否存在都返回 200，避免泄露注册状态
func (ac *AuthController) RequestPasswordReset(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "email is required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := ac.Repo.FindUserByEmail(c.Request.Context(), email); err != nil {
		c.JSON(http.StatusOK, app.H{"ok": true})
		return
	}

	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)

	if _, err := ac.Repo.CreatePasswordReset(c.Request.Context(), email, token, time.Now().Add(24*time.Hour)); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	link := strings.TrimRight(ac.WebOrigin, "/") + "/reset-password?token=" + token
	sent, err := sendResetMail(email, link)
	if err != nil {
		ac.Log.Warn("reset mail send failed", zap.String("email", email), zap.Error(err))
	}
	if !sent {
		// 未配置 SMTP 时走日志（开发模式）
		ac.Log.Info("password reset link issued",
			zap.String("email", email), zap.String("link", link))
	}

	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /password-reset/confirm
func (ac *AuthController) ConfirmPasswordReset(c *gin.Context) {
	var in struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	prr, err := ac.Repo.RedeemPasswordReset(c.Request.Context(), in.Token)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrTokenUsed), errors.Is(err, db.ErrTokenExpired):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "invalid token"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}

	u, err := ac.Repo.FindUserByEmail(c.Request.Context(), prr.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if err := ac.Repo.UpdateUserPassword(c.Request.Context(), u.ID, string(hash)); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	// 改密后撤销全部会话
	_ = ac.AppSess.RevokeAllForUser(c.Request.Context(), u.ID)

	c.JSON(http.StatusOK, app.H{"ok": true})
}
