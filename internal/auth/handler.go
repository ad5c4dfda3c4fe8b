package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Repo   *Repo
	Tokens TokenService
	Logger *zap.Logger
}

func NewHandler(repo *Repo, tokens TokenService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Tokens: tokens, Logger: logger}
}

// Middleware is RequireAdmin bound to this handler's repo and tokens.
func (h *Handler) Middleware() gin.HandlerFunc {
	return RequireAdmin(h.Tokens, h.Repo, h.Logger)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/setup", h.setup)
	rg.POST("/login", h.login)

	authed := rg.Group("", h.Middleware())
	authed.GET("/me", h.me)
	authed.POST("/admins", h.createAdmin)
	authed.POST("/change-password", h.changePassword)
	authed.POST("/logout", h.logout)
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// setup creates the first admin and is closed once any admin exists.
func (h *Handler) setup(c *gin.Context) {
	n, err := h.Repo.Count(c.Request.Context())
	if err != nil {
		h.Logger.Error("count admins", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "setup failed"})
		return
	}
	if n > 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "setup already done"})
		return
	}
	h.register(c, http.StatusCreated)
}

func (h *Handler) createAdmin(c *gin.Context) {
	h.register(c, http.StatusCreated)
}

func (h *Handler) register(c *gin.Context, status int) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := Register(c.Request.Context(), h.Repo, req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidAccount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrAccountExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.Logger.Error("create admin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create admin failed"})
		return
	}
	h.Logger.Info("admin created", zap.String("admin_id", a.ID), zap.String("username", a.Username))
	h.respondWithToken(c, status, a)
}

type loginReq struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	login := req.Login
	if login == "" {
		login = req.Email
	}

	a, err := Authenticate(c.Request.Context(), h.Repo, login, req.Password)
	if err != nil {
		if !errors.Is(err, ErrBadCredentials) {
			h.Logger.Error("login lookup", zap.Error(err))
		}
		// don't reveal which part failed
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.respondWithToken(c, http.StatusOK, a)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, a *Admin) {
	token, exp, err := h.Tokens.Sign(a)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}
	c.JSON(status, gin.H{
		"admin": gin.H{
			"id":       a.ID,
			"username": a.Username,
			"email":    a.Email,
		},
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	a, err := h.Repo.GetByID(c.Request.Context(), claims.AdminID)
	if err != nil || a == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": a.ID, "username": a.Username, "email": a.Email})
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old and new password required"})
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := MustGetClaims(c)
	a, err := h.Repo.GetByID(c.Request.Context(), claims.AdminID)
	if err != nil || a == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	if err := h.Repo.UpdatePasswordAndBumpTokenVersion(c.Request.Context(), a.ID, string(hash)); err != nil {
		h.Logger.Error("update password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update password failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

func (h *Handler) logout(c *gin.Context) {
	claims := MustGetClaims(c)
	if err := h.Repo.BumpTokenVersion(c.Request.Context(), claims.AdminID); err != nil {
		h.Logger.Error("logout", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
