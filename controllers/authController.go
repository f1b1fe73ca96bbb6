package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"civicsync-issues/middlewares"
	"civicsync-issues/models"
	"civicsync-issues/services"
	"civicsync-issues/store"
	authUtils "civicsync-issues/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthOptions controls token lifetime and the session cookie.
type AuthOptions struct {
	Secret       []byte
	TokenTTL     time.Duration
	Production   bool
	CookieDomain string
}

type AuthController struct {
	users       store.UserStore
	gate        services.Gate
	revocations services.Revocations
	google      services.GoogleVerifier
	opts        AuthOptions
	log         *zap.Logger
}

// NewAuthController builds the user auth handlers. revocations and google may
// be nil: logout then only clears the cookie and Google sign-in answers 503.
func NewAuthController(users store.UserStore, gate services.Gate, revocations services.Revocations,
	google services.GoogleVerifier, opts AuthOptions, log *zap.Logger) *AuthController {
	return &AuthController{users: users, gate: gate, revocations: revocations, google: google, opts: opts, log: log}
}

// Signup handles user registration
func (ac *AuthController) Signup(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Username, a valid email and a password of at least 6 characters are required")
		return
	}

	user := &models.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
	}
	if err := user.HashPassword(); err != nil {
		respondError(c, ac.log, err)
		return
	}

	if err := ac.users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			badRequest(c, "User with this email already exists")
			return
		}
		respondError(c, ac.log, err)
		return
	}

	if err := ac.startSession(c, user); err != nil {
		respondError(c, ac.log, err)
		return
	}

	ac.log.Info("user signed up", zap.String("user_id", user.ID.Hex()))
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully", "user": user})
}

// Login handles user login
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := ac.users.FindUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		respondError(c, ac.log, err)
		return
	}
	if user == nil || !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if err := ac.startSession(c, user); err != nil {
		respondError(c, ac.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful", "user": user})
}

// GoogleSignup signs a user in with a Google ID token, creating the account
// on first use.
func (ac *AuthController) GoogleSignup(c *gin.Context) {
	if ac.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Google sign-in is not configured"})
		return
	}

	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Google token is required")
		return
	}

	ctx := c.Request.Context()
	profile, err := ac.google.Verify(ctx, input.Token)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			ac.log.Info("google token rejected", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid Google token"})
			return
		}
		respondError(c, ac.log, err)
		return
	}

	user, err := ac.users.FindUserByEmail(ctx, profile.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		user = &models.User{Username: profile.Name, Email: profile.Email}
		err = ac.users.CreateUser(ctx, user)
		if errors.Is(err, store.ErrEmailTaken) {
			user, err = ac.users.FindUserByEmail(ctx, profile.Email)
		}
	}
	if err != nil {
		respondError(c, ac.log, err)
		return
	}

	if err := ac.startSession(c, user); err != nil {
		respondError(c, ac.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful", "user": user})
}

// Logout clears the session cookie and revokes the presented token until it
// would have expired.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.revocations != nil {
		id, err := middlewares.Authenticate(c, ac.gate)
		if err == nil && id.TokenID != "" {
			if err := ac.revocations.Revoke(c.Request.Context(), id.TokenID, time.Until(id.ExpiresAt)); err != nil {
				ac.log.Warn("failed to revoke token on logout", zap.String("user_id", id.UserID), zap.Error(err))
			}
		}
	}

	ac.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// Verify reports whether the request carries a valid session.
func (ac *AuthController) Verify(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := middlewares.Authenticate(c, ac.gate)
	if err != nil {
		if !errors.Is(err, models.ErrUnauthorized) {
			ac.log.Error("session verification failed", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "isAuthenticated": false})
		return
	}

	user, err := ac.users.FindUserByID(ctx, id.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			ac.log.Error("loading session user failed", zap.String("user_id", id.UserID), zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "isAuthenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "isAuthenticated": true, "user": user})
}

func (ac *AuthController) startSession(c *gin.Context, user *models.User) error {
	token, _, err := authUtils.GenerateToken(ac.opts.Secret, user.ID.Hex(), ac.opts.TokenTTL)
	if err != nil {
		return err
	}
	ac.setCookie(c, token, int(ac.opts.TokenTTL.Seconds()))
	return nil
}

// setCookie writes the session cookie. Production serves the API and the web
// client from different origins, which needs SameSite=None and Secure.
func (ac *AuthController) setCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if ac.opts.Production {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.TokenCookie,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   ac.opts.CookieDomain,
		Secure:   ac.opts.Production,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
