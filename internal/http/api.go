package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tunematch/internal/domain"
	"tunematch/internal/matching"
	"tunematch/internal/media"
	"tunematch/internal/service"
)

const userIDKey = "tunematch.user_id"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.CredentialService
	sessions service.SessionService
	profiles service.ProfileService
	matches  service.MatchService
	logger   *logrus.Logger
}

func NewHandler(
	users service.CredentialService,
	sessions service.SessionService,
	profiles service.ProfileService,
	matches service.MatchService,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		matches:  matches,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/auth/remembered", h.rememberedUser)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("", h.requireSession())
		{
			authed.POST("/auth/logout", h.logout)
			authed.GET("/auth/session", h.currentSession)
			authed.DELETE("/account", h.deleteAccount)
			authed.GET("/profile", h.getProfile)
			authed.PUT("/profile", h.putProfile)
			authed.POST("/profile/rating", h.rateTrack)
			authed.POST("/profile/picture", h.savePicture)
			authed.DELETE("/profile/picture", h.removePicture)
			authed.GET("/matches", h.findMatches)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger records one line per request once the handler chain ran.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// requireSession resolves the bearer token on each request; validity is
// never cached between calls.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}

		userID, ok, err := h.sessions.Validate(c.Request.Context(), token)
		if err != nil {
			h.logger.Warnf("validate session: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func sessionUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

type registerRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Email      string `json:"email" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type loginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type authResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateIdentity) {
			c.JSON(http.StatusConflict, gin.H{"error": service.ErrDuplicateIdentity.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), userID, req.RememberMe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, authResponse{UserID: userID, Token: token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), userID, req.RememberMe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, authResponse{UserID: userID, Token: token})
}

func (h *Handler) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": sessionUserID(c)})
}

func (h *Handler) rememberedUser(c *gin.Context) {
	remembered, err := h.sessions.RememberedUser(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if remembered == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no remembered user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  remembered.UserID,
		"username": remembered.Username,
		"token":    remembered.Token,
	})
}

func (h *Handler) deleteAccount(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), sessionUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.profiles.Load(c.Request.Context(), sessionUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrProfileNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) putProfile(c *gin.Context) {
	var profile domain.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the session decides whose profile is written
	profile.UserID = sessionUserID(c)

	if err := h.profiles.Save(c.Request.Context(), &profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) rateTrack(c *gin.Context) {
	var pref domain.MusicPreference
	if err := c.ShouldBindJSON(&pref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.RateTrack(c.Request.Context(), sessionUserID(c), pref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type savePictureRequest struct {
	SourcePath string `json:"source_path" binding:"required"`
}

func (h *Handler) savePicture(c *gin.Context) {
	var req savePictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.profiles.SavePicture(c.Request.Context(), sessionUserID(c), req.SourcePath)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedFormat):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (h *Handler) removePicture(c *gin.Context) {
	if err := h.profiles.RemovePicture(c.Request.Context(), sessionUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type matchResponse struct {
	Profile domain.Profile `json:"profile"`
	Score   float64        `json:"score"`
}

func (h *Handler) findMatches(c *gin.Context) {
	min, err := strconv.ParseFloat(c.DefaultQuery("min", "0.5"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min compatibility"})
		return
	}

	matchList, err := h.matches.FindMatches(c.Request.Context(), sessionUserID(c), min)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := make([]matchResponse, len(matchList))
	for i := range matchList {
		resp[i] = matchToResponse(matchList[i])
	}
	c.JSON(http.StatusOK, resp)
}

func matchToResponse(m matching.Match) matchResponse {
	return matchResponse{
		Profile: m.Profile,
		Score:   m.Score,
	}
}
