package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vocab-manager/internal/auth"
	"vocab-manager/internal/domain"
	"vocab-manager/internal/service"
)

const userContextKey = "vocab.user"

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Options configure the HTTP surface.
type Options struct {
	APIPrefix  string
	CORSOrigin string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	vocab   service.VocabService
	exports service.ExportService
	tokens  TokenIssuer
	guard   *auth.Guard
	logger  *logrus.Logger
	opts    Options
}

func NewHandler(users service.UserService, vocab service.VocabService, exports service.ExportService, tokens TokenIssuer, guard *auth.Guard, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if exports == nil {
		exports = service.NewExportService(nil, service.ExportConfig{}, logger)
	}
	return &Handler{
		users:   users,
		vocab:   vocab,
		exports: exports,
		tokens:  tokens,
		guard:   guard,
		logger:  logger,
		opts:    opts,
	}
}

// RegisterRoutes mounts every route at the root and again under the API prefix.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.corsMiddleware(), h.requestLogger())

	h.mount(router)
	prefix := "/" + strings.Trim(h.opts.APIPrefix, "/")
	if prefix != "/" {
		h.mount(router.Group(prefix))
	}
}

func (h *Handler) mount(r gin.IRouter) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	r.POST("/register/", h.register)
	r.POST("/login/", h.login)

	authed := r.Group("", h.authenticate())
	{
		authed.GET("/me/", h.me)
		authed.PUT("/me/password", h.changeOwnPassword)

		authed.GET("/user/", h.listUsers)
		authed.GET("/user/:id", h.getUser)
		authed.PUT("/user/:id", h.updateUser)
		authed.DELETE("/user/:id", h.deleteUser)
		authed.PUT("/user/:id/password", h.changeUserPassword)
		authed.PUT("/user/:id/activate", h.activateUser)
		authed.PUT("/user/:id/deactivate", h.deactivateUser)

		authed.POST("/vocablist/", h.createList)
		authed.GET("/vocablist/", h.listLists)
		authed.GET("/vocablist/:id", h.getList)
		authed.PUT("/vocablist/:id", h.updateList)
		authed.DELETE("/vocablist/:id", h.deleteList)
		authed.POST("/vocablist/:id/columns", h.addColumn)
		authed.DELETE("/vocablist/columns/:id", h.deleteColumn)
		authed.POST("/vocablist/:id/export", h.exportList)
		authed.GET("/vocablist/:id/exports", h.listExports)

		authed.POST("/vocab/entries", h.createEntry)
		authed.GET("/vocab/entries", h.listOwnEntries)
		authed.GET("/vocab/entries/table", h.entryTable)
		authed.GET("/vocab/entries/list/:listId", h.listEntries)
		authed.GET("/vocab/entries/:id", h.getEntry)
		authed.PUT("/vocab/entries/:id", h.updateEntry)
		authed.DELETE("/vocab/entries/:id", h.deleteEntry)
		authed.POST("/vocab/entries/:id/translations", h.addTranslation)
		authed.PUT("/vocab/translations/:id", h.updateTranslation)
		authed.DELETE("/vocab/translations/:id", h.deleteTranslation)
	}
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	origin := h.opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if user, ok := currentUser(c); ok {
			fields["user"] = user.Username
		}
		entry := h.logger.WithFields(fields)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}

// authenticate resolves the bearer token and stores the user on the context.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.guard.Resolve(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// mustUser is only called behind authenticate.
func mustUser(c *gin.Context) *domain.User {
	user, _ := currentUser(c)
	return user
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(c, http.StatusUnprocessableEntity, "invalid "+name)
		return 0, false
	}
	return id, true
}
