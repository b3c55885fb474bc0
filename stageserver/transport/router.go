package transport

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/jwt"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/internal/validation"
	"github.com/imtaco/voice-stage/room"
)

// RoomAdmin is the slice of the room service the HTTP surface needs.
type RoomAdmin interface {
	View(ctx context.Context) (room.AdminView, error)
	ForceRemove(ctx context.Context, userID string) error
	Reset(ctx context.Context) error
	Leave(ctx context.Context, userID string) error
}

type Router struct {
	roomSvc RoomAdmin
	jwtAuth jwt.Auth
	roomID  string
	cfg     Config
	engine  *gin.Engine
	logger  *log.Logger
}

func NewRouter(cfg Config, roomSvc RoomAdmin, jwtAuth jwt.Auth, roomID string, logger *log.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add OpenTelemetry middleware for automatic HTTP tracing
	engine.Use(otelgin.Middleware("stage-server"))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}
	// an unset origin list means wide open, not all-closed
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	engine.Use(cors.New(corsConfig))

	r := &Router{
		roomSvc: roomSvc,
		jwtAuth: jwtAuth,
		roomID:  roomID,
		cfg:     cfg,
		engine:  engine,
		logger:  logger,
	}

	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	// Public surface
	r.engine.GET("/healthz", r.healthCheck)
	r.engine.POST("/api/token", r.generateToken)
	r.engine.POST("/api/leave-beacon", r.leaveBeacon)

	// Admin surface
	admin := r.engine.Group("/api", r.adminAuth)
	admin.GET("/room", r.getRoom)
	admin.DELETE("/room/members/:userId", r.removeMember)
	admin.POST("/room/reset", r.resetRoom)
}

// adminAuth gates the admin endpoints behind a shared bearer token.
// An empty configured token disables the check (local development).
func (r *Router) adminAuth(c *gin.Context) {
	if r.cfg.AdminToken == "" {
		return
	}

	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(r.cfg.AdminToken)) != 1 {
		adminDenied.Add(c.Request.Context(), 1)
		r.logger.Warn("Admin auth rejected",
			log.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied",
		})
	}
}

func (r *Router) generateToken(c *gin.Context) {
	userID := uuid.New().String()

	token, err := r.jwtAuth.Sign(userID, r.roomID)
	if err != nil {
		r.logger.Error("Failed to sign token",
			log.String("user_id", userID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to generate token",
		})
		return
	}

	tokensIssued.Add(c.Request.Context(), 1)
	r.logger.Info("Token generated", log.String("user_id", userID))

	c.JSON(http.StatusOK, gin.H{
		"userID": userID,
		"token":  token,
	})
}

func (r *Router) leaveBeacon(c *gin.Context) {
	var body LeaveBeaconBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	payload, err := r.jwtAuth.Verify(body.Token)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied",
		})
		return
	}
	if payload.RoomID != r.roomID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied",
		})
		return
	}

	// Leave is idempotent; the websocket disconnect usually races this
	if err := r.roomSvc.Leave(c.Request.Context(), payload.UserID); err != nil {
		r.logger.Error("Beacon leave failed",
			log.String("user_id", payload.UserID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	beaconLeaves.Add(c.Request.Context(), 1)
	r.logger.Info("Beacon leave", log.String("user_id", payload.UserID))

	c.JSON(http.StatusOK, gin.H{})
}

func (r *Router) getRoom(c *gin.Context) {
	view, err := r.roomSvc.View(c.Request.Context())
	if err != nil {
		r.logger.Error("Failed to read room state", log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (r *Router) removeMember(c *gin.Context) {
	var req RemoveMemberURI
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	if err := r.roomSvc.ForceRemove(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, room.ErrState) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		r.logger.Error("Failed to remove member", log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	forceRemovals.Add(c.Request.Context(), 1)
	r.logger.Info("Member force-removed", log.String("user_id", req.UserID))

	c.JSON(http.StatusOK, gin.H{})
}

func (r *Router) resetRoom(c *gin.Context) {
	if err := r.roomSvc.Reset(c.Request.Context()); err != nil {
		r.logger.Error("Failed to reset room", log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	roomResets.Add(c.Request.Context(), 1)
	r.logger.Info("Room reset by admin")

	c.JSON(http.StatusOK, gin.H{})
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
