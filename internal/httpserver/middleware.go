package httpserver

import (
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxActor        = "actor"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// accessLog writes one structured line per request.
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestID(c)),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("request_id", requestID(c)),
			zap.Stack("stack"))
		respondProblem(c, problemFor500())
	})
}

func problemFor500() problemDetail {
	p := problemTemplates[domain.KindInternal]
	p.Detail = domain.Internal().Message
	return p
}

// authenticate resolves the access token from the Authorization header or
// the auth cookie. Requests without a token continue anonymously; a token
// that fails validation is rejected.
func authenticate(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			if v, err := c.Cookie(cookieName); err == nil {
				token = v
			}
		}
		if token == "" {
			c.Next()
			return
		}
		actor, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondProblem(c, mustProblem(err))
			return
		}
		c.Set(ctxActor, actor)
		c.Next()
	}
}

// requireActor rejects anonymous requests.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).UserID == "" {
			respondProblem(c, mustProblem(domain.Unauthorized("authentication credentials were not provided")))
			return
		}
		c.Next()
	}
}

// uuidParam answers 404 for path ids that cannot name a stored row.
func uuidParam(name, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(name)); err != nil {
			respondProblem(c, mustProblem(domain.NotFound(resource)))
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(ctxActor); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func mustProblem(err error) problemDetail {
	p, _ := problemFor(err)
	return p
}
