package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// contentTypeProblemJSON is the media type of RFC 7807 responses.
const contentTypeProblemJSON = "application/problem+json"

// problemDetail is an RFC 7807 problem document.
type problemDetail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Products []string          `json:"products,omitempty"`
}

var problemTemplates = map[domain.Kind]problemDetail{
	domain.KindValidation:   {Type: "/problems/validation-error", Title: "Validation Error", Status: http.StatusBadRequest},
	domain.KindUnauthorized: {Type: "/problems/unauthorized", Title: "Unauthorized", Status: http.StatusUnauthorized},
	domain.KindForbidden:    {Type: "/problems/forbidden", Title: "Forbidden", Status: http.StatusForbidden},
	domain.KindNotFound:     {Type: "/problems/not-found", Title: "Resource Not Found", Status: http.StatusNotFound},
	domain.KindConflict:     {Type: "/problems/conflict", Title: "Conflict", Status: http.StatusConflict},
	domain.KindInternal:     {Type: "/problems/internal-error", Title: "Internal Server Error", Status: http.StatusInternalServerError},
}

// problemFor converts err into a problem document. Unclassified errors
// become an opaque internal error; ok is false for them so the caller can
// log the original.
func problemFor(err error) (p problemDetail, ok bool) {
	kind := domain.KindOf(err)
	tmpl, known := problemTemplates[kind]
	if !known {
		p = problemTemplates[domain.KindInternal]
		p.Detail = domain.Internal().Message
		return p, false
	}
	p = tmpl

	var de *domain.Error
	if errors.As(err, &de) {
		p.Detail = de.Error()
		p.Fields = de.Fields
		p.Products = de.Items
		return p, true
	}
	switch kind {
	case domain.KindNotFound:
		p.Detail = "resource not found"
	case domain.KindConflict:
		p.Detail = "resource already exists"
	}
	return p, true
}

func respondProblem(c *gin.Context, p problemDetail) {
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", contentTypeProblemJSON)
	c.AbortWithStatusJSON(p.Status, p)
}

// respondError writes err as a problem response. Internal failures are
// logged with the request id; the client only sees a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	p, ok := problemFor(err)
	if !ok || p.Status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	respondProblem(c, p)
}

func badRequest(c *gin.Context, detail string) {
	p := problemTemplates[domain.KindValidation]
	p.Detail = detail
	respondProblem(c, p)
}
