package httpserver

import (
	"net/http"

	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         userResponse `json:"user"`
}

func (h *handlers) register(c *gin.Context) {
	var req usersvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := h.deps.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toUser(*u))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	sess, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.setAuthCookie(c, sess.AccessToken, sess.ExpiresIn)
	c.JSON(http.StatusOK, toTokenResponse(sess))
}

func (h *handlers) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}
	sess, err := h.deps.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.setAuthCookie(c, sess.AccessToken, sess.ExpiresIn)
	resp := toTokenResponse(sess)
	resp.RefreshToken = ""
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}
	if err := h.deps.Auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.setAuthCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	u, err := h.deps.Auth.Get(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *handlers) setAuthCookie(c *gin.Context, token string, maxAge int) {
	if h.opts.AuthCookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.AuthCookieName, token, maxAge, "/", "", h.opts.SecureCookies, true)
}

func toTokenResponse(s *usersvc.Session) tokenResponse {
	return tokenResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.ExpiresIn,
		User:         toUser(s.User),
	}
}
