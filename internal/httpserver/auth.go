package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authsvc "storefront/internal/service/auth"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type anonymousResponse struct {
	AccessToken string `json:"accessToken"`
	AnonymousID string `json:"anonymousId"`
	ExpiresIn   int    `json:"expiresIn"`
}

func (h *handler) signUp(c *gin.Context) {
	var req authsvc.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := h.deps.AuthSvc.SignUp(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	sess, err := h.deps.AuthSvc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handler) signInAdmin(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	sess, err := h.deps.AuthSvc.SignInAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handler) signOut(c *gin.Context) {
	s := sessionFrom(c.Request.Context())
	if err := h.deps.AuthSvc.SignOut(c.Request.Context(), s.token); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) me(c *gin.Context) {
	s := sessionFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"principal": s.principal, "identity": s.identity})
}

func (h *handler) issueAnonymous(c *gin.Context) {
	token, id, err := h.deps.AnonymousSvc.Issue(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, anonymousResponse{
		AccessToken: token,
		AnonymousID: id,
		ExpiresIn:   h.deps.AnonymousSvc.AccessTTLSeconds(),
	})
}
