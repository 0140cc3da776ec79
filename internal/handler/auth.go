package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Login exchanges username and password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	login, err := h.verifier.Authenticate(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Token:       login.Token,
		Role:        login.Role,
		DisplayName: login.DisplayName,
		Username:    login.Username,
		ExpiresAt:   login.ExpiresAt.UTC().Format(timestampLayout),
	})
}
