package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/renewly/renewly/internal/auth/domain"
)

func (s *Server) SignUp(c *gin.Context) {
	var req authdomain.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authSvc.SignUp(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"token": result.Token,
			"user":  result.User,
		},
	})
}

func (s *Server) SignIn(c *gin.Context) {
	var req authdomain.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authSvc.SignIn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": result.Token,
			"user":  result.User,
		},
	})
}

// SignOut acknowledges the request; bearer tokens are stateless, so the
// client discards its copy.
func (s *Server) SignOut(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"message": "signed out"},
	})
}
