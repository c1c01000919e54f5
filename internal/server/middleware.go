package server

import (
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/authorization"
)

const contextIdentityKey = "identity"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.authsvc.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

func (s *Server) RequireManager(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		if !s.authz.Can(identity.Role, authorization.ObjectUsers, action) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// LoginRateLimit buckets by client IP. A nil limiter passes everything.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Allow(c.Request.Context(), "login:"+c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) authdomain.Identity {
	v, ok := c.Get(contextIdentityKey)
	if !ok {
		return authdomain.Identity{}
	}
	identity, _ := v.(authdomain.Identity)
	return identity
}
