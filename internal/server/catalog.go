package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListProducts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	items, err := s.catalogSvc.List(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

func (s *Server) LookupProduct(c *gin.Context) {
	item, err := s.catalogSvc.Lookup(c.Request.Context(), c.Query("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if item == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) ListCustomers(c *gin.Context) {
	customers, err := s.customerSvc.List(c.Request.Context(), c.Query("locationCode"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}
