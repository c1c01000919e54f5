package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
)

type loginRequest struct {
	EmployeeCode string `json:"employeeCode"`
	Password     string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), req.EmployeeCode, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentIdentity(c))
}

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.authsvc.ListUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	EmployeeCode string `json:"employeeCode"`
	Password     string `json:"password"`
	RoleCode     int    `json:"roleCode"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.authsvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		EmployeeCode: req.EmployeeCode,
		Password:     req.Password,
		RoleCode:     req.RoleCode,
		UserID:       req.UserID,
		Name:         req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}
