package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	counterdomain "github.com/smallbiznis/tillpoint/internal/counter/domain"
)

func (s *Server) CounterSessionStatus(c *gin.Context) {
	status, err := s.counterSvc.Status(c.Request.Context(), c.Query("date"), c.Query("counterCode"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type openSessionRequest struct {
	Date         string `json:"date"`
	CounterCode  string `json:"counterCode"`
	LocationCode string `json:"locationCode"`
}

func (s *Server) OpenCounterSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.counterSvc.Open(c.Request.Context(), counterdomain.OpenRequest{
		Date:         req.Date,
		CounterCode:  req.CounterCode,
		LocationCode: s.locationOrDefault(req.LocationCode),
		OpenedBy:     currentIdentity(c).EmployeeCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type closeSessionRequest struct {
	Date        string `json:"date"`
	CounterCode string `json:"counterCode"`
}

func (s *Server) CloseCounterSession(c *gin.Context) {
	var req closeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.counterSvc.Close(c.Request.Context(), counterdomain.CloseRequest{
		Date:        req.Date,
		CounterCode: req.CounterCode,
		ClosedBy:    currentIdentity(c).EmployeeCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated})
}

func (s *Server) ListCounters(c *gin.Context) {
	counters, err := s.counterSvc.ListCounters(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	codes := make([]string, len(counters))
	for i, counter := range counters {
		codes[i] = counter.CounterCode
	}
	c.JSON(http.StatusOK, gin.H{"counters": codes})
}

func (s *Server) NextCounterCode(c *gin.Context) {
	code, err := s.counterSvc.NextCounterCode(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nextCode": code})
}
