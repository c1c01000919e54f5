package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type nextBillNoRequest struct {
	CounterCode string `json:"counterCode"`
}

func (s *Server) NextBillNo(c *gin.Context) {
	var req nextBillNoRequest
	// Body is optional; the counter code only annotates the allocation.
	_ = c.ShouldBindJSON(&req)

	billNo, err := s.sequenceSvc.AllocateNext(c.Request.Context(), req.CounterCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"billNo": billNo})
}

func (s *Server) CheckBillNo(c *gin.Context) {
	last, next, err := s.sequenceSvc.Peek(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lastBillNo": last, "nextBillNo": next})
}

type settleBillNoRequest struct {
	BillNo int64 `json:"billNo"`
}

func (s *Server) SettleBillNo(c *gin.Context) {
	var req settleBillNoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BillNo <= 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.sequenceSvc.MarkSettled(c.Request.Context(), req.BillNo); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
