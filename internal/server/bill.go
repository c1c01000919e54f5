package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billdomain "github.com/smallbiznis/tillpoint/internal/bill/domain"
)

type itemPayload struct {
	ItemCode       string          `json:"itemCode"`
	Quantity       int             `json:"quantity"`
	Rate           decimal.Decimal `json:"rate"`
	ManufacturerID string          `json:"manufacturerId"`
}

func toItemInputs(items []itemPayload) []billdomain.ItemInput {
	out := make([]billdomain.ItemInput, len(items))
	for i, item := range items {
		out[i] = billdomain.ItemInput{
			ItemCode:       item.ItemCode,
			Quantity:       item.Quantity,
			Rate:           item.Rate,
			ManufacturerID: item.ManufacturerID,
		}
	}
	return out
}

type syncCartRequest struct {
	BillNo       int64         `json:"billNo"`
	LocationCode string        `json:"locationCode"`
	Items        []itemPayload `json:"items"`
}

func (s *Server) SyncCart(c *gin.Context) {
	var req syncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.billSvc.Sync(c.Request.Context(), billdomain.SyncRequest{
		BillNo:       req.BillNo,
		LocationCode: s.locationOrDefault(req.LocationCode),
		Items:        toItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "persisted": result.Persisted})
}

type holdBillRequest struct {
	BillNo       int64           `json:"billNo"`
	LocationCode string          `json:"locationCode"`
	CounterCode  string          `json:"counterCode"`
	CustomerCode string          `json:"customerCode"`
	Discount     decimal.Decimal `json:"discount"`
	Items        []itemPayload   `json:"items"`
}

func (s *Server) HoldBill(c *gin.Context) {
	var req holdBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.billSvc.Hold(c.Request.Context(), billdomain.HoldRequest{
		BillNo:       req.BillNo,
		LocationCode: s.locationOrDefault(req.LocationCode),
		CounterCode:  req.CounterCode,
		CustomerCode: req.CustomerCode,
		Discount:     req.Discount,
		Items:        toItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListHeldBills(c *gin.Context) {
	bills, err := s.billSvc.ListHeld(c.Request.Context(), s.locationOrDefault(c.Query("locationCode")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

func (s *Server) GetHeldBill(c *gin.Context) {
	billNo, err := parseBillNo(c.Param("billNo"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billSvc.Get(c.Request.Context(), billNo, s.locationOrDefault(c.Query("locationCode")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) RetrieveHeldBill(c *gin.Context) {
	billNo, err := parseBillNo(c.Param("billNo"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billSvc.Retrieve(c.Request.Context(), billNo, s.locationOrDefault(c.Query("locationCode")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bill": bill})
}

type payBillRequest struct {
	BillNo       int64         `json:"billNo"`
	LocationCode string        `json:"locationCode"`
	Items        []itemPayload `json:"items"`
}

func (s *Server) PayBill(c *gin.Context) {
	var req payBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.billSvc.Pay(c.Request.Context(), billdomain.PayRequest{
		BillNo:       req.BillNo,
		LocationCode: s.locationOrDefault(req.LocationCode),
		Items:        toItemInputs(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "inserted": result.Inserted})
}

func (s *Server) BillReceipt(c *gin.Context) {
	billNo, err := parseBillNo(c.Param("billNo"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billSvc.Settled(c.Request.Context(), billNo, s.locationOrDefault(c.Query("locationCode")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	raw, err := s.receipts.Render(bill)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", raw)
}

func (s *Server) locationOrDefault(locationCode string) string {
	if locationCode == "" {
		return s.cfg.DefaultLocationCode
	}
	return locationCode
}

func parseBillNo(raw string) (int64, error) {
	billNo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || billNo <= 0 {
		return 0, ErrInvalidRequest
	}
	return billNo, nil
}
