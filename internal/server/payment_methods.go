package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	methoddomain "github.com/megasio/payadmin/internal/paymentmethod/domain"
	"github.com/shopspring/decimal"
)

type updatePaymentMethodRequest struct {
	DisplayName *string          `json:"display_name"`
	Icon        *string          `json:"icon"`
	MinAmount   *decimal.Decimal `json:"min_amount"`
	MaxAmount   *decimal.Decimal `json:"max_amount"`
}

func parseID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

func (s *Server) ListPaymentMethods(c *gin.Context) {
	items, err := s.methodSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": items})
}

func (s *Server) UpdatePaymentMethod(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.methodSvc.UpdateAdmin(c.Request.Context(), id, methoddomain.AdminUpdateRequest{
		DisplayName: req.DisplayName,
		Icon:        req.Icon,
		MinAmount:   req.MinAmount,
		MaxAmount:   req.MaxAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_method": resp})
}

// SyncPaymentMethods triggers a full catalog reconciliation against the
// gateway and reports per-branch tallies.
func (s *Server) SyncPaymentMethods(c *gin.Context) {
	result, err := s.catalogSvc.ReconcileAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
