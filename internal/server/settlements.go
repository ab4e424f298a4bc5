package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	settlementdomain "github.com/megasio/payadmin/internal/settlement/domain"
)

type settlementActionRequest struct {
	Note string `json:"note"`
}

func (s *Server) ListSettlements(c *gin.Context) {
	filter := settlementdomain.ListFilter{
		Account:    strings.TrimSpace(c.Query("account")),
		OrderNo:    strings.TrimSpace(c.Query("order_no")),
		OutTradeNo: strings.TrimSpace(c.Query("out_trade_no")),
		Kind:       strings.TrimSpace(c.Query("kind")),
		Status:     strings.TrimSpace(c.Query("status")),
		PayStatus:  strings.TrimSpace(c.Query("pay_status")),
	}

	if raw := c.Query("payment_method_id"); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("payment_method_id", "invalid_payment_method_id", "invalid payment_method_id"))
			return
		}
		filter.PaymentMethodID = id
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, newValidationError("approved", "invalid_approved", "invalid approved"))
			return
		}
		filter.Approved = &approved
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	items, total, err := s.settlementSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settlements": items,
		"total":       total,
	})
}

func (s *Server) GetSettlementByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := s.settlementSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settlement": resp})
}

func (s *Server) ApproveSettlement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req settlementActionRequest
	// The note body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.Approve(c.Request.Context(), id, req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settlement": resp})
}

func (s *Server) RejectSettlement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req settlementActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.Reject(c.Request.Context(), id, req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settlement": resp})
}
