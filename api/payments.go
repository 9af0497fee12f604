package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/hyeonu91/schoolreserve/internal/service/payment"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type completePaymentRequest struct {
	ReserveID   int64  `json:"reserve_id"`
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	PaymentType string `json:"payment_type"`
	IsExtend    bool   `json:"is_extend"`
}

type completePaymentResponse struct {
	PaymentID int64  `json:"payment_id"`
	ReserveID int64  `json:"reserve_id"`
	Status    string `json:"status"`
	Price     int    `json:"price"`
}

type reservePageResponse struct {
	ReserveID     int64  `json:"reserve_id"`
	ReserveType   string `json:"reserve_type"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Price         int    `json:"price"`
	SchoolID      int64  `json:"school_id"`
	UserName      string `json:"user_name"`
	UserEmail     string `json:"user_email"`
	UserPhone     string `json:"user_phone"`
	SchoolName    string `json:"school_name"`
	SchoolAddress string `json:"school_address"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/complete", h.complete)
	router.GET("/reserve/:id", h.getReserve)
}

func (h *PaymentHandler) complete(c *gin.Context) {
	var req completePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.service.CompletePayment(c.Request.Context(), payment.CompletePaymentInput{
		ReserveID:   req.ReserveID,
		ImpUID:      req.ImpUID,
		MerchantUID: req.MerchantUID,
		PaymentType: req.PaymentType,
		IsExtend:    req.IsExtend,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, completePaymentResponse{
		PaymentID: out.PaymentID,
		ReserveID: out.ReserveID,
		Status:    string(out.Status),
		Price:     out.Price,
	})
}

func (h *PaymentHandler) getReserve(c *gin.Context) {
	reserveID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("malformed reserve id: %w", domain.ErrValidation))
		return
	}

	page, err := h.service.GetReserve(c.Request.Context(), reserveID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservePageResponse{
		ReserveID:     page.ReserveID,
		ReserveType:   string(page.ReserveType),
		StartDate:     page.StartDate.Format(time.DateOnly),
		EndDate:       page.EndDate.Format(time.DateOnly),
		Price:         page.Price,
		SchoolID:      page.SchoolID,
		UserName:      page.UserName,
		UserEmail:     page.UserEmail,
		UserPhone:     page.UserPhone,
		SchoolName:    page.SchoolName,
		SchoolAddress: page.SchoolAddress,
	})
}
