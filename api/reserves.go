package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/hyeonu91/schoolreserve/internal/service/reserve"
)

type ReserveHandler struct {
	service reserve.ReserveUseCase
}

type createReserveRequest struct {
	SchoolID  int64  `json:"school_id"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
}

type createReserveResponse struct {
	ReserveID    int64  `json:"reserve_id"`
	Status       string `json:"status"`
	Price        int    `json:"price"`
	Deposit      int    `json:"deposit"`
	WaitingOrder *int   `json:"waiting_order,omitempty"`
}

type placeReserveResponse struct {
	ReserveID       int64  `json:"reserve_id"`
	SchoolID        int64  `json:"school_id"`
	SchoolImageName string `json:"school_image_name"`
}

func NewReserveHandler(service reserve.ReserveUseCase) *ReserveHandler {
	return &ReserveHandler{service: service}
}

func (h *ReserveHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.DELETE("/:id", h.cancel)
	router.GET("/my/places", h.myPlaces)
	router.GET("/my/parking", h.myParking)
}

// userID reads the caller identity injected by the auth layer in front of
// this service.
func userID(c *gin.Context) (int64, error) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return 0, fmt.Errorf("missing user identity: %w", domain.ErrValidation)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed user identity: %w", domain.ErrValidation)
	}
	return id, nil
}

func (h *ReserveHandler) create(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req createReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(c, fmt.Errorf("start_date must be YYYY-MM-DD: %w", domain.ErrValidation))
		return
	}

	out, err := h.service.CreateReserve(c.Request.Context(), reserve.CreateReserveInput{
		UserID:    uid,
		SchoolID:  req.SchoolID,
		Type:      domain.ReserveType(req.Type),
		StartDate: startDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createReserveResponse{
		ReserveID:    out.ReserveID,
		Status:       string(out.Status),
		Price:        out.Price,
		Deposit:      out.Deposit,
		WaitingOrder: out.WaitingOrder,
	})
}

func (h *ReserveHandler) cancel(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	reserveID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("malformed reserve id: %w", domain.ErrValidation))
		return
	}

	updated, err := h.service.CancelReserve(c.Request.Context(), reserveID, uid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reserve_id": updated.ID,
		"status":     string(updated.Status),
	})
}

func (h *ReserveHandler) myPlaces(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	summaries, err := h.service.ListMyPlaceReserves(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]placeReserveResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, placeReserveResponse{
			ReserveID:       s.ReserveID,
			SchoolID:        s.SchoolID,
			SchoolImageName: s.SchoolImageName,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReserveHandler) myParking(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	id, ok, err := h.service.GetMyParkingReserve(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"reserve_id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reserve_id": id})
}
