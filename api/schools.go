package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hyeonu91/schoolreserve/internal/service/school"
)

type SchoolHandler struct {
	service school.SchoolUseCase
}

type schoolResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	ImageName       string  `json:"image_name"`
	ParkingCapacity int     `json:"parking_capacity"`
	LandArea        float64 `json:"land_area"`
}

func NewSchoolHandler(service school.SchoolUseCase) *SchoolHandler {
	return &SchoolHandler{service: service}
}

func (h *SchoolHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *SchoolHandler) list(c *gin.Context) {
	schools, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]schoolResponse, 0, len(schools))
	for i := range schools {
		s := &schools[i]
		resp = append(resp, schoolResponse{
			ID:              s.ID,
			Name:            s.Name,
			Address:         s.Address,
			ImageName:       s.ImageName,
			ParkingCapacity: s.ParkingCapacity(),
			LandArea:        s.LandArea,
		})
	}
	c.JSON(http.StatusOK, resp)
}
