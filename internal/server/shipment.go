package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	shipmentdomain "github.com/shawnuphold/wishpark/internal/shipment/domain"
)

// @Summary      Create Shipment
// @Description  Purchase a shipping label for a paid request
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body shipmentdomain.CreateShipmentRequest true "Create Shipment Request"
// @Success      200  {object}  shipmentdomain.Shipment
// @Router       /shipments [post]
func (s *Server) CreateShipment(c *gin.Context) {
	var req shipmentdomain.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shipmentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "shipment.create", "shipment", resp.ID.String(), map[string]any{
		"request_id":      resp.RequestID.String(),
		"carrier":         resp.Carrier,
		"tracking_number": resp.TrackingNumber,
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetShipmentByID(c *gin.Context) {
	resp, err := s.shipmentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// MarkShipmentDelivered confirms delivery and advances the backing request.
func (s *Server) MarkShipmentDelivered(c *gin.Context) {
	resp, err := s.shipmentSvc.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "shipment.deliver", "shipment", resp.ID.String(), map[string]any{
		"request_id": resp.RequestID.String(),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRequestShipments(c *gin.Context) {
	resp, err := s.shipmentSvc.ListByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
