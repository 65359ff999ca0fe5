package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/dto"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/http/handlers/common"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/service"
)

// DeliveryHandler обслуживает маршруты выдач продуктов.
type DeliveryHandler struct {
	deliveries *service.DeliveryService
}

// NewDeliveryHandler создаёт новый хэндлер.
func NewDeliveryHandler(deliveries *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries}
}

// Deliver обрабатывает POST /conversations/:id/deliveries.
func (h *DeliveryHandler) Deliver(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.DeliverProductRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "неверный идентификатор продукта")
		return
	}

	serviceRequestID, ok := parseOptionalUUID(c, req.ServiceRequestID)
	if !ok {
		return
	}

	delivery, err := h.deliveries.DeliverProduct(c.Request.Context(), userID, conversationID, serviceRequestID, productID, req.Price)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.DeliveryResponse{Delivery: delivery})
}

// DeliverPrivate обрабатывает POST /conversations/:id/deliveries/private.
func (h *DeliveryHandler) DeliverPrivate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.CreatePrivateProductRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	serviceRequestID, ok := parseOptionalUUID(c, req.ServiceRequestID)
	if !ok {
		return
	}

	delivery, product, err := h.deliveries.CreateAndDeliverPrivateProduct(c.Request.Context(), service.CreateAndDeliverPrivateProductInput{
		CreatorID:        userID,
		ConversationID:   conversationID,
		ServiceRequestID: serviceRequestID,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Currency:         req.Currency,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.DeliveryResponse{Delivery: delivery, Product: product})
}

// MarkPurchased обрабатывает POST /conversations/:id/deliveries/:deliveryID/purchase.
func (h *DeliveryHandler) MarkPurchased(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	deliveryID, err := common.ParseUUIDParam(c, "deliveryID")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	delivery, err := h.deliveries.MarkDeliveryPurchased(c.Request.Context(), userID, conversationID, deliveryID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.DeliveryResponse{Delivery: delivery})
}

// List обрабатывает GET /conversations/:id/deliveries.
func (h *DeliveryHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	deliveries, err := h.deliveries.GetDeliveriesForConversation(c.Request.Context(), userID, conversationID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"deliveries": deliveries})
}

// Files обрабатывает GET /conversations/:id/deliveries/:deliveryID/files.
func (h *DeliveryHandler) Files(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	deliveryID, err := common.ParseUUIDParam(c, "deliveryID")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.deliveries.GetProductFiles(c.Request.Context(), userID, conversationID, deliveryID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"files": files})
}

// Completed обрабатывает GET /deliveries/completed.
func (h *DeliveryHandler) Completed(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit, offset := common.GetPagination(c)

	deliveries, err := h.deliveries.GetCompletedDeliveriesForCreator(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"deliveries": deliveries,
		"limit":      limit,
		"offset":     offset,
	})
}

// parseOptionalUUID разбирает необязательный идентификатор из тела запроса.
func parseOptionalUUID(c *gin.Context, raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	parsed, err := uuid.Parse(*raw)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "неверный идентификатор заявки")
		return nil, false
	}
	return &parsed, true
}
