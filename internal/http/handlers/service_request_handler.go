package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/dto"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/http/handlers/common"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/service"
)

// ServiceRequestHandler обслуживает маршруты заявок и переноса дедлайнов.
type ServiceRequestHandler struct {
	requests *service.ServiceRequestService
}

// NewServiceRequestHandler создаёт новый хэндлер.
func NewServiceRequestHandler(requests *service.ServiceRequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{requests: requests}
}

// Create обрабатывает POST /conversations/:id/service-requests.
func (h *ServiceRequestHandler) Create(c *gin.Context) {
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

	var req dto.CreateServiceRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	sr, err := h.requests.CreateServiceRequest(c.Request.Context(), service.CreateServiceRequestInput{
		CustomerID:     userID,
		ConversationID: conversationID,
		Requirements:   req.Requirements,
		ProposedBudget: req.ProposedBudget,
		Currency:       req.Currency,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, sr)
}

// Accept обрабатывает POST /conversations/:id/service-requests/:requestID/accept.
func (h *ServiceRequestHandler) Accept(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req dto.AcceptServiceRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.DeadlineAt)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "deadline_at должен быть в формате RFC3339")
		return
	}

	sr, err := h.requests.AcceptServiceRequest(c.Request.Context(), userID, conversationID, requestID, deadline)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, sr)
}

// Confirm обрабатывает POST /conversations/:id/service-requests/:requestID/confirm.
func (h *ServiceRequestHandler) Confirm(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	sr, err := h.requests.ConfirmServiceRequest(c.Request.Context(), userID, conversationID, requestID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, sr)
}

// Decline обрабатывает DELETE /conversations/:id/service-requests/:requestID.
func (h *ServiceRequestHandler) Decline(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.requests.DeclineServiceRequest(c.Request.Context(), userID, conversationID, requestID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List обрабатывает GET /conversations/:id/service-requests.
func (h *ServiceRequestHandler) List(c *gin.Context) {
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

	limit, offset := common.GetPagination(c)

	requests, err := h.requests.GetServiceRequests(c.Request.Context(), userID, conversationID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"service_requests": requests,
		"limit":            limit,
		"offset":           offset,
	})
}

// ProposeDeadline обрабатывает POST /conversations/:id/service-requests/:requestID/deadline-proposals.
func (h *ServiceRequestHandler) ProposeDeadline(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req dto.ProposeDeadlineChangeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	proposed, err := time.Parse(time.RFC3339, req.ProposedDeadlineAt)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "proposed_deadline_at должен быть в формате RFC3339")
		return
	}

	proposal, err := h.requests.ProposeDeadlineChange(c.Request.Context(), userID, conversationID, requestID, proposed, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.DeadlineProposalResponse{Proposal: proposal})
}

// RespondToDeadline обрабатывает POST /conversations/:id/service-requests/:requestID/deadline-proposals/:proposalID/respond.
func (h *ServiceRequestHandler) RespondToDeadline(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "proposalID")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.RespondToDeadlineChangeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	sr, err := h.requests.RespondToDeadlineChange(c.Request.Context(), userID, conversationID, requestID, proposalID, req.Accept)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, sr)
}

// PendingDeadline обрабатывает GET /conversations/:id/service-requests/:requestID/deadline-proposals/pending.
func (h *ServiceRequestHandler) PendingDeadline(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	proposal, err := h.requests.GetPendingDeadlineProposal(c.Request.Context(), userID, conversationID, requestID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.DeadlineProposalResponse{Proposal: proposal})
}

// LatestDeadline обрабатывает GET /conversations/:id/service-requests/:requestID/deadline-proposals/latest.
func (h *ServiceRequestHandler) LatestDeadline(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	proposal, err := h.requests.GetLatestDeadlineProposal(c.Request.Context(), userID, conversationID, requestID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.DeadlineProposalResponse{Proposal: proposal})
}

// DeadlineHistory обрабатывает GET /conversations/:id/service-requests/:requestID/deadline-proposals.
func (h *ServiceRequestHandler) DeadlineHistory(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, requestID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	history, err := h.requests.GetDeadlineProposalHistory(c.Request.Context(), userID, conversationID, requestID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"deadline_proposals": history})
}

// pathIDs извлекает идентификаторы переписки и заявки из пути.
func (h *ServiceRequestHandler) pathIDs(c *gin.Context) (conversationID, requestID uuid.UUID, ok bool) {
	convID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	reqID, err := common.ParseUUIDParam(c, "requestID")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	return convID, reqID, true
}
