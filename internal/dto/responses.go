package dto

import (
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
)

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageRequestResponse represents a created message request with its conversation
type MessageRequestResponse struct {
	Conversation   *models.Conversation   `json:"conversation"`
	MessageRequest *models.MessageRequest `json:"message_request"`
}

// MessageRequestDecisionResponse represents the outcome of a creator's decision
type MessageRequestDecisionResponse struct {
	Conversation *models.Conversation `json:"conversation"`
	FirstMessage *models.Message      `json:"first_message,omitempty"`
}

// MessageListResponse represents a page of messages in a conversation
type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ConversationListResponse represents a page of the user's conversations
type ConversationListResponse struct {
	Conversations []models.Conversation `json:"conversations"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// DeadlineProposalResponse represents a deadline proposal with its service request
type DeadlineProposalResponse struct {
	Proposal       *models.DeadlineChange `json:"proposal"`
	ServiceRequest *models.ServiceRequest `json:"service_request,omitempty"`
}

// DeliveryResponse represents a delivery, optionally with the created product
type DeliveryResponse struct {
	*models.Delivery
	Product *models.Product `json:"product,omitempty"`
}

// NotificationListResponse represents a page of the user's saved notifications
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// UnreadCountResponse represents the number of unread notifications
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// AttachmentUploadResponse represents a stored attachment ready to be sent
type AttachmentUploadResponse struct {
	Message *models.Message `json:"message"`
	URL     string          `json:"url"`
	Type    string          `json:"type"`
	Size    int64           `json:"size"`
}
