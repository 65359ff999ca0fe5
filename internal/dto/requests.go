package dto

// CreateMessageRequestRequest represents the request to start a conversation with a creator.
// FirstMessageText may be empty: the request is then sent without an opening message.
type CreateMessageRequestRequest struct {
	CreatorID        string `json:"creator_id" binding:"required"`
	FirstMessageText string `json:"first_message_text"`
}

// RespondToMessageRequestRequest represents the creator's decision on a message request
type RespondToMessageRequestRequest struct {
	Accept bool `json:"accept"`
}

// SendMessageRequest represents the request to send a text message
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// CreateServiceRequestRequest represents the request to create a service request
type CreateServiceRequestRequest struct {
	Requirements   string   `json:"requirements" binding:"required"`
	ProposedBudget *float64 `json:"proposed_budget"`
	Currency       string   `json:"currency"`
}

// AcceptServiceRequestRequest represents the creator's acceptance with a committed deadline
type AcceptServiceRequestRequest struct {
	DeadlineAt string `json:"deadline_at" binding:"required"`
}

// ProposeDeadlineChangeRequest represents the request to move a committed deadline
type ProposeDeadlineChangeRequest struct {
	ProposedDeadlineAt string  `json:"proposed_deadline_at" binding:"required"`
	Reason             *string `json:"reason"`
}

// RespondToDeadlineChangeRequest represents the customer's decision on a deadline proposal
type RespondToDeadlineChangeRequest struct {
	Accept bool `json:"accept"`
}

// DeliverProductRequest represents the request to deliver an existing product
type DeliverProductRequest struct {
	ProductID        string  `json:"product_id" binding:"required"`
	ServiceRequestID *string `json:"service_request_id"`
	Price            float64 `json:"price"`
}

// CreatePrivateProductRequest represents the request to create and deliver a private product
type CreatePrivateProductRequest struct {
	Name             string  `json:"name" binding:"required"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
	ServiceRequestID *string `json:"service_request_id"`
}
