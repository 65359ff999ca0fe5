package models

// ConversationStatus константы статусов переписок
const (
	ConversationStatusPending = "pending"
	ConversationStatusActive  = "active"
)

// MessageRequestStatus константы статусов запросов на переписку
const (
	MessageRequestStatusPending  = "pending"
	MessageRequestStatusAccepted = "accepted"
	MessageRequestStatusDeclined = "declined"
)

// MessageType константы типов сообщений
const (
	MessageTypeText       = "text"
	MessageTypeAttachment = "attachment"
)

// ServiceRequestStatus константы статусов заявок на индивидуальную работу
const (
	ServiceRequestStatusPending             = "pending"
	ServiceRequestStatusAcceptedByCreator   = "accepted_by_creator"
	ServiceRequestStatusConfirmedByCustomer = "confirmed_by_customer"
)

// DeadlineChangeStatus константы статусов предложений о переносе дедлайна
const (
	DeadlineChangeStatusPending  = "pending"
	DeadlineChangeStatusAccepted = "accepted"
	DeadlineChangeStatusDeclined = "declined"
)

// DeliveryStatus константы статусов выдач
const (
	DeliveryStatusAwaitingPurchase = "awaiting_purchase"
	DeliveryStatusPurchased        = "purchased"
)

// DefaultCurrency используется, когда валюта в заявке не указана.
const DefaultCurrency = "USD"

// ValidServiceRequestStatuses список валидных статусов заявок
var ValidServiceRequestStatuses = map[string]struct{}{
	ServiceRequestStatusPending:             {},
	ServiceRequestStatusAcceptedByCreator:   {},
	ServiceRequestStatusConfirmedByCustomer: {},
}

// ValidDeliveryStatuses список валидных статусов выдач
var ValidDeliveryStatuses = map[string]struct{}{
	DeliveryStatusAwaitingPurchase: {},
	DeliveryStatusPurchased:        {},
}
