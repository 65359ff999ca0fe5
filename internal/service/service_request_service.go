package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/logger"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/validation"
)

// ServiceRequestRepository описывает взаимодействие с хранилищем заявок.
// Переходы статусов выполняются атомарно по принципу compare-and-swap:
// методы *If* возвращают false, если текущий статус уже изменился.
type ServiceRequestRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	Create(ctx context.Context, sr *models.ServiceRequest) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error)
	AcceptIfPending(ctx context.Context, id uuid.UUID, deadline time.Time) (bool, error)
	ConfirmIfAccepted(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateDeadlineChange(ctx context.Context, dc *models.DeadlineChange) error
	GetDeadlineChangeByID(ctx context.Context, id uuid.UUID) (*models.DeadlineChange, error)
	GetPendingDeadlineChange(ctx context.Context, serviceRequestID uuid.UUID) (*models.DeadlineChange, error)
	GetLatestDeadlineChange(ctx context.Context, serviceRequestID uuid.UUID) (*models.DeadlineChange, error)
	ListDeadlineChanges(ctx context.Context, serviceRequestID uuid.UUID) ([]models.DeadlineChange, error)
	ResolveDeadlineChange(ctx context.Context, changeID uuid.UUID, accept bool) (bool, error)
}

// ConversationGetter минимальный контракт для проверок участников переписки.
type ConversationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
}

// PurchasedDeliveryChecker проверяет наличие купленной выдачи по заявке.
type PurchasedDeliveryChecker interface {
	ExistsPurchasedForServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (bool, error)
}

// ServiceRequestService содержит бизнес-логику переговоров по заявкам
// на индивидуальную работу, включая перенос согласованного дедлайна.
type ServiceRequestService struct {
	repo          ServiceRequestRepository
	conversations ConversationGetter
	deliveries    PurchasedDeliveryChecker
	hub           WSNotifier
}

// NewServiceRequestService создаёт новый сервис заявок.
func NewServiceRequestService(repo ServiceRequestRepository, conversations ConversationGetter, deliveries PurchasedDeliveryChecker) *ServiceRequestService {
	return &ServiceRequestService{
		repo:          repo,
		conversations: conversations,
		deliveries:    deliveries,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *ServiceRequestService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateServiceRequestInput описывает входные данные.
type CreateServiceRequestInput struct {
	CustomerID     uuid.UUID
	ConversationID uuid.UUID
	Requirements   string
	ProposedBudget *float64
	Currency       string
}

// CreateServiceRequest открывает новую заявку в активной переписке.
// Валюта по умолчанию — USD.
func (s *ServiceRequestService) CreateServiceRequest(ctx context.Context, in CreateServiceRequestInput) (*models.ServiceRequest, error) {
	conv, err := s.getConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != models.ConversationStatusActive {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "переписка ещё не активирована")
	}
	if conv.CustomerID != in.CustomerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только покупатель может открыть заявку")
	}

	if err := validation.ValidateRequirements(in.Requirements); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if in.ProposedBudget != nil {
		if err := validation.ValidatePrice(*in.ProposedBudget); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	sr := &models.ServiceRequest{
		ConversationID: conv.ID,
		CustomerID:     in.CustomerID,
		Requirements:   in.Requirements,
		ProposedBudget: in.ProposedBudget,
		Currency:       validation.NormalizeCurrency(in.Currency, models.DefaultCurrency),
		Status:         models.ServiceRequestStatusPending,
	}
	if err := s.repo.Create(ctx, sr); err != nil {
		return nil, err
	}

	s.notifyUser(conv.CreatorID, "service_request.created", sr)

	return sr, nil
}

// AcceptServiceRequest фиксирует согласие создателя и его дедлайн.
// Дедлайн записывается как есть, без проверки на будущее: дата из прошлого
// здесь допустима в отличие от предложений о переносе.
func (s *ServiceRequestService) AcceptServiceRequest(ctx context.Context, creatorID, conversationID, serviceRequestID uuid.UUID, deadline time.Time) (*models.ServiceRequest, error) {
	conv, sr, err := s.getRequestInConversation(ctx, conversationID, serviceRequestID)
	if err != nil {
		return nil, err
	}
	if conv.CreatorID != creatorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только создатель может принять заявку")
	}

	ok, err := s.repo.AcceptIfPending(ctx, sr.ID, deadline)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заявка уже не находится в ожидании")
	}

	sr.Status = models.ServiceRequestStatusAcceptedByCreator
	sr.CreatorDeadlineAt = &deadline

	s.notifyUser(sr.CustomerID, "service_request.accepted", sr)

	return sr, nil
}

// ConfirmServiceRequest фиксирует подтверждение покупателя.
func (s *ServiceRequestService) ConfirmServiceRequest(ctx context.Context, customerID, conversationID, serviceRequestID uuid.UUID) (*models.ServiceRequest, error) {
	conv, sr, err := s.getRequestInConversation(ctx, conversationID, serviceRequestID)
	if err != nil {
		return nil, err
	}
	if conv.CustomerID != customerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только покупатель может подтвердить заявку")
	}

	ok, err := s.repo.ConfirmIfAccepted(ctx, sr.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заявка ещё не принята создателем")
	}

	sr.Status = models.ServiceRequestStatusConfirmedByCustomer

	s.notifyUser(conv.CreatorID, "service_request.confirmed", sr)

	return sr, nil
}

// DeclineServiceRequest отклоняет заявку и жёстко удаляет её.
// Права зависят от текущего статуса: pending отклоняет только создатель,
// accepted_by_creator — только покупатель, подтверждённую заявку отклонить
// нельзя. Отклонение блокируется, если по заявке уже есть купленная выдача.
func (s *ServiceRequestService) DeclineServiceRequest(ctx context.Context, userID, conversationID, serviceRequestID uuid.UUID) error {
	conv, sr, err := s.getRequestInConversation(ctx, conversationID, serviceRequestID)
	if err != nil {
		return err
	}

	switch sr.Status {
	case models.ServiceRequestStatusPending:
		if conv.CreatorID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "ожидающую заявку может отклонить только создатель")
		}
	case models.ServiceRequestStatusAcceptedByCreator:
		if conv.CustomerID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "принятую заявку может отклонить только покупатель")
		}
	default:
		return apperror.New(apperror.ErrCodeInvalidState, "подтверждённую заявку нельзя отклонить")
	}

	purchased, err := s.deliveries.ExistsPurchasedForServiceRequest(ctx, sr.ID)
	if err != nil {
		return err
	}
	if purchased {
		return apperror.New(apperror.ErrCodeConflict, "по заявке уже есть купленная выдача")
	}

	if err := s.repo.Delete(ctx, sr.ID); err != nil {
		return err
	}

	s.notifyConversation(conv.ID, "service_request.declined", map[string]interface{}{
		"service_request_id": sr.ID,
	})

	return nil
}

// GetServiceRequests возвращает заявки переписки.
func (s *ServiceRequestService) GetServiceRequests(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "у вас нет доступа к этой переписке")
	}

	limit, offset = clampPagination(limit, offset)
	return s.repo.ListByConversation(ctx, conversationID, limit, offset)
}

// ProposeDeadlineChange создаёт предложение создателя о переносе дедлайна.
// Операция идемпотентна: если по заявке уже есть pending предложение,
// возвращается оно же без создания дубликата.
func (s *ServiceRequestService) ProposeDeadlineChange(ctx context.Context, creatorID, conversationID, serviceRequestID uuid.UUID, proposedDeadline time.Time, reason *string) (*models.DeadlineChange, error) {
	conv, sr, err := s.getRequestInConversation(ctx, conversationID, serviceRequestID)
	if err != nil {
		return nil, err
	}
	if conv.CreatorID != creatorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только создатель может предложить перенос дедлайна")
	}
	if sr.Status != models.ServiceRequestStatusAcceptedByCreator && sr.Status != models.ServiceRequestStatusConfirmedByCustomer {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "перенос дедлайна возможен только по принятой заявке")
	}
	if !proposedDeadline.After(time.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "новый дедлайн должен быть в будущем")
	}
	if err := validation.ValidateDeadlineReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	existing, err := s.repo.GetPendingDeadlineChange(ctx, sr.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	dc := &models.DeadlineChange{
		ServiceRequestID:   sr.ID,
		CreatorID:          creatorID,
		ProposedDeadlineAt: proposedDeadline,
		Reason:             reason,
		Status:             models.DeadlineChangeStatusPending,
	}
	if err := s.repo.CreateDeadlineChange(ctx, dc); err != nil {
		// Параллельное предложение успело раньше; идемпотентность
		// сохраняется, возвращаем то, что уже лежит в базе.
		if errors.Is(err, repository.ErrPendingDeadlineChangeExists) {
			existing, getErr := s.repo.GetPendingDeadlineChange(ctx, sr.ID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
			return nil, apperror.New(apperror.ErrCodeConflict, "предложение о переносе уже обработано")
		}
		return nil, err
	}

	s.notifyConversation(conv.ID, "deadline_change.proposed", dc)
	s.notifyUser(sr.CustomerID, "deadline_change.proposed", dc)

	return dc, nil
}

// RespondToDeadlineChange фиксирует решение покупателя по предложению.
// При принятии новый дедлайн копируется в заявку той же транзакцией.
// Возвращается заявка с актуальным дедлайном.
func (s *ServiceRequestService) RespondToDeadlineChange(ctx context.Context, customerID, conversationID, serviceRequestID, proposalID uuid.UUID, accept bool) (*models.ServiceRequest, error) {
	conv, sr, err := s.getRequestInConversation(ctx, conversationID, serviceRequestID)
	if err != nil {
		return nil, err
	}
	if conv.CustomerID != customerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только покупатель может ответить на предложение")
	}

	change, err := s.repo.GetDeadlineChangeByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrDeadlineChangeNotFound) {
			return nil, apperror.ErrDeadlineChangeNotFound
		}
		return nil, err
	}
	if change.ServiceRequestID != sr.ID {
		return nil, apperror.ErrDeadlineChangeNotFound
	}
	if change.Status != models.DeadlineChangeStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "предложение уже обработано")
	}

	ok, err := s.repo.ResolveDeadlineChange(ctx, change.ID, accept)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "предложение уже обработано")
	}

	if accept {
		sr.CreatorDeadlineAt = &change.ProposedDeadlineAt
	}

	event := "deadline_change.declined"
	if accept {
		event = "deadline_change.accepted"
	}
	s.notifyConversation(conv.ID, event, map[string]interface{}{
		"service_request_id": sr.ID,
		"proposal_id":        change.ID,
	})
	s.notifyUser(conv.CreatorID, event, change)

	return sr, nil
}

// GetPendingDeadlineProposal возвращает pending предложение заявки или nil.
func (s *ServiceRequestService) GetPendingDeadlineProposal(ctx context.Context, userID, conversationID, serviceRequestID uuid.UUID) (*models.DeadlineChange, error) {
	if _, _, err := s.checkParticipantRequest(ctx, userID, conversationID, serviceRequestID); err != nil {
		return nil, err
	}
	return s.repo.GetPendingDeadlineChange(ctx, serviceRequestID)
}

// GetLatestDeadlineProposal возвращает последнее предложение заявки или nil.
func (s *ServiceRequestService) GetLatestDeadlineProposal(ctx context.Context, userID, conversationID, serviceRequestID uuid.UUID) (*models.DeadlineChange, error) {
	if _, _, err := s.checkParticipantRequest(ctx, userID, conversationID, serviceRequestID); err != nil {
		return nil, err
	}
	return s.repo.GetLatestDeadlineChange(ctx, serviceRequestID)
}

// GetDeadlineProposalHistory возвращает историю предложений заявки.
func (s *ServiceRequestService) GetDeadlineProposalHistory(ctx context.Context, userID, conversationID, serviceRequestID uuid.UUID) ([]models.DeadlineChange, error) {
	if _, _, err := s.checkParticipantRequest(ctx, userID, conversationID, serviceRequestID); err != nil {
		return nil, err
	}
	return s.repo.ListDeadlineChanges(ctx, serviceRequestID)
}

// getConversation возвращает переписку с маппингом ошибки в типизированную.
func (s *ServiceRequestService) getConversation(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// getRequestInConversation возвращает переписку и принадлежащую ей заявку.
// Заявка чужой переписки неотличима от несуществующей.
func (s *ServiceRequestService) getRequestInConversation(ctx context.Context, conversationID, serviceRequestID uuid.UUID) (*models.Conversation, *models.ServiceRequest, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	sr, err := s.repo.GetByID(ctx, serviceRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceRequestNotFound) {
			return nil, nil, apperror.ErrServiceRequestNotFound
		}
		return nil, nil, err
	}
	if sr.ConversationID != conv.ID {
		return nil, nil, apperror.ErrServiceRequestNotFound
	}

	return conv, sr, nil
}

// checkParticipantRequest проверяет доступ любой из сторон к заявке.
func (s *ServiceRequestService) checkParticipantRequest(ctx context.Context, userID, conversationID, serviceRequestID uuid.UUID) (*models.Conversation, *models.ServiceRequest, error) {
	conv, sr, err := s.getRequestInConversation(ctx, conversationID, serviceRequestID)
	if err != nil {
		return nil, nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "у вас нет доступа к этой заявке")
	}
	return conv, sr, nil
}

// notifyUser отправляет best-effort уведомление пользователю.
func (s *ServiceRequestService) notifyUser(userID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.Errorf("service request service: не удалось отправить уведомление %s: %v", event, err)
	}
}

// notifyConversation отправляет best-effort уведомление в канал переписки.
func (s *ServiceRequestService) notifyConversation(conversationID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToConversation(conversationID, event, data); err != nil {
		logger.Errorf("service request service: не удалось отправить уведомление %s: %v", event, err)
	}
}
