package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/logger"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/validation"
)

// DeliveryRepository описывает взаимодействие с хранилищем выдач.
type DeliveryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	Create(ctx context.Context, d *models.Delivery) error
	CreateWithProduct(ctx context.Context, product *models.Product, d *models.Delivery) error
	MarkPurchasedIfAwaiting(ctx context.Context, id uuid.UUID) (bool, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Delivery, error)
	ListCompletedForCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Delivery, error)
}

// ProductCatalog минимальный контракт каталога продуктов.
type ProductCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	PermalinkExists(ctx context.Context, permalink string) (bool, error)
	GetFiles(ctx context.Context, productID uuid.UUID) ([]models.ProductFile, error)
}

// ServiceRequestGetter минимальный контракт для проверки статуса заявки.
type ServiceRequestGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
}

// DeliveryService содержит бизнес-логику выдачи продуктов по заявкам.
type DeliveryService struct {
	repo            DeliveryRepository
	products        ProductCatalog
	serviceRequests ServiceRequestGetter
	conversations   ConversationGetter
	hub             WSNotifier
}

// NewDeliveryService создаёт новый сервис выдач.
func NewDeliveryService(repo DeliveryRepository, products ProductCatalog, serviceRequests ServiceRequestGetter, conversations ConversationGetter) *DeliveryService {
	return &DeliveryService{
		repo:            repo,
		products:        products,
		serviceRequests: serviceRequests,
		conversations:   conversations,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *DeliveryService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// DeliverProduct публикует существующий продукт как выдачу в переписке.
// Если указана заявка, она обязана принадлежать переписке и быть
// подтверждённой покупателем на момент выдачи.
func (s *DeliveryService) DeliverProduct(ctx context.Context, creatorID, conversationID uuid.UUID, serviceRequestID *uuid.UUID, productID uuid.UUID, price float64) (*models.Delivery, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.CreatorID != creatorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только создатель может выдать продукт")
	}
	if err := validation.ValidatePrice(price); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.ErrProductNotFound
		}
		return nil, err
	}
	if product.CreatorID != creatorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя выдать чужой продукт")
	}

	if err := s.checkServiceRequest(ctx, conv.ID, serviceRequestID); err != nil {
		return nil, err
	}

	delivery := &models.Delivery{
		ConversationID:   conv.ID,
		ServiceRequestID: serviceRequestID,
		ProductID:        product.ID,
		Price:            price,
		Status:           models.DeliveryStatusAwaitingPurchase,
	}
	if err := s.repo.Create(ctx, delivery); err != nil {
		return nil, err
	}

	s.notifyConversation(conv.ID, "delivery.created", delivery)
	s.notifyUser(conv.CustomerID, "delivery.created", delivery)

	return delivery, nil
}

// CreateAndDeliverPrivateProductInput описывает входные данные.
type CreateAndDeliverPrivateProductInput struct {
	CreatorID        uuid.UUID
	ConversationID   uuid.UUID
	ServiceRequestID *uuid.UUID
	Name             string
	Description      string
	Price            float64
	Currency         string
}

// CreateAndDeliverPrivateProduct создаёт непубличный продукт с уникальным
// permalink и выдаёт его одной атомарной операцией: при ошибке любой из
// вставок не сохраняется ничего.
func (s *DeliveryService) CreateAndDeliverPrivateProduct(ctx context.Context, in CreateAndDeliverPrivateProductInput) (*models.Delivery, *models.Product, error) {
	conv, err := s.getConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv.CreatorID != in.CreatorID {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "только создатель может выдать продукт")
	}

	if err := validation.ValidateProductName(in.Name); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePrice(in.Price); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	if err := s.checkServiceRequest(ctx, conv.ID, in.ServiceRequestID); err != nil {
		return nil, nil, err
	}

	permalink, err := s.uniquePermalink(ctx, in.Name)
	if err != nil {
		return nil, nil, err
	}

	product := &models.Product{
		CreatorID:   in.CreatorID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Currency:    validation.NormalizeCurrency(in.Currency, models.DefaultCurrency),
		Permalink:   permalink,
		IsPublic:    false,
	}
	delivery := &models.Delivery{
		ConversationID:   conv.ID,
		ServiceRequestID: in.ServiceRequestID,
		Price:            in.Price,
		Status:           models.DeliveryStatusAwaitingPurchase,
	}

	if err := s.repo.CreateWithProduct(ctx, product, delivery); err != nil {
		return nil, nil, err
	}

	s.notifyConversation(conv.ID, "delivery.created", delivery)
	s.notifyUser(conv.CustomerID, "delivery.created", delivery)

	return delivery, product, nil
}

// MarkDeliveryPurchased помечает выдачу купленной после завершения внешнего
// платежа. Денег метод не двигает, только переключает статус.
func (s *DeliveryService) MarkDeliveryPurchased(ctx context.Context, customerID, conversationID, deliveryID uuid.UUID) (*models.Delivery, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.CustomerID != customerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "только покупатель может отметить покупку")
	}

	delivery, err := s.repo.GetByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, repository.ErrDeliveryNotFound) {
			return nil, apperror.ErrDeliveryNotFound
		}
		return nil, err
	}
	if delivery.ConversationID != conv.ID {
		return nil, apperror.ErrDeliveryNotFound
	}

	ok, err := s.repo.MarkPurchasedIfAwaiting(ctx, delivery.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "выдача уже куплена")
	}

	delivery.Status = models.DeliveryStatusPurchased

	s.notifyUser(conv.CreatorID, "delivery.purchased", delivery)

	return delivery, nil
}

// GetDeliveriesForConversation возвращает выдачи переписки.
func (s *DeliveryService) GetDeliveriesForConversation(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Delivery, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "у вас нет доступа к этой переписке")
	}
	return s.repo.ListByConversation(ctx, conversationID)
}

// GetCompletedDeliveriesForCreator возвращает купленные выдачи создателя.
func (s *DeliveryService) GetCompletedDeliveriesForCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Delivery, error) {
	limit, offset = clampPagination(limit, offset)
	return s.repo.ListCompletedForCreator(ctx, creatorID, limit, offset)
}

// GetProductFiles возвращает файлы выданного продукта. Доступ открывается
// только сторонам переписки, в которой продукт был выдан.
func (s *DeliveryService) GetProductFiles(ctx context.Context, userID, conversationID, deliveryID uuid.UUID) ([]models.ProductFile, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "у вас нет доступа к этой переписке")
	}

	delivery, err := s.repo.GetByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, repository.ErrDeliveryNotFound) {
			return nil, apperror.ErrDeliveryNotFound
		}
		return nil, err
	}
	if delivery.ConversationID != conv.ID {
		return nil, apperror.ErrDeliveryNotFound
	}

	return s.products.GetFiles(ctx, delivery.ProductID)
}

// checkServiceRequest проверяет предусловие выдачи по заявке: заявка
// принадлежит переписке и подтверждена покупателем. Проверка точечная,
// на момент создания выдачи.
func (s *DeliveryService) checkServiceRequest(ctx context.Context, conversationID uuid.UUID, serviceRequestID *uuid.UUID) error {
	if serviceRequestID == nil {
		return nil
	}

	sr, err := s.serviceRequests.GetByID(ctx, *serviceRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceRequestNotFound) {
			return apperror.ErrServiceRequestNotFound
		}
		return err
	}
	if sr.ConversationID != conversationID {
		return apperror.ErrServiceRequestNotFound
	}
	if sr.Status != models.ServiceRequestStatusConfirmedByCustomer {
		return apperror.New(apperror.ErrCodeInvalidState, "выдача возможна только по подтверждённой заявке")
	}
	return nil
}

// getConversation возвращает переписку с маппингом ошибки в типизированную.
func (s *DeliveryService) getConversation(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// notifyUser отправляет best-effort уведомление пользователю.
func (s *DeliveryService) notifyUser(userID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.Errorf("delivery service: не удалось отправить уведомление %s: %v", event, err)
	}
}

// notifyConversation отправляет best-effort уведомление в канал переписки.
func (s *DeliveryService) notifyConversation(conversationID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToConversation(conversationID, event, data); err != nil {
		logger.Errorf("delivery service: не удалось отправить уведомление %s: %v", event, err)
	}
}
