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

// ConversationRepository описывает взаимодействие сервиса с хранилищем переписок.
type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetRequestByConversation(ctx context.Context, conversationID uuid.UUID) (*models.MessageRequest, error)
	FindBetween(ctx context.Context, creatorID, customerID uuid.UUID) ([]models.Conversation, error)
	CountMessages(ctx context.Context, conversationID uuid.UUID) (int, error)
	CreateWithRequest(ctx context.Context, conv *models.Conversation, req *models.MessageRequest) error
	Accept(ctx context.Context, conv *models.Conversation, req *models.MessageRequest, firstMessage *models.Message) error
	DeleteWithRequest(ctx context.Context, conversationID uuid.UUID) error
	AddMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error)
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
// Все отправки best-effort: ошибки глотаются и логируются, основной
// результат операции от них не зависит.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
	BroadcastToConversation(conversationID uuid.UUID, event string, data interface{}) error
}

// ChatService содержит бизнес-логику запросов на переписку и обмена сообщениями.
type ChatService struct {
	repo ConversationRepository
	hub  WSNotifier
}

// NewChatService создаёт новый сервис переписок.
func NewChatService(repo ConversationRepository) *ChatService {
	return &ChatService{repo: repo}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *ChatService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateMessageRequest создаёт запрос покупателя на переписку с создателем.
// Переписка создаётся сразу, но остаётся в статусе pending до решения создателя.
func (s *ChatService) CreateMessageRequest(ctx context.Context, customerID, creatorID uuid.UUID, firstMessageText string) (*models.Conversation, *models.MessageRequest, error) {
	if customerID == creatorID {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "нельзя отправить запрос на переписку самому себе")
	}

	firstMessageText = strings.TrimSpace(firstMessageText)
	if firstMessageText != "" {
		if err := validation.ValidateMessageBody(firstMessageText); err != nil {
			return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	// Дубликаты: между парой допустима только одна переписка в статусе
	// pending либо активная с сообщениями. Активная пустая переписка
	// дубликатом не считается.
	existing, err := s.repo.FindBetween(ctx, creatorID, customerID)
	if err != nil {
		return nil, nil, err
	}
	for i := range existing {
		conv := &existing[i]
		if conv.Status == models.ConversationStatusPending {
			return nil, nil, apperror.New(apperror.ErrCodeConflict, "запрос на переписку уже отправлен")
		}
		count, err := s.repo.CountMessages(ctx, conv.ID)
		if err != nil {
			return nil, nil, err
		}
		if count > 0 {
			return nil, nil, apperror.New(apperror.ErrCodeConflict, "переписка с этим создателем уже существует")
		}
	}

	conv := &models.Conversation{
		CreatorID:  creatorID,
		CustomerID: customerID,
		Status:     models.ConversationStatusPending,
	}
	req := &models.MessageRequest{
		CustomerID:       customerID,
		FirstMessageText: firstMessageText,
		Status:           models.MessageRequestStatusPending,
	}

	// Проверка дубликатов выше неатомарна: параллельный запрос мог успеть
	// вставить свой pending между чтением и вставкой.
	if err := s.repo.CreateWithRequest(ctx, conv, req); err != nil {
		if errors.Is(err, repository.ErrPendingConversationExists) {
			return nil, nil, apperror.New(apperror.ErrCodeConflict, "запрос на переписку уже отправлен")
		}
		return nil, nil, err
	}

	s.notifyUser(creatorID, "message_request.created", req)

	return conv, req, nil
}

// RespondToMessageRequest фиксирует решение создателя по запросу на переписку.
// Принятие активирует переписку и материализует первое сообщение от имени
// покупателя. Отклонение жёстко удаляет и запрос, и переписку; возвращаемый
// объект нужен вызывающему только для чтения идентификаторов.
func (s *ChatService) RespondToMessageRequest(ctx context.Context, creatorID, conversationID uuid.UUID, accept bool) (*models.Conversation, *models.Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv.CreatorID != creatorID {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "только создатель может ответить на запрос")
	}
	if conv.Status != models.ConversationStatusPending {
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "запрос уже обработан")
	}

	req, err := s.repo.GetRequestByConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageRequestNotFound) {
			return nil, nil, apperror.ErrMessageRequestNotFound
		}
		return nil, nil, err
	}

	if !accept {
		if err := s.repo.DeleteWithRequest(ctx, conversationID); err != nil {
			if errors.Is(err, repository.ErrConversationNotFound) {
				return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "запрос уже обработан")
			}
			return nil, nil, err
		}
		req.Status = models.MessageRequestStatusDeclined
		s.notifyUser(req.CustomerID, "message_request.declined", map[string]interface{}{
			"conversation_id": conv.ID,
		})
		return conv, nil, nil
	}

	var firstMessage *models.Message
	if req.FirstMessageText != "" {
		firstMessage = &models.Message{
			ConversationID: conv.ID,
			SenderID:       req.CustomerID,
			Body:           req.FirstMessageText,
			Type:           models.MessageTypeText,
		}
	}

	// Accept обновляет статус условно (WHERE status = pending); проигрыш
	// гонки другому ответу приходит как ErrConversationNotFound.
	if err := s.repo.Accept(ctx, conv, req, firstMessage); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "запрос уже обработан")
		}
		return nil, nil, err
	}

	s.notifyUser(req.CustomerID, "message_request.accepted", conv)
	if firstMessage != nil {
		s.notifyConversation(conv.ID, "message.created", firstMessage)
	}

	return conv, firstMessage, nil
}

// SendMessage добавляет текстовое сообщение в активную переписку.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*models.Message, error) {
	if err := validation.ValidateMessageBody(body); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	conv, err := s.checkActiveParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           strings.TrimSpace(body),
		Type:           models.MessageTypeText,
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyConversation(conv.ID, "message.created", msg)

	return msg, nil
}

// SendAttachmentMessage добавляет сообщение с вложением. Файл уже загружен
// внешним хранилищем, сервису передаются только URL и тип содержимого.
func (s *ChatService) SendAttachmentMessage(ctx context.Context, senderID, conversationID uuid.UUID, caption, attachmentURL, attachmentType string) (*models.Message, error) {
	if strings.TrimSpace(attachmentURL) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "URL вложения обязателен")
	}

	conv, err := s.checkActiveParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           strings.TrimSpace(caption),
		Type:           models.MessageTypeAttachment,
		AttachmentURL:  &attachmentURL,
		AttachmentType: &attachmentType,
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyConversation(conv.ID, "message.created", msg)

	return msg, nil
}

// GetMessages возвращает сообщения переписки по возрастанию created_at.
func (s *ChatService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "у вас нет доступа к этой переписке")
	}

	limit, offset = clampPagination(limit, offset)
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}

// GetConversationsForUser возвращает переписки пользователя, свежие сверху.
func (s *ChatService) GetConversationsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	limit, offset = clampPagination(limit, offset)
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// CanAccessConversation сообщает, является ли пользователь стороной
// переписки. Используется при подписке на WebSocket канал.
func (s *ChatService) CanAccessConversation(ctx context.Context, userID, conversationID uuid.UUID) (bool, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.IsParticipant(userID), nil
}

// getConversation возвращает переписку, маппя ошибку репозитория в типизированную.
func (s *ChatService) getConversation(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// checkActiveParticipant проверяет, что переписка активна и отправитель
// является её стороной. Порядок проверок: существование, статус, права.
func (s *ChatService) checkActiveParticipant(ctx context.Context, conversationID, senderID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != models.ConversationStatusActive {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "переписка ещё не активирована")
	}
	if !conv.IsParticipant(senderID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "вы не участвуете в этой переписке")
	}
	return conv, nil
}

// notifyUser отправляет best-effort уведомление пользователю.
func (s *ChatService) notifyUser(userID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.Errorf("chat service: не удалось отправить уведомление %s: %v", event, err)
	}
}

// notifyConversation отправляет best-effort уведомление в канал переписки.
func (s *ChatService) notifyConversation(conversationID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToConversation(conversationID, event, data); err != nil {
		logger.Errorf("chat service: не удалось отправить уведомление %s: %v", event, err)
	}
}

// clampPagination приводит limit/offset к допустимым значениям.
func clampPagination(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
