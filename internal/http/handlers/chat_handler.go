package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/dto"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/http/handlers/common"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/service"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/storage"
)

// Разрешённые типы вложений в переписке
var allowedAttachmentMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/zip": true,
}

// ChatHandler обслуживает маршруты запросов на переписку и сообщений.
type ChatHandler struct {
	chats   *service.ChatService
	storage *storage.AttachmentStorage
}

// NewChatHandler создаёт новый хэндлер.
func NewChatHandler(chats *service.ChatService, storage *storage.AttachmentStorage) *ChatHandler {
	return &ChatHandler{chats: chats, storage: storage}
}

// CreateMessageRequest обрабатывает POST /message-requests.
func (h *ChatHandler) CreateMessageRequest(c *gin.Context) {
	customerID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req dto.CreateMessageRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "неверный идентификатор создателя")
		return
	}

	conv, mr, err := h.chats.CreateMessageRequest(c.Request.Context(), customerID, creatorID, req.FirstMessageText)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.MessageRequestResponse{
		Conversation:   conv,
		MessageRequest: mr,
	})
}

// RespondToMessageRequest обрабатывает POST /conversations/:id/message-request/respond.
func (h *ChatHandler) RespondToMessageRequest(c *gin.Context) {
	creatorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.RespondToMessageRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	conv, firstMessage, err := h.chats.RespondToMessageRequest(c.Request.Context(), creatorID, conversationID, req.Accept)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !req.Accept {
		c.Status(http.StatusNoContent)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.MessageRequestDecisionResponse{
		Conversation: conv,
		FirstMessage: firstMessage,
	})
}

// SendMessage обрабатывает POST /conversations/:id/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.chats.SendMessage(c.Request.Context(), senderID, conversationID, req.Body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, message)
}

// UploadAttachment обрабатывает POST /conversations/:id/attachments.
// Принимает multipart форму с полем file и необязательным полем caption,
// сохраняет файл и отправляет сообщение-вложение.
func (h *ChatHandler) UploadAttachment(c *gin.Context) {
	senderID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondError(c, http.StatusBadRequest, "файл не может быть пустым")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer src.Close()

	// Проверяем магические байты (реальный тип файла)
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondError(c, http.StatusBadRequest, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondError(c, http.StatusBadRequest, "не удалось определить тип файла")
		return
	}

	contentType := kind.MIME.Value
	if !allowedAttachmentMimeTypes[contentType] {
		common.RespondError(c, http.StatusBadRequest, fmt.Sprintf("неподдерживаемый тип файла (%s)", contentType))
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			common.RespondError(c, http.StatusInternalServerError, "не удалось сбросить позицию файла")
			return
		}
	}

	relativePath, size, err := h.storage.Save(c.Request.Context(), conversationID, file.Filename, src)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	caption := strings.TrimSpace(c.PostForm("caption"))
	url := h.storage.PublicURL(filepath.ToSlash(relativePath))

	message, err := h.chats.SendAttachmentMessage(c.Request.Context(), senderID, conversationID, caption, url, contentType)
	if err != nil {
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.AttachmentUploadResponse{
		Message: message,
		URL:     url,
		Type:    contentType,
		Size:    size,
	})
}

// GetMessages обрабатывает GET /conversations/:id/messages.
func (h *ChatHandler) GetMessages(c *gin.Context) {
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

	messages, err := h.chats.GetMessages(c.Request.Context(), userID, conversationID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.MessageListResponse{
		Messages: messages,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetConversations обрабатывает GET /conversations.
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit, offset := common.GetPagination(c)

	conversations, err := h.chats.GetConversationsForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ConversationListResponse{
		Conversations: conversations,
		Limit:         limit,
		Offset:        offset,
	})
}
