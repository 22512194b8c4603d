package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragvault/ragvault/internal/model"
	"github.com/ragvault/ragvault/internal/pkg/errcode"
	"github.com/ragvault/ragvault/internal/pkg/response"
	"github.com/ragvault/ragvault/internal/service"
)

type ChatHandler struct {
	retrieval *service.RetrievalService
}

func NewChatHandler(retrieval *service.RetrievalService) *ChatHandler {
	return &ChatHandler{retrieval: retrieval}
}

type chatRequest struct {
	Query          string `json:"query"`
	IncludeShared  bool   `json:"include_shared"`
	PurposeTag     string `json:"purpose_tag"`
	ConversationID string `json:"conversation_id"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	out, err := h.retrieval.Chat(c.Request.Context(), service.ChatInput{
		TenantID:       getTenantID(c),
		UserID:         getUserID(c),
		Query:          req.Query,
		IncludeShared:  req.IncludeShared,
		PurposeTag:     req.PurposeTag,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}

type conversationDetail struct {
	Conversation *model.Conversation `json:"conversation"`
	Messages     []model.Message     `json:"messages"`
}

func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, msgs, err := h.retrieval.GetConversation(c.Request.Context(), getTenantID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conversationDetail{Conversation: conv, Messages: msgs})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	limit, offset := pagination(c)
	convs, err := h.retrieval.ListConversations(c.Request.Context(), getTenantID(c), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, convs)
}
