package model

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Conversation struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Ctime    int64  `json:"ctime"`
}

type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Ctime          int64  `json:"ctime"`
}
