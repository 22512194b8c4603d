package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragvault/ragvault/internal/model"
	"github.com/ragvault/ragvault/internal/pkg/dbutil"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	data := map[string]interface{}{
		"id":        conv.ID,
		"tenant_id": conv.TenantID,
		"user_id":   conv.UserID,
		"title":     conv.Title,
		"ctime":     conv.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("conversations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetByID is tenant-scoped: a conversation id from another tenant behaves as
// not found.
func (r *ConversationRepo) GetByID(ctx context.Context, tenantID, convID string) (*model.Conversation, error) {
	where := map[string]interface{}{
		"id":        convID,
		"tenant_id": tenantID,
	}
	sqlStr, args, err := builder.BuildSelect("conversations", where, []string{"id", "tenant_id", "user_id", "title", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var conv model.Conversation
	if err := row.Scan(&conv.ID, &conv.TenantID, &conv.UserID, &conv.Title, &conv.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) ListByUser(ctx context.Context, tenantID, userID string, limit, offset uint) ([]model.Conversation, error) {
	where := map[string]interface{}{
		"tenant_id": tenantID,
		"user_id":   userID,
		"_orderby":  "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("conversations", where, []string{"id", "tenant_id", "user_id", "title", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.TenantID, &conv.UserID, &conv.Title, &conv.Ctime); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) AddMessage(ctx context.Context, msg *model.Message) error {
	data := map[string]interface{}{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            msg.Role,
		"content":         msg.Content,
		"ctime":           msg.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("messages", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ConversationRepo) ListMessages(ctx context.Context, convID string) ([]model.Message, error) {
	where := map[string]interface{}{
		"conversation_id": convID,
		"_orderby":        "ctime",
	}
	sqlStr, args, err := builder.BuildSelect("messages", where, []string{"id", "conversation_id", "role", "content", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Ctime); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
