package contact

import (
	"context"
	"encoding/json"
	"net/mail"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"scosmb-portal/pkg/db/option"
	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
	"scosmb-portal/pkg/task"
	"scosmb-portal/pkg/taskname"
)

type Service struct {
	node     *snowflake.Node
	messages repository.Repository[Message]
	enqueuer task.Enqueuer
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Enqueuer task.Enqueuer `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:     p.Node,
		messages: repository.ProvideStore[Message](p.DB),
		enqueuer: p.Enqueuer,
	}
}

type SubmitInput struct {
	Name     string
	Email    string
	Subject  string
	Body     string
	Metadata map[string]string
}

// NotifyPayload is the body of the contact:notify task.
type NotifyPayload struct {
	MessageID string `json:"message_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Message, error) {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, errutil.ValidationFailed("invalid email address",
			errutil.WithDetails(errutil.Detail{Field: "email", Message: "must be a valid email address"}))
	}
	if in.Body == "" {
		return nil, errutil.ValidationFailed("message body is required",
			errutil.WithDetails(errutil.Detail{Field: "body", Message: "must not be empty"}))
	}

	msg := &Message{
		ID:      s.node.Generate().String(),
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Body:    in.Body,
		Status:  StatusNew,
	}

	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, errutil.ValidationFailed("invalid metadata", errutil.WithErr(err))
		}
		msg.Metadata = datatypes.JSON(raw)
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		zap.L().Error("failed to store contact message", zap.Error(err))
		return nil, errutil.Internal("failed to store message", errutil.WithErr(err))
	}

	s.enqueueNotify(ctx, msg)

	return msg, nil
}

// enqueueNotify is best effort. The message is already persisted, so a
// broker outage must not fail the submission.
func (s *Service) enqueueNotify(ctx context.Context, msg *Message) {
	if s.enqueuer == nil {
		return
	}

	payload, err := json.Marshal(NotifyPayload{
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Body:      msg.Body,
	})
	if err != nil {
		zap.L().Error("failed to marshal notify payload", zap.Error(err))
		return
	}

	t := asynq.NewTask(taskname.ContactNotify, payload)
	if _, err := s.enqueuer.Enqueue(ctx, t, asynq.Queue("default"), asynq.MaxRetry(5)); err != nil {
		zap.L().Error("failed to enqueue contact notification",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, page pagination.Pagination) ([]*Message, error) {
	msgs, err := s.messages.Find(ctx, &Message{},
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{Field: "created_at", OrderBy: "DESC"}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list messages", errutil.WithErr(err))
	}
	return msgs, nil
}

// MarkNotified is called by the worker after successful delivery.
func (s *Service) MarkNotified(ctx context.Context, messageID string) error {
	if err := s.messages.Update(ctx, messageID, map[string]interface{}{
		"status": StatusNotified,
	}); err != nil {
		return errutil.Internal("failed to update message status", errutil.WithErr(err))
	}
	return nil
}
