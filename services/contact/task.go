package contact

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/taskname"
)

// TaskHandler delivers contact notifications to the configured webhook.
// It runs in cmd/worker, not the API binary.
type TaskHandler struct {
	svc        *Service
	client     *resty.Client
	webhookURL string
}

type TaskHandlerParams struct {
	fx.In
	Service *Service
	Config  *config.Config
}

func NewTaskHandler(p TaskHandlerParams) *TaskHandler {
	return &TaskHandler{
		svc:        p.Service,
		client:     resty.New(),
		webhookURL: p.Config.Notify.WebhookURL,
	}
}

func (h *TaskHandler) HandleNotify(ctx context.Context, t *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify payload: %w", err)
	}

	if h.webhookURL == "" {
		zap.L().Warn("notify webhook not configured, dropping notification",
			zap.String("message_id", payload.MessageID))
		return nil
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(h.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}

	if err := h.svc.MarkNotified(ctx, payload.MessageID); err != nil {
		zap.L().Error("delivered but failed to mark notified",
			zap.String("message_id", payload.MessageID),
			zap.Error(err),
		)
	}

	zap.L().Info("contact notification delivered", zap.String("message_id", payload.MessageID))
	return nil
}

// RegisterTasks binds handlers onto the worker mux.
func RegisterTasks(mux *asynq.ServeMux, h *TaskHandler) {
	mux.HandleFunc(taskname.ContactNotify, h.HandleNotify)
}
