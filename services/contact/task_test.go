package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/taskname"
)

func notifyTask(t *testing.T, payload NotifyPayload) *asynq.Task {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskname.ContactNotify, raw)
}

func TestHandleNotifyDeliversAndMarks(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, SubmitInput{
		Name:  "Dana",
		Email: "dana@acme.test",
		Body:  "hello",
	})
	require.NoError(t, err)

	var received NotifyPayload
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(webhook.Close)

	handler := &TaskHandler{
		svc:        svc,
		client:     resty.New(),
		webhookURL: webhook.URL,
	}

	err = handler.HandleNotify(ctx, notifyTask(t, NotifyPayload{
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Body:      msg.Body,
	}))
	require.NoError(t, err)
	require.Equal(t, msg.ID, received.MessageID)

	msgs, err := svc.List(ctx, pagination.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, StatusNotified, msgs[0].Status)
}

func TestHandleNotifyRetriesOnWebhookError(t *testing.T) {
	svc := newTestService(t, nil)

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(webhook.Close)

	handler := &TaskHandler{
		svc:        svc,
		client:     resty.New(),
		webhookURL: webhook.URL,
	}

	err := handler.HandleNotify(context.Background(), notifyTask(t, NotifyPayload{MessageID: "m-1"}))
	require.Error(t, err)
}

func TestHandleNotifyWithoutWebhookConfigured(t *testing.T) {
	svc := newTestService(t, nil)

	handler := &TaskHandler{svc: svc, client: resty.New()}

	// No webhook is not an error; the task must not retry forever.
	err := handler.HandleNotify(context.Background(), notifyTask(t, NotifyPayload{MessageID: "m-1"}))
	require.NoError(t, err)
}
