package contact

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
	"scosmb-portal/pkg/taskname"
	"scosmb-portal/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return nil, nil
}

func newTestService(t *testing.T, enq *fakeEnqueuer) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Message{})
	svc := &Service{
		node:     testutil.NewSnowflakeNode(t),
		messages: repository.ProvideStore[Message](db),
	}
	if enq != nil {
		svc.enqueuer = enq
	}
	return svc
}

func TestSubmitStoresAndEnqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newTestService(t, enq)

	msg, err := svc.Submit(context.Background(), SubmitInput{
		Name:    "Dana Reyes",
		Email:   "dana@acme.test",
		Subject: "Scanner question",
		Body:    "Does SCO SMB support duplex scanning?",
		Metadata: map[string]string{
			"page": "/contact",
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusNew, msg.Status)
	require.NotEmpty(t, msg.ID)

	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.ContactNotify, enq.tasks[0].Type())

	var payload NotifyPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	require.Equal(t, msg.ID, payload.MessageID)
	require.Equal(t, "dana@acme.test", payload.Email)
}

func TestSubmitRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Name:  "Dana",
		Email: "not-an-email",
		Body:  "hello",
	})
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusValidationFailed, base.Code)
}

func TestSubmitRejectsEmptyBody(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Name:  "Dana",
		Email: "dana@acme.test",
	})
	require.Error(t, err)
}

func TestSubmitSurvivesBrokerOutage(t *testing.T) {
	enq := &fakeEnqueuer{err: context.DeadlineExceeded}
	svc := newTestService(t, enq)

	msg, err := svc.Submit(context.Background(), SubmitInput{
		Name:  "Dana",
		Email: "dana@acme.test",
		Body:  "hello",
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
}

func TestSubmitWithoutEnqueuer(t *testing.T) {
	svc := newTestService(t, nil)

	msg, err := svc.Submit(context.Background(), SubmitInput{
		Name:  "Dana",
		Email: "dana@acme.test",
		Body:  "hello",
	})
	require.NoError(t, err)
	require.Equal(t, StatusNew, msg.Status)
}

func TestMarkNotified(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, SubmitInput{
		Name:  "Dana",
		Email: "dana@acme.test",
		Body:  "hello",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkNotified(ctx, msg.ID))

	msgs, err := svc.List(ctx, pagination.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, StatusNotified, msgs[0].Status)
}
