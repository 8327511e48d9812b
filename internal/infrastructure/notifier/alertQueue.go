package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"syncshield/internal/domain/entity"
	"syncshield/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	TypeBudgetAlert = "budget:alert"
	defaultMaxRetry = 5
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type alertSender interface {
	SendBudgetAlert(ctx context.Context, alert entity.BudgetAlert) (entity.NotificationReceipt, error)
}

// AlertQueue hands alerts to asynq so a Telegram outage never blocks a
// reallocation cycle. The task id is the notification id.
type AlertQueue struct {
	client   taskEnqueuer
	queue    string
	maxRetry int
}

func NewAlertQueue(client taskEnqueuer, queue string) *AlertQueue {
	return &AlertQueue{
		client:   client,
		queue:    queue,
		maxRetry: defaultMaxRetry,
	}
}

func (q *AlertQueue) WithMaxRetry(n int) *AlertQueue {
	q.maxRetry = n
	return q
}

func (q *AlertQueue) SendBudgetAlert(ctx context.Context, alert entity.BudgetAlert) (entity.NotificationReceipt, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return entity.NotificationReceipt{}, fmt.Errorf("json.Marshal: %w", err)
	}

	info, err := q.client.EnqueueContext(
		ctx,
		asynq.NewTask(TypeBudgetAlert, payload),
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.maxRetry),
	)
	if err != nil {
		return entity.NotificationReceipt{}, fmt.Errorf("client.EnqueueContext: %w", err)
	}

	return entity.NotificationReceipt{Success: true, NotificationID: info.ID}, nil
}

// HandleBudgetAlert delivers queued alerts. Malformed payloads are dropped
// without retry.
func HandleBudgetAlert(sender alertSender) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var alert entity.BudgetAlert
		if err := json.Unmarshal(task.Payload(), &alert); err != nil {
			logger(ctx).Error("malformed budget alert task", logx.Error(err))
			return fmt.Errorf("json.Unmarshal: %w: %w", err, asynq.SkipRetry)
		}

		receipt, err := sender.SendBudgetAlert(ctx, alert)
		if err != nil {
			return fmt.Errorf("sender.SendBudgetAlert: %w", err)
		}

		logger(ctx).Info("budget alert delivered",
			slog.String(logx.FieldMessageID, receipt.NotificationID),
			slog.Int("platforms", len(alert.Platforms)),
		)

		return nil
	}
}
