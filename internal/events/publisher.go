package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Message — событие движка в очереди.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — routing key события.
	Type string `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// PlanStartedPayload — payload события plan.started.
type PlanStartedPayload struct {
	PlanID   uuid.UUID       `json:"plan_id"`
	Topic    string          `json:"topic"`
	Strategy domain.Strategy `json:"strategy"`
	Steps    int             `json:"steps"`
}

// StepFinishedPayload — payload события step.finished.
type StepFinishedPayload struct {
	PlanID   uuid.UUID         `json:"plan_id"`
	StepID   string            `json:"step_id"`
	Kind     domain.StepKind   `json:"kind"`
	Status   domain.StepStatus `json:"status"`
	Retries  int               `json:"retries"`
	Error    string            `json:"error,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// PlanFinishedPayload — payload события plan.finished.
type PlanFinishedPayload struct {
	PlanID    uuid.UUID         `json:"plan_id"`
	Status    domain.PlanStatus `json:"status"`
	Completed int               `json:"completed"`
	Failed    int               `json:"failed"`
	Duration  time.Duration     `json:"duration"`
}

// Publisher публикует события жизненного цикла в RabbitMQ.
// Реализует интерфейс уведомлений планировщика: ошибки публикации
// логируются и не возвращаются вызывающей стороне.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// PlanStarted публикует событие о запуске плана.
func (p *Publisher) PlanStarted(ctx context.Context, plan *domain.Plan) {
	p.publish(ctx, RoutingKeyPlanStarted, PlanStartedPayload{
		PlanID:   plan.ID,
		Topic:    plan.Topic,
		Strategy: plan.Strategy,
		Steps:    len(plan.Steps),
	})
}

// StepFinished публикует событие о завершении шага.
func (p *Publisher) StepFinished(ctx context.Context, plan *domain.Plan, step *domain.Step) {
	p.publish(ctx, RoutingKeyStepFinished, StepFinishedPayload{
		PlanID:   plan.ID,
		StepID:   step.ID,
		Kind:     step.Kind,
		Status:   step.Status,
		Retries:  step.RetryCount,
		Error:    step.Error,
		Duration: step.Duration(),
	})
}

// PlanFinished публикует событие о завершении плана.
func (p *Publisher) PlanFinished(ctx context.Context, plan *domain.Plan, summary *domain.ExecutionSummary) {
	p.publish(ctx, RoutingKeyPlanFinished, PlanFinishedPayload{
		PlanID:    plan.ID,
		Status:    plan.Status,
		Completed: summary.CompletedCount,
		Failed:    summary.FailedCount,
		Duration:  summary.TotalDuration,
	})
}

// publish сериализует и отправляет событие.
func (p *Publisher) publish(ctx context.Context, routingKey string, payload any) {
	msg := Message{
		ID:        uuid.New().String(),
		Type:      routingKey,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn("failed to marshal event", "type", routingKey, "error", err)
		return
	}

	err = p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			ExchangeEvents,
			routingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish %s: %w", routingKey, err)
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("failed to publish event", "type", routingKey, "error", err)
		return
	}

	p.logger.Debug("event published", "type", routingKey, "message_id", msg.ID)
}
