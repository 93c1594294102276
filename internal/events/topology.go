package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeEvents — обменник событий движка.
const ExchangeEvents = "conveyor.events"

// Routing keys событий.
const (
	RoutingKeyPlanStarted  = "plan.started"
	RoutingKeyPlanFinished = "plan.finished"
	RoutingKeyStepFinished = "step.finished"
)

// QueueEvents — очередь для внешних подписчиков на все события.
const QueueEvents = "conveyor.events.all"

// SetupTopology объявляет обменник и очередь событий.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			ExchangeEvents,
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}

		if _, err := ch.QueueDeclare(QueueEvents, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueEvents, err)
		}

		// "#" — подписка на все события обменника.
		if err := ch.QueueBind(QueueEvents, "#", ExchangeEvents, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueEvents, err)
		}
		return nil
	})
}
