package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig binds one queue to a routing key on the lifecycle exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// RoutingKeyPaymentApplied is the key for subscription-extension events.
const RoutingKeyPaymentApplied = "payment.applied"

// GetLifecycleQueues lists the queues consumed by downstream workers.
func GetLifecycleQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "access.payment_applied", RoutingKey: RoutingKeyPaymentApplied},
	}
}

// SetupChannel declares the exchange and the lifecycle queues on a new channel.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		queue, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := ch.QueueBind(queue.Name, q.RoutingKey, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return ch, nil
}
