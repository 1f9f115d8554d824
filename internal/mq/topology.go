package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	// ExchangeEvents — topic-обменник событий жизненного цикла runs.
	ExchangeEvents Exchange = "partitura.events"

	// ExchangeDLQ — dead letter exchange.
	ExchangeDLQ Exchange = "partitura.dlq"
)

// Queues — имена очередей.
const (
	// QueueRunsQueued — уведомления о новых runs в очереди.
	// Потребитель: conductor (как триггер внеочередного опроса).
	QueueRunsQueued Queue = "runs.queued"

	// QueueReportsArchive — события завершения runs с отчётами.
	// Потребитель: collector.
	QueueReportsArchive Queue = "reports.archive"

	// QueueDLQReports — отчёты, которые collector не смог обработать.
	QueueDLQReports Queue = "dlq.reports"
)

// Routing keys.
const (
	RoutingKeyRunPending   RoutingKey = "run.pending"
	RoutingKeyRunCompleted RoutingKey = "run.completed"
	RoutingKeyRunFailed    RoutingKey = "run.failed"
	RoutingKeyDLQReports   RoutingKey = "reports"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		if err := bindQueues(ch); err != nil {
			return err
		}
		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeEvents, "topic"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQReports),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// runs.queued — без DLQ: уведомления одноразовые, conductor
		// в любом случае опрашивает БД по таймеру
		{QueueRunsQueued, nil},

		// reports.archive — с DLQ: отчёт не должен теряться молча
		{QueueReportsArchive, dlqArgs},

		// dlq.reports — сама DLQ очередь
		{QueueDLQReports, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
// reports.archive привязана по двум явным ключам, а не по run.*:
// wildcard поймал бы и run.pending.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueRunsQueued, RoutingKeyRunPending, ExchangeEvents},
		{QueueReportsArchive, RoutingKeyRunCompleted, ExchangeEvents},
		{QueueReportsArchive, RoutingKeyRunFailed, ExchangeEvents},
		{QueueDLQReports, RoutingKeyDLQReports, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
