// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - events.go     — конверт Message и типизированные события
//   - publisher.go  — публикация событий
//   - consumer.go   — потребление с ручным ack и DLQ при повторном отказе
//
// События (topic exchange partitura.events):
//   - run.pending   — run поставлен в очередь; подсказка conductor'у
//     опросить БД вне таймера
//   - run.completed — run завершён, в payload итоговый отчёт
//   - run.failed    — run прерван, в payload итоговый отчёт
//
// Очередь reports.archive читает collector; недоставленные отчёты
// уходят в partitura.dlq → dlq.reports.
package mq
