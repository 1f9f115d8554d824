// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, каталог, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - template_handler.go — обработчики для /templates (включая plan и graph)
//   - run_handler.go      — обработчики для /runs
//   - schedule_handler.go — обработчики для /schedules
//   - binding_handler.go  — обработчики для /bindings
//   - archive_handler.go  — обработчики для /reports
//
// API предоставляет REST endpoints для управления шаблонами, runs,
// расписаниями и привязками шагов. Выполнением занимается conductor:
// API лишь ставит runs в очередь и отдаёт их состояние.
package api
