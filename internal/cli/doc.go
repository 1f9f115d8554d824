// Package cli реализует инструмент командной строки Partitura.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Partitura API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления шаблонами, runs и schedules.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Partitura API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	templates, err := client.ListTemplates()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: partitura run list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - template: list, create, compose, show, delete, plan, graph
//   - run: list, start, show, steps, report
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewTemplateCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
