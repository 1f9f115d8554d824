// Package collector принимает события завершения runs и складывает
// их отчёты в архив Postgres.
//
// Отчёт приезжает внутри события run.completed / run.failed из
// обменника partitura.events. Collector не обращается к таблице runs
// и не пересчитывает отчёт: что опубликовал conductor, то и
// архивируется. Дубликаты доставки гасятся на уровне архива
// (run_id — ключ), необработанные события уходят в DLQ.
package collector
