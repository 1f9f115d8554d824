// Package engine содержит чистые алгоритмы оркестратора.
//
// Включает:
//   - validate.go — проверка инвариантов шаблона (ConfigError)
//   - plan.go     — группировка шагов фаз в batches
//   - depgraph.go — справочный граф объявленных зависимостей
//
// Engine не выполняет шаги и не делает I/O: он превращает шаблон
// в план, по которому ходит executor. Все функции детерминированы.
package engine
