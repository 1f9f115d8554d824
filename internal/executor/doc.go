// Package executor выполняет композиционные шаблоны.
//
// Executor отвечает за:
//   - Валидацию шаблона и построение плана (internal/engine)
//   - Проход фаз строго в объявленном порядке
//   - Выполнение batches: параллельных с fan-out/join, последовательных
//     по одному
//   - Локализацию отказов шагов в failed StepResult
//   - Решение продолжать/прервать после каждой фазы (Policy)
//   - Сборку итогового отчёта (BuildReport)
//
// # Модель конкурентности
//
// Run выполняется на вызывающей горутине; дополнительные горутины
// порождаются только на время одного параллельного batch и всегда
// дожидаются в точке join. Ничего fire-and-forget: каждый запущенный
// шаг ожидается ровно один раз. Пик ресурсов ограничен шириной
// текущего batch, а не общим числом шагов шаблона.
//
// Примитива отмены run у исполнителя нет: отказ шага локализуется и
// не отменяет соседей; остановить последующие фазы может только
// политика отказов, оцениваемая после join всей фазы. Дедлайны шагов —
// зона ответственности Step Runner'а.
//
// # Отказы
//
// Три категории:
//   - ConfigError (engine) — некорректный шаблон; Execute возвращает
//     ошибку до начала выполнения, run не создаётся.
//   - Отказ шага — error или паника runner'а; превращается в failed
//     StepResult и никогда не трогает соседей по batch.
//   - Прерывание — критическая фаза с отказами останавливает run со
//     статусом FAILED, но отчёт по выполненным фазам сохраняется.
package executor
