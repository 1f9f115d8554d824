// Package conductor доводит поставленные в очередь runs до конца.
//
// Conductor отвечает за:
//   - Атомарный claim пачек PENDING runs (несколько инстансов делят
//     одну очередь без двойного исполнения)
//   - Разрешение имени шаблона: каталог пресетов, затем сохранённые
//   - Сборку Step Runner'а из текущих привязок шагов
//   - Выполнение run в собственном процессе через executor
//   - Сохранение терминального run и отчёта
//   - Публикацию события завершения для collector'а
//
// Событие run.pending служит только подсказкой опросить БД вне
// таймера: источником правды остаётся таблица runs.
package conductor
