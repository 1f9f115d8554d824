// Package catalog поставляет композиционные шаблоны.
//
// Source — неизменяемый реестр именованных пресетов, собираемый один
// раз на старте (Default или New) и передаваемый потребителям как
// значение. Пресеты получают детерминированные ID (uuid.NewSHA1 от
// имени), поэтому один пресет узнаваем между процессами и рестартами.
//
// Стандартные пресеты:
//   - feature   — поставка фичи: design, build, verify, deploy
//   - hotfix    — срочное исправление: triage, build, deploy
//   - migration — миграция данных с фазой security
//   - audit     — best-effort аудит: collect, analyze, documentation
//
// Compose собирает шаблон из свободной цели и тегов требований
// (api, storage, ui, security, docs). Отображение детерминировано:
// одинаковый запрос даёт одинаковый шаблон, включая ID.
//
//	source := catalog.Default()
//	tpl, err := source.Get("feature")
//	composed, err := source.Compose("Billing service", []string{"api", "storage"})
package catalog
