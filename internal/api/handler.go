package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/catalog"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/repo"
)

// Источник шаблона в ответах API.
const (
	SourceCatalog  = "catalog"
	SourceStored   = "stored"
	SourceComposed = "composed"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	templateRepo *repo.TemplateRepo
	runRepo      *repo.RunRepo
	scheduleRepo *repo.ScheduleRepo
	bindingRepo  *repo.BindingRepo
	archiveRepo  *repo.ArchiveRepo
	catalog      *catalog.Source
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	TemplateRepo *repo.TemplateRepo
	RunRepo      *repo.RunRepo
	ScheduleRepo *repo.ScheduleRepo
	BindingRepo  *repo.BindingRepo
	ArchiveRepo  *repo.ArchiveRepo
	Catalog      *catalog.Source
	Publisher    *mq.Publisher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		templateRepo: cfg.TemplateRepo,
		runRepo:      cfg.RunRepo,
		scheduleRepo: cfg.ScheduleRepo,
		bindingRepo:  cfg.BindingRepo,
		archiveRepo:  cfg.ArchiveRepo,
		catalog:      cfg.Catalog,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}

// resolveTemplate возвращает шаблон по ссылке из пути запроса.
//
// UUID разрешается по ID в хранилище; иначе ссылка трактуется как имя
// и разрешается так же, как при выполнении run: сначала каталог
// пресетов, затем сохранённые шаблоны. Отсутствие — repo.ErrNotFound.
func (h *Handler) resolveTemplate(ctx context.Context, ref string) (*domain.Template, string, error) {
	if id, err := uuid.Parse(ref); err == nil {
		tpl, err := h.templateRepo.GetByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return tpl, SourceStored, nil
	}

	tpl, err := h.catalog.Get(ref)
	if err == nil {
		return tpl, SourceCatalog, nil
	}
	if !errors.Is(err, catalog.ErrPresetNotFound) {
		return nil, "", err
	}

	tpl, err = h.templateRepo.GetByName(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return tpl, SourceStored, nil
}
