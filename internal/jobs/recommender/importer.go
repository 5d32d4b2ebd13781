package recommender

import (
	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/jobs/runtime"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/services"
)

const defaultImportPages = 5

// ImportHandler pulls popular movies from TMDb into the catalog. Payload
// fields: pages (int, defaults to 5).
type ImportHandler struct {
	log      *logger.Logger
	importer services.MovieImportService
}

func NewImportHandler(baseLog *logger.Logger, importer services.MovieImportService) *ImportHandler {
	return &ImportHandler{
		log:      baseLog.With("handler", "ImportPopularMovies"),
		importer: importer,
	}
}

func (h *ImportHandler) Type() string { return domain.JobTypeImportPopularMovies }

func (h *ImportHandler) Run(jc *runtime.Context) error {
	pages, ok := jc.PayloadInt("pages")
	if !ok || pages < 1 {
		pages = defaultImportPages
	}

	jc.Progress("import", 10, "Importing popular movies from TMDb")
	count, err := h.importer.ImportPopular(jc.Ctx, pages)
	if err != nil {
		jc.Fail("import", err)
		return nil
	}

	jc.Succeed("import", map[string]any{
		"pages":    pages,
		"imported": count,
	})
	return nil
}
