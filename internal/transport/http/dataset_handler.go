package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/services"
)

// DatasetHandler serves the loaded dataset with RFC 7807 errors
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes mounts below /api/v1
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/dataset", h.GetDataset)
	r.Get("/groups", h.GetGroups)
	r.Route("/series/{group}", func(r chi.Router) {
		r.Get("/", h.GetSeries)
		r.Get("/chart", h.GetChart)
	})

	return r
}

// GetDataset handles GET /api/v1/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetGroups handles GET /api/v1/groups
func (h *DatasetHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Groups(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"data":  groups,
		"count": len(groups),
	})
}

// GetSeries handles GET /api/v1/series/{group}
func (h *DatasetHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	q, err := seriesQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "aggregating series",
		slog.String("group", q.Group),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	series, err := h.service.Series(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, series)
}

// GetChart handles GET /api/v1/series/{group}/chart. The image is
// buffered so a failed render still produces a problem document.
func (h *DatasetHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	q, err := seriesQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Chart(r.Context(), &buf, q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", h.service.ChartContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "chart write failed",
			slog.String("group", q.Group),
			slog.String("error", err.Error()))
	}
}

// groupParam returns the decoded group. chi routes on RawPath when the
// request path carries escapes, and the parameter is still escaped then.
func groupParam(r *http.Request) (string, error) {
	group := chi.URLParam(r, "group")
	if r.URL.RawPath == "" {
		return group, nil
	}
	decoded, err := url.PathUnescape(group)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("malformed group %q", group))
	}
	return decoded, nil
}

// seriesQuery reads the group path parameter and the mode, start and end
// query parameters
func seriesQuery(r *http.Request) (services.SeriesQuery, error) {
	group, err := groupParam(r)
	if err != nil {
		return services.SeriesQuery{}, err
	}

	values := r.URL.Query()
	q := services.SeriesQuery{
		Group: group,
		Mode:  values.Get("mode"),
	}

	if q.StartYear, err = yearParam(values, "start"); err != nil {
		return q, err
	}
	if q.EndYear, err = yearParam(values, "end"); err != nil {
		return q, err
	}
	return q, nil
}

func yearParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a year, got %q", name, raw)).
			WithContext("parameter", name)
	}
	return year, nil
}
