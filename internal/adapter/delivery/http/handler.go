package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/indicina/url-shortener/internal/entity"
	"github.com/indicina/url-shortener/pkg/response"
)

const maxListLimit = 100

const shortURLNotFound = "Short URL not found"

type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	store pinger
}

func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusServiceUnavailable)
			render.PlainText(w, r, "unavailable")
			return
		}
	}

	render.Status(r, http.StatusOK)
	render.PlainText(w, r, "ok")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string) (*entity.ShortLink, error)
	DecodeShortURL(ctx context.Context, shortCode string) (string, error)
	ResolveRedirect(ctx context.Context, shortCode string) (string, error)
	ListURLs(ctx context.Context, params entity.ListParams) (*entity.URLPage, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)
	UpdateStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// bind decodes and validates the request body into v. It renders the error
// response itself and reports whether the handler may continue.
func (h *urlHandler) bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return false
		}

		render.JSON(w, r, response.InvalidRequestBodyResponse)
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(err))
		return false
	}

	return true
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.FailureResponse(http.StatusNotFound, "URL not found"))
	case errors.Is(err, entity.ErrInvalidStatus):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FailureResponse(http.StatusBadRequest, "Invalid URL status"))
	case errors.Is(err, entity.ErrCodeSpaceExhausted):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.FailureResponse(http.StatusServiceUnavailable, "No short code available, please try again"))
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

func (h *urlHandler) encode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if !h.bind(w, r, &req) {
		return
	}

	link, err := h.useCase.ShortenURL(r.Context(), req.URL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.SuccessResponse(http.StatusCreated, "", toShortLinkResponse(link)))
}

func (h *urlHandler) decode(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "code")

	originalURL, err := h.useCase.DecodeShortURL(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "", decodeResponse{OriginalURL: originalURL}))
}

// parseListParams reads search, page and limit from the query string.
// Missing values take the defaults; page below 1 is clamped by the use case.
func parseListParams(r *http.Request) (entity.ListParams, string) {
	q := r.URL.Query()

	params := entity.ListParams{
		Search: q.Get("search"),
		Page:   entity.DefaultPage,
		Limit:  entity.DefaultLimit,
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return params, "page must be an integer"
		}
		params.Page = page
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return params, "limit must be an integer"
		}
		if limit < 1 || limit > maxListLimit {
			return params, "limit must be between 1 and " + strconv.Itoa(maxListLimit)
		}
		params.Limit = limit
	}

	return params, ""
}

func (h *urlHandler) list(w http.ResponseWriter, r *http.Request) {
	params, msg := parseListParams(r)
	if msg != "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FailureResponse(http.StatusBadRequest, msg))
		return
	}

	page, err := h.useCase.ListURLs(r.Context(), params)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "", toListResponse(page)))
}

func (h *urlHandler) statistic(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "code")

	url, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "", toURLResponse(url)))
}

func (h *urlHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !h.bind(w, r, &req) {
		return
	}

	shortCode := chi.URLParam(r, "code")

	url, err := h.useCase.UpdateStatus(r.Context(), shortCode, entity.Status(req.Status))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "URL status updated", toURLResponse(url)))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "code")

	originalURL, err := h.useCase.ResolveRedirect(r.Context(), shortCode)
	if err != nil {
		if !errors.Is(err, entity.ErrURLNotFound) {
			renderError(w, r, err)
			return
		}

		// Unknown and inactive codes look the same to the client.
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, shortURLNotFound)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}
