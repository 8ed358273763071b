package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/skyvalley/source/pkg/release"
)

// DefaultCacheMaxAge is the max-age in seconds of redirect and feed responses.
const DefaultCacheMaxAge = 300

// Handler serves release redirects and feeds over HTTP
type Handler struct {
	service     release.Service
	log         *slog.Logger
	cacheMaxAge int
}

// NewHandler creates a new release handler
func NewHandler(service release.Service, log *slog.Logger, cacheMaxAge int) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if cacheMaxAge < 0 {
		cacheMaxAge = DefaultCacheMaxAge
	}
	return &Handler{
		service:     service,
		log:         log,
		cacheMaxAge: cacheMaxAge,
	}
}

// Routes returns the routes for release serving
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/{product}", func(r chi.Router) {
		r.Get("/latest", h.Latest)
		r.Get("/appcast.xml", h.Appcast)
		r.Get("/dmg/{filename}", h.DiskImage)
		r.Get("/download/{filename}", h.Download)
	})

	return r
}

// HealthResponse is the response body of the health check
type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports that the server is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{Status: "ok"})
}

// Latest redirects to the artifact of the newest release in the product feed
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")

	channel, err := release.ParseChannel(r.URL.Query().Get("channel"))
	if err != nil {
		h.log.Info("Invalid channel", "product", product, "channel", r.URL.Query().Get("channel"))
		http.Error(w, "Invalid channel", http.StatusBadRequest)
		return
	}

	target, err := h.service.LatestRedirect(r.Context(), product, channel)
	if err != nil {
		h.log.Error("Error finding latest version", "product", product, "channel", channel, "error", err)
		http.Error(w, "Error finding latest version", http.StatusInternalServerError)
		return
	}

	h.setCacheControl(w)
	http.Redirect(w, r, target.Path, http.StatusFound)
}

// DiskImage redirects to the stored disk image of a product
func (h *Handler) DiskImage(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	filename := chi.URLParam(r, "filename")

	obj, err := h.service.LocateDiskImage(r.Context(), product, filename)
	if err != nil {
		h.notFound(w, "disk image", product, filename, err)
		return
	}

	http.Redirect(w, r, obj.URL, http.StatusFound)
}

// Download redirects to the stored update archive of a product
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	filename := chi.URLParam(r, "filename")

	obj, err := h.service.LocateUpdate(r.Context(), product, filename)
	if err != nil {
		h.notFound(w, "update archive", product, filename, err)
		return
	}

	http.Redirect(w, r, obj.URL, http.StatusFound)
}

// Appcast serves the raw feed document of a product
func (h *Handler) Appcast(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")

	data, err := h.service.FeedDocument(r.Context(), product)
	if err != nil {
		h.log.Info("Appcast not found", "product", product, "error", err)
		http.Error(w, "Appcast not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	h.setCacheControl(w)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// notFound answers every lookup failure with 404; an unreachable store is
// only distinguished in the log.
func (h *Handler) notFound(w http.ResponseWriter, kind, product, filename string, err error) {
	if errors.Is(err, release.ErrStoreUnavailable) {
		h.log.Error("Blob store unavailable", "kind", kind, "product", product, "filename", filename, "error", err)
	} else {
		h.log.Info("File not found", "kind", kind, "product", product, "filename", filename)
	}
	http.Error(w, "File not found", http.StatusNotFound)
}

func (h *Handler) setCacheControl(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.cacheMaxAge))
}
