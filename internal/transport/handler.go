package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"go-livestock-classifier/internal/analyzer"
	"go-livestock-classifier/internal/config"
	"go-livestock-classifier/internal/controller"
	apperrors "go-livestock-classifier/internal/errors"
	"go-livestock-classifier/internal/logger"
	"go-livestock-classifier/internal/observer"
	"go-livestock-classifier/internal/repository"
	"go-livestock-classifier/internal/upload"
	"go-livestock-classifier/internal/view"
	"go-livestock-classifier/pkg/models"
)

const (
	sessionCookieName = "livestock_session"
	sessionKey        = "sid"
	serviceVersion    = "1.0.0"
)

// Dependencies are the services the HTTP layer drives.
type Dependencies struct {
	Registry *controller.Registry
	Previews repository.PreviewRepository
	Metrics  *observer.MetricsObserver
	Pool     *analyzer.WorkerPool
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxRequestBodySize
	r.SetHTMLTemplate(view.MustTemplates())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/preview/"})),
		static.Serve("/assets", newAssetFileSystem(view.Assets())),
		sessions.Sessions(sessionCookieName, store),
	)

	// Configure routes
	r.GET("/health", healthCheck(deps.Registry))
	r.GET("/", renderPage(deps.Registry))
	r.POST("/upload", uploadFiles(deps.Registry, cfg))
	r.POST("/analyze", analyze(deps.Registry))
	r.GET("/fragments/results", renderResults(deps.Registry))
	r.GET("/fragments/upload", renderUploadColumn(deps.Registry))
	r.GET("/preview/:id", servePreview(deps.Registry, deps.Previews, cfg))
	r.GET("/ws", streamState(deps.Registry))
	r.POST("/session/close", closeSession(deps.Registry))

	api := r.Group("/api", cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	api.GET("/state", getState(deps.Registry))
	api.GET("/metrics", getMetrics(deps))
	// Group middleware only runs on a matched route, so preflights need one.
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	if lo.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// sessionID returns the visitor's session ID, issuing one on first contact.
func sessionID(c *gin.Context) string {
	s := sessions.Default(c)
	if id, ok := s.Get(sessionKey).(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	s.Set(sessionKey, id)
	if err := s.Save(); err != nil {
		logger.WithError(err).Warn("Failed to save session cookie")
	}
	return id
}

// existingSessionID never issues a new session.
func existingSessionID(c *gin.Context) (string, bool) {
	id, ok := sessions.Default(c).Get(sessionKey).(string)
	return id, ok && id != ""
}

func pageController(c *gin.Context, registry *controller.Registry) *controller.PageController {
	ctrl := registry.Get(sessionID(c))
	ctrl.Touch()
	return ctrl
}

func renderPage(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl := pageController(c, registry)
		c.HTML(http.StatusOK, view.PageTemplate, view.NewPage(ctrl.Snapshot()))
	}
}

func renderResults(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := pageController(c, registry).Snapshot()
		c.HTML(http.StatusOK, view.ResultPanelTemplate, view.NewResultPanel(state.Result, state.IsLoading))
	}
}

func renderUploadColumn(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := pageController(c, registry).Snapshot()
		c.HTML(http.StatusOK, view.UploadColumnTemplate, view.NewUploadColumn(state))
	}
}

func uploadFiles(registry *controller.Registry, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > cfg.MaxRequestBodySize {
			respondAppError(c, apperrors.NewPayloadTooLargeError(cfg.MaxRequestBodySize, nil))
			return
		}

		ctrl := pageController(c, registry)
		log := logger.ForSession(ctrl.ID())

		form, err := c.MultipartForm()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondAppError(c, apperrors.NewPayloadTooLargeError(cfg.MaxRequestBodySize, err))
				return
			}
			respondAppError(c, apperrors.NewValidationError("malformed multipart body", err))
			return
		}
		defer func() {
			if err := form.RemoveAll(); err != nil {
				log.WithError(err).Debug("Failed to remove multipart temp files")
			}
		}()

		var req models.UploadForm
		if err := c.ShouldBind(&req); err != nil {
			respondAppError(c, apperrors.NewValidationError("invalid upload source", err))
			return
		}

		files := form.File["file"]
		zone := upload.NewZone(ctrl.SelectFile)
		pick := zone.Pick
		if req.Source == "drop" {
			pick = zone.Drop
		}

		selected, err := pick(files)
		if err != nil {
			respondAppError(c, apperrors.NewInternalError("failed to read uploaded file", err))
			return
		}
		if !selected {
			ctrl.Ignore(len(files))
		}

		log.WithFields(logrus.Fields{
			"source":   lo.Ternary(req.Source == "", "picker", req.Source),
			"files":    len(files),
			"selected": selected,
		}).Debug("Upload handled")

		respondState(c, ctrl)
	}
}

func analyze(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl := pageController(c, registry)
		if !ctrl.Analyze() {
			logger.ForSession(ctrl.ID()).Debug("Analyze requested without a selected file")
		}
		respondState(c, ctrl)
	}
}

// respondState answers scripted requests with the new state and plain form
// posts with a redirect back to the page.
func respondState(c *gin.Context, ctrl *controller.PageController) {
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, ctrl.Snapshot())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func getState(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, pageController(c, registry).Snapshot())
	}
}

func servePreview(registry *controller.Registry, previews repository.PreviewRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		notFound := apperrors.NewNotFoundError("preview not found", nil)

		sid, ok := existingSessionID(c)
		if !ok {
			respondAppError(c, notFound)
			return
		}
		ctrl, ok := registry.Lookup(sid)
		if !ok {
			respondAppError(c, notFound)
			return
		}

		p, err := previews.Get(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, repository.ErrPreviewNotFound) {
				respondAppError(c, apperrors.NewNotFoundError("preview not found", err))
				return
			}
			respondAppError(c, apperrors.NewInternalError("failed to load preview", err))
			return
		}
		if !ctrl.OwnsPreview(p) {
			respondAppError(c, notFound)
			return
		}

		c.Header("Cache-Control", "private, no-store")
		c.Data(http.StatusOK, repository.DetectMediaType(p.Data, p.MediaType), p.Data)
	}
}

func closeSession(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid, ok := existingSessionID(c); ok && registry.Close(sid) {
			logger.ForSession(sid).Info("Page session closed by client")
		}
		c.Status(http.StatusNoContent)
	}
}

func healthCheck(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         "available",
			Version:        serviceVersion,
			Time:           time.Now().UTC().Format(time.RFC3339),
			ActiveSessions: registry.Len(),
		})
	}
}

func getMetrics(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"active_sessions": deps.Registry.Len()}
		if deps.Metrics != nil {
			body["events"] = deps.Metrics.GetMetrics()
		}
		if deps.Pool != nil {
			body["worker_pool"] = deps.Pool.GetStats()
		}
		c.JSON(http.StatusOK, body)
	}
}
