package transport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-livestock-classifier/internal/analyzer"
	"go-livestock-classifier/internal/config"
	"go-livestock-classifier/internal/controller"
	"go-livestock-classifier/internal/observer"
	"go-livestock-classifier/internal/repository"
	"go-livestock-classifier/pkg/models"
)

type testServer struct {
	*httptest.Server
	registry *controller.Registry
	metrics  *observer.MetricsObserver
}

func testConfig() *config.Config {
	return &config.Config{
		Host:                     "127.0.0.1",
		Port:                     "0",
		GinMode:                  gin.TestMode,
		RequestTimeout:           5 * time.Second,
		MaxRequestBodySize:       1 << 20,
		AnalysisDelay:            20 * time.Millisecond,
		SupersedePendingAnalysis: true,
		AutoAnalyze:              true,
		PreviewMaxWidth:          64,
		PreviewMaxPixels:         1 << 20,
		WorkerCount:              2,
		SessionSecret:            "0123456789abcdef0123456789abcdef",
		SessionIdleTimeout:       time.Minute,
		CORSAllowedOrigins:       []string{"*"},
		LogLevel:                 "error",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := analyzer.NewWorkerPool(cfg.WorkerCount)
	pool.Start()

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	previews := repository.NewMemoryPreviewRepository()
	opts := analyzer.DefaultOptions().WithDelay(cfg.AnalysisDelay).WithPreviewMaxWidth(cfg.PreviewMaxWidth)
	registry := controller.NewRegistry(func(id string) *controller.PageController {
		return controller.New(id, controller.Dependencies{
			Previews: previews,
			Pool:     pool,
			Events:   events,
		}, opts)
	}, cfg.SessionIdleTimeout)

	srv := httptest.NewServer(NewHandler(Dependencies{
		Registry: registry,
		Previews: previews,
		Metrics:  metrics,
		Pool:     pool,
	}, cfg))

	t.Cleanup(func() {
		srv.Close()
		registry.CloseAll()
		pool.Close()
	})
	return &testServer{Server: srv, registry: registry, metrics: metrics}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jsonClient(srv *testServer) *resty.Client {
	return resty.New().SetBaseURL(srv.URL).SetHeader("Accept", "application/json")
}

func waitForResult(t *testing.T, client *resty.Client) models.PageState {
	t.Helper()
	var state models.PageState
	require.Eventually(t, func() bool {
		state = models.PageState{}
		resp, err := client.R().SetResult(&state).Get("/api/state")
		return err == nil && resp.StatusCode() == http.StatusOK && !state.IsLoading && state.Result != nil
	}, 3*time.Second, 10*time.Millisecond)
	return state
}

func TestPage_RendersInitialState(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, err := resty.New().R().Get(srv.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	body := resp.String()
	assert.Contains(t, body, "AI Livestock Classification")
	assert.Contains(t, body, "Upload Livestock Image")
	assert.Contains(t, body, "No results yet")
	assert.NotContains(t, body, "analyze-button")

	assert.Condition(t, func() bool {
		for _, c := range resp.Cookies() {
			if c.Name == sessionCookieName {
				return true
			}
		}
		return false
	}, "session cookie issued")
	assert.Equal(t, 1, srv.registry.Len())
}

func TestUpload_DropSelectsFirstImageAndCompletes(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	var state models.PageState
	resp, err := client.R().
		SetMultipartField("file", "notes.txt", "text/plain", strings.NewReader("hello")).
		SetMultipartField("file", "cow.png", "image/png", bytes.NewReader(pngBytes(t))).
		SetMultipartField("file", "other.png", "image/png", bytes.NewReader(pngBytes(t))).
		SetFormData(map[string]string{"source": "drop"}).
		SetResult(&state).
		Post("/upload")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	require.NotNil(t, state.SelectedFile)
	assert.Equal(t, "cow.png", state.SelectedFile.Name)
	assert.True(t, state.IsLoading)
	assert.Nil(t, state.Result)

	state = waitForResult(t, client)
	assert.Equal(t, models.AnimalTypeCattle, state.Result.AnimalType)
	assert.Equal(t, "Gir", state.Result.Breed)
	assert.Equal(t, 0.92, state.Result.TypeConfidence)
	assert.Equal(t, 0.87, state.Result.BreedConfidence)
	require.True(t, strings.HasPrefix(state.Result.ImageURL, "/preview/"))

	preview, err := client.R().Get(state.Result.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, preview.StatusCode())
	assert.Equal(t, "image/png", preview.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes(t), preview.Body())

	fragment, err := client.R().Get("/fragments/results")
	require.NoError(t, err)
	assert.Contains(t, fragment.String(), "Classification Results")
	assert.Contains(t, fragment.String(), "92.0% confident")
	assert.Contains(t, fragment.String(), "87.0%")

	column, err := client.R().Get("/fragments/upload")
	require.NoError(t, err)
	assert.Contains(t, column.String(), "cow.png")
	assert.Contains(t, column.String(), "Analyze Image")
}

func TestUpload_DropWithoutImageIsIgnored(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	var state models.PageState
	resp, err := client.R().
		SetMultipartField("file", "notes.txt", "text/plain", strings.NewReader("hello")).
		SetFormData(map[string]string{"source": "drop"}).
		SetResult(&state).
		Post("/upload")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	assert.Nil(t, state.SelectedFile)
	assert.Nil(t, state.Result)
	assert.False(t, state.IsLoading)

	var current models.PageState
	_, err = client.R().SetResult(&current).Get("/api/state")
	require.NoError(t, err)
	assert.Equal(t, state.Version, current.Version, "ignored drops do not bump the version")

	require.Eventually(t, func() bool {
		return srv.metrics.GetMetrics()["files_ignored"] == int64(1)
	}, time.Second, 5*time.Millisecond)
}

func TestUpload_PickerAppliesImageRule(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	var state models.PageState
	_, err := client.R().
		SetMultipartField("file", "report.pdf", "application/pdf", strings.NewReader("%PDF")).
		SetFormData(map[string]string{"source": "picker"}).
		SetResult(&state).
		Post("/upload")
	require.NoError(t, err)
	assert.Nil(t, state.SelectedFile)
}

func TestUpload_Rejections(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBodySize = 2048
	srv := newTestServer(t, cfg)
	client := jsonClient(srv)

	t.Run("unknown source", func(t *testing.T) {
		resp, err := client.R().
			SetMultipartField("file", "cow.png", "image/png", bytes.NewReader(pngBytes(t))).
			SetFormData(map[string]string{"source": "camera"}).
			Post("/upload")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})

	t.Run("not multipart", func(t *testing.T) {
		resp, err := client.R().SetBody("plain").Post("/upload")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})

	t.Run("body too large", func(t *testing.T) {
		var errResp models.ErrorResponse
		resp, err := client.R().
			SetMultipartField("file", "big.png", "image/png", bytes.NewReader(make([]byte, 8*1024))).
			SetError(&errResp).
			Post("/upload")
		require.NoError(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode())
		assert.Contains(t, errResp.Message, "limit is 2048 bytes")
	})
}

func TestAnalyze_WithoutSelectionIsNoop(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var state models.PageState
	resp, err := jsonClient(srv).R().SetResult(&state).Post("/analyze")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.False(t, state.IsLoading)
	assert.Nil(t, state.Result)
}

func TestAnalyze_ReRunsOnSelectedFile(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	_, err := client.R().
		SetMultipartField("file", "cow.png", "image/png", bytes.NewReader(pngBytes(t))).
		Post("/upload")
	require.NoError(t, err)
	first := waitForResult(t, client)

	var state models.PageState
	_, err = client.R().SetResult(&state).Post("/analyze")
	require.NoError(t, err)
	assert.True(t, state.IsLoading)

	second := waitForResult(t, client)
	assert.NotEqual(t, first.Result.ImageURL, second.Result.ImageURL)

	old, err := client.R().Get(first.Result.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, old.StatusCode(), "replaced preview is revoked")
}

func TestFormPostRedirectsToPage(t *testing.T) {
	srv := newTestServer(t, testConfig())

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.PostForm(srv.URL+"/analyze", url.Values{})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestPreview_OnlyServedToOwner(t *testing.T) {
	srv := newTestServer(t, testConfig())
	owner := jsonClient(srv)

	_, err := owner.R().
		SetMultipartField("file", "cow.png", "image/png", bytes.NewReader(pngBytes(t))).
		Post("/upload")
	require.NoError(t, err)
	state := waitForResult(t, owner)

	stranger := jsonClient(srv)
	_, err = stranger.R().Get("/")
	require.NoError(t, err)

	resp, err := stranger.R().Get(state.Result.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = resty.New().R().Get(srv.URL + state.Result.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode(), "no session, no preview")

	resp, err = owner.R().Get("/preview/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestSessionClose_TearsDownController(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	_, err := client.R().
		SetMultipartField("file", "cow.png", "image/png", bytes.NewReader(pngBytes(t))).
		Post("/upload")
	require.NoError(t, err)
	state := waitForResult(t, client)
	require.Equal(t, 1, srv.registry.Len())

	resp, err := client.R().Post("/session/close")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
	assert.Equal(t, 0, srv.registry.Len())

	preview, err := client.R().Get(state.Result.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, preview.StatusCode())

	var fresh models.PageState
	_, err = client.R().SetResult(&fresh).Get("/api/state")
	require.NoError(t, err)
	assert.Nil(t, fresh.SelectedFile)
	assert.Nil(t, fresh.Result)
	assert.Greater(t, fresh.Version, state.Version, "open pages must accept the replacement state")
}

func TestWebSocket_PushesStateChanges(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	_, err := client.R().Get("/")
	require.NoError(t, err)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	cookies := client.GetClient().Jar.Cookies(base)
	require.NotEmpty(t, cookies)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Cookie": {strings.Join(parts, "; ")}})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial models.PageState
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Nil(t, initial.SelectedFile)

	_, err = client.R().
		SetMultipartField("file", "cow.png", "image/png", bytes.NewReader(pngBytes(t))).
		Post("/upload")
	require.NoError(t, err)

	var sawLoading bool
	for {
		var state models.PageState
		require.NoError(t, conn.ReadJSON(&state))
		if state.IsLoading {
			sawLoading = true
		}
		if state.Result != nil && !state.IsLoading {
			assert.Equal(t, "Gir", state.Result.Breed)
			break
		}
	}
	assert.True(t, sawLoading)

	// A closed session ends the stream.
	_, err = client.R().Post("/session/close")
	require.NoError(t, err)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := jsonClient(srv)

	var health models.HealthResponse
	resp, err := client.R().SetResult(&health).Get("/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "available", health.Status)

	resp, err = client.R().SetHeader("Origin", "http://example.com").Get("/api/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.String(), "worker_pool")
	assert.Contains(t, resp.String(), "files_selected")
}

func TestAPI_Preflight(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := resty.New().SetBaseURL(srv.URL)

	for _, path := range []string{"/api/state", "/api/metrics"} {
		resp, err := client.R().
			SetHeader("Origin", "http://example.com").
			SetHeader("Access-Control-Request-Method", http.MethodGet).
			Options(path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode(), path)
		assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodGet, path)
	}
}

func TestAssets(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := resty.New().SetBaseURL(srv.URL)

	resp, err := client.R().Get("/assets/app.js")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "sendBeacon")

	resp, err = client.R().Get("/assets/app.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/css")

	resp, err = client.R().Get("/assets/missing.js")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	assert.True(t, all.AllowAllOrigins)
	assert.Empty(t, all.AllowOrigins)

	some := corsConfig([]string{"https://a.example", "https://b.example"})
	assert.False(t, some.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, some.AllowOrigins)
}

func TestDetermineStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, determineStatusCode(assert.AnError))
}
