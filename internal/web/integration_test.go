package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vbonduro/kenglema/internal/imaging"
	"github.com/vbonduro/kenglema/internal/service"
	"github.com/vbonduro/kenglema/internal/sharestore"
	"github.com/vbonduro/kenglema/internal/sharestore/local"
	"github.com/vbonduro/kenglema/internal/vision"
	"github.com/vbonduro/kenglema/internal/web"
)

// testPNG is a small decodable image; the analysis pipeline re-encodes it.
var testPNG = func() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

const menuReply = `Here is the analysis:
` + "```json" + `
{"type":"menu","summary":"💰最值: A\n💸最贵: B","items":[
  {"name":"A","menuPrice":300,"onlinePrice":250,"ratio":1.2,"characteristics":"清爽","rating":7},
  {"name":"B","menuPrice":1280,"onlinePrice":400,"ratio":3.2,"characteristics":"浓郁","rating":8},
  {"name":"C","menuPrice":null,"onlinePrice":180,"ratio":null,"characteristics":"未知","rating":6}
]}
` + "```"

// recordingCompleter captures the request passed to it and returns a
// pre-configured reply.
type recordingCompleter struct {
	mu    sync.Mutex
	calls int
	last  vision.Request
	reply string
}

func (r *recordingCompleter) Complete(_ context.Context, req vision.Request) (*vision.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = req
	return &vision.Completion{Text: r.reply}, nil
}

func (r *recordingCompleter) LastImageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.last.Images)
}

func (r *recordingCompleter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// blockingStore wraps a Store and holds every Save until release is closed.
type blockingStore struct {
	sharestore.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Save(ctx context.Context, prefix string, r io.Reader) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.Store.Save(ctx, prefix, r)
}

type testEnv struct {
	srv       *httptest.Server
	completer *recordingCompleter
}

func newTestServer(t *testing.T, configured bool, wrap func(sharestore.Store) sharestore.Store) *testEnv {
	t.Helper()
	store, err := local.NewLocalShareStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalShareStore: %v", err)
	}
	var shares sharestore.Store = store
	if wrap != nil {
		shares = wrap(store)
	}

	completer := &recordingCompleter{reply: menuReply}
	analysis := service.NewAnalysisService(completer, service.AnalysisOptions{
		Configured: configured,
		MaxImages:  10,
		MaxTokens:  8192,
		Image:      imaging.Options{MaxWidth: 1024, Quality: 60},
	}, slog.Default())

	srv := httptest.NewServer(web.NewServer(
		analysis,
		service.NewShareService(shares, slog.Default()),
		web.Info{Provider: "openai", Configured: configured},
		slog.Default(),
	))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, completer: completer}
}

// buildMultipartBody creates a multipart/form-data body with one "image"
// field per entry in images.
func buildMultipartBody(t *testing.T, images ...[]byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, img := range images {
		fw, err := w.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(img); err != nil {
			t.Fatalf("write image data: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

type analyzeResponse struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
	Items   []struct {
		Name       string   `json:"name"`
		MenuPrice  *float64 `json:"menuPrice"`
		Diff       *float64 `json:"diff"`
		Badge      string   `json:"badge"`
		BadgeLabel string   `json:"badgeLabel"`
	} `json:"items"`
}

func postAnalyze(t *testing.T, env *testEnv, images ...[]byte) (*http.Response, analyzeResponse) {
	t.Helper()
	body, contentType := buildMultipartBody(t, images...)
	resp, err := http.Post(env.srv.URL+"/analyze", contentType, body)
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out analyzeResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode analyze response: %v", err)
		}
	}
	return resp, out
}

func TestIntegration_Health(t *testing.T) {
	env := newTestServer(t, true, nil)

	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), `"configured":true`) {
		t.Errorf("unexpected health body: %s", b)
	}
}

func TestIntegration_RequestIDEchoed(t *testing.T) {
	env := newTestServer(t, true, nil)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestIntegration_Analyze(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, true, nil)

	resp, out := postAnalyze(t, env, testPNG, testPNG)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if n := env.completer.LastImageCount(); n != 2 {
		t.Errorf("completer received %d images, want 2", n)
	}
	if out.Type != "menu" {
		t.Errorf("type = %q, want menu", out.Type)
	}
	if out.Summary != "💰最值: A 💸最贵: B" {
		t.Errorf("summary = %q", out.Summary)
	}
	if len(out.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(out.Items))
	}

	wantOrder := []string{"B", "A", "C"}
	wantBadges := []string{"overpriced", "fair", "unclassified"}
	for i, item := range out.Items {
		if item.Name != wantOrder[i] {
			t.Errorf("item %d name = %q, want %q", i, item.Name, wantOrder[i])
		}
		if item.Badge != wantBadges[i] {
			t.Errorf("item %d badge = %q, want %q", i, item.Badge, wantBadges[i])
		}
	}
	if out.Items[0].Diff == nil || *out.Items[0].Diff != 880 {
		t.Errorf("item B diff = %v, want 880", out.Items[0].Diff)
	}
	if out.Items[0].BadgeLabel != "💣 巨坑" {
		t.Errorf("item B label = %q", out.Items[0].BadgeLabel)
	}
	if out.Items[2].MenuPrice != nil || out.Items[2].Diff != nil {
		t.Errorf("item C should have null menuPrice and diff")
	}
}

func TestIntegration_AnalyzeNotConfigured(t *testing.T) {
	env := newTestServer(t, false, nil)

	resp, out := postAnalyze(t, env, testPNG)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if env.completer.Calls() != 0 {
		t.Errorf("completer called %d times without a credential", env.completer.Calls())
	}
	if out.Summary != "未配置 API Key，请在 .env 中设置。" {
		t.Errorf("summary = %q", out.Summary)
	}
	if len(out.Items) != 1 || out.Items[0].Name != "示例 - 奔富 407" {
		t.Errorf("unexpected placeholder items: %+v", out.Items)
	}
}

func TestIntegration_AnalyzeModelFailureStill200(t *testing.T) {
	env := newTestServer(t, true, nil)
	env.completer.reply = "I'm sorry, I can't help with that."

	resp, out := postAnalyze(t, env, testPNG)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(out.Summary, "😓 出错了") {
		t.Errorf("summary = %q, want failure placeholder", out.Summary)
	}
}

func TestIntegration_AnalyzeNoImages(t *testing.T) {
	env := newTestServer(t, true, nil)

	resp, _ := postAnalyze(t, env)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if env.completer.Calls() != 1 {
		t.Errorf("completer called %d times, want 1", env.completer.Calls())
	}
}

func TestIntegration_AnalyzeRejectsNonImage(t *testing.T) {
	env := newTestServer(t, true, nil)

	resp, _ := postAnalyze(t, env, testPNG, []byte("%PDF-1.4 malicious content"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if env.completer.Calls() != 0 {
		t.Error("completer must not be called for rejected uploads")
	}
}

func TestIntegration_AnalyzeRequiresMultipart(t *testing.T) {
	env := newTestServer(t, true, nil)

	resp, err := http.Post(env.srv.URL+"/analyze", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

const shareBody = `{"type":"menu","summary":"巨坑警告","items":[{"name":"B","menuPrice":1280,"onlinePrice":400,"ratio":3.2,"diff":880,"characteristics":"浓郁","rating":8}]}`

func TestIntegration_ShareAndFetch(t *testing.T) {
	env := newTestServer(t, true, nil)

	resp, err := http.Post(env.srv.URL+"/share", "application/json", strings.NewReader(shareBody))
	if err != nil {
		t.Fatalf("POST /share: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Text string `json:"text"`
		Key  string `json:"key"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode share response: %v", err)
	}
	if out.Text != "🍷 坑了么分析报告\n\n巨坑警告\n\n(快保存截图分享)" {
		t.Errorf("text = %q", out.Text)
	}

	card, err := http.Get(env.srv.URL + out.URL)
	if err != nil {
		t.Fatalf("GET %s: %v", out.URL, err)
	}
	defer func() { _ = card.Body.Close() }()
	if card.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", card.StatusCode)
	}
	b, _ := io.ReadAll(card.Body)
	if !strings.Contains(string(b), "💣 巨坑 (3.2x)") {
		t.Errorf("card missing badge line:\n%s", b)
	}
}

func TestIntegration_ShareDroppedWhileInFlight(t *testing.T) {
	var blocker *blockingStore
	env := newTestServer(t, true, func(s sharestore.Store) sharestore.Store {
		blocker = &blockingStore{Store: s, entered: make(chan struct{}), release: make(chan struct{})}
		return blocker
	})

	firstStatus := make(chan int, 1)
	go func() {
		resp, err := http.Post(env.srv.URL+"/share", "application/json", strings.NewReader(shareBody))
		if err != nil {
			firstStatus <- 0
			return
		}
		_ = resp.Body.Close()
		firstStatus <- resp.StatusCode
	}()

	<-blocker.entered

	resp, err := http.Post(env.srv.URL+"/share", "application/json", strings.NewReader(shareBody))
	if err != nil {
		t.Fatalf("POST /share: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("second share: expected 204, got %d", resp.StatusCode)
	}

	close(blocker.release)
	if got := <-firstStatus; got != http.StatusCreated {
		t.Errorf("first share: expected 201, got %d", got)
	}

	// Once the first share finishes the gate admits new shares again.
	go func() { <-blocker.entered }()
	resp, err = http.Post(env.srv.URL+"/share", "application/json", strings.NewReader(shareBody))
	if err != nil {
		t.Fatalf("POST /share: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("third share: expected 201, got %d", resp.StatusCode)
	}
}

func TestIntegration_ShareInvalidBody(t *testing.T) {
	env := newTestServer(t, true, nil)

	resp, err := http.Post(env.srv.URL+"/share", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST /share: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIntegration_GetShareNotFound(t *testing.T) {
	env := newTestServer(t, true, nil)

	for _, key := range []string{"share_missing.txt", "notacard.jpg"} {
		resp, err := http.Get(env.srv.URL + "/shares/" + key)
		if err != nil {
			t.Fatalf("GET /shares/%s: %v", key, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET /shares/%s: expected 404, got %d", key, resp.StatusCode)
		}
	}
}
