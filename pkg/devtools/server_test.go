package devtools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/vtest"
)

type counter struct {
	N int `json:"n"`
}

var errTooBig = errors.New("too big")

func newFixture(t *testing.T, opts ...Option) (*Server, *model.Model[counter]) {
	t.Helper()
	reg := model.NewRegistry()
	m := model.New(model.Descriptor[counter]{
		Name: "counter",
		Actions: func(set model.Setter[counter]) map[string]model.Action[counter] {
			return map[string]model.Action[counter]{
				"inc": model.Act1(func(_ context.Context, s counter, by int) error {
					if by > 100 {
						return errTooBig
					}
					set.Set(model.Partial{"n": s.N + by})
					return nil
				}),
				"explode": model.Act0(func(context.Context, counter) error {
					panic("kaboom")
				}),
			}
		},
	}, model.WithRegistry(reg))
	t.Cleanup(m.Destroy)

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(reg, opts...), m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := sonic.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	s, _ := newFixture(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestListAndGet(t *testing.T) {
	s, m := newFixture(t)
	if err := m.Actions().Call(context.Background(), "inc", 3); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodGet, "/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[[]ModelInfo](t, rec)
	if len(list) != 1 || list[0].Name != "counter" {
		t.Fatalf("list = %+v", list)
	}
	if !slices.Equal(list[0].Actions, []string{"explode", "inc"}) {
		t.Errorf("actions = %v", list[0].Actions)
	}
	if len(list[0].State) != 0 {
		t.Errorf("list should not include state, got %s", list[0].State)
	}

	rec = do(t, s, http.MethodGet, "/models/counter", "")
	info := decode[ModelInfo](t, rec)
	if string(info.State) != `{"n":3}` {
		t.Errorf("state = %s, want {\"n\":3}", info.State)
	}
	if info.Version != m.Version() {
		t.Errorf("version = %d, want %d", info.Version, m.Version())
	}
}

func TestDispatch(t *testing.T) {
	s, m := newFixture(t)

	rec := do(t, s, http.MethodPost, "/models/counter/actions/inc", `[5]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatch status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[ModelInfo](t, rec); string(got.State) != `{"n":5}` {
		t.Errorf("state = %s", got.State)
	}
	if m.State().N != 5 {
		t.Errorf("model n = %d, want 5", m.State().N)
	}
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown model", "/models/missing/actions/inc", `[1]`, http.StatusNotFound, "M030"},
		{"unknown action", "/models/counter/actions/dec", `[1]`, http.StatusNotFound, "M001"},
		{"body not an array", "/models/counter/actions/inc", `{"by":1}`, http.StatusBadRequest, "M031"},
		{"malformed body", "/models/counter/actions/inc", `[1`, http.StatusBadRequest, "M031"},
		{"missing argument", "/models/counter/actions/inc", ``, http.StatusBadRequest, "M008"},
		{"wrong argument type", "/models/counter/actions/inc", `["five"]`, http.StatusBadRequest, "M008"},
		{"action error", "/models/counter/actions/inc", `[500]`, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newFixture(t)
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			body := decode[ErrorBody](t, rec)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if body.Message == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestDispatchPanicIsRecovered(t *testing.T) {
	s, _ := newFixture(t)
	rec := do(t, s, http.MethodPost, "/models/counter/actions/explode", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRestore(t *testing.T) {
	s, m := newFixture(t)

	rec := do(t, s, http.MethodPut, "/models/counter", `{"n":11}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d: %s", rec.Code, rec.Body.String())
	}
	if m.State().N != 11 {
		t.Errorf("n = %d, want 11", m.State().N)
	}

	rec = do(t, s, http.MethodPut, "/models/counter", `{"n":"eleven"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad restore status = %d", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); body.Code != "M021" {
		t.Errorf("code = %q, want M021", body.Code)
	}
	if m.State().N != 11 {
		t.Errorf("failed restore changed state to %d", m.State().N)
	}
}

func TestReadOnly(t *testing.T) {
	s, m := newFixture(t, WithReadOnly(true))

	if rec := do(t, s, http.MethodPut, "/models/counter", `{"n":1}`); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT status = %d, want 405", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/models/counter/actions/inc", `[1]`); rec.Code != http.StatusNotFound {
		t.Errorf("POST status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/models/counter", ""); rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}
	if m.State().N != 0 {
		t.Errorf("read-only server changed state")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "devtools_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s, _ := newFixture(t, WithGatherer(reg))
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "devtools_test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	return f
}

func TestWatchStream(t *testing.T) {
	s, m := newFixture(t)
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/models/counter/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readFrame(t, conn)
	if first.Type != FrameSnapshot || first.Model != "counter" || string(first.State) != `{"n":0}` {
		t.Fatalf("first frame = %+v", first)
	}
	if s.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", s.ClientCount())
	}

	if err := m.Actions().Call(context.Background(), "inc", 4); err != nil {
		t.Fatal(err)
	}
	change := readFrame(t, conn)
	if change.Type != FrameChange || string(change.State) != `{"n":4}` {
		t.Errorf("change frame = %+v", change)
	}
	if change.Version != m.Version() {
		t.Errorf("change version = %d, want %d", change.Version, m.Version())
	}

	conn.Close()
	vtest.WaitFor(t, 2*time.Second, func() bool { return s.ClientCount() == 0 })
}

func TestWatchUnknownModel(t *testing.T) {
	s, _ := newFixture(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/models/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for unknown model")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}
