package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/vmodel/internal/config"
	vmerrors "github.com/vango-dev/vmodel/internal/errors"
	"github.com/vango-dev/vmodel/pkg/persist"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// useStorage makes every command share s for the rest of the test.
func useStorage(t *testing.T, s persist.Storage) {
	t.Helper()
	prev := newStorage
	newStorage = func(context.Context, *config.Config) (persist.Storage, error) {
		return s, nil
	}
	t.Cleanup(func() { newStorage = prev })
}

func errorCode(err error) string {
	var me *vmerrors.ModelError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q", out)
	}

	out, err = execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"Version:", "Commit:", "Go version:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestSnapshotCommands(t *testing.T) {
	storage := persist.NewMemoryStorage()
	useStorage(t, storage)

	if _, err := execute(t, `{"n":3,"step":1}`, "snapshot", "put", "counter"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := execute(t, `{"items":[]}`, "snapshot", "put", "todos", "-"); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, err := execute(t, "", "snapshot", "get", "counter")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(out) != `{"n":3,"step":1}` {
		t.Errorf("get = %q", out)
	}

	out, err = execute(t, "", "snapshot", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "counter\ntodos\n" {
		t.Errorf("list = %q", out)
	}

	if _, err := execute(t, "", "snapshot", "delete", "counter"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "", "snapshot", "get", "counter"); errorCode(err) != "M041" {
		t.Errorf("get after delete = %v, want M041", err)
	}
	if _, err := execute(t, "", "snapshot", "delete", "counter"); errorCode(err) != "M041" {
		t.Errorf("delete missing = %v, want M041", err)
	}
}

func TestSnapshotWithoutBackend(t *testing.T) {
	_, err := execute(t, "", "snapshot", "list", "--persist=none")
	if errorCode(err) != "M040" {
		t.Errorf("list with no backend = %v, want M040", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "", "snapshot", "list", "--persist=s3")
	if errorCode(err) != "M040" {
		t.Errorf("s3 without bucket = %v, want M040", err)
	}
}

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.New()
	cfg.Persist.Debounce = 0
	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a
}

func TestAppServesModels(t *testing.T) {
	useStorage(t, persist.NewMemoryStorage())
	a := testApp(t)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/models/counter/actions/inc", strings.NewReader(`[2]`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("inc status = %d: %s", rec.Code, rec.Body.String())
	}
	if a.counter.State().N != 2 {
		t.Errorf("n = %d, want 2", a.counter.State().N)
	}

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `vmodel_actions_total{action="inc",model="counter",status="success"} 1`) {
		t.Errorf("metrics missing action counter:\n%s", rec.Body.String())
	}
}

func TestAppPersistsAcrossRestarts(t *testing.T) {
	storage := persist.NewMemoryStorage()
	useStorage(t, storage)

	a := testApp(t)
	ctx := context.Background()
	if err := a.counter.Actions().Call(ctx, "inc", 4); err != nil {
		t.Fatal(err)
	}
	if err := a.todos.Actions().Call(ctx, "add", "write docs"); err != nil {
		t.Fatal(err)
	}
	a.Close()

	b := testApp(t)
	defer b.Close()
	if b.counter.State().N != 4 {
		t.Errorf("restarted counter n = %d, want 4", b.counter.State().N)
	}
	if items := b.todos.State().Items; len(items) != 1 || items[0].Title != "write docs" {
		t.Errorf("restarted todos = %+v", items)
	}
}

type brokenStorage struct{ persist.Storage }

var errBackendDown = errors.New("backend down")

func (brokenStorage) Load(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (brokenStorage) Save(context.Context, string, []byte) error { return errBackendDown }
func (brokenStorage) Keys(context.Context) ([]string, error) { return nil, errBackendDown }

func TestSnapshotStorageFailuresAreCoded(t *testing.T) {
	useStorage(t, brokenStorage{persist.NewMemoryStorage()})

	for _, args := range [][]string{
		{"snapshot", "list"},
		{"snapshot", "get", "counter"},
		{"snapshot", "put", "counter"},
		{"snapshot", "delete", "counter"},
	} {
		_, err := execute(t, `{"n":1}`, args...)
		if errorCode(err) != "M022" || !errors.Is(err, errBackendDown) {
			t.Errorf("%v = %v, want M022 wrapping the backend error", args, err)
		}
	}
}
