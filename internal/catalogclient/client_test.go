package catalogclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/catalogclient"
)

func newClient(t *testing.T) *catalogclient.Client {
	t.Helper()

	s := &catalog.Server{
		Catalog: catalog.NewService(catalog.NewMemStore()),
		Log:     zap.NewNop(),
	}
	ts := httptest.NewServer(catalog.NewHandler(s, catalog.HTTPDeps{Service: "catalog"}))
	t.Cleanup(ts.Close)

	return catalogclient.New(ts.URL + "/")
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	p, err := c.Add(ctx, catalog.NewProduct{Name: "Blue Mug", Price: 12.5, Description: "ceramic"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.ID == "" || p.Name != "Blue Mug" {
		t.Fatalf("unexpected product: %+v", p)
	}

	got, err := c.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != p {
		t.Fatalf("get=%+v want %+v", got, p)
	}

	list, err := c.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%v err=%v", list, err)
	}

	hits, err := c.Search(ctx, "CERAMIC")
	if err != nil || len(hits) != 1 {
		t.Fatalf("search=%v err=%v", hits, err)
	}

	if err := c.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(ctx, p.ID); !errors.Is(err, catalogclient.ErrNotFound) {
		t.Fatalf("second delete err=%v want ErrNotFound", err)
	}
	if _, err := c.Get(ctx, p.ID); !errors.Is(err, catalogclient.ErrNotFound) {
		t.Fatalf("get after delete err=%v want ErrNotFound", err)
	}
}

func TestClient_BadRequest(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.Add(ctx, catalog.NewProduct{Name: "", Price: 1})
	if !errors.Is(err, catalogclient.ErrBadRequest) {
		t.Fatalf("add err=%v want ErrBadRequest", err)
	}

	_, err = c.Search(ctx, "")
	if !errors.Is(err, catalogclient.ErrBadRequest) {
		t.Fatalf("search err=%v want ErrBadRequest", err)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to fetch products"}`))
	}))
	t.Cleanup(ts.Close)

	_, err := catalogclient.New(ts.URL).List(context.Background())
	if !errors.Is(err, catalogclient.ErrBadStatus) {
		t.Fatalf("err=%v want ErrBadStatus", err)
	}
	if want := "failed to fetch products"; !strings.Contains(err.Error(), want) {
		t.Fatalf("err=%q should carry %q", err.Error(), want)
	}
}

func TestClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := catalogclient.New(url).List(context.Background())
	if !errors.Is(err, catalogclient.ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}
