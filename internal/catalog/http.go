package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCatalog/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Catalog *Service
	Log     *zap.Logger

	// WriteLimit, when set, guards the endpoints that change the catalog.
	WriteLimit func(http.Handler) http.Handler
	Index      http.Handler
}

type addProductResp struct {
	Message string  `json:"message"`
	Product Product `json:"product"`
}

type deleteProductResp struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	if s.Index != nil {
		r.Get("/", s.Index.ServeHTTP)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/search", s.search)

	r.Group(func(wr chi.Router) {
		if s.WriteLimit != nil {
			wr.Use(s.WriteLimit)
		}
		wr.Post("/add-product", s.add)
		wr.Delete("/delete-product", s.remove)
		wr.Delete("/delete-product/", s.remove)
		wr.Delete("/delete-product/{id}", s.remove)
	})

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Catalog.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var in NewProduct
	if err := kit.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Catalog.AddProduct(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "Failed to add product", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, addProductResp{Message: "Product added", Product: p})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to fetch products", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "Failed to fetch product", err, zap.String("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, "Search failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Catalog.DeleteProduct(r.Context(), id); err != nil {
		s.writeError(w, r, "Failed to delete product", err, zap.String("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, deleteProductResp{Message: "Product deleted", ID: id})
}

// writeError maps the catalog error vocabulary onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest, verr.Msg, map[string]any{"fields": verr.Fields})
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	default:
		s.logger().Error(msg, append(fields, zap.Error(err))...)
		kit.WriteError(w, r, http.StatusInternalServerError, msg, map[string]any{"cause": err.Error()})
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
