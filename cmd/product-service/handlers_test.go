package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/money"
	prod "github.com/MikeMC777/storefront/internal/product"
)

//
// ===== in-memory stub (implements product.Repository) =====
//

type stubRepo struct {
	items     map[int64]*prod.Product
	lastQuery prod.Query
	failList  bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[int64]*prod.Product)}
}

func (s *stubRepo) add(id int64, name, desc, price string, stock int) {
	m, err := money.Parse(price, "BRL")
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	s.items[id] = &prod.Product{ID: id, Name: name, Description: desc, Price: m, Stock: stock, CreatedAt: now, UpdatedAt: now}
}

func (s *stubRepo) List(ctx context.Context, q prod.Query) ([]prod.Product, error) {
	s.lastQuery = q
	if s.failList {
		return nil, errors.New("db down")
	}
	out := make([]prod.Product, 0, len(s.items))
	for _, v := range s.items {
		if q.Q != "" && !containsFold(v.Name, q.Q) && !containsFold(v.Description, q.Q) {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Offset > len(out) {
		return []prod.Product{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(out) || q.Limit <= 0 {
		end = len(out)
	}
	return out[q.Offset:end], nil
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*prod.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, prod.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) UpdatePrice(ctx context.Context, id int64, price money.Money) error {
	p, ok := s.items[id]
	if !ok {
		return prod.ErrNotFound
	}
	p.Price = price
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

//
// ===== tests =====
//

func TestListProducts_Pagination(t *testing.T) {
	repo := newStubRepo()
	repo.add(1, "Prod 1", "desc", "10.00", 5)
	repo.add(2, "Prod 2", "desc", "10.00", 5)
	repo.add(3, "Prod 3", "desc", "10.00", 5)
	r := newRouter(repo, "BRL")

	w := do(r, http.MethodGet, "/products?limit=2&offset=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got prod.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].ID != 2 {
		t.Fatalf("unexpected page: %+v", got.Items)
	}
	if got.Limit != 2 || got.Offset != 1 {
		t.Fatalf("limit=%d offset=%d", got.Limit, got.Offset)
	}
}

func TestListProducts_SearchAndDefaults(t *testing.T) {
	repo := newStubRepo()
	repo.add(1, "Mouse Pro", "wireless", "99.90", 5)
	repo.add(2, "Keyboard", "mechanical", "149.90", 3)
	r := newRouter(repo, "BRL")

	w := do(r, http.MethodGet, "/products?q=%20mouse%20&limit=500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got prod.ListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Q != "mouse" || len(got.Items) != 1 || got.Items[0].Name != "Mouse Pro" {
		t.Fatalf("unexpected result: q=%q items=%+v", got.Q, got.Items)
	}
	if repo.lastQuery.Limit != 20 {
		t.Fatalf("limit should be clamped to the default, got %d", repo.lastQuery.Limit)
	}
	if got.Items[0].Price != "99.90" || got.Items[0].Currency != "BRL" {
		t.Fatalf("price rendered as %s %s", got.Items[0].Currency, got.Items[0].Price)
	}
}

func TestListProducts_StorageFailure(t *testing.T) {
	repo := newStubRepo()
	repo.failList = true
	r := newRouter(repo, "BRL")

	if w := do(r, http.MethodGet, "/products", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetProduct_OK_NotFound_BadID(t *testing.T) {
	repo := newStubRepo()
	repo.add(7, "Headset", "", "149.90", 7)
	r := newRouter(repo, "BRL")

	w := do(r, http.MethodGet, "/products/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v prod.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Name != "Headset" || v.Stock != 7 {
		t.Fatalf("unexpected product: %+v", v)
	}

	if w := do(r, http.MethodGet, "/products/8", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/products/abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdatePrice(t *testing.T) {
	repo := newStubRepo()
	repo.add(5, "Keyboard", "", "19.90", 10)
	r := newRouter(repo, "BRL")

	w := do(r, http.MethodPut, "/products/5/price", `{"price":"24.90"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v prod.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Price != "24.90" || v.Currency != "BRL" {
		t.Fatalf("price not updated: %+v", v)
	}

	cases := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"negative", "/products/5/price", `{"price":"-1.00"}`, http.StatusBadRequest},
		{"not a number", "/products/5/price", `{"price":"abc"}`, http.StatusBadRequest},
		{"bad currency", "/products/5/price", `{"price":"1.00","currency":"XX"}`, http.StatusBadRequest},
		{"bad json", "/products/5/price", `{`, http.StatusBadRequest},
		{"unknown product", "/products/6/price", `{"price":"1.00"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		if w := do(r, http.MethodPut, tc.target, tc.body); w.Code != tc.want {
			t.Fatalf("%s: status=%d want=%d body=%s", tc.name, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestHealthz(t *testing.T) {
	r := newRouter(newStubRepo(), "BRL")
	if w := do(r, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}
