package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesotunes/storefront/internal/models"
)

func fakeES(t *testing.T, handler http.HandlerFunc) *ProductIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	return NewProductIndex(client, "products")
}

func TestProductIndex_Index(t *testing.T) {
	var gotPath string
	var doc map[string]any
	idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &doc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	p := &models.Product{ID: uuid.New(), StoreID: uuid.New(), Name: "Vinyl", Price: decimal.NewFromInt(25000), Status: models.ProductActive}
	require.NoError(t, idx.Index(context.Background(), p))

	assert.True(t, strings.HasPrefix(gotPath, "/products/_doc/"+p.ID.String()), gotPath)
	assert.Equal(t, "Vinyl", doc["name"])
	assert.Equal(t, "25000.00", doc["price"])
}

func TestProductIndex_Search(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var query string
	idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query = string(body)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[{"_id":"` + a.String() + `"},{"_id":"not-a-uuid"},{"_id":"` + b.String() + `"}]}}`))
	})

	ids, total, err := idx.Search(context.Background(), "vinyl", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.Contains(t, query, `"multi_match"`)
	assert.Contains(t, query, `"active"`)
}

func TestProductIndex_ErrorStatus(t *testing.T) {
	idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
	err = idx.Index(context.Background(), &models.Product{ID: uuid.New()})
	require.Error(t, err)
}
