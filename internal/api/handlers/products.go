// Package handlers holds the HTTP handlers for the read-only API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"garimpeiro/internal/contracts"
	"garimpeiro/internal/storage/postgres"
	"garimpeiro/pkg/logger"
)

const (
	defaultListLimit = 30
	maxListLimit     = 200
)

// ProductsHandler serves mined products and their price history.
type ProductsHandler struct {
	products *postgres.ProductRepository
	history  *postgres.PriceHistoryRepository
	logger   *logger.Logger
}

// NewProductsHandler creates a new products handler
func NewProductsHandler(products *postgres.ProductRepository, history *postgres.PriceHistoryRepository, log *logger.Logger) *ProductsHandler {
	return &ProductsHandler{
		products: products,
		history:  history,
		logger:   log,
	}
}

// GetNiches returns the distinct niches present in the store.
// GET /api/v1/niches
func (h *ProductsHandler) GetNiches(w http.ResponseWriter, r *http.Request) {
	niches, err := h.products.Niches(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list niches")
		respondError(w, http.StatusInternalServerError, "Failed to list niches")
		return
	}
	if niches == nil {
		niches = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":  len(niches),
			"niches": niches,
		},
	})
}

// ListProducts returns products for a niche ordered by score.
// GET /api/v1/products?niche=...&limit=30
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	niche := r.URL.Query().Get("niche")
	if niche == "" {
		respondError(w, http.StatusBadRequest, "Missing required query parameter: niche")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	products, err := h.products.ListByNiche(r.Context(), niche, limit)
	if err != nil {
		h.logger.WithError(err).WithField("niche", niche).Error("Failed to list products")
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}
	if products == nil {
		products = []contracts.Product{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"niche":    niche,
			"count":    len(products),
			"products": products,
		},
	})
}

// GetProduct returns a single product by id.
// GET /api/v1/products/{id}
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.WithError(err).WithField("product_id", id).Error("Failed to get product")
		respondError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    product,
	})
}

// GetHistory returns a product's price observations, newest first.
// GET /api/v1/products/{id}/history?limit=30
func (h *ProductsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	entries, err := h.history.ListByProduct(r.Context(), id, limit)
	if err != nil {
		h.logger.WithError(err).WithField("product_id", id).Error("Failed to get price history")
		respondError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}
	if entries == nil {
		entries = []contracts.PriceHistoryEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"product_id": id,
			"count":      len(entries),
			"history":    entries,
		},
	})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
