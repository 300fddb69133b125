package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priceless/backend/internal/domain"
	"github.com/priceless/backend/internal/observability"
	"github.com/priceless/backend/internal/usecase"
)

// Matcher resolves an ad-hoc keyword query into a cross-market comparison.
type Matcher interface {
	MatchByKeyword(ctx context.Context, query string) (*domain.MatchResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    domain.ComparisonStore
	matcher  Matcher
	cache    domain.CacheRepository
	catalogs []domain.Catalog
	markets  []string
	metrics  *observability.Metrics
}

// NewHandler creates a new HTTP handler. The cache and metrics may be nil.
func NewHandler(store domain.ComparisonStore, matcher Matcher, cache domain.CacheRepository, catalogs []domain.Catalog, metrics *observability.Metrics) *Handler {
	markets := make([]string, len(catalogs))
	for i, catalog := range catalogs {
		markets[i] = catalog.MarketID()
	}
	return &Handler{
		store:    store,
		matcher:  matcher,
		cache:    cache,
		catalogs: catalogs,
		markets:  markets,
		metrics:  metrics,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "priceless-backend",
		"version": "1.0.0",
	})
}

// ListComparisons returns every stored comparison, biggest savings first.
func (h *Handler) ListComparisons(c *gin.Context) {
	comparisons, err := h.listComparisonsCached(c.Request.Context())
	if err != nil {
		log.Printf("[HTTP] listing comparisons failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load price comparisons",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(comparisons),
		"comparisons": comparisons,
	})
}

// GetComparison returns the stored comparison for one canonical product.
func (h *Handler) GetComparison(c *gin.Context) {
	canonicalName := c.Param("canonicalName")

	comparison, err := h.store.GetByCanonicalName(c.Request.Context(), canonicalName)
	if err != nil {
		if errors.Is(err, domain.ErrComparisonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No comparison found for this product",
			})
			return
		}
		log.Printf("[HTTP] fetching comparison %q failed: %v", canonicalName, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load price comparison",
		})
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// MatchProducts handles ad-hoc keyword match requests (GET /match?q=...).
func (h *Handler) MatchProducts(c *gin.Context) {
	query := c.Query("q")

	cacheKey := "match:" + usecase.CleanQuery(query)
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
			if result, ok := cached.(*domain.MatchResult); ok {
				h.metrics.IncMatchQuery("cache_hit")
				c.JSON(http.StatusOK, result)
				return
			}
		}
	}

	result, err := h.matcher.MatchByKeyword(c.Request.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuery):
			h.metrics.IncMatchQuery("invalid")
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Query must contain at least one product keyword",
			})
		case errors.Is(err, domain.ErrNotMultiMarket):
			h.metrics.IncMatchQuery("no_match")
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No matching product sold in at least two markets",
			})
		default:
			h.metrics.IncMatchQuery("error")
			log.Printf("[HTTP] match for %q failed: %v", query, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Match failed",
			})
		}
		return
	}

	h.metrics.IncMatchQuery("ok")
	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), cacheKey, result); err != nil {
			log.Printf("[HTTP] caching match result failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// MarketStats summarizes how often each market is cheapest across all
// stored comparisons.
func (h *Handler) MarketStats(c *gin.Context) {
	comparisons, err := h.listComparisonsCached(c.Request.Context())
	if err != nil {
		log.Printf("[HTTP] loading comparisons for stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute market statistics",
		})
		return
	}

	stats := usecase.ComputeMarketStats(comparisons, h.markets)
	c.JSON(http.StatusOK, gin.H{
		"totalComparisons": len(comparisons),
		"markets":          stats,
	})
}

// CheapestOffers returns the cheapest listing per canonical product across
// all catalogs, single-market products included.
func (h *Handler) CheapestOffers(c *gin.Context) {
	const cacheKey = "offers:cheapest"
	ctx := c.Request.Context()

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			if offers, ok := cached.([]domain.CheapestOffer); ok {
				c.JSON(http.StatusOK, gin.H{
					"count":  len(offers),
					"offers": offers,
				})
				return
			}
		}
	}

	var records []domain.RawProductRecord
	for _, catalog := range h.catalogs {
		catalogRecords, err := catalog.FetchAll(ctx)
		if err != nil {
			log.Printf("[HTTP] fetching %s for cheapest offers failed: %v", catalog.MarketID(), err)
			continue
		}
		records = append(records, catalogRecords...)
	}
	if len(records) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load product listings",
		})
		return
	}

	offers := usecase.CheapestOffers(records)
	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, offers); err != nil {
			log.Printf("[HTTP] caching cheapest offers failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(offers),
		"offers": offers,
	})
}

func (h *Handler) listComparisonsCached(ctx context.Context) ([]domain.PriceComparison, error) {
	const cacheKey = "comparisons:all"

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			if comparisons, ok := cached.([]domain.PriceComparison); ok {
				return comparisons, nil
			}
		}
	}

	comparisons, err := h.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, comparisons); err != nil {
			log.Printf("[HTTP] caching comparisons failed: %v", err)
		}
	}
	return comparisons, nil
}
