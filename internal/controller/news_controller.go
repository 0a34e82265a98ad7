package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/storeconnect/crm-messaging/internal/provider"
)

type NewsController struct {
	News *provider.Aggregator
}

// GetNews handles GET /api/news.
func (c *NewsController) GetNews(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	articles, err := c.News.Fetch(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"data": articles})
}
