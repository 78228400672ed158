package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/apex/log"
)

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("[WriteJSON] encode failed")
	}
}

// MaxPage bounds the page number so Offset cannot overflow.
const MaxPage = 1_000_000

// Page is a parsed page/page_size pair.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ParsePage reads page and page_size query params, clamping page_size to max.
func ParsePage(r *http.Request, def, max int) Page {
	p := Page{Number: 1, Size: def}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Number = min(v, MaxPage)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		p.Size = v
	}
	if p.Size > max {
		p.Size = max
	}
	return p
}

// Paged is the envelope for list endpoints.
type Paged[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
