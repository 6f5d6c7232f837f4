package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatrinivas/internal/metrics"
	"yatrinivas/internal/models"
	"yatrinivas/internal/pricing"
	"yatrinivas/internal/service"

	"github.com/go-chi/chi/v5"
)

const (
	featuredLimit = 3
	// availabilityWindow is the default calendar span when "to" is omitted.
	availabilityWindow = 90
)

type lodgesResponse struct {
	Lodges []*models.Lodge `json:"lodges"`
	Count  int             `json:"count"`
}

// GET /api/lodges
func (s *Server) handleListLodges(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("lodges")

	filter, err := parseLodgeFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lodges, err := s.lodges.Search(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lodgesResponse{Lodges: lodges, Count: len(lodges)})
}

func parseLodgeFilter(q url.Values) (service.LodgeFilter, error) {
	f := service.DefaultLodgeFilter()

	if v := q.Get("min_price"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid min_price")
		}
		f.MinPrice = n
	}
	if v := q.Get("max_price"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid max_price")
		}
		f.MaxPrice = n
	}
	if f.MinPrice > f.MaxPrice {
		return f, fmt.Errorf("min_price must not exceed max_price")
	}
	if v := q.Get("guests"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid guests")
		}
		f.Guests = n
	}
	f.Amenities = splitList(q.Get("amenities"))
	for _, t := range splitList(q.Get("types")) {
		lt := models.LodgeType(t)
		if !lt.Valid() {
			return f, fmt.Errorf("unknown lodge type %q", t)
		}
		f.Types = append(f.Types, lt)
	}
	return f, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GET /api/lodges/featured
func (s *Server) handleFeaturedLodges(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("lodges_featured")

	lodges, err := s.lodges.Featured(r.Context(), featuredLimit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lodgesResponse{Lodges: lodges, Count: len(lodges)})
}

// GET /api/lodges/{id}
func (s *Server) handleGetLodge(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("lodge")

	lodge, err := s.lodges.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lodge)
}

// GET /api/lodges/{id}/quote?check_in=&check_out=&guests=
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("lodge_quote")

	q := r.URL.Query()
	if q.Get("check_in") == "" || q.Get("check_out") == "" {
		writeError(w, http.StatusBadRequest, "check_in and check_out are required")
		return
	}
	guests := s.defaultGuests
	if v := q.Get("guests"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid guests")
			return
		}
		guests = n
	}

	quote, err := s.lodges.Quote(r.Context(), chi.URLParam(r, "id"), q.Get("check_in"), q.Get("check_out"), guests)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type availabilityResponse struct {
	LodgeID     string   `json:"lodge_id"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	BookedDates []string `json:"booked_dates"`
}

// GET /api/lodges/{id}/availability?from=&to=
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("lodge_availability")

	q := r.URL.Query()
	from := time.Now().UTC()
	if v := q.Get("from"); v != "" {
		d, err := pricing.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
		from = d
	}
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	to := from.AddDate(0, 0, availabilityWindow)
	if v := q.Get("to"); v != "" {
		d, err := pricing.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
			return
		}
		to = d
	}

	id := chi.URLParam(r, "id")
	dates, err := s.lodges.BookedDates(r.Context(), id, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		LodgeID:     id,
		From:        from.Format(models.DateLayout),
		To:          to.Format(models.DateLayout),
		BookedDates: dates,
	})
}
