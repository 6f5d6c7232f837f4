package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"yatrinivas/internal/metrics"
	"yatrinivas/internal/report"
	"yatrinivas/internal/service"

	"github.com/go-chi/chi/v5"
)

// maxImportBody bounds the bulk import payload.
const maxImportBody = 5 << 20

// multipartOverhead allows for form boundaries and headers around an upload.
const multipartOverhead = 64 << 10

// GET /api/admin/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_dashboard")

	stats, err := s.admin.Dashboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/admin/bookings
func (s *Server) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_bookings")

	page, perPage, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookings, err := s.bookings.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	}
	if page > 0 {
		resp["bookings"] = paginate(bookings, page, perPage)
		resp["page"] = page
		resp["pages"] = (len(bookings) + perPage - 1) / perPage
	}
	writeJSON(w, http.StatusOK, resp)
}

const defaultPerPage = 20

// parsePage reads 1-based page and per_page. page is 0 when absent.
func parsePage(q url.Values) (page, perPage int, err error) {
	perPage = defaultPerPage
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}
	if v := q.Get("per_page"); v != "" {
		if perPage, err = strconv.Atoi(v); err != nil || perPage < 1 || perPage > 200 {
			return 0, 0, fmt.Errorf("per_page must be between 1 and 200")
		}
	}
	return page, perPage, nil
}

func paginate[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PATCH /api/admin/bookings/{id}
func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_update_booking")

	var upd service.BookingUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	booking, err := s.bookings.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// DELETE /api/admin/bookings/{id}
func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_delete_booking")

	id := chi.URLParam(r, "id")
	if err := s.bookings.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.auditLog(r, "booking deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/admin/lodges
func (s *Server) handleCreateLodge(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_create_lodge")

	var in service.LodgeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lodge, err := s.lodges.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lodge)
}

// PUT /api/admin/lodges/{id} merges the given fields into the lodge.
func (s *Server) handleUpdateLodge(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_update_lodge")

	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil || patch == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lodge, err := s.lodges.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lodge)
}

// DELETE /api/admin/lodges/{id}
func (s *Server) handleDeleteLodge(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_delete_lodge")

	id := chi.URLParam(r, "id")
	if err := s.lodges.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.auditLog(r, "lodge deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/admin/lodges/import takes a JSON array of lodges.
func (s *Server) handleImportLodges(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_import_lodges")

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	var inputs []service.LodgeInput
	if err := decodeJSON(r, &inputs); err != nil {
		writeError(w, http.StatusBadRequest, "expected a JSON array of lodges")
		return
	}
	if len(inputs) == 0 {
		writeError(w, http.StatusBadRequest, "no lodges to import")
		return
	}

	lodges, err := s.lodges.Import(r.Context(), inputs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.auditLog(r, "lodges imported", "")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"imported": len(lodges),
		"lodges":   lodges,
	})
}

// POST /api/admin/uploads takes a multipart form with a "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_upload")

	if s.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads are disabled")
		return
	}
	if limit := s.uploader.MaxBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	fileURL, err := s.uploader.Save(r.Context(), header.Filename, file)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"file_url": fileURL})
}

// GET /api/admin/reports/bookings.xlsx
func (s *Server) handleBookingsReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_bookings_report")

	bookings, err := s.bookings.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	stats, err := s.admin.Dashboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBookings(&buf, bookings, stats); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) auditLog(r *http.Request, action, id string) {
	event := s.logger.Info().Str("action", action)
	if id != "" {
		event = event.Str("id", id)
	}
	if c := claimsFrom(r.Context()); c != nil {
		event = event.Str("admin", c.UserID).Str("token_id", c.ID)
	}
	event.Msg("admin action")
}
