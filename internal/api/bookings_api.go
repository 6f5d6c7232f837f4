package api

import (
	"bytes"
	"fmt"
	"net/http"

	"yatrinivas/internal/invoice"
	"yatrinivas/internal/metrics"
	"yatrinivas/internal/service"

	"github.com/go-chi/chi/v5"
)

// POST /api/checkout
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("checkout")

	var req service.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.Checkout(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// GET /api/bookings/{id}
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking")

	booking, err := s.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// GET /api/bookings/{id}/invoice.pdf
func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("invoice_pdf")

	booking, err := s.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	doc := invoice.NewDocument(booking, s.property)
	var buf bytes.Buffer
	if err := invoice.RenderPDF(&buf, doc); err != nil {
		s.writeServiceError(w, r, fmt.Errorf("render invoice %s: %w", booking.BookingNumber, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GET /api/bookings/{id}/invoice.html
func (s *Server) handleInvoiceHTML(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("invoice_html")

	booking, err := s.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := invoice.RenderHTML(&buf, invoice.NewDocument(booking, s.property)); err != nil {
		s.writeServiceError(w, r, fmt.Errorf("render invoice %s: %w", booking.BookingNumber, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// POST /api/contact
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("contact")

	var msg service.ContactMessage
	if err := decodeJSON(r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.contact.Submit(r.Context(), msg); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "sent",
		"message": "Thank you for contacting us. We will get back to you soon.",
	})
}
