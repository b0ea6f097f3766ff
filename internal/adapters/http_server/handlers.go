package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"volcano_camping/internal/app"
	"volcano_camping/internal/domain"
)

const reservationBase = "/api/v1/reservation"

const maxBodyBytes = 1 << 16

type Handlers struct {
	Booking  *app.BookingService
	validate *requestValidator
}

func NewHandlers(b *app.BookingService) *Handlers {
	return &Handlers{Booking: b, validate: newRequestValidator()}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post(reservationBase, h.createReservation)
	// static segment, matched before {id}
	s.mux.Get(reservationBase+"/availabilities", h.availability)
	s.mux.Get(reservationBase+"/{id}", h.getReservation)
	s.mux.Put(reservationBase+"/{id}", h.updateReservation)
	s.mux.Delete(reservationBase+"/{id}", h.cancelReservation)
}

func writeProblem(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: http.StatusText(status), Status: status, Detail: detail, Code: code}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError is the single place error kinds become status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Str("route", r.URL.Path).Str("method", r.Method).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	status := http.StatusBadRequest
	if de.Kind == domain.KindNotFound {
		status = http.StatusNotFound
	}
	writeProblem(w, status, string(de.Kind), de.Message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable answers 304 when the client already holds this representation.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.InvalidInput("Malformed request body: " + err.Error())
	}
	return nil
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Booking.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", reservationBase+"/"+res.ID)
	writeJSON(w, http.StatusCreated, toResponse(res))
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Booking.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, toResponse(res))
}

func (h *Handlers) updateReservation(w http.ResponseWriter, r *http.Request) {
	var req updateReservationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Booking.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toResponse(res))
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Booking.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	free, err := h.Booking.Availability(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, free)
}

// queryDate returns the zero Date when the parameter is absent.
func queryDate(r *http.Request, name string) (domain.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return domain.Date{}, domain.InvalidInput(name + " must be a date in YYYY-MM-DD format.")
	}
	return d, nil
}
