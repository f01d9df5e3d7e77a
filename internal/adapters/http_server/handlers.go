// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"chalet_booking/internal/adapters/spreadsheet"
	"chalet_booking/internal/app"
	"chalet_booking/internal/domain"
)

const inquiriesPageSize = 10

var validate = validator.New()

type Handlers struct {
	Q        *app.QueryService
	Bookings *app.BookingService
	Imports  *app.ImportService

	BookingLimiter *rate.Limiter
	ImportMaxBytes int64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties", h.searchProperties)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Get("/v1/properties/{id}/calendar", h.getCalendar)
	s.mux.With(RateLimit(h.BookingLimiter)).Post("/v1/bookings", h.createBooking)
	s.mux.Get("/v1/bookings", h.listBookings)
	s.mux.Patch("/v1/bookings/{id}/status", h.setBookingStatus)
	s.mux.Delete("/v1/bookings/{id}", h.deleteBooking)
	s.mux.Post("/v1/availability/import", h.importAvailability)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemType(w, "about:blank", status, title, detail)
}

func writeProblemType(w http.ResponseWriter, typ string, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: typ, Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
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
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
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

// ---- properties ----

type propertyDTO struct {
	ID        int64    `json:"id"`
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Guests    *int     `json:"guests"`
	Featured  bool     `json:"featured"`
	Amenities []string `json:"amenities"`
}

func toPropertyDTO(p domain.Property) propertyDTO {
	return propertyDTO{
		ID:        p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Category:  p.Category,
		Guests:    p.Guests,
		Featured:  p.Featured,
		Amenities: p.AmenitySlugs(),
	}
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	p, err := h.Q.GetProperty(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeWithETag(w, r, toPropertyDTO(p))
}

func (h *Handlers) searchProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f domain.SearchFilters

	if gs := q.Get("guests"); gs != "" {
		n, err := strconv.Atoi(gs)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid guests", "guests must be a non-negative integer")
			return
		}
		// guests=0 is a valid filter: any known capacity satisfies it, but
		// unknown-capacity properties still drop out.
		f.MinGuests = &n
	}
	if am := q.Get("amenities"); am != "" {
		for _, s := range strings.Split(am, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.RequiredAmenitySlugs = append(f.RequiredAmenitySlugs, s)
			}
		}
	}
	startStr, endStr := q.Get("start"), q.Get("end")
	if (startStr == "") != (endStr == "") {
		writeProblem(w, http.StatusBadRequest, "Invalid date filter", "start and end must be provided together")
		return
	}
	if startStr != "" {
		start, err1 := time.ParseInLocation(time.DateOnly, startStr, time.UTC)
		end, err2 := time.ParseInLocation(time.DateOnly, endStr, time.UTC)
		if err1 != nil || err2 != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid date filter", "dates must be YYYY-MM-DD")
			return
		}
		if !end.After(start) {
			writeProblem(w, http.StatusBadRequest, "Invalid date filter", "end must fall after start")
			return
		}
		f.Start, f.End = &start, &end
	}
	if name := q.Get("name"); name != "" {
		f.Name = &name
	}
	if cat := q.Get("category"); cat != "" {
		f.Category = &cat
	}
	if ft := q.Get("featured"); ft != "" {
		b, err := strconv.ParseBool(ft)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid featured", "featured must be a boolean")
			return
		}
		f.Featured = &b
	}

	props, err := h.Q.SearchProperties(r.Context(), f)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]propertyDTO, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyDTO(p))
	}
	writeWithETag(w, r, map[string]any{"properties": out})
}

// ---- calendar ----

type occupiedDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h *Handlers) getCalendar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if fs := r.URL.Query().Get("from"); fs != "" {
		from, err = time.ParseInLocation(time.DateOnly, fs, time.UTC)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid from", "from must be YYYY-MM-DD")
			return
		}
	}
	if _, err := h.Q.GetProperty(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	ranges, err := h.Q.OccupiedRanges(r.Context(), id, from)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]occupiedDTO, 0, len(ranges))
	for _, rg := range ranges {
		out = append(out, occupiedDTO{Start: rg.Start.Format(time.DateOnly), End: rg.End.Format(time.DateOnly)})
	}
	writeWithETag(w, r, map[string]any{
		"from":     from.Format(time.DateOnly),
		"occupied": out,
	})
}

// ---- bookings ----

type createBookingDTO struct {
	PropertyID  int64  `json:"property_id" validate:"required,gt=0"`
	CheckIn     string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests      *int   `json:"guests" validate:"omitempty,gt=0"`
	ClientName  string `json:"client_name" validate:"required,min=2,max=120"`
	ClientPhone string `json:"client_phone" validate:"required,min=5,max=40"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var dto createBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := validate.Struct(dto); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	checkIn, _ := time.ParseInLocation(time.DateOnly, dto.CheckIn, time.UTC)
	checkOut, _ := time.ParseInLocation(time.DateOnly, dto.CheckOut, time.UTC)

	id, err := h.Bookings.CreateInquiry(r.Context(), app.BookingRequest{
		PropertyID:  dto.PropertyID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      dto.Guests,
		ClientName:  dto.ClientName,
		ClientPhone: dto.ClientPhone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			writeProblem(w, http.StatusBadRequest, "Invalid range", "check_out must fall after check_in")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type bookingDTO struct {
	ID           int64  `json:"id"`
	PropertyID   int64  `json:"property_id"`
	PropertyName string `json:"property_name"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Guests       *int   `json:"guests"`
	ClientName   string `json:"client_name"`
	ClientPhone  string `json:"client_phone"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	return bookingDTO{
		ID:           b.ID,
		PropertyID:   b.PropertyID,
		PropertyName: b.PropertyName,
		CheckIn:      b.CheckIn.Format(time.DateOnly),
		CheckOut:     b.CheckOut.Format(time.DateOnly),
		Guests:       b.Guests,
		ClientName:   b.ClientName,
		ClientPhone:  b.ClientPhone,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	iq := domain.InquiriesQuery{
		Query:  q.Get("query"),
		SortBy: q.Get("sortBy"),
		Desc:   q.Get("order") != "asc",
		Limit:  inquiriesPageSize,
	}
	if ss := q.Get("status"); ss != "" {
		st := domain.BookingStatus(ss)
		switch st {
		case domain.StatusPending, domain.StatusConfirmed, domain.StatusCancelled:
			iq.Status = &st
		default:
			writeProblem(w, http.StatusBadRequest, "Invalid status", "status must be pending, confirmed or cancelled")
			return
		}
	}
	page := 1
	if ps := q.Get("page"); ps != "" {
		p, err := strconv.Atoi(ps)
		if err != nil || p <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid page", "page must be a positive integer")
			return
		}
		page = p
	}
	iq.Offset = (page - 1) * inquiriesPageSize

	res, err := h.Q.ListInquiries(r.Context(), iq)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	items := make([]bookingDTO, 0, len(res.Items))
	for _, b := range res.Items {
		items = append(items, toBookingDTO(b))
	}
	totalPages := (res.Total + inquiriesPageSize - 1) / inquiriesPageSize
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":    items,
		"total":       res.Total,
		"total_pages": totalPages,
	})
}

type setStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled"`
}

func (h *Handlers) setBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var dto setStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := validate.Struct(dto); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid status", "status must be confirmed or cancelled")
		return
	}

	switch domain.BookingStatus(dto.Status) {
	case domain.StatusConfirmed:
		err = h.Bookings.Confirm(r.Context(), id)
	case domain.StatusCancelled:
		err = h.Bookings.Cancel(r.Context(), id)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeProblem(w, http.StatusNotFound, "Not Found", "booking not found")
		case errors.Is(err, domain.ErrConflict):
			writeProblemType(w, "booking_conflict", http.StatusConflict, "Booking Conflict",
				"another confirmed or blocked booking overlaps this range")
		default:
			writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": dto.Status})
}

func (h *Handlers) deleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Bookings.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "booking not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- availability import ----

func (h *Handlers) importAvailability(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.ImportMaxBytes)
	if err := r.ParseMultipartForm(h.ImportMaxBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "expected a multipart form with a file field")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "missing file field")
		return
	}
	defer file.Close()

	grid, err := spreadsheet.ReadWorkbook(file)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid workbook", "could not read xlsx file")
		return
	}
	parsed, err := spreadsheet.ParseGrid(grid)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedSheet) {
			writeProblem(w, http.StatusBadRequest, "Malformed sheet", err.Error())
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	summary, err := h.Imports.Import(r.Context(), parsed.Nodes, parsed.Ranges)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	dropped := summary.DroppedNodes
	if dropped == nil {
		dropped = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"imported":      summary.Imported,
		"dropped_nodes": dropped,
		"skipped_rows":  parsed.SkippedRows,
	})
}
