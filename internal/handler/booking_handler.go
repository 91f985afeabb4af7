package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/booking"
	"go-driveway/internal/datetime"
	"go-driveway/internal/model"
	"go-driveway/internal/session"
	"go-driveway/internal/storage"
	"go-driveway/pkg/apierror"
)

const (
	backendSearchPath     = "api/parking-spots/search"
	backendBookingsPath   = "api/bookings"
	backendOwnerSpotsPath = "api/owner/parking-spots"
)

type BookingHandler struct {
	loc         *time.Location
	defaultRate float64
}

func NewBookingHandler(loc *time.Location, defaultRate float64) *BookingHandler {
	if loc == nil {
		loc = time.Local
	}
	return &BookingHandler{loc: loc, defaultRate: defaultRate}
}

// Quote corrects a booking window and prices it without calling the backend.
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var payload model.QuoteRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	policy, err := parsePolicy(payload.Policy)
	if err != nil {
		writeError(w, err)
		return
	}

	window, err := h.window(payload.FromDate, payload.FromTime, payload.ToDate, payload.ToTime)
	if err != nil {
		writeError(w, err)
		return
	}

	fixed, err := window.Normalize(h.loc, policy)
	if err != nil {
		writeError(w, err)
		return
	}

	hours, err := fixed.Duration(h.loc)
	if err != nil {
		writeError(w, err)
		return
	}

	from, to, err := fixed.SearchParams(h.loc)
	if err != nil {
		writeError(w, err)
		return
	}

	rate := h.defaultRate
	if payload.HourlyRate != nil {
		if *payload.HourlyRate < 0 {
			writeError(w, apierror.BadRequest("hourly_rate cannot be negative", "hourly_rate"))
			return
		}
		rate = *payload.HourlyRate
	}

	fromDate := datetime.ConvertToMySQLDate(fixed.FromDate)
	toDate := datetime.ConvertToMySQLDate(fixed.ToDate)

	writeSuccess(w, http.StatusOK, model.QuoteResponse{
		FromDate:      fromDate,
		FromTime:      fixed.FromTime,
		ToDate:        toDate,
		ToTime:        fixed.ToTime,
		Corrected:     toDate != datetime.ConvertToMySQLDate(window.ToDate) || !sameClock(fixed.ToTime, window.ToTime),
		DurationHours: hours,
		HourlyRate:    rate,
		Price:         booking.EstimatePrice(hours, rate),
		From:          from,
		To:            to,
	})
}

// SearchSpots forwards a spot search with the window rendered as backend
// datetimes. Other query parameters pass through untouched.
func (h *BookingHandler) SearchSpots(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	window, err := h.window(query.Get("from_date"), query.Get("from_time"), query.Get("to_date"), query.Get("to_time"))
	if err != nil {
		writeError(w, err)
		return
	}

	fixed, err := window.Normalize(h.loc, booking.AdvanceOneHour)
	if err != nil {
		writeError(w, err)
		return
	}

	from, to, err := fixed.SearchParams(h.loc)
	if err != nil {
		writeError(w, err)
		return
	}

	forward := url.Values{}
	for key, values := range query {
		switch key {
		case "from_date", "from_time", "to_date", "to_time":
			continue
		}
		forward[key] = values
	}
	forward.Set("from", from)
	forward.Set("to", to)

	if lat, lng := query.Get("lat"), query.Get("lng"); lat != "" && lng != "" {
		rememberLocation(r, s, lat, lng)
	}

	resp, err := s.Client(apiclient.RoleUser).Get(r.Context(), backendSearchPath, forward)
	if err != nil {
		writeError(w, backendError(err))
		return
	}

	writeProxied(w, resp)
}

func (h *BookingHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, apiclient.RoleUser, backendBookingsPath)
}

func (h *BookingHandler) OwnerSpots(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	// an owner call without owner token would 401 and end the whole session
	if s.State().OwnerAccessToken == "" {
		writeError(w, apierror.New("OWNER_LOGIN_REQUIRED", "owner login required", "", http.StatusUnauthorized))
		return
	}

	proxy(w, r, apiclient.RoleOwner, backendOwnerSpotsPath)
}

func proxy(w http.ResponseWriter, r *http.Request, role apiclient.Role, path string) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	resp, err := s.Client(role).Get(r.Context(), path, r.URL.Query())
	if err != nil {
		writeError(w, backendError(err))
		return
	}

	writeProxied(w, resp)
}

func (h *BookingHandler) window(fromDate string, fromTime string, toDate string, toTime string) (booking.Window, error) {
	from, err := h.parseDay("from_date", fromDate)
	if err != nil {
		return booking.Window{}, err
	}
	to, err := h.parseDay("to_date", toDate)
	if err != nil {
		return booking.Window{}, err
	}

	if strings.TrimSpace(fromTime) == "" || strings.TrimSpace(toTime) == "" {
		return booking.Window{}, apierror.BadRequest("from_time and to_time are required", "")
	}

	return booking.Window{FromDate: from, FromTime: fromTime, ToDate: to, ToTime: toTime}, nil
}

func (h *BookingHandler) parseDay(field string, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, apierror.BadRequest(field+" is required", field)
	}

	day, err := datetime.GetDateOnly(raw, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}

	parsed, err := time.ParseInLocation("2006-01-02", day, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, datetime.ErrMalformed)
	}
	return parsed, nil
}

func parsePolicy(raw string) (booking.Policy, error) {
	switch booking.Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", booking.AdvanceOneHour:
		return booking.AdvanceOneHour, nil
	case booking.ClampToFrom:
		return booking.ClampToFrom, nil
	default:
		return "", apierror.BadRequest("policy must be advance or clamp", "policy")
	}
}

func sameClock(a string, b string) bool {
	left, err := datetime.ParseClock(a)
	if err != nil {
		return false
	}
	right, err := datetime.ParseClock(b)
	if err != nil {
		return false
	}
	return left.Hour24() == right.Hour24() && left.Minute == right.Minute
}

// rememberLocation keeps the last searched coordinates for the next visit.
func rememberLocation(r *http.Request, s *session.Session, lat string, lng string) {
	latitude, latErr := strconv.ParseFloat(lat, 64)
	longitude, lngErr := strconv.ParseFloat(lng, 64)
	if latErr != nil || lngErr != nil {
		return
	}

	encoded, err := json.Marshal(map[string]float64{"lat": latitude, "lng": longitude})
	if err != nil {
		return
	}

	if err := s.Remember(r.Context(), storage.KeyUserLocation, string(encoded)); err != nil {
		slog.Warn("failed to remember location", "session_id", s.ID(), "error", err)
	}
}
