package tracker

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/session"
	"github.com/2beens/gymrank/internal/telemetry/tracing"
	"github.com/2beens/gymrank/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/summary", handler.HandleSummary).Methods("GET").Name("summary")
	r.HandleFunc("/calendar/{year}/{month}", handler.HandleCalendar).Methods("GET").Name("calendar")
	r.HandleFunc("/export/{year}/{month}", handler.HandleExport).Methods("GET").Name("export")
	r.HandleFunc("/activity/{year}/{month}/series", handler.HandleSeries).Methods("GET").Name("activity-series")

	r.HandleFunc("/menus", handler.HandleGetMenus).Methods("GET").Name("get-menus")
	r.HandleFunc("/menus", handler.HandlePutMenus).Methods("PUT").Name("put-menus")
	r.HandleFunc("/settings", handler.HandleGetSettings).Methods("GET").Name("get-settings")
	r.HandleFunc("/settings", handler.HandlePutSettings).Methods("PUT").Name("put-settings")

	r.HandleFunc("/session", handler.HandleSessionState).Methods("GET").Name("session")
	r.HandleFunc("/session/start/{menuId}", handler.HandleSessionStart).Methods("POST").Name("session-start")
	r.HandleFunc("/session/toggle/{item}/{set}", handler.HandleSessionToggle).Methods("POST").Name("session-toggle")
	r.HandleFunc("/session/finish", handler.HandleSessionFinish).Methods("POST").Name("session-finish")

	r.HandleFunc("/activity/{date}", handler.HandleAddEntry).Methods("POST").Name("add-activity")
	r.HandleFunc("/activity/{date}/{id}", handler.HandleRemoveEntry).Methods("DELETE").Name("remove-activity")

	r.HandleFunc("/attendance/{date}", handler.HandleSetAttendance).Methods("PUT").Name("set-attendance")
	r.HandleFunc("/attendance/{date}", handler.HandleClearAttendance).Methods("DELETE").Name("clear-attendance")

	r.HandleFunc("/reservations/{date}/toggle", handler.HandleToggleReservation).Methods("POST").Name("toggle-reservation")
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, handler.service.Summary(r.Context()), http.StatusOK)
}

func (handler *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ym, ok := yearMonthParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, handler.service.Calendar(ym), http.StatusOK)
}

func (handler *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ym, ok := yearMonthParam(w, r)
	if !ok {
		return
	}
	pkg.WriteTextResponseOK(w, handler.service.Export(ym))
}

func (handler *Handler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	ym, ok := yearMonthParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, handler.service.Series(ym), http.StatusOK)
}

func (handler *Handler) HandleGetMenus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, handler.service.Menus(), http.StatusOK)
}

func (handler *Handler) HandlePutMenus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.menus.put")
	defer span.End()

	var menus map[string]records.MenuDefinition
	if err := json.NewDecoder(r.Body).Decode(&menus); err != nil {
		log.Errorf("put menus, unmarshal json: %s", err)
		http.Error(w, "error, invalid menus json", http.StatusBadRequest)
		return
	}
	if menus == nil {
		http.Error(w, "error, menus missing", http.StatusBadRequest)
		return
	}

	if err := handler.service.PutMenus(ctx, menus); err != nil {
		writeError(w, "put menus", err)
		return
	}
	writeJSON(w, handler.service.Menus(), http.StatusOK)
}

func (handler *Handler) HandleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, handler.service.Settings(), http.StatusOK)
}

func (handler *Handler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.settings.put")
	defer span.End()

	// omitted fields keep their current values
	settings := handler.service.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		log.Errorf("put settings, unmarshal json: %s", err)
		http.Error(w, "error, invalid settings json", http.StatusBadRequest)
		return
	}

	if err := handler.service.PutSettings(ctx, settings); err != nil {
		writeError(w, "put settings", err)
		return
	}
	writeJSON(w, handler.service.Settings(), http.StatusOK)
}

func (handler *Handler) HandleSessionState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, handler.service.SessionState(), http.StatusOK)
}

func (handler *Handler) HandleSessionStart(w http.ResponseWriter, r *http.Request) {
	state, err := handler.service.StartSession(mux.Vars(r)["menuId"])
	if err != nil {
		writeError(w, "start session", err)
		return
	}
	writeJSON(w, state, http.StatusOK)
}

func (handler *Handler) HandleSessionToggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	item, err := strconv.Atoi(vars["item"])
	if err != nil {
		http.Error(w, "error, item index invalid", http.StatusBadRequest)
		return
	}
	set, err := strconv.Atoi(vars["set"])
	if err != nil {
		http.Error(w, "error, set index invalid", http.StatusBadRequest)
		return
	}

	state, err := handler.service.ToggleSet(item, set)
	if err != nil {
		writeError(w, "toggle set", err)
		return
	}
	writeJSON(w, state, http.StatusOK)
}

func (handler *Handler) HandleSessionFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.finish")
	defer span.End()

	if _, err := handler.service.FinishSession(ctx); err != nil {
		writeError(w, "finish session", err)
		return
	}
	writeJSON(w, handler.service.Summary(ctx), http.StatusOK)
}

type addEntryRequest struct {
	Reps *int `json:"reps"`
	Sets *int `json:"sets"`
}

func (handler *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.add")
	defer span.End()

	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	// an empty body logs one entry with the default reps and sets
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Errorf("add activity entry, unmarshal json: %s", err)
		http.Error(w, "error, invalid activity entry json", http.StatusBadRequest)
		return
	}

	entry, err := handler.service.AddEntry(ctx, date, req.Reps, req.Sets)
	if err != nil {
		writeError(w, "add activity entry", err)
		return
	}

	log.Debugf("activity entry added on %s: %+v", date, entry)
	writeJSON(w, entry, http.StatusCreated)
}

func (handler *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "error, entry id invalid", http.StatusBadRequest)
		return
	}

	handler.service.RemoveEntry(r.Context(), date, id)
	w.WriteHeader(http.StatusNoContent)
}

type setAttendanceRequest struct {
	MenuID string `json:"menuId"`
}

func (handler *Handler) HandleSetAttendance(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	var req setAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set attendance, unmarshal json: %s", err)
		http.Error(w, "error, invalid attendance json", http.StatusBadRequest)
		return
	}
	if req.MenuID == "" {
		http.Error(w, "error, menu id empty", http.StatusBadRequest)
		return
	}

	if err := handler.service.SetAttendance(r.Context(), date, req.MenuID); err != nil {
		writeError(w, "set attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleClearAttendance(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	handler.service.ClearAttendance(r.Context(), date)
	w.WriteHeader(http.StatusNoContent)
}

type reservationResponse struct {
	Date     records.Date `json:"date"`
	Reserved bool         `json:"reserved"`
}

func (handler *Handler) HandleToggleReservation(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	reserved, err := handler.service.ToggleReservation(r.Context(), date)
	if err != nil {
		writeError(w, "toggle reservation", err)
		return
	}
	writeJSON(w, reservationResponse{Date: date, Reserved: reserved}, http.StatusOK)
}

func dateParam(w http.ResponseWriter, r *http.Request) (records.Date, bool) {
	date, err := records.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, "error, date invalid", http.StatusBadRequest)
		return records.Date{}, false
	}
	return date, true
}

func yearMonthParam(w http.ResponseWriter, r *http.Request) (records.YearMonth, bool) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil || year < 1 || year > 9999 {
		http.Error(w, "error, year invalid", http.StatusBadRequest)
		return records.YearMonth{}, false
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "error, month invalid", http.StatusBadRequest)
		return records.YearMonth{}, false
	}
	return records.YearMonth{Year: year, Month: time.Month(month)}, true
}

func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "error, failed to write response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, body, statusCode)
}

// writeError maps domain errors to status codes; anything unknown is a 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, session.ErrMenuNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrMenuInactive),
		errors.Is(err, session.ErrInvalidSetReference),
		errors.Is(err, ErrInvalidEntry),
		errors.Is(err, ErrInvalidMenus),
		errors.Is(err, ErrInvalidSettings),
		errors.Is(err, records.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrIncompleteSession),
		errors.Is(err, session.ErrNoActiveSession):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, records.ErrReservationInPast):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "error, "+op+" failed", http.StatusInternalServerError)
	}
}
