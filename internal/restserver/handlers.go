package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chrissnell/shiftline/internal/ingest"
	"github.com/chrissnell/shiftline/internal/timeline"
	"github.com/chrissnell/shiftline/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

var (
	errBadRequest = errors.New("bad request")
	errNoData     = errors.New("no activity")
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetSubjects handles GET /subjects
func (h *Handlers) GetSubjects(w http.ResponseWriter, req *http.Request) {
	subjects, err := h.controller.source.Subjects(req.Context())
	if err != nil {
		h.controller.logger.Errorf("error listing subjects: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error listing subjects")
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	h.write(w, req, SubjectsResponse{Subjects: subjects})
}

// GetDates handles GET /timeline/{subject}/dates
func (h *Handlers) GetDates(w http.ResponseWriter, req *http.Request) {
	subject := mux.Vars(req)["subject"]

	dates, err := h.availableDates(req, subject)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	resp := DatesResponse{SubjectID: subject, Dates: make([]string, len(dates))}
	for i, d := range dates {
		resp.Dates[i] = d.Format(dateLayout)
	}
	if d, ok := timeline.DefaultDate(dates); ok {
		resp.DefaultDate = d.Format(dateLayout)
	}
	h.write(w, req, resp)
}

// GetTimeline handles GET /timeline/{subject}. The window comes from
// start/end (RFC 3339), from date, or else from the subject's default date.
func (h *Handlers) GetTimeline(w http.ResponseWriter, req *http.Request) {
	subject := mux.Vars(req)["subject"]

	win, err := h.requestWindow(req, func() (time.Time, error) {
		dates, err := h.availableDates(req, subject)
		if err != nil {
			return time.Time{}, err
		}
		d, ok := timeline.DefaultDate(dates)
		if !ok {
			return time.Time{}, fmt.Errorf("%w for subject %s", errNoData, subject)
		}
		return d, nil
	})
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	events, err := h.controller.source.Events(req.Context(), subject, win.Start, win.End)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	report, err := h.controller.pipeline.Run(events, win)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	loadDiag, err := h.controller.source.LoadDiagnostics(req.Context())
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	report.Diagnostics.Merge(loadDiag.ForSubject(subject))
	report.ID = uuid.NewString()
	report.SubjectID = subject
	h.controller.metrics.ObserveReport(report)

	h.write(w, req, report)
}

// GetFleetTimeline handles GET /timeline: every subject over one window. A
// window is required.
func (h *Handlers) GetFleetTimeline(w http.ResponseWriter, req *http.Request) {
	win, err := h.requestWindow(req, func() (time.Time, error) {
		return time.Time{}, fmt.Errorf("%w: date or start and end are required", errBadRequest)
	})
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	ctx := req.Context()
	subjects, err := h.controller.source.Subjects(ctx)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var events []timeline.RawEvent
	for _, s := range subjects {
		rows, err := h.controller.source.Events(ctx, s, win.Start, win.End)
		if err != nil {
			h.writeError(w, req, err)
			return
		}
		events = append(events, rows...)
	}

	reports, err := h.controller.pipeline.RunSubjects(ctx, events, win)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if reports == nil {
		reports = []timeline.Report{}
	}
	loadDiag, err := h.controller.source.LoadDiagnostics(ctx)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	id := uuid.NewString()
	for i := range reports {
		reports[i].ID = id
		reports[i].Diagnostics.Merge(loadDiag.ForSubject(reports[i].SubjectID))
		h.controller.metrics.ObserveReport(reports[i])
	}

	h.write(w, req, FleetResponse{
		ReportID:    id,
		Window:      win,
		Reports:     reports,
		Total:       timeline.CombineReports(reports, h.controller.pipeline.Config().Kinds),
		Diagnostics: loadDiag,
	})
}

// requestWindow reads the analysis window from the query string. fallback
// supplies the date when neither date nor start/end is given.
func (h *Handlers) requestWindow(req *http.Request, fallback func() (time.Time, error)) (timeline.Window, error) {
	q := req.URL.Query()
	cfg := h.controller.pipeline.Config()

	start, end := q.Get("start"), q.Get("end")
	if start != "" || end != "" {
		if start == "" || end == "" {
			return timeline.Window{}, fmt.Errorf("%w: start and end must be given together", errBadRequest)
		}
		s, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return timeline.Window{}, fmt.Errorf("%w: invalid start %q", errBadRequest, start)
		}
		e, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return timeline.Window{}, fmt.Errorf("%w: invalid end %q", errBadRequest, end)
		}
		return timeline.NewWindow(s, e)
	}

	var date time.Time
	if raw := q.Get("date"); raw != "" {
		d, err := ingest.ParseDate(raw, cfg.Location)
		if err != nil {
			return timeline.Window{}, fmt.Errorf("%w: invalid date %q", errBadRequest, raw)
		}
		date = d
	} else {
		d, err := fallback()
		if err != nil {
			return timeline.Window{}, err
		}
		date = d
	}
	return cfg.OperationalDay(date)
}

func (h *Handlers) availableDates(req *http.Request, subject string) ([]time.Time, error) {
	events, err := h.controller.source.Events(req.Context(), subject, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	cfg := h.controller.pipeline.Config()
	return timeline.AvailableDates(events, cfg.AnchorHour, cfg.Location), nil
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, map[string]string{"Cache-Control": "no-store"}); err != nil {
		h.controller.logger.Errorf("error encoding response: %v", err)
	}
}

// writeError maps err onto a status code.
func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "error building timeline"
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, timeline.ErrInvalidWindow):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, errNoData):
		status, message = http.StatusNotFound, err.Error()
	default:
		h.controller.logger.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	h.formatter.WriteError(w, req, status, message)
}
