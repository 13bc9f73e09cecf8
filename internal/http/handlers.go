package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"adminsum/internal/core"
	"adminsum/internal/csvexport"
	"adminsum/internal/derive"
)

type statusResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  s.channel.Status().String(),
		Records: len(s.channel.Snapshot()),
	})
}

// filterParams are the UI-selected filters shared by the read endpoints.
func filterParams(r *http.Request) (category, term string) {
	q := r.URL.Query()
	category = strings.TrimSpace(q.Get("category"))
	if category == "" {
		category = derive.CategoryAll
	}
	return category, q.Get("q")
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	category, term := filterParams(r)
	records := derive.Filtered(s.channel.Snapshot(), category, term)
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, derive.Categories(s.channel.Snapshot()))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	category, term := filterParams(r)
	filtered := derive.Filtered(s.channel.Snapshot(), category, term)
	writeJSON(w, http.StatusOK, derive.Stats(filtered))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	category, term := filterParams(r)
	limit := derive.DefaultChartLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, &core.ValidationError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		limit = n
	}
	filtered := derive.Filtered(s.channel.Snapshot(), category, term)
	writeJSON(w, http.StatusOK, derive.ChartPoints(filtered, limit))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var draft core.Draft
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, r, &core.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	record, err := s.service.Add(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleCreateRecords(w http.ResponseWriter, r *http.Request) {
	var drafts []core.Draft
	if err := decodeBody(r, &drafts); err != nil {
		writeError(w, r, &core.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if len(drafts) == 0 {
		writeError(w, r, &core.ValidationError{Field: "body", Reason: "must contain at least one draft"})
		return
	}

	records, err := s.service.AddMany(r.Context(), drafts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clearRequest struct {
	IDs []string `json:"ids"`
}

type clearResponse struct {
	Deleted int `json:"deleted"`
}

// handleClear deletes by explicit ids. Without a body it clears the ids
// currently in the snapshot, so inserts arriving during the request survive.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, &core.ValidationError{Field: "body", Reason: err.Error()})
			return
		}
	}

	ids := req.IDs
	if ids == nil {
		for _, rec := range s.channel.Snapshot() {
			ids = append(ids, rec.ID)
		}
	}

	if err := s.service.Clear(r.Context(), ids); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Deleted: len(ids)})
}

type generateRequest struct {
	Topic string `json:"topic"`
}

// handleGenerate produces mock drafts for a topic and inserts them. Without
// a configured generator it reports zero records rather than failing.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, &core.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, r, &core.ValidationError{Field: "topic", Reason: "must not be empty"})
		return
	}

	drafts, err := s.generator.Generate(r.Context(), req.Topic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(drafts) == 0 {
		writeJSON(w, http.StatusOK, []core.Record{})
		return
	}

	records, err := s.service.AddMany(r.Context(), drafts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	category, term := filterParams(r)
	q := r.URL.Query()

	var dateRange csvexport.DateRange
	if v := q.Get("start"); v != "" {
		start, err := parseDate(v)
		if err != nil {
			writeError(w, r, &core.ValidationError{Field: "start", Reason: "must be YYYY-MM-DD"})
			return
		}
		dateRange.Start = start
	}
	if v := q.Get("end"); v != "" {
		end, err := parseDate(v)
		if err != nil {
			writeError(w, r, &core.ValidationError{Field: "end", Reason: "must be YYYY-MM-DD"})
			return
		}
		dateRange.End = end
	}

	filtered := derive.Filtered(s.channel.Snapshot(), category, term)
	body := csvexport.Render(filtered, dateRange)
	filename := csvexport.Filename(category, dateRange, time.Now())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write([]byte(body))
}
