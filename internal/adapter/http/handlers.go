package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/public-data-proxy/internal/aggregate"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
)

// Cache-Control values per route family.
const (
	cacheTrends   = "max-age=3600, stale-while-revalidate=600"
	cacheNone     = "no-store"
	cacheInsurers = "public, max-age=0, s-maxage=900"
	cacheRecent   = "public, max-age=3600"
	cacheArchive  = "public, max-age=86400"

	maxBodyBytes = 1 << 20
)

type (
	TornadoService interface {
		Run(ctx context.Context, req aggregate.TornadoRequest) (aggregate.TornadoResult, error)
	}
	ReportsService interface {
		Run(ctx context.Context, date string) (aggregate.ReportsResult, error)
	}
	YieldsService interface {
		Run(ctx context.Context, rangeDays int) (aggregate.YieldsResult, error)
	}
	LaborService interface {
		Run(ctx context.Context, req aggregate.LaborRequest) (aggregate.LaborResult, error)
	}
	BuybacksService interface {
		Run(ctx context.Context, tickers []string) (aggregate.BuybacksResult, error)
	}
	DashboardService interface {
		Run(ctx context.Context) (aggregate.DashboardResult, error)
	}
	WinterService interface {
		Run(ctx context.Context, start, end string) (aggregate.WinterResult, error)
	}
	CompareService interface {
		Run(ctx context.Context, req aggregate.CompareRequest) (aggregate.CompareResult, error)
	}
)

// Services are the aggregations served under /api. YieldRangeDays is used
// when a request omits range.
type Services struct {
	Tornado        TornadoService
	Reports        ReportsService
	Yields         YieldsService
	YieldRangeDays int
	Labor          LaborService
	Buybacks       BuybacksService
	Dashboard      DashboardService
	Winter         WinterService
	Compare        CompareService
}

type handlers struct {
	svc    Services
	logger *slog.Logger
}

func (h *handlers) tornadoTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := intParam(q.Get("startYear"), "startYear")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	current, err := intParam(q.Get("currentYear"), "currentYear")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Tornado.Run(r.Context(), aggregate.TornadoRequest{
		StartYear:   start,
		CurrentYear: current,
		ByState:     q.Get("byState") == "true",
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheTrends, res)
}

func (h *handlers) stormReports(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reports.Run(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheNone, res)
}

func (h *handlers) yieldCurves(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query().Get("range"), "range")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if days == 0 {
		days = h.svc.YieldRangeDays
	}
	res, err := h.svc.Yields.Run(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheNone, res)
}

// laborBody is the POST form of a BLS request. seriesIds is accepted as an
// alias of seriesId.
type laborBody struct {
	SeriesID  []string `json:"seriesId"`
	SeriesIDs []string `json:"seriesIds"`
	StartYear int      `json:"startYear"`
	EndYear   int      `json:"endYear"`
	Latest    int      `json:"latest"`
}

func (h *handlers) labor(w http.ResponseWriter, r *http.Request) {
	var req aggregate.LaborRequest
	if r.Method == http.MethodPost {
		var body laborBody
		if err := decodeBody(w, r, &body); err != nil {
			h.fail(w, r, err)
			return
		}
		req = aggregate.LaborRequest{
			SeriesIDs: append(body.SeriesID, body.SeriesIDs...),
			StartYear: body.StartYear,
			EndYear:   body.EndYear,
			Latest:    body.Latest,
		}
	} else {
		q := r.URL.Query()
		// seriesId may repeat, and each value may be a comma list.
		for _, v := range append(q["seriesId"], q["seriesIds"]...) {
			req.SeriesIDs = append(req.SeriesIDs, splitList(v)...)
		}
		var errs [3]error
		req.StartYear, errs[0] = intParam(q.Get("startYear"), "startYear")
		req.EndYear, errs[1] = intParam(q.Get("endYear"), "endYear")
		req.Latest, errs[2] = intParam(q.Get("latest"), "latest")
		if err := errors.Join(errs[:]...); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	res, err := h.svc.Labor.Run(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheNone, res)
}

func (h *handlers) insurerBuybacks(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Buybacks.Run(r.Context(), splitList(r.URL.Query().Get("tickers")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheInsurers, res)
}

func (h *handlers) insurerDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Dashboard.Run(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheInsurers, res)
}

func (h *handlers) winterStorm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Winter.Run(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cache := cacheArchive
	if res.Recent() {
		cache = cacheRecent
	}
	respond(w, cache, res)
}

func (h *handlers) winterCompare(w http.ResponseWriter, r *http.Request) {
	var req aggregate.CompareRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Compare.Run(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, cacheNone, res)
}

// errorBody is the JSON shape of every failed API response.
type errorBody struct {
	Error  string             `json:"error"`
	Errors []domain.UnitError `json:"errors,omitempty"`
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.StatusFor(err)
	body := errorBody{Error: err.Error()}
	var be *domain.BatchError
	if errors.As(err, &be) {
		body.Errors = be.Errors
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	w.Header().Set("Cache-Control", cacheNone)
	sharedobs.WriteJSON(w, status, body)
}

func respond(w http.ResponseWriter, cacheControl string, v any) {
	w.Header().Set("Cache-Control", cacheControl)
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.Invalidf("Request body must be valid JSON.")
	}
	return nil
}

// intParam parses an optional integer query parameter. Absent is zero.
func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Invalidf("%s must be an integer.", name)
	}
	return n, nil
}

// splitList splits a comma list, trimming parts and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
