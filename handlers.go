package main

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cloud-omnichannel/orderservice/pkg/client"
	"github.com/cloud-omnichannel/orderservice/pkg/model"
	"github.com/cloud-omnichannel/orderservice/pkg/query"
	"github.com/cloud-omnichannel/orderservice/pkg/repository"
	"github.com/cloud-omnichannel/orderservice/pkg/service"
)

type apiServer struct {
	svc     *service.OrderService
	repo    repository.OrderRepo
	log     *logrus.Logger
	started time.Time
}

type apiResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *apiServer) routes() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1/orders").Subrouter()
	api.HandleFunc("", s.listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.summaryHandler).Methods(http.MethodGet)
	api.HandleFunc("/analytics/trends", s.trendsHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.updateOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/{id}", s.cancelOrderHandler).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	return r
}

func (s *apiServer) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	q := r.URL.Query()

	page, err := parseIntParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		badRequest(log, w, "page must be an integer >= 1")
		return
	}
	size, err := parseIntParam(q.Get("size"), 20)
	if err != nil || size < 1 || size > 100 {
		badRequest(log, w, "size must be an integer between 1 and 100")
		return
	}

	sortOrder := q.Get("sort_order")
	if sortOrder == "" {
		sortOrder = query.SortDesc
	}
	if sortOrder != query.SortAsc && sortOrder != query.SortDesc {
		badRequest(log, w, "sort_order must be asc or desc")
		return
	}
	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = "created_at"
	}

	filter, err := parseFilter(q)
	if err != nil {
		badRequest(log, w, err.Error())
		return
	}

	result, err := s.svc.ListOrders(r.Context(), filter, q.Get("search"), sortBy, sortOrder, page, size)
	if err != nil {
		s.renderError(log, w, errors.Wrap(err, "could not retrieve orders"))
		return
	}

	log.Infof("Retrieved %d orders (page %d)", len(result.Items), page)
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) summaryHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	q := r.URL.Query()

	dateFrom, err := parseTimeParam(q.Get("date_from"))
	if err != nil {
		badRequest(log, w, "date_from is not a valid timestamp")
		return
	}
	dateTo, err := parseTimeParam(q.Get("date_to"))
	if err != nil {
		badRequest(log, w, "date_to is not a valid timestamp")
		return
	}

	summary, err := s.svc.Summary(r.Context(), dateFrom, dateTo)
	if err != nil {
		s.renderError(log, w, errors.Wrap(err, "could not generate summary"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

var validGranularities = map[string]bool{"hour": true, "day": true, "week": true, "month": true}

func (s *apiServer) trendsHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	q := r.URL.Query()

	period := q.Get("period")
	if period == "" {
		period = "30d"
	}
	if !service.TrendPeriodValid(period) {
		badRequest(log, w, "period must be one of 7d, 30d, 90d, 1y")
		return
	}
	granularity := q.Get("granularity")
	if granularity == "" {
		granularity = "day"
	}
	if !validGranularities[granularity] {
		badRequest(log, w, "granularity must be one of hour, day, week, month")
		return
	}

	trends, err := s.svc.Trends(r.Context(), period, granularity)
	if err != nil {
		s.renderError(log, w, errors.Wrap(err, "could not generate trends"))
		return
	}
	log.Infof("Generated trends for %s", period)
	writeJSON(w, http.StatusOK, trends)
}

func (s *apiServer) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	orderID := mux.Vars(r)["id"]
	includeHistory := r.URL.Query().Get("include_customer_history") == "true"

	var (
		order *model.Order
		err   error
	)
	if includeHistory {
		order, err = s.svc.GetOrderWithHistory(r.Context(), orderID)
	} else {
		order, err = s.svc.GetOrder(r.Context(), orderID)
	}
	if err != nil {
		s.renderError(log, w, err)
		return
	}

	log.Infof("Retrieved order %s", orderID)
	writeJSON(w, http.StatusOK, order)
}

func (s *apiServer) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	q := r.URL.Query()

	var in model.OrderCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(log, w, "request body is not valid JSON")
		return
	}

	opts := service.CreateOptions{
		ValidateInventory: q.Get("validate_inventory") != "false",
		SendConfirmation:  q.Get("send_confirmation") != "false",
	}

	order, err := s.svc.CreateOrder(r.Context(), &in, opts)
	if err != nil {
		s.renderError(log, w, err)
		return
	}

	log.Infof("Created order %s", order.OrderID)
	writeJSON(w, http.StatusCreated, apiResponse{
		Success: true,
		Message: "Order created successfully",
		Data: map[string]string{
			"order_id":     order.OrderID,
			"order_number": order.OrderNumber,
		},
	})
}

func (s *apiServer) updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	orderID := mux.Vars(r)["id"]

	var patch model.OrderUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		badRequest(log, w, "request body is not valid JSON")
		return
	}

	if _, err := s.svc.UpdateOrder(r.Context(), orderID, &patch); err != nil {
		s.renderError(log, w, err)
		return
	}

	log.Infof("Updated order %s", orderID)
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Order updated successfully",
		Data:    map[string]string{"order_id": orderID},
	})
}

func (s *apiServer) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.log)
	orderID := mux.Vars(r)["id"]
	q := r.URL.Query()

	reason := q.Get("reason")
	if reason == "" {
		badRequest(log, w, "reason is required")
		return
	}
	refund := q.Get("refund") != "false"

	if err := s.svc.CancelOrder(r.Context(), orderID, reason, refund); err != nil {
		s.renderError(log, w, err)
		return
	}

	log.Infof("Cancelled order %s", orderID)
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Order cancelled successfully",
		Data: map[string]any{
			"order_id":         orderID,
			"refund_processed": refund,
		},
	})
}

func (s *apiServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	count, err := s.repo.Count(r.Context())
	if err != nil {
		s.renderError(requestLogger(r, s.log), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"orders":         count,
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc":     mem.HeapAlloc,
	})
}

// renderError maps the modeled error classes to their status codes; anything
// unmodeled is a defect and becomes a generic 500.
func (s *apiServer) renderError(log logrus.FieldLogger, w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		inventoryErr  *client.InsufficientInventoryError
	)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "Order not found"})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: validationErr.Reason})
	case errors.As(err, &inventoryErr):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: inventoryErr.Error()})
	default:
		log.WithField("error", err).Error("request error")
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "internal server error"})
	}
}

func badRequest(log logrus.FieldLogger, w http.ResponseWriter, msg string) {
	log.WithField("reason", msg).Warn("rejected request")
	writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// parseTimeParam accepts RFC3339 or a plain date.
func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseFilter(q map[string][]string) (model.OrderFilter, error) {
	var f model.OrderFilter

	for _, raw := range splitMulti(q["status"]) {
		st := model.OrderStatus(raw)
		if !st.Valid() {
			return f, errors.Errorf("unknown status %q", raw)
		}
		f.Status = append(f.Status, st)
	}
	for _, raw := range splitMulti(q["channel"]) {
		ch := model.SalesChannel(raw)
		if !ch.Valid() {
			return f, errors.Errorf("unknown channel %q", raw)
		}
		f.Channel = append(f.Channel, ch)
	}
	if v := first(q["customer_id"]); v != "" {
		f.CustomerID = v
	}

	var err error
	if f.DateFrom, err = parseTimeParam(first(q["date_from"])); err != nil {
		return f, errors.New("date_from is not a valid timestamp")
	}
	if f.DateTo, err = parseTimeParam(first(q["date_to"])); err != nil {
		return f, errors.New("date_to is not a valid timestamp")
	}

	if f.MinAmount, err = parseAmount(first(q["min_amount"])); err != nil {
		return f, err
	}
	if f.MaxAmount, err = parseAmount(first(q["max_amount"])); err != nil {
		return f, err
	}
	return f, nil
}

func parseAmount(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.New("amount bounds must be non-negative numbers")
	}
	return &v, nil
}

// splitMulti flattens repeated query params and comma-separated values.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
