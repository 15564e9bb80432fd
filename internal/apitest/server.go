// Package apitest runs an in-memory fake of the users/orders REST backend for
// tests. Responses mirror the real backend's JSON shapes, including zone-less
// timestamps and the {"error": {...}} envelope.
package apitest

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"user-order-console/internal/domain/paging"
)

// Fault replaces the normal response of one route.
type Fault struct {
	Status int
	Body   string        // raw response body; may be invalid JSON
	Delay  time.Duration // applied before responding
}

// RecordedRequest is one request received by the fake.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server
	Store *Store

	log      *zap.Logger
	mu       sync.Mutex
	faults   map[string]Fault
	requests []RecordedRequest
}

// New starts a fake backend that is shut down when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	log := zaptest.NewLogger(t)
	store, err := NewStore(log)
	if err != nil {
		t.Fatalf("apitest: %v", err)
	}

	s := &Server{
		Store:  store,
		log:    log,
		faults: make(map[string]Fault),
	}
	s.Server = httptest.NewServer(s.router())

	t.Cleanup(func() {
		s.Close()
		_ = store.Close()
	})
	return s
}

// SetFault makes every request to "METHOD /path" answer with f.
func (s *Server) SetFault(method, path string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = f
}

// ClearFaults restores normal behaviour on every route.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]Fault)
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the requests received for "METHOD /path".
func (s *Server) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.record())
	r.Use(s.inject())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handler{store: s.Store, log: s.log}
	r.POST("/users", h.createUser)
	r.GET("/users", h.listUsers)
	r.GET("/users/:id/orders", h.listUserOrders)
	r.POST("/orders", h.createOrder)
	r.GET("/orders", h.listOrders)
	r.GET("/export/users", h.exportUsers)
	r.GET("/export/orders", h.exportOrders)
	r.GET("/export/all", h.exportAll)
	r.POST("/import/users", h.importUsers)
	r.POST("/import/orders", h.importOrders)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "Not found")
	})

	return r
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.Query(),
			Body:   body,
		})
		s.mu.Unlock()

		c.Next()
	}
}

func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		f, ok := s.faults[c.Request.Method+" "+c.Request.URL.Path]
		s.mu.Unlock()
		if !ok {
			c.Next()
			return
		}

		if f.Delay > 0 {
			select {
			case <-time.After(f.Delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if f.Status == 0 {
			c.Next()
			return
		}
		c.Data(f.Status, "application/json", []byte(f.Body))
		c.Abort()
	}
}

// handler serves the backend routes from the store.
type handler struct {
	store *Store
	log   *zap.Logger
}

type createUserBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createOrderBody struct {
	UserID      *int64   `json:"user_id" binding:"required"`
	ProductName string   `json:"product_name"`
	Amount      *float64 `json:"amount" binding:"required"`
}

type importBody struct {
	Items []map[string]any `json:"items" binding:"required"`
}

func (h *handler) createUser(c *gin.Context) {
	var body createUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "JSON body expected")
		return
	}

	name := strings.TrimSpace(body.Name)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if name == "" || email == "" {
		writeError(c, http.StatusUnprocessableEntity, "validation_error", "name and email are required")
		return
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		writeError(c, http.StatusUnprocessableEntity, "validation_error", "invalid email format")
		return
	}

	rec, err := h.store.CreateUser(c.Request.Context(), name, email)
	if errors.Is(err, ErrDuplicateEmail) {
		writeError(c, http.StatusConflict, "duplicate_email", "email already exists")
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, userJSON(rec))
}

func (h *handler) listUsers(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	recs, total, err := h.store.ListUsers(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		h.internal(c, err)
		return
	}

	items := make([]gin.H, len(recs))
	for i := range recs {
		items[i] = userJSON(&recs[i])
	}
	c.JSON(http.StatusOK, pageJSON(items, total, page, limit))
}

func (h *handler) listUserOrders(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusNotFound, "not_found", "Not found")
		return
	}

	u, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.internal(c, err)
		return
	}
	if u == nil {
		writeError(c, http.StatusNotFound, "user_not_found", "user not found")
		return
	}

	recs, err := h.store.OrdersOfUser(c.Request.Context(), id)
	if err != nil {
		h.internal(c, err)
		return
	}

	items := make([]gin.H, len(recs))
	for i := range recs {
		items[i] = orderJSON(&recs[i], false)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *handler) createOrder(c *gin.Context) {
	var body createOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "validation_error", "user_id (int), product_name and amount (number) are required")
		return
	}

	product := strings.TrimSpace(body.ProductName)
	if product == "" {
		writeError(c, http.StatusUnprocessableEntity, "validation_error", "user_id (int), product_name and amount (number) are required")
		return
	}
	if *body.Amount <= 0 {
		writeError(c, http.StatusUnprocessableEntity, "validation_error", "amount must be > 0")
		return
	}

	rec, err := h.store.CreateOrder(c.Request.Context(), *body.UserID, product, *body.Amount)
	if errors.Is(err, ErrUnknownUser) {
		writeError(c, http.StatusNotFound, "user_not_found", "user not found")
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderJSON(rec, true))
}

func (h *handler) listOrders(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	recs, total, err := h.store.ListOrders(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		h.internal(c, err)
		return
	}

	items := make([]gin.H, len(recs))
	for i := range recs {
		items[i] = orderJSON(&recs[i], true)
	}
	c.JSON(http.StatusOK, pageJSON(items, total, page, limit))
}

func (h *handler) exportUsers(c *gin.Context) {
	recs, err := h.store.AllUsers(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": usersJSON(recs)})
}

func (h *handler) exportOrders(c *gin.Context) {
	recs, err := h.store.AllOrders(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ordersJSON(recs)})
}

func (h *handler) exportAll(c *gin.Context) {
	users, err := h.store.AllUsers(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	orders, err := h.store.AllOrders(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": usersJSON(users), "orders": ordersJSON(orders)})
}

func (h *handler) importUsers(c *gin.Context) {
	var body importBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "expected { items: [] }")
		return
	}

	created, skipped := 0, 0
	for _, it := range body.Items {
		name, _ := it["name"].(string)
		email, _ := it["email"].(string)
		name = strings.TrimSpace(name)
		email = strings.ToLower(strings.TrimSpace(email))
		if name == "" || email == "" {
			skipped++
			continue
		}
		if _, err := h.store.CreateUser(c.Request.Context(), name, email); err != nil {
			skipped++
			continue
		}
		created++
	}
	c.JSON(http.StatusCreated, gin.H{"created": created, "skipped": skipped})
}

func (h *handler) importOrders(c *gin.Context) {
	var body importBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "expected { items: [] }")
		return
	}

	created, skipped := 0, 0
	for _, it := range body.Items {
		userID, okUser := number(it["user_id"])
		amount, okAmount := number(it["amount"])
		product, _ := it["product_name"].(string)
		product = strings.TrimSpace(product)
		if !okUser || !okAmount || product == "" || amount <= 0 {
			skipped++
			continue
		}
		if _, err := h.store.CreateOrder(c.Request.Context(), int64(userID), product, amount); err != nil {
			skipped++
			continue
		}
		created++
	}
	c.JSON(http.StatusCreated, gin.H{"created": created, "skipped": skipped})
}

func (h *handler) internal(c *gin.Context, err error) {
	h.log.Error("fake backend failure", zap.String("path", c.Request.URL.Path), zap.Error(err))
	writeError(c, http.StatusInternalServerError, "server_error", "Internal server error")
}

func pagination(c *gin.Context) (int64, int64, bool) {
	page, errPage := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, errLimit := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if errPage != nil || errLimit != nil {
		writeError(c, http.StatusBadRequest, "bad_request", "page and limit must be integers")
		return 0, 0, false
	}
	page = max(1, page)
	limit = min(max(1, limit), 100)
	return page, limit, true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// isoformat renders t without zone designator, like the real backend.
func isoformat(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

func pageJSON(items []gin.H, total, page, limit int64) gin.H {
	return gin.H{
		"items": items,
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": paging.TotalPages(total, limit),
	}
}

func userJSON(u *UserRecord) gin.H {
	return gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"created_at": isoformat(u.CreatedAt),
	}
}

func usersJSON(recs []UserRecord) []gin.H {
	out := make([]gin.H, len(recs))
	for i := range recs {
		out[i] = userJSON(&recs[i])
	}
	return out
}

func orderJSON(o *OrderRecord, withUser bool) gin.H {
	out := gin.H{
		"id":           o.ID,
		"user_id":      o.UserID,
		"product_name": o.ProductName,
		"amount":       o.Amount,
		"created_at":   isoformat(o.CreatedAt),
	}
	if withUser {
		if o.User != nil {
			out["user"] = gin.H{"id": o.User.ID, "name": o.User.Name, "email": o.User.Email}
		} else {
			out["user"] = nil
		}
	}
	return out
}

func ordersJSON(recs []OrderRecord) []gin.H {
	out := make([]gin.H, len(recs))
	for i := range recs {
		out[i] = orderJSON(&recs[i], false)
	}
	return out
}
