package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/gullylink/gullylink/params"
	"github.com/gullylink/gullylink/pkg/hub"
	"github.com/gullylink/gullylink/pkg/orders"
	"github.com/gullylink/gullylink/pkg/util"
)

// Deps are the collaborators the HTTP surface calls into.
type Deps struct {
	Config     params.Config
	Registry   *hub.Registry
	Dispatcher *hub.Dispatcher
	Gateway    *orders.Gateway
	Logger     *zap.SugaredLogger
}

// Server handles REST API and WebSocket connections
type Server struct {
	cfg      params.Config
	router   *mux.Router
	registry *hub.Registry
	vendors  *hub.VendorHandler
	users    *hub.UserHandler
	gateway  *orders.Gateway
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	log := util.OrNop(deps.Logger)
	s := &Server{
		cfg:      deps.Config,
		router:   mux.NewRouter(),
		registry: deps.Registry,
		vendors:  hub.NewVendorHandler(deps.Registry, deps.Dispatcher, log),
		users:    hub.NewUserHandler(deps.Registry, log),
		gateway:  deps.Gateway,
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  deps.Config.WebSocket.ReadBuffer,
		WriteBufferSize: deps.Config.WebSocket.WriteBuffer,
		CheckOrigin:     s.checkOrigin,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID)

	api := s.router.PathPrefix("/api").Subrouter()

	// Orders
	api.HandleFunc("/order", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/order/{order_id}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/order/{order_id}/status", s.handleUpdateStatus).Methods("POST")

	// Vendors
	api.HandleFunc("/vendor/init", s.handleInitVendor).Methods("POST")
	api.HandleFunc("/vendor/{vendor_id}", s.handleGetVendor).Methods("GET")
	api.HandleFunc("/vendor/{vendor_id}/orders", s.handleVendorOrders).Methods("GET")

	// WebSocket endpoints
	s.router.HandleFunc("/ws/vendor/{vendor_id}", s.handleVendorSocket)
	s.router.HandleFunc("/ws/user", s.handleUserSocket)

	if s.cfg.API.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
}

// Handler returns the router wrapped with the CORS policy. A "*" origin is
// answered by echoing the request origin, since browsers reject a literal
// wildcard on credentialed requests.
func (s *Server) Handler() http.Handler {
	opts := cors.Options{
		AllowedOrigins:   s.cfg.API.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	if slices.Contains(opts.AllowedOrigins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(opts).Handler(s.router)
}

// Run serves on the configured address until ctx is cancelled. Open
// websocket handlers inherit ctx and close their connections on shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infow("api_server_starting", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, MessageResponse{Message: "GullyLINK API is Running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Vendors: s.registry.Count(hub.RoleVendor),
		Users:   s.registry.Count(hub.RoleUser),
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	id, err := s.gateway.PlaceOrder(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, PlaceOrderResponse{Status: "Order Placed", OrderID: id})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.gateway.GetOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		var req StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		status = req.Status
	}

	if err := s.gateway.UpdateStatus(r.Context(), mux.Vars(r)["order_id"], status); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{Status: "updated"})
}

func (s *Server) handleInitVendor(w http.ResponseWriter, r *http.Request) {
	var v orders.VendorProfile
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.gateway.UpsertVendor(r.Context(), v); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Msg: "Vendor Online"})
}

func (s *Server) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	v, err := s.gateway.GetVendor(r.Context(), mux.Vars(r)["vendor_id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleVendorOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.gateway.ListVendorOrders(r.Context(), mux.Vars(r)["vendor_id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	respondJSON(w, http.StatusOK, list)
}

// ==============================
// Helper Functions
// ==============================

// respondErr maps gateway errors onto HTTP statuses.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, orders.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid status", err.Error())
	case errors.Is(err, orders.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found", err.Error())
	default:
		s.log.Errorw("request_failed", "path", r.URL.Path, "request_id", r.Header.Get(requestIDHeader), "err", err)
		respondError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	respondJSON(w, status, ErrorResponse{Error: error, Message: message})
}

const requestIDHeader = "X-Request-ID"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(requestIDHeader) == "" {
			r.Header.Set(requestIDHeader, uuid.NewString())
		}
		w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
		next.ServeHTTP(w, r)
	})
}
