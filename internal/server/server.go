package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/a-essam23/syncboard/internal/engine"
	"github.com/a-essam23/syncboard/internal/router"
	"github.com/a-essam23/syncboard/internal/server/middleware"
	"github.com/a-essam23/syncboard/pkg/auth"
	"github.com/a-essam23/syncboard/pkg/config"
	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/state"
	"github.com/a-essam23/syncboard/pkg/state/statemanager"
	"github.com/a-essam23/syncboard/pkg/store"
	"github.com/a-essam23/syncboard/pkg/transport"
)

const defaultShutdownTimeout = 10 * time.Second

var (
	errConnectionCycled = errors.New("connection cycled by new connection")
	errShuttingDown     = errors.New("graceful shutdown")
)

type App struct {
	logger       *slog.Logger
	stateManager state.Manager
	store        store.Store
	eventRouter  *router.EventRouter
	wg           sync.WaitGroup
	http         *http.Server
	config       *config.Config

	ctx          context.Context
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApp wires the registry, router and HTTP surface around st. The App
// owns st from here on and closes it on shutdown.
func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, st store.Store) (*App, error) {
	defaultPerms, err := cfg.Server.Auth.DefaultPermissionSet()
	if err != nil {
		return nil, err
	}
	authenticator := auth.NewWithDefaults(cfg.Server.Auth.JWTSecret, defaultPerms)

	stateManager := statemanager.NewInMemoryManager(logger)
	eng := engine.New(logger)
	eng.RegisterCore()

	app := &App{
		logger:       logger,
		stateManager: stateManager,
		store:        st,
		eventRouter:  router.NewEventRouter(logger, stateManager, st, eng),
		config:       cfg,
		ctx:          rootCtx,
	}

	connCounter := middleware.UserConnectionCounter(stateManager.GetUserConnectionCount)
	// Create a cycler function that closes over the stateManager and logger.
	connCycler := func(userID string) {
		oldest, found := stateManager.FindOldestUserConnection(userID)
		if found {
			logger.Info("Cycling connection: closing oldest", slog.String("userID", userID), slog.String("connID", oldest.ID.String()))
			oldest.Transport.Close(errConnectionCycled)
		}
	}

	r := mux.NewRouter()
	r.Use(
		mux.MiddlewareFunc(middleware.RequestMetadataMiddleware()),
		mux.MiddlewareFunc(middleware.NewRequestLogger(logger)),
	)
	r.Handle("/ws",
		middleware.Chain(http.HandlerFunc(app.upgradeHandler),
			middleware.NewAuthMiddleware(logger, authenticator, state.PermCanRead),
			middleware.NewConnectionLimiter(logger, connCounter, connCycler, cfg.Server.ConnectionLimit),
		),
	).Methods(http.MethodGet)
	r.Handle("/canvas/{roomId}",
		middleware.Chain(http.HandlerFunc(app.historyHandler),
			middleware.NewAuthMiddleware(logger, authenticator, state.PermCanRead),
		),
	).Methods(http.MethodGet)

	app.http = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}
	return app, nil
}

// Handler exposes the routes, e.g. for httptest.
func (a *App) Handler() http.Handler { return a.http.Handler }

// Run serves until the root context is cancelled, then shuts down.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
			errCh <- err
		}
	}()

	select {
	case <-a.ctx.Done():
		return a.Shutdown()
	case err := <-errCh:
		if sErr := a.Shutdown(); sErr != nil {
			a.logger.Error("Shutdown after server failure failed", slog.Any("error", sErr))
		}
		return err
	}
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("userID", reqMeta.Identity.UserID),
	)

	opts := &websocket.AcceptOptions{OriginPatterns: a.config.Server.OriginPatterns}
	if len(opts.OriginPatterns) == 0 {
		opts.InsecureSkipVerify = true
	}
	wsConn, err := websocket.Accept(w, r, opts)
	if err != nil {
		connLogger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig(a.config.Transport),
		nil,
		nil,
		a.logger,
	)
	stateConn, err := a.stateManager.RegisterConnection(conn, reqMeta.IP, reqMeta.Identity)
	if err != nil {
		connLogger.Error("Failed to register connection state", slog.Any("error", err))
		conn.Close(err)
		return
	}
	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Deregistering connection due to closure", slog.String("connID", id.String()), slog.Any("reason", err))
		if dErr := a.stateManager.DeregisterConnection(id); dErr != nil {
			connLogger.Error("Failed to deregister connection from state", slog.Any("error", dErr))
		}
	})

	connLogger.Info("User connection fully established", slog.String("connID", stateConn.ID.String()))
	conn.Run()
	<-conn.Done()
}

func (a *App) historyHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	records, err := a.store.LoadAll(r.Context(), roomID, a.config.History.Limit)
	if err != nil {
		a.logger.Error("Failed to load room history", slog.String("roomID", roomID), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := protocol.HistoryResponse{Messages: make([]protocol.HistoryEntry, len(records))}
	for i, rec := range records {
		resp.Messages[i] = protocol.HistoryEntry{Message: rec.Message}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Warn("Failed to write history response", slog.String("roomID", roomID), slog.Any("error", err))
	}
}

// graceful shutdown sequence. Safe to call more than once.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown()
	})
	return a.shutdownErr
}

func (a *App) shutdown() error {
	a.logger.Info("Shutting down server...")
	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	httpErr := a.http.Shutdown(shutdownCtx)

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, conn := range a.stateManager.GetAllConnections() {
		conn.Transport.Close(errShuttingDown)
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	storeErr := a.store.Close()
	if err := errors.Join(httpErr, storeErr); err != nil {
		return err
	}
	a.logger.Info("Server shut down gracefully.")
	return nil
}
