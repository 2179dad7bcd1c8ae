package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ldi/tasklist/internal/store"
)

// Server is the HTTP binding of the task operations. It holds no state of
// its own across requests; every handler performs exactly one store call.
type Server struct {
	store  store.Store
	mux    *http.ServeMux
	server *http.Server
}

func NewServer(st store.Store) *Server {
	s := &Server{
		store: st,
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /tasks", s.handleCreateTask)
	s.mux.HandleFunc("GET /tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	s.mux.HandleFunc("PUT /tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("PATCH /tasks/{id}/complete", s.handleCompleteTask)
	s.mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withMiddleware(s.mux).ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
