// Package parcltest runs an in-process stand-in for the Parcl v3 API.
//
// Routes have no handler until one is set; unhandled routes answer 404 with
// a JSON error body. Each request's body and query are recorded per path.
package parcltest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"

	"parcl-v3-client/pkg/parcl"
)

type Server struct {
	srv    *httptest.Server
	engine *gin.Engine

	mu       sync.Mutex
	handlers map[string]gin.HandlerFunc
	bodies   map[string][]byte
	queries  map[string]url.Values
	calls    map[string]int
}

func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		engine:   gin.New(),
		handlers: map[string]gin.HandlerFunc{},
		bodies:   map[string][]byte{},
		queries:  map[string]url.Values{},
		calls:    map[string]int{},
	}
	s.engine.NoRoute(s.dispatch)
	s.srv = httptest.NewServer(s.engine)
	return s
}

func (s *Server) dispatch(c *gin.Context) {
	path := c.Request.URL.Path
	body, _ := c.GetRawData()

	s.mu.Lock()
	s.bodies[path] = body
	s.queries[path] = c.Request.URL.Query()
	s.calls[path]++
	h := s.handlers[path]
	s.mu.Unlock()

	if h == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no handler for " + c.Request.Method + " " + path})
		return
	}
	h(c)
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// Client returns a parcl client bound to this server. cfg.BaseURL is
// overwritten.
func (s *Server) Client(cfg parcl.Config) *parcl.Client {
	cfg.BaseURL = s.srv.URL
	return parcl.NewClient(cfg)
}

// Handle installs h for path, replacing any previous handler.
func (s *Server) Handle(path string, h gin.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = h
}

// RespondJSON makes path answer status with v encoded as JSON.
func (s *Server) RespondJSON(path string, status int, v any) {
	s.Handle(path, func(c *gin.Context) { c.JSON(status, v) })
}

// RespondRaw makes path answer status with body verbatim.
func (s *Server) RespondRaw(path string, status int, contentType string, body []byte) {
	s.Handle(path, func(c *gin.Context) { c.Data(status, contentType, body) })
}

// RespondTransaction makes path answer 200 with a transaction response
// carrying blob and the given lamport estimate.
func (s *Server) RespondTransaction(path string, blob []byte, totalLamports uint64) {
	s.RespondJSON(path, http.StatusOK, gin.H{
		"transaction":               blob,
		"total_required_lamports":   totalLamports,
		"required_compute_lamports": totalLamports,
		"required_rent_lamports":    0,
		"cu_limit":                  200000,
	})
}

// RespondError makes path answer status with {"error": message}.
func (s *Server) RespondError(path string, status int, message string) {
	s.RespondJSON(path, status, gin.H{"error": message})
}

// LastBody is the body of the most recent request to path, nil if none.
func (s *Server) LastBody(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[path]
}

func (s *Server) LastQuery(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[path]
}

func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}
