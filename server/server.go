package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dekarrin/eac/internal/cache"
	"github.com/dekarrin/eac/internal/compiler"
	"github.com/dekarrin/eac/internal/config"
	"github.com/dekarrin/eac/internal/diag"
)

// PathPrefix is the prefix every daemon route is mounted under, matching the
// teacher's api.PathPrefix convention.
const PathPrefix = "/v1"

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// Server is the compile daemon (§D.4): a thin HTTP adapter over the four
// internal/compiler operations. It never reimplements pipeline logic.
type Server struct {
	router *chi.Mux

	cfg   config.Config
	store *cache.Store
	auth  *authenticator

	// UnauthDelay deprioritizes failed-auth responses, the teacher's
	// api.UnauthDelay.
	UnauthDelay time.Duration
}

// New builds a Server. secret signs issued JWTs; keys is the set of
// API keys allowed to request one. store may be nil to disable the compile
// cache entirely.
func New(cfg config.Config, store *cache.Store, secret []byte, keys []APIKey) *Server {
	s := &Server{
		cfg:         cfg,
		store:       store,
		auth:        &authenticator{secret: secret, keys: keys},
		UnauthDelay: 500 * time.Millisecond,
	}
	s.router = chi.NewRouter()
	s.router.Use(middleware.Recoverer)
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Route(PathPrefix, func(r chi.Router) {
		r.Post("/tokens", s.wrap(s.epCreateToken))
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/compile", s.wrap(s.epCompile))
			r.Post("/run", s.wrap(s.epRun))
		})
	})
}

// requireAuth enforces a bearer JWT on its wrapped routes, attaching the
// authenticated identity's name is unnecessary here since these endpoints
// carry no per-identity logic beyond gating access.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// requireAuth runs before wrap, so no request ID is in the context yet.
		reqID := requestID(r)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		authz := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) {
			time.Sleep(s.UnauthDelay)
			unauthorized("missing bearer token", "no Authorization header").withRequestID(reqID).writeTo(w)
			return
		}
		if _, err := s.auth.verifyToken(strings.TrimPrefix(authz, prefix)); err != nil {
			time.Sleep(s.UnauthDelay)
			unauthorized("invalid or expired token", err.Error()).withRequestID(reqID).writeTo(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// endpointFunc is the handler shape every route ultimately implements,
// mirroring the teacher's api.EndpointFunc.
type endpointFunc func(req *http.Request) result

// wrap adapts an endpointFunc into an http.HandlerFunc: it assigns a request
// ID, recovers panics into HTTP-500, and logs the outcome, mirroring the
// teacher's api.httpEndpoint.
func (s *Server) wrap(ep endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(req.Context(), ctxKeyRequestID, reqID)
		req = req.WithContext(ctx)

		defer func() {
			if p := recover(); p != nil {
				internalServerError(fmt.Sprintf("panic: %v\n%s", p, debug.Stack())).
					withRequestID(reqID).writeTo(w)
			}
		}()

		r := ep(req)
		if r.status == http.StatusUnauthorized || r.status == http.StatusInternalServerError {
			time.Sleep(s.UnauthDelay)
		}
		level := "INFO"
		if r.isErr {
			level = "ERROR"
		}
		log.Printf("%s [%s] %s %s: HTTP-%d %s", level, reqID, req.Method, req.URL.Path, r.status, r.internalMsg)
		r.withRequestID(reqID).writeTo(w)
	}
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		return id
	}
	return ""
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) epCreateToken(req *http.Request) result {
	var body tokenRequest
	if err := parseJSON(req, &body); err != nil {
		return badRequest(err.Error(), err.Error())
	}
	name, err := s.auth.authenticate(body.APIKey)
	if err != nil {
		return unauthorized(ErrBadCredentials.Error(), err.Error())
	}
	tok, err := s.auth.issueToken(name)
	if err != nil {
		return internalServerError("could not issue token: " + err.Error())
	}
	return created(tokenResponse{Token: tok}, "issued token for '"+name+"'")
}

type compileRequest struct {
	Source string `json:"source"`
}

type diagnosticResponse struct {
	Phase   string `json:"phase"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

type compileResponse struct {
	IR          string               `json:"ir,omitempty"`
	Diagnostics []diagnosticResponse `json:"diagnostics"`
	FromCache   bool                 `json:"from_cache"`
}

func (s *Server) epCompile(req *http.Request) result {
	var body compileRequest
	if err := parseJSON(req, &body); err != nil {
		return badRequest(err.Error(), err.Error())
	}

	res := compiler.Compile("<daemon>", []byte(body.Source), s.cfg, s.store)
	resp := compileResponse{
		IR:          res.IR,
		Diagnostics: toDiagnosticResponses(res.Diagnostics),
		FromCache:   res.FromCache,
	}
	if len(res.Diagnostics) > 0 {
		return result{status: http.StatusOK, resp: resp, internalMsg: "compiled with diagnostics"}
	}
	return ok(resp, "compiled successfully")
}

type runResponse struct {
	ExitCode    int                  `json:"exit_code"`
	Diagnostics []diagnosticResponse `json:"diagnostics"`
}

func (s *Server) epRun(req *http.Request) result {
	var body compileRequest
	if err := parseJSON(req, &body); err != nil {
		return badRequest(err.Error(), err.Error())
	}

	code, errs := compiler.Run("<daemon>", []byte(body.Source), s.cfg, s.store)
	resp := runResponse{ExitCode: code, Diagnostics: toDiagnosticResponses(errs)}
	if len(errs) > 0 {
		return result{status: http.StatusOK, resp: resp, internalMsg: "run completed with diagnostics"}
	}
	return ok(resp, "run completed")
}

func toDiagnosticResponses(ds []diag.Diagnostic) []diagnosticResponse {
	out := make([]diagnosticResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, diagnosticResponse{
			Phase:   d.Phase.String(),
			Kind:    string(d.Kind),
			Message: d.Message,
			Line:    d.Pos.Line,
		})
	}
	return out
}

// parseJSON decodes req's JSON body into v, matching the teacher's
// api.parseJSON content-type check.
func parseJSON(req *http.Request, v interface{}) error {
	if ct := req.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed JSON in request")
	}
	return nil
}
