package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/yanssound-auth/auth"
	"github.com/jrsteele09/yanssound-auth/internal/config"
	"github.com/jrsteele09/yanssound-auth/token/keys"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env             string // Environment (e.g., "DEV", "PROD")
	mux             *http.ServeMux
	handler         http.Handler
	routes          []string
	config          config.Config
	sessions        *auth.SessionService
	accounts        *auth.AccountService
	validator       *auth.Validator
	jwks            keys.JWKSProvider // nil when tokens are signed with a shared secret
	maxRequestBytes int64
}

type Option func(*Server)

// WithJWKS publishes the signer's public keys at RouteWellKnownJWKS.
func WithJWKS(provider keys.JWKSProvider) Option {
	return func(s *Server) {
		s.jwks = provider
	}
}

func WithValidator(validator *auth.Validator) Option {
	return func(s *Server) {
		s.validator = validator
	}
}

func New(config config.Config, sessions *auth.SessionService, accounts *auth.AccountService, options ...Option) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("[Server New] session service is required")
	}
	if accounts == nil {
		return nil, errors.New("[Server New] account service is required")
	}

	s := &Server{
		env:             config.GetEnv(),
		mux:             http.NewServeMux(),
		config:          config,
		sessions:        sessions,
		accounts:        accounts,
		maxRequestBytes: config.GetMaxRequestBytes(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.validator == nil {
		s.validator = auth.NewValidator()
	}

	s.handler = cors.New(cors.Options{
		AllowOriginFunc:  config.GetAllowedOrigins().IsAllowedOrigin,
		AllowedMethods:   config.GetAllowedMethods(),
		AllowedHeaders:   config.GetAllowedHeaders(),
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(s.mux)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}
