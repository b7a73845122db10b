package server

import (
	"net/http"

	"github.com/jrsteele09/yanssound-auth/auth"
	"github.com/jrsteele09/yanssound-auth/profiles"
	"github.com/rs/zerolog/log"
)

type tokenPairResponse struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh,omitempty"`
	Profile *profiles.Summary `json:"profile,omitempty"`
}

type registrationResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginHandler exchanges a username or email and password for a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		session, err := s.sessions.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenPairResponse{
			Access:  session.Access.String(),
			Refresh: session.Refresh.String(),
			Profile: &session.Profile,
		})
	}
}

// TokenRefreshHandler issues a new access token, and a rotated refresh token when rotation is enabled.
func (s *Server) TokenRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RefreshRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		session, err := s.sessions.Refresh(r.Context(), req.Refresh)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := tokenPairResponse{Access: session.Access.String()}
		if session.Refresh != nil {
			resp.Refresh = session.Refresh.String()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// IntrospectHandler lets resource servers check an access token, including its blacklist state.
func (s *Server) IntrospectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.IntrospectRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		introspection, err := s.sessions.Introspect(r.Context(), req.Token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, introspection)
	}
}

// LogoutHandler blacklists the refresh token in the body. The caller's access token is revoked too so the
// session ends immediately rather than when the access token expires.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LogoutRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		if err := s.sessions.Logout(r.Context(), req.Refresh); err != nil {
			writeError(w, err)
			return
		}
		if access, ok := AccessTokenFromContext(r.Context()); ok {
			if err := s.sessions.RevokeAccess(r.Context(), access); err != nil {
				log.Warn().Err(err).Str("profile_id", access.Subject).Msg("failed to revoke access token on logout")
			}
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
	}
}

func (s *Server) RegistrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegistrationRequest
		if !s.decode(w, r, &req) {
			return
		}

		profile, err := s.accounts.Register(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, registrationResponse{Username: profile.Username, Email: profile.Email})
	}
}

func (s *Server) ResendVerificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ResendVerificationRequest
		if !s.decode(w, r, &req) {
			return
		}

		if err := s.accounts.ResendVerification(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "If the address belongs to an unverified profile, a verification email has been sent."})
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.EmailVerifyRequest
		if !s.decode(w, r, &req) {
			return
		}

		if err := s.accounts.VerifyEmail(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully."})
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, ok := ProfileIDFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "Authentication credentials were not provided.", http.StatusUnauthorized)
			return
		}
		var req auth.PasswordChangeRequest
		if !s.decode(w, r, &req) {
			return
		}

		if err := s.accounts.ChangePassword(r.Context(), profileID, req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been changed."})
	}
}

// OwnProfileHandler returns the authenticated caller's profile.
func (s *Server) OwnProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, ok := ProfileIDFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "Authentication credentials were not provided.", http.StatusUnauthorized)
			return
		}

		profile, err := s.accounts.Profile(r.Context(), profileID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.jwks == nil {
			writeJSONError(w, "not_found", "tokens are signed with a shared secret; no public keys are published", http.StatusNotFound)
			return
		}

		jwks, err := s.jwks.GetJWKS()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, jwks)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// decode reads the body into req. Services validate their own requests.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := decodeJSON(r, req); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// decodeAndValidate reads the body into req and checks its validate tags.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if !s.decode(w, r, req) {
		return false
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		writeError(w, err)
		return false
	}
	return true
}
