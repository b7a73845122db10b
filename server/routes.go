package server

// exact stops a trailing-slash pattern from matching the whole subtree.
const exact = "{$}"

func (s *Server) initRoutes() {
	// Sessions
	s.RegisterRouteHandler("POST "+RouteLogin+exact, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenRefresh+exact, ChainMiddleware(s.TokenRefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteIntrospect+exact, ChainMiddleware(s.IntrospectHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout+exact, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Registration
	s.RegisterRouteHandler("POST "+RouteRegistration+exact, ChainMiddleware(s.RegistrationHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResendVerification+exact, ChainMiddleware(s.ResendVerificationHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyEmail+exact, ChainMiddleware(s.VerifyEmailHandler(), s.APIMiddleware()...))

	// Own profile
	s.RegisterRouteHandler("POST "+RouteChangePassword+exact, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteOwnProfile+exact, ChainMiddleware(s.OwnProfileHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
