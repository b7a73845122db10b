package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Session routes
	RouteLogin        = "/profile/login/"
	RouteTokenRefresh = "/profile/token/refresh/"
	RouteLogout       = "/profile/logout/"
	RouteIntrospect   = "/profile/token/introspect/"

	// Registration & email verification
	RouteRegistration       = "/profile/registration/"
	RouteResendVerification = "/profile/registration/resend-verify-email/"
	RouteVerifyEmail        = "/profile/registration/email-verify/"

	// Authenticated profile routes
	RouteChangePassword = "/profile/password-change/"
	RouteOwnProfile     = "/profile/"

	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealth        = "/healthz"
)
