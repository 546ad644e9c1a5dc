package session

// Route guards. Pure predicates; the navigation layer applies the redirect.

const (
	LoginPath = "/login"
	MePath    = "/me"
)

// AuthRequired allows authenticated sessions and redirects everyone else to
// the login page.
func AuthRequired(s *Session) (allow bool, redirect string) {
	if s == nil || s.Token == "" {
		return false, LoginPath
	}
	return true, ""
}

// AnonymousOnly allows anonymous visitors. A session still hydrating counts
// as not-yet-authenticated, so the login page does not flash a redirect
// while the stored credentials resolve.
func AnonymousOnly(s *Session) (allow bool, redirect string) {
	if s == nil || s.IsLoading || s.Token == "" {
		return true, ""
	}
	return false, MePath
}
