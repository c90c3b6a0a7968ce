package i18n

import "net/http"

// Middleware puts the localizer for lang in every request context. An empty
// lang selects DefaultLanguage.
func Middleware(lang string) func(http.Handler) http.Handler {
	if lang == "" {
		lang = DefaultLanguage
	}
	loc := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
		})
	}
}
