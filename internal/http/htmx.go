package httpx

import (
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// IsHistoryRestore reports true when htmx is restoring history (Hx-History-Restore-Request: true).
func IsHistoryRestore(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-History-Restore-Request"), "true")
}

// WantsPartial returns true when the handler should return only the content block.
// History restores need the whole page because htmx swaps them into <body>.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !IsHistoryRestore(r)
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }
