package web

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/blog"
)

// notices maps the ?notice= keys used in redirects to their text. Unknown
// keys are ignored so the query string cannot inject page text.
var notices = map[string]string{
	"registered":      "Account created. You can log in now.",
	"logged-out":      "You have been logged out.",
	"session-expired": "Your session has expired. Please log in again.",
	"post-created":    "Post created successfully!",
	"post-updated":    "Post updated successfully!",
	"post-deleted":    "Post deleted.",
	"user-created":    "User created successfully!",
	"user-updated":    "User updated successfully!",
	"user-deleted":    "User deleted.",
}

func noticeFrom(r *http.Request) string {
	return notices[r.URL.Query().Get("notice")]
}

func withNotice(path, key string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "notice=" + url.QueryEscape(key)
}

// errorText turns a service error into the message shown on the page.
func errorText(err error) string {
	var (
		verr    *blog.ValidationError
		httpErr *apiclient.HTTPError
		netErr  *apiclient.NetworkError
		decErr  *apiclient.DecodeError
	)
	switch {
	case errors.As(err, &verr):
		names := make([]string, 0, len(verr.Fields))
		for name, problem := range verr.Fields {
			names = append(names, name+" "+problem)
		}
		sort.Strings(names)
		return "Please check the form: " + strings.Join(names, "; ") + "."
	case errors.As(err, &httpErr):
		switch httpErr.Status {
		case http.StatusNotFound:
			return "Not found. It may have been deleted already."
		case http.StatusForbidden:
			return "You are not allowed to do that."
		}
		if httpErr.Message != "" {
			return "The blog API refused the request: " + httpErr.Message
		}
		return "The blog API refused the request (status " + http.StatusText(httpErr.Status) + ")."
	case errors.As(err, &netErr):
		return "Cannot reach the blog API. Please try again later."
	case errors.As(err, &decErr):
		return "The blog API sent a response we could not read."
	case errors.Is(err, blog.ErrNoToken):
		return "The blog API did not return a session token."
	default:
		return "Something went wrong. Please try again."
	}
}
