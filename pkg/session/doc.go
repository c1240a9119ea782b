// Package session owns the HTTP context shared by every ripper in a run.
//
// A Session wraps one *http.Client with a cookie jar, so connections are
// pooled and cookies set by one page are sent with the next. Responses are
// read completely and returned as a Page; Page.Tree parses the body into a
// goquery document.
//
// A non-2xx status is not an error. Callers inspect Page.StatusCode. Set
// fail_on_status in the session configuration to turn such responses into
// errors of type http_status.
package session
