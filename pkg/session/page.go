package session

import (
	"bytes"
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	rerrors "ripper/pkg/errors"
)

// Page is a fully read HTTP response
type Page struct {
	// URL is the final URL after redirects
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx
func (p *Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// Reader returns a fresh reader over the body
func (p *Page) Reader() io.Reader {
	return bytes.NewReader(p.Body)
}

// Tree parses the body as HTML. Relative links resolve against the page URL.
func (p *Page) Tree() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(p.Reader())
	if err != nil {
		return nil, &rerrors.Error{
			Type:    rerrors.ErrorTypeParsing,
			Message: "failed to parse HTML from " + p.URL,
			Code:    p.StatusCode,
			Err:     err,
		}
	}

	if u, err := url.Parse(p.URL); err == nil {
		doc.Url = u
	}

	return doc, nil
}

// Resolve returns ref as an absolute URL relative to the page
func (p *Page) Resolve(ref string) (string, error) {
	base, err := url.Parse(p.URL)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}
