package index

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripper/pkg/config"
	rerrors "ripper/pkg/errors"
	"ripper/pkg/logger"
	"ripper/pkg/metadata"
	"ripper/pkg/ripper"
	"ripper/pkg/session"
)

const indexPage = `<html><body>
<a href="a.pdf">A</a>
<a href="notes.txt">Notes</a>
<a href="/c.pdf">C</a>
<a href="/c.pdf#page=2">C again</a>
<a href="#top">Top</a>
<a href="mailto:someone@example.com">Mail</a>
<ul>
  <li><a class="section" href="/s/2015/">2015</a></li>
  <li><a class="section" href="/s/2016/"> 2016 </a></li>
</ul>
</body></html>`

func newArchive(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()

	var hits int64
	mux := http.NewServeMux()
	serve := func(pattern, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&hits, 1)
			if r.URL.Path != pattern {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(body))
		})
	}

	serve("/", indexPage)
	serve("/a.pdf", "pdf a")
	serve("/c.pdf", "pdf c")
	serve("/notes.txt", "notes")
	serve("/s/2015/", `<a href="x.pdf">x</a>`)
	serve("/s/2015/x.pdf", "pdf x")
	serve("/s/2016/", `<a href="y.pdf">y</a><a href="missing.pdf">gone</a>`)
	serve("/s/2016/y.pdf", "pdf y")

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func newController(t *testing.T, dryRun bool, doc string) (*ripper.Controller, *logger.TestLogger, string) {
	t.Helper()

	confPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(confPath, []byte(doc), 0644))

	inv := config.DefaultInvocation()
	inv.ConfigPath = confPath
	inv.DryRun = dryRun

	base := t.TempDir()
	log := logger.NewTestLogger()
	c := ripper.NewController(inv, ripper.WithLogger(log), ripper.WithBaseDir(base))
	require.NoError(t, c.Init())
	return c, log, base
}

func archiveConfig(serverURL string, ignoreExisting bool) string {
	return fmt.Sprintf(`{
		"ripper": "index",
		"index": {
			"url": %q,
			"directory": "archive",
			"extensions": ["PDF"],
			"section_selector": "a.section",
			"ignore_existing": %t
		}
	}`, serverURL+"/", ignoreExisting)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSiteRun(t *testing.T) {
	server, _ := newArchive(t)
	c, _, base := newController(t, false, archiveConfig(server.URL, false))

	runner, err := New(c)
	require.NoError(t, err)
	site := runner.(*Site)
	require.NoError(t, site.Run())

	out := filepath.Join(base, "archive")
	assert.Equal(t, "pdf a", readFile(t, filepath.Join(out, "a.pdf")))
	assert.Equal(t, "pdf c", readFile(t, filepath.Join(out, "c.pdf")))
	assert.Equal(t, "pdf x", readFile(t, filepath.Join(out, "2015", "x.pdf")))
	assert.Equal(t, "pdf y", readFile(t, filepath.Join(out, "2016", "y.pdf")))
	assert.NoFileExists(t, filepath.Join(out, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(out, "2016", "missing.pdf"))

	rec, err := metadata.Load(filepath.Join(out, "2015", "x.pdf"))
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/s/2015/x.pdf", rec.SourceURL)

	assert.Equal(t, Stats{Files: 4, Sections: 2, Failed: 1}, site.Stats())
	assert.Equal(t, base, c.Cwd())
	assert.Equal(t, 0, c.Depth())
}

func TestSiteRunSkipsExisting(t *testing.T) {
	server, _ := newArchive(t)
	c, log, base := newController(t, false, archiveConfig(server.URL, false))
	require.NoError(t, os.Mkdir(filepath.Join(base, "archive"), 0755))

	runner, err := New(c)
	require.NoError(t, err)
	require.NoError(t, runner.Run())

	assert.Equal(t, Stats{Skipped: 1}, runner.(*Site).Stats())
	assert.True(t, log.HasMessage("Output directory exists, skipping site"))
	assert.NoFileExists(t, filepath.Join(base, "archive", "a.pdf"))
}

func TestSiteRunIgnoreExisting(t *testing.T) {
	server, _ := newArchive(t)
	c, _, base := newController(t, false, archiveConfig(server.URL, true))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "archive", "2015"), 0755))

	runner, err := New(c)
	require.NoError(t, err)
	require.NoError(t, runner.Run())

	assert.FileExists(t, filepath.Join(base, "archive", "a.pdf"))
	assert.FileExists(t, filepath.Join(base, "archive", "2015", "x.pdf"))
	assert.Equal(t, 2, runner.(*Site).Stats().Sections)
}

func TestSiteRunDryRun(t *testing.T) {
	server, hits := newArchive(t)
	c, _, base := newController(t, true, archiveConfig(server.URL, false))

	require.NoError(t, c.Run())

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, base, c.Cwd())
	assert.Positive(t, atomic.LoadInt64(hits))
	assert.Equal(t, 0, c.SavedCount())
}

func TestControllerRunsIndex(t *testing.T) {
	server, _ := newArchive(t)
	c, log, base := newController(t, false, archiveConfig(server.URL, false))

	require.NoError(t, c.Run())
	assert.FileExists(t, filepath.Join(base, "archive", "2016", "y.pdf"))
	assert.Equal(t, 4, c.SavedCount())
	assert.True(t, log.HasMessage("Site finished"))
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing section", `{"ripper": "index"}`},
		{"missing url", `{"ripper": "index", "index": {"directory": "out"}}`},
		{"relative url", `{"ripper": "index", "index": {"url": "archive", "directory": "out"}}`},
		{"missing directory", `{"ripper": "index", "index": {"url": "http://example.com/"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newController(t, false, tt.doc)
			_, err := New(c)
			require.Error(t, err)
			assert.True(t, rerrors.IsType(err, rerrors.ErrorTypeConfiguration))
		})
	}
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{URL: "http://example.com/", Directory: "out", Extensions: []string{"PDF", ".Zip", " txt "}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultSelector, cfg.Selector)
	assert.Equal(t, []string{".pdf", ".zip", ".txt"}, cfg.Extensions)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/files/a.pdf", "a.pdf"},
		{"http://example.com/files/a%20b.pdf", "a b.pdf"},
		{"http://example.com/", "index.html"},
		{"http://example.com", "index.html"},
		{"http://example.com/files/a%2Fb.pdf", "a_b.pdf"},
		{"http://example.com/dir/%2e%2e", DefaultFileName},
		{"http://example.com/dir/%2E", DefaultFileName},
		{"http://example.com/dir/..", DefaultFileName},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.url))
		})
	}
}

func TestDirectoryName(t *testing.T) {
	tests := []struct {
		name string
		link Link
		want string
	}{
		{"text", Link{URL: "http://example.com/s/1/", Text: "  Annual   report "}, "Annual report"},
		{"separator in text", Link{URL: "http://example.com/s/1/", Text: "2015/2016"}, "2015_2016"},
		{"empty text", Link{URL: "http://example.com/s/2017/", Text: ""}, "2017"},
		{"dots", Link{URL: "http://example.com/", Text: ".."}, "section"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, directoryName(tt.link))
		})
	}
}

func TestSiteRunDotSegmentLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good.pdf" {
			w.Write([]byte("pdf good"))
			return
		}
		w.Write([]byte(`<a href="dir/%2e%2e">x</a><a href="good.pdf">g</a>`))
	}))
	defer server.Close()

	doc := fmt.Sprintf(`{"ripper": "index", "index": {"url": %q, "directory": "out"}}`, server.URL+"/")

	t.Run("live", func(t *testing.T) {
		c, _, base := newController(t, false, doc)
		require.NoError(t, c.Run())
		assert.Equal(t, "pdf good", readFile(t, filepath.Join(base, "out", "good.pdf")))
		assert.FileExists(t, filepath.Join(base, "out", DefaultFileName))
		assert.Equal(t, 2, c.SavedCount())
	})

	t.Run("dry run", func(t *testing.T) {
		c, log, _ := newController(t, true, doc)
		require.NoError(t, c.Run())
		dryWrites := 0
		for _, m := range log.GetMessages() {
			if m.Message == "Dry run. Not writing file" {
				dryWrites++
			}
		}
		assert.Equal(t, 2, dryWrites)
	})
}

var (
	errFetch  = errors.New("fetch failed")
	errAscend = errors.New("ascend failed")
)

// brokenParent enters every directory but cannot fetch or ascend
type brokenParent struct{}

func (brokenParent) Name() string                                   { return "broken" }
func (brokenParent) Fetch(string) (*goquery.Document, error)        { return nil, errFetch }
func (brokenParent) FetchPage(string) (*session.Page, error)        { return nil, errFetch }
func (brokenParent) Descend(string, bool) (bool, error)             { return true, nil }
func (brokenParent) Ascend() error                                  { return errAscend }
func (brokenParent) Save(string, io.Reader, string) (string, error) { return "", nil }

func TestSiteRunKeepsAscendError(t *testing.T) {
	cfg := Config{URL: "http://example.com/", Directory: "out"}
	require.NoError(t, cfg.Validate())

	err := NewSite(brokenParent{}, cfg, logger.NewTestLogger()).Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, errFetch)
	assert.ErrorIs(t, err, errAscend)
}
