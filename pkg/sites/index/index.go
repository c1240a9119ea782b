package index

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	rerrors "ripper/pkg/errors"
	"ripper/pkg/logger"
	"ripper/pkg/ripper"
	"ripper/pkg/storage"
)

// Name is the value of the "ripper" configuration key selecting this ripper
const Name = "index"

// DefaultSelector matches every link on a page
const DefaultSelector = "a[href]"

func init() {
	ripper.Register(Name, New)
}

// Config is the "index" section of the configuration document
type Config struct {
	// Page listing the files and sections to download
	URL string `yaml:"url" json:"url"`

	// Directory created under the working directory for this run
	Directory string `yaml:"directory" json:"directory"`

	// CSS selector for file links
	Selector string `yaml:"selector" json:"selector"`

	// Only links ending in one of these extensions are downloaded
	Extensions []string `yaml:"extensions" json:"extensions"`

	// CSS selector for links to section pages, each ripped into its own directory
	SectionSelector string `yaml:"section_selector" json:"section_selector"`

	// Enter directories that already exist instead of skipping them
	IgnoreExisting bool `yaml:"ignore_existing" json:"ignore_existing"`
}

// Validate checks the section and fills in defaults
func (c *Config) Validate() error {
	if c.URL == "" {
		return rerrors.Configuration("index: url is required")
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return rerrors.Configuration(fmt.Sprintf("index: invalid url %q", c.URL))
	}
	if c.Directory == "" {
		return rerrors.Configuration("index: directory is required")
	}
	if c.Selector == "" {
		c.Selector = DefaultSelector
	}
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	return nil
}

// Stats counts what a run did
type Stats struct {
	Files    int
	Sections int
	Skipped  int
	Failed   int
}

// Site is the top of the chain. It descends into the configured directory,
// downloads the files linked from the index page and hands every section
// link to a Section.
type Site struct {
	*ripper.Node
	cfg     Config
	section *Section
	item    *Item
	stats   *Stats
}

// New builds the index ripper chain under c
func New(c *ripper.Controller) (ripper.Runner, error) {
	var cfg Config
	if err := c.Config().Decode(Name, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewSite(c, cfg, c.Logger().WithField(logger.NameFieldName, Name)), nil
}

// NewSite builds the chain site -> section -> item below parent
func NewSite(parent ripper.Ripper, cfg Config, log logger.Logger) *Site {
	stats := &Stats{}
	s := &Site{
		Node:  ripper.NewNode(Name, parent, log),
		cfg:   cfg,
		stats: stats,
	}
	s.section = &Section{Node: ripper.NewNode(Name+".section", s, log), cfg: &s.cfg, stats: stats}
	s.item = &Item{Node: ripper.NewNode(Name+".item", s.section, log), cfg: &s.cfg, stats: stats}
	s.section.item = s.item
	return s
}

// Stats returns the counters of the last run
func (s *Site) Stats() Stats {
	return *s.stats
}

// Run rips the index page
func (s *Site) Run() error {
	log := s.Logger()
	logger.Enter(log, "Site.Run")
	defer logger.Return(log, "Site.Run")

	ok, err := s.Descend(s.cfg.Directory, s.cfg.IgnoreExisting)
	if err != nil {
		return err
	}
	if !ok {
		log.WarnWithFields("Output directory exists, skipping site", map[string]interface{}{"directory": s.cfg.Directory})
		s.stats.Skipped++
		return nil
	}

	doc, err := s.Fetch(s.cfg.URL)
	if err != nil {
		return leave(s, err)
	}

	if err := s.item.DownloadAll(doc); err != nil {
		return leave(s, err)
	}

	if s.cfg.SectionSelector != "" {
		for _, l := range collectLinks(doc, s.cfg.SectionSelector, nil) {
			if err := s.section.Rip(l); err != nil {
				return leave(s, err)
			}
		}
	}

	log.InfoWithFields("Site finished", map[string]interface{}{
		"files":    s.stats.Files,
		"sections": s.stats.Sections,
		"skipped":  s.stats.Skipped,
		"failed":   s.stats.Failed,
	})
	return s.Ascend()
}

// Section rips one linked page into a directory named after the link text
type Section struct {
	*ripper.Node
	cfg   *Config
	item  *Item
	stats *Stats
}

// Rip descends into the section's directory and downloads its files.
// Sections whose directory already exists are skipped unless
// ignore_existing is set.
func (s *Section) Rip(l Link) error {
	log := s.Logger().WithField("section", l.Text)

	name := directoryName(l)
	ok, err := s.Descend(name, s.cfg.IgnoreExisting)
	if err != nil {
		return err
	}
	if !ok {
		log.Info("Section directory exists, skipping")
		s.stats.Skipped++
		return nil
	}

	doc, err := s.Fetch(l.URL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch section")
		s.stats.Failed++
		return s.Ascend()
	}

	if err := s.item.DownloadAll(doc); err != nil {
		return leave(s, err)
	}

	s.stats.Sections++
	return s.Ascend()
}

// leave ascends out of the current directory after err, keeping both errors
// if the ascend fails too
func leave(t ripper.Traverser, err error) error {
	if aerr := t.Ascend(); aerr != nil {
		return errors.Join(err, aerr)
	}
	return err
}

// Item downloads single files into the current directory
type Item struct {
	*ripper.Node
	cfg   *Config
	stats *Stats
}

// DownloadAll downloads every file link on doc
func (i *Item) DownloadAll(doc *goquery.Document) error {
	for _, l := range collectLinks(doc, i.cfg.Selector, i.cfg.Extensions) {
		if err := i.Download(l); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches one file and saves it under its base name. Fetch
// failures, non-2xx responses and unusable names are logged and skipped;
// save failures end the run.
func (i *Item) Download(l Link) error {
	log := i.Logger().WithField("url", l.URL)

	name := fileName(l.URL)
	if err := storage.ValidateName(name); err != nil {
		log.WithError(err).Warn("Skipping file with unusable name")
		i.stats.Failed++
		return nil
	}

	page, err := i.FetchPage(l.URL)
	if err != nil {
		log.WithError(err).Error("Failed to download file")
		i.stats.Failed++
		return nil
	}
	if !page.OK() {
		log.WarnWithFields("Skipping file", map[string]interface{}{"status_code": page.StatusCode})
		i.stats.Failed++
		return nil
	}

	if _, err := i.Save(name, page.Reader(), l.URL); err != nil {
		return err
	}
	i.stats.Files++
	return nil
}

// Link is a resolved link target and its text
type Link struct {
	URL  string
	Text string
}

// collectLinks returns the absolute, de-duplicated targets of the elements
// matching selector. With extensions set only targets whose path ends in one
// of them are kept.
func collectLinks(doc *goquery.Document, selector string, extensions []string) []Link {
	var links []Link
	seen := make(map[string]bool)

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		target := ref
		if doc.Url != nil {
			target = doc.Url.ResolveReference(ref)
		}
		target.Fragment = ""

		if target.Scheme != "http" && target.Scheme != "https" {
			return
		}
		if !hasExtension(target.Path, extensions) {
			return
		}

		abs := target.String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, Link{URL: abs, Text: strings.TrimSpace(sel.Text())})
	})

	return links
}

func hasExtension(p string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(p))
	for _, want := range extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// DefaultFileName is used for links without a usable last path segment
const DefaultFileName = "index.html"

// fileName is the last path segment of rawURL, or DefaultFileName for a
// directory URL or a segment that decodes to "." or ".."
func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackName(sanitize(rawURL))
	}
	name := path.Base(u.EscapedPath())
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return fallbackName(sanitize(name))
}

func fallbackName(name string) string {
	switch name {
	case "", ".", "..", "_":
		return DefaultFileName
	}
	return name
}

// directoryName names a section after its link text, falling back to the
// last segment of its URL
func directoryName(l Link) string {
	name := sanitize(strings.Join(strings.Fields(l.Text), " "))
	if name == "" || name == "." || name == ".." {
		u, err := url.Parse(l.URL)
		if err == nil {
			name = sanitize(path.Base(strings.TrimSuffix(u.Path, "/")))
		}
	}
	if name == "" || name == "." || name == ".." || name == "_" {
		name = "section"
	}
	return name
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_", "\x00", "").Replace(name)
}
