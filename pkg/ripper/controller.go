package ripper

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"ripper/pkg/config"
	rerrors "ripper/pkg/errors"
	"ripper/pkg/logger"
	"ripper/pkg/metadata"
	"ripper/pkg/session"
	"ripper/pkg/storage"
)

// ConfigKey is the configuration key naming the ripper to run
const ConfigKey = "ripper"

// Controller is the root of every delegation chain. It owns the HTTP
// session, the directory cursor, the dry-run flag, the configuration
// document and the log sink. The process working directory is never
// changed; the cursor is an absolute path kept here.
type Controller struct {
	inv     *config.Invocation
	name    string
	dryRun  bool
	config  config.Document
	log     logger.Logger
	session *session.Session
	storage *storage.Manager
	runID   string

	baseDir string
	cwd     string
	depth   int

	ownsLog     bool
	initialized bool
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger makes the controller log to l instead of creating a logger
// from the invocation. The caller keeps ownership of l.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithBaseDir sets the directory the cursor starts in. It defaults to the
// process working directory.
func WithBaseDir(dir string) Option {
	return func(c *Controller) {
		c.baseDir = dir
	}
}

// NewController creates a controller for one run. Init must be called
// before any other method.
func NewController(inv *config.Invocation, opts ...Option) *Controller {
	if inv == nil {
		inv = config.DefaultInvocation()
	}

	name := inv.Logging.Name
	if name == "" {
		name = "root"
	}

	c := &Controller{
		inv:     inv,
		name:    name,
		storage: storage.NewManager(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init sets up logging, reads the configuration document and opens the
// HTTP session. A configuration file that cannot be read or parsed is
// logged at critical level and returned as a config error.
func (c *Controller) Init() error {
	if c.initialized {
		return rerrors.Configuration("controller already initialized")
	}

	if c.log == nil {
		log, err := logger.New(&c.inv.Logging)
		if err != nil {
			return rerrors.Wrap(rerrors.ErrorTypeConfiguration, err, "could not create logger")
		}
		c.log = log
		c.ownsLog = true
	}

	c.runID = uuid.NewString()
	c.log = c.log.WithField("run_id", c.runID)

	c.log.Info("Starting log")
	logger.Enter(c.log, "Controller.Init")

	c.dryRun = c.inv.DryRun
	if c.dryRun {
		c.log.Info("This is a dry run")
	} else {
		c.log.Info("This is a live run")
	}

	doc, err := config.ParseConfig(c.inv.ConfigPath)
	if err != nil {
		c.log.WithError(err).Critical("Failed to parse configuration file!")
		return err
	}
	c.config = doc

	sessionCfg, err := doc.SessionConfig()
	if err != nil {
		c.log.WithError(err).Critical("Failed to parse configuration file!")
		return err
	}

	sess, err := session.New(sessionCfg, c.log)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrorTypeNetwork, err, "could not create session")
	}
	c.session = sess

	base := c.baseDir
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return rerrors.Filesystem(err, "could not determine working directory")
		}
	}
	if c.cwd, err = filepath.Abs(base); err != nil {
		return rerrors.Filesystem(err, "could not resolve base directory")
	}
	c.baseDir = c.cwd

	c.initialized = true
	logger.Return(c.log, "Controller.Init")
	return nil
}

func (c *Controller) ready() error {
	if !c.initialized {
		return rerrors.Configuration("controller used before Init")
	}
	return nil
}

// Name returns the controller's logger name
func (c *Controller) Name() string {
	return c.name
}

// DryRun reports whether filesystem changes are suppressed
func (c *Controller) DryRun() bool {
	return c.dryRun
}

// Config returns the parsed configuration document
func (c *Controller) Config() config.Document {
	return c.config
}

// Logger returns the controller's log sink
func (c *Controller) Logger() logger.Logger {
	if c.log == nil {
		return logger.NewNopLogger()
	}
	return c.log
}

// Session returns the HTTP session shared by the chain
func (c *Controller) Session() *session.Session {
	return c.session
}

// RunID identifies this run in logs and manifest records
func (c *Controller) RunID() string {
	return c.runID
}

// Cwd returns the absolute path of the directory cursor
func (c *Controller) Cwd() string {
	return c.cwd
}

// Depth returns live descends minus ascends since Init
func (c *Controller) Depth() int {
	return c.depth
}

// SavedCount returns the number of files written in this run
func (c *Controller) SavedCount() int {
	return c.storage.GetSavedCount()
}

// Fetch retrieves url and parses it into a DOM tree
func (c *Controller) Fetch(url string) (*goquery.Document, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	logger.Enter(c.log, "Controller.Fetch")
	defer logger.Return(c.log, "Controller.Fetch")

	c.log.InfoWithFields("Fetching", map[string]interface{}{"url": url})

	return c.session.GetTree(url)
}

// FetchPage retrieves url and returns the unparsed response, whatever its status
func (c *Controller) FetchPage(url string) (*session.Page, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	logger.Enter(c.log, "Controller.FetchPage")
	defer logger.Return(c.log, "Controller.FetchPage")

	c.log.InfoWithFields("Fetching", map[string]interface{}{"url": url})

	return c.session.Get(url)
}

// Descend moves the cursor into name, creating the directory when it does
// not exist. An existing directory is entered only when ignoreExists is set;
// otherwise Descend warns and returns false. In a dry run nothing is checked
// or created, the cursor stays put and Descend returns true.
func (c *Controller) Descend(name string, ignoreExists bool) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	logger.Enter(c.log, "Controller.Descend")
	defer logger.Return(c.log, "Controller.Descend")

	if c.dryRun {
		c.log.DebugWithFields("Dry run. Not descending", map[string]interface{}{"name": name})
		return true, nil
	}

	if err := storage.ValidateName(name); err != nil {
		return false, rerrors.Filesystem(err, "invalid directory name")
	}

	target := filepath.Join(c.cwd, name)
	isDir, err := c.storage.IsDir(target)
	if err != nil {
		return false, rerrors.Filesystem(err, "could not inspect directory")
	}

	switch {
	case isDir && !ignoreExists:
		c.log.WarnWithFields("Directory already exists", map[string]interface{}{"path": target})
		return false, nil
	case isDir:
		c.log.DebugWithFields("Entering existing directory", map[string]interface{}{"path": target})
	case c.storage.Exists(target):
		return false, rerrors.Filesystem(nil, fmt.Sprintf("%s exists and is not a directory", target))
	default:
		if err := c.storage.CreateDir(target); err != nil {
			return false, rerrors.Filesystem(err, "could not create directory")
		}
		c.log.DebugWithFields("Created directory", map[string]interface{}{"path": target})
	}

	c.cwd = target
	c.depth++
	return true, nil
}

// Ascend moves the cursor to its parent directory. Calls must pair with
// successful descends; ascending past the base directory is allowed but
// logged. In a dry run Ascend does nothing.
func (c *Controller) Ascend() error {
	if err := c.ready(); err != nil {
		return err
	}
	logger.Enter(c.log, "Controller.Ascend")
	defer logger.Return(c.log, "Controller.Ascend")

	if c.dryRun {
		return nil
	}

	if c.depth <= 0 {
		c.log.WarnWithFields("Ascending above the base directory", map[string]interface{}{"path": c.cwd})
	}

	c.cwd = filepath.Dir(c.cwd)
	c.depth--
	return nil
}

// Save writes r to name under the cursor and records it in a manifest file
// next to it. In a dry run r is left unread and only the path is returned.
func (c *Controller) Save(name string, r io.Reader, sourceURL string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	logger.Enter(c.log, "Controller.Save")
	defer logger.Return(c.log, "Controller.Save")

	if err := storage.ValidateName(name); err != nil {
		return "", rerrors.Filesystem(err, "invalid file name")
	}

	path := filepath.Join(c.cwd, name)
	if c.dryRun {
		logger.LogSave(c.log, path, sourceURL, 0, true)
		return path, nil
	}

	res, err := c.storage.SaveFile(r, path)
	if err != nil {
		return "", rerrors.Filesystem(err, "could not save file")
	}

	rec := &metadata.Record{
		Name:      name,
		SourceURL: sourceURL,
		RunID:     c.runID,
		Size:      res.Size,
		Digest:    res.Digest,
		SavedAt:   time.Now().UTC(),
	}
	if err := rec.Save(path); err != nil {
		if rmErr := c.storage.Remove(path); rmErr != nil {
			c.log.WithError(rmErr).WarnWithFields("Could not remove file without manifest record", map[string]interface{}{"path": path})
		}
		return "", rerrors.Filesystem(err, "could not write manifest record")
	}

	logger.LogSave(c.log, path, sourceURL, res.Size, false)
	return path, nil
}

// Run starts the ripper named by the configuration. Without a ripper key
// the run ends after Init.
func (c *Controller) Run() error {
	if err := c.ready(); err != nil {
		return err
	}
	logger.Enter(c.log, "Controller.Run")
	defer logger.Return(c.log, "Controller.Run")

	if !c.config.Has(ConfigKey) {
		c.log.Info("No ripper configured, nothing to do")
		return nil
	}

	name := c.config.String(ConfigKey)
	factory, ok := Lookup(name)
	if !ok {
		return rerrors.Configuration(fmt.Sprintf("unknown ripper %q (registered: %v)", name, Registered()))
	}

	r, err := factory(c)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := r.Run(); err != nil {
		c.log.WithError(err).ErrorWithFields("Ripper failed", map[string]interface{}{"ripper": name})
		return err
	}

	c.log.InfoWithFields("Run complete", map[string]interface{}{
		"ripper":   name,
		"saved":    c.SavedCount(),
		"duration": time.Since(start).String(),
	})
	return nil
}

// Close releases the log file, if the controller opened one
func (c *Controller) Close() error {
	if !c.ownsLog || c.log == nil {
		return nil
	}
	return logger.Close(c.log)
}
