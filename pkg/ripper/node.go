package ripper

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	rerrors "ripper/pkg/errors"
	"ripper/pkg/logger"
	"ripper/pkg/session"
)

// Fetcher retrieves pages over the run's HTTP session
type Fetcher interface {
	// Fetch retrieves url and parses it into a DOM tree
	Fetch(url string) (*goquery.Document, error)
	// FetchPage retrieves url and returns the raw response
	FetchPage(url string) (*session.Page, error)
}

// Traverser moves the directory cursor
type Traverser interface {
	// Descend enters the named subdirectory of the cursor, creating it if needed.
	// It returns false when the directory already exists and ignoreExists is false.
	Descend(name string, ignoreExists bool) (bool, error)
	// Ascend moves the cursor to its parent directory
	Ascend() error
}

// Saver writes files under the directory cursor
type Saver interface {
	// Save writes r to name under the cursor and returns the file's path
	Save(name string, r io.Reader, sourceURL string) (string, error)
}

// Ripper is a node of the delegation chain
type Ripper interface {
	Name() string
	Fetcher
	Traverser
	Saver
}

// Node is a ripper without capabilities of its own. Every request is
// forwarded unchanged to its parent, so a chain of nodes always ends at the
// Controller. Site rippers embed Node.
type Node struct {
	name   string
	parent Ripper
	log    logger.Logger
}

// NewNode creates a node delegating to parent
func NewNode(name string, parent Ripper, log logger.Logger) *Node {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Node{
		name:   name,
		parent: parent,
		log:    log,
	}
}

// Name returns the node's name
func (n *Node) Name() string {
	return n.name
}

// Parent returns the node the requests are forwarded to
func (n *Node) Parent() Ripper {
	return n.parent
}

// Logger returns the node's log sink
func (n *Node) Logger() logger.Logger {
	return n.log
}

func (n *Node) up() (Ripper, error) {
	if n.parent == nil {
		return nil, rerrors.Configuration(fmt.Sprintf("ripper %q has no parent", n.name))
	}
	return n.parent, nil
}

// Fetch forwards to the parent
func (n *Node) Fetch(url string) (*goquery.Document, error) {
	p, err := n.up()
	if err != nil {
		return nil, err
	}
	return p.Fetch(url)
}

// FetchPage forwards to the parent
func (n *Node) FetchPage(url string) (*session.Page, error) {
	p, err := n.up()
	if err != nil {
		return nil, err
	}
	return p.FetchPage(url)
}

// Descend forwards to the parent
func (n *Node) Descend(name string, ignoreExists bool) (bool, error) {
	p, err := n.up()
	if err != nil {
		return false, err
	}
	return p.Descend(name, ignoreExists)
}

// Ascend forwards to the parent
func (n *Node) Ascend() error {
	p, err := n.up()
	if err != nil {
		return err
	}
	return p.Ascend()
}

// Save forwards to the parent
func (n *Node) Save(name string, r io.Reader, sourceURL string) (string, error) {
	p, err := n.up()
	if err != nil {
		return "", err
	}
	return p.Save(name, r, sourceURL)
}
