package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

// ErrNotFound is returned by Lookup when any segment of the path is absent.
var ErrNotFound = errors.New("catalog entry not found")

// Document is the persisted catalog layout:
// course -> term -> subject -> topic -> source URL.
type Document map[string]map[string]map[string]map[string]string

// Catalog is the read-only lecture catalog plus a reverse index from button
// text to its place in the hierarchy. The document is immutable once loaded,
// so concurrent handlers read it without locking.
type Catalog struct {
	doc   Document
	index map[string]Match
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	c := &Catalog{doc: doc}
	c.buildIndex()
	logutils.Log.WithField("courses", len(doc)).Infof("Catalog loaded from %s", path)
	return c, nil
}

// Lookup resolves a full selection path to the source video URL.
func (c *Catalog) Lookup(path models.SelectionPath) (string, error) {
	terms, ok := c.doc[path.Course]
	if !ok {
		return "", fmt.Errorf("course %q: %w", path.Course, ErrNotFound)
	}
	subjects, ok := terms[path.Term]
	if !ok {
		return "", fmt.Errorf("term %q: %w", path.Term, ErrNotFound)
	}
	topics, ok := subjects[path.Subject]
	if !ok {
		return "", fmt.Errorf("subject %q: %w", path.Subject, ErrNotFound)
	}
	url, ok := topics[path.Topic]
	if !ok {
		return "", fmt.Errorf("topic %q: %w", path.Topic, ErrNotFound)
	}
	return url, nil
}

func (c *Catalog) Courses() []string {
	keys := make([]string, 0, len(c.doc))
	for course := range c.doc {
		keys = append(keys, course)
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalog) Terms(course string) []string {
	terms := c.doc[course]
	keys := make([]string, 0, len(terms))
	for term := range terms {
		keys = append(keys, term)
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalog) Subjects(course, term string) []string {
	subjects := c.doc[course][term]
	keys := make([]string, 0, len(subjects))
	for subject := range subjects {
		keys = append(keys, subject)
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalog) Topics(course, term, subject string) []string {
	topics := c.doc[course][term][subject]
	keys := make([]string, 0, len(topics))
	for topic := range topics {
		keys = append(keys, topic)
	}
	sort.Strings(keys)
	return keys
}
