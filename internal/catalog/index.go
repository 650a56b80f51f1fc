package catalog

import (
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

// Level says at which depth of the hierarchy a piece of button text lives.
type Level int

const (
	LevelCourse Level = iota
	LevelTerm
	LevelSubject
	LevelTopic
)

// Match locates one label inside the catalog. For a course only Course is
// set, for a term Course+Term, and so on.
type Match struct {
	Level   Level
	Course  string
	Term    string
	Subject string
	Topic   string
}

// buildIndex walks the document once and records, for every label, where in
// the hierarchy it belongs. Selection handlers then resolve incoming message
// text with a single map lookup instead of rescanning the nested document.
// When the same label occurs on two branches the lexicographically first
// path wins and the collision is logged, so behavior stays deterministic.
func (c *Catalog) buildIndex() {
	c.index = make(map[string]Match)

	add := func(text string, m Match) {
		if prev, exists := c.index[text]; exists {
			if prev != m {
				logutils.Log.WithField("label", text).Warn("Ambiguous catalog label, keeping first occurrence")
			}
			return
		}
		c.index[text] = m
	}

	for _, course := range c.Courses() {
		add(course, Match{Level: LevelCourse, Course: course})
		for _, term := range c.Terms(course) {
			add(term, Match{Level: LevelTerm, Course: course, Term: term})
			for _, subject := range c.Subjects(course, term) {
				add(subject, Match{Level: LevelSubject, Course: course, Term: term, Subject: subject})
				for _, topic := range c.Topics(course, term, subject) {
					add(topic, Match{Level: LevelTopic, Course: course, Term: term, Subject: subject, Topic: topic})
				}
			}
		}
	}
}

// Resolve maps free message text to its catalog position.
func (c *Catalog) Resolve(text string) (Match, bool) {
	m, ok := c.index[text]
	return m, ok
}
