// Package classifier detects off-route utterances against ordered pattern rules.
package classifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
)

type rule struct {
	trigger domain.Trigger
	re      *regexp.Regexp
}

// Classifier matches free text against compiled triggers. First match wins.
// It is immutable after Compile and safe for concurrent use.
type Classifier struct {
	rules []rule
}

// Compile builds a Classifier from the off-route document, preserving order.
// Every pattern is compiled case-insensitively; any pattern that fails to
// compile is reported, so a defective trigger never silently stops matching.
func Compile(doc *domain.OffRouteDocument) (*Classifier, error) {
	c := &Classifier{}
	if doc == nil {
		return c, nil
	}

	var errs []error
	for i, t := range doc.Triggers {
		if t.Pattern == "" {
			errs = append(errs, fmt.Errorf("trigger %d (%s): empty pattern", i, t.Name()))
			continue
		}
		re, err := regexp.Compile("(?i)" + t.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("trigger %d (%s): %w", i, t.Name(), err))
			continue
		}
		c.rules = append(c.rules, rule{trigger: t, re: re})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Classify returns the first trigger whose pattern matches anywhere in text.
func (c *Classifier) Classify(text string) (domain.Trigger, bool) {
	if c == nil {
		return domain.Trigger{}, false
	}
	text = strings.ToLower(text)
	for _, r := range c.rules {
		if r.re.MatchString(text) {
			return r.trigger, true
		}
	}
	return domain.Trigger{}, false
}

// Len returns the number of compiled triggers.
func (c *Classifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}
