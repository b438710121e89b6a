package application

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Resolution is one time expression found in free text. Index is the byte
// offset where the expression starts.
type Resolution struct {
	At    time.Time
	Index int
	Text  string
}

// TimeResolver finds the time expression in a reminder body. It returns nil
// without error when the text has none.
type TimeResolver interface {
	Resolve(body string, now time.Time) (*Resolution, error)
}

var (
	pastWords    = regexp.MustCompile(`(?i)\b(ago|yesterday|last|past|before)\b`)
	weekdayWords = regexp.MustCompile(`(?i)\b(mon|tue|wed|thu|fri|sat|sun)[a-z]*\b`)
	// when starts its match after these, so they would stay in the task
	connective = regexp.MustCompile(`(?i)(?:^|\s)(at|on|by|in)\s*$`)
)

type WhenResolver struct {
	parser *when.Parser
	loc    *time.Location
}

func NewWhenResolver(loc *time.Location) *WhenResolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if loc == nil {
		loc = time.UTC
	}
	return &WhenResolver{parser: w, loc: loc}
}

// Resolve takes the rightmost expression in body: trailing clauses are more
// often the intended time than numbers inside the task text.
func (r *WhenResolver) Resolve(body string, now time.Time) (*Resolution, error) {
	base := now.In(r.loc)

	var last *Resolution
	offset := 0
	for offset < len(body) {
		res, err := r.parser.Parse(body[offset:], base)
		if err != nil {
			return nil, err
		}
		if res == nil || res.Text == "" {
			break
		}
		last = &Resolution{At: res.Time, Index: offset + res.Index, Text: res.Text}
		offset += res.Index + len(res.Text)
	}
	if last == nil {
		return nil, nil
	}
	if loc := connective.FindStringIndex(body[:last.Index]); loc != nil {
		end := last.Index + len(last.Text)
		last.Index = loc[0]
		last.Text = strings.TrimSpace(body[loc[0]:end])
	}
	last.At = forwardDate(last.At, base, last.Text)
	return last, nil
}

// forwardDate moves an ambiguous expression that landed in the past to its
// next occurrence. Explicitly past expressions are left alone.
func forwardDate(at, base time.Time, expr string) time.Time {
	if at.After(base) || pastWords.MatchString(expr) {
		return at
	}
	switch {
	case weekdayWords.MatchString(expr) && base.Sub(at) < 7*24*time.Hour:
		for !at.After(base) {
			at = at.AddDate(0, 0, 7)
		}
	case base.Sub(at) < 24*time.Hour:
		at = at.AddDate(0, 0, 1)
	}
	return at
}
