package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/noah-isme/subkeeper-api/internal/models"
	"github.com/noah-isme/subkeeper-api/pkg/config"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

const (
	exactThreshold    = 24 * time.Hour
	endOfDayThreshold = 48 * time.Hour
	endOfDayNanos     = 999 * time.Millisecond
	storageResolution = time.Microsecond
)

// DueWindow is the inclusive range of stored due timestamps that are due soon
// at a given instant.
type DueWindow struct {
	From time.Time
	To   time.Time
}

// Empty reports whether no timestamp can fall inside the window.
func (w DueWindow) Empty() bool {
	return w.To.Before(w.From)
}

// DuePolicy decides when an assignment enters the due-soon state.
type DuePolicy struct {
	name      string
	threshold time.Duration
	endOfDay  bool
	loc       *time.Location
}

// NewDuePolicy builds the named policy anchored to loc. Day boundaries for the
// end_of_day policy are computed in loc.
func NewDuePolicy(name string, loc *time.Location) (*DuePolicy, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", config.DuePolicyEndOfDay:
		return &DuePolicy{name: config.DuePolicyEndOfDay, threshold: endOfDayThreshold, endOfDay: true, loc: loc}, nil
	case config.DuePolicyExact:
		return &DuePolicy{name: config.DuePolicyExact, threshold: exactThreshold, loc: loc}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown due-soon policy %q", name))
	}
}

// Name returns the configured policy name.
func (p *DuePolicy) Name() string { return p.name }

// Threshold returns the look-ahead duration.
func (p *DuePolicy) Threshold() time.Duration { return p.threshold }

// Location returns the zone used for day boundaries and labels.
func (p *DuePolicy) Location() *time.Location { return p.loc }

// Deadline returns the effective deadline for a due timestamp.
func (p *DuePolicy) Deadline(due time.Time) time.Time {
	if !p.endOfDay {
		return due
	}
	y, m, d := due.In(p.loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(endOfDayNanos), p.loc)
}

// IsDueSoon reports whether the effective deadline lies within
// [now, now+threshold]. A nil due date is never due soon.
func (p *DuePolicy) IsDueSoon(due *time.Time, now time.Time) bool {
	if due == nil {
		return false
	}
	remaining := p.Deadline(*due).Sub(now)
	return remaining >= 0 && remaining <= p.threshold
}

// HoursRemaining returns whole hours until the effective deadline, rounded
// down. Overdue assignments yield negative values.
func (p *DuePolicy) HoursRemaining(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	hours := int(math.Floor(p.Deadline(*due).Sub(now).Hours()))
	return &hours
}

// Window returns the stored due timestamps, at microsecond resolution, for
// which IsDueSoon(due, now) holds.
func (p *DuePolicy) Window(now time.Time) DueWindow {
	if !p.endOfDay {
		return DueWindow{From: ceilMicro(now), To: now.Add(p.threshold).Truncate(storageResolution)}
	}

	first := p.startOfDay(now)
	if p.Deadline(first).Before(now) {
		first = first.AddDate(0, 0, 1)
	}
	limit := now.Add(p.threshold)
	last := p.startOfDay(limit)
	if p.Deadline(last).After(limit) {
		last = last.AddDate(0, 0, -1)
	}
	return DueWindow{From: first, To: last.AddDate(0, 0, 1).Add(-storageResolution)}
}

func (p *DuePolicy) startOfDay(t time.Time) time.Time {
	local := t.In(p.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.loc)
}

func ceilMicro(t time.Time) time.Time {
	truncated := t.Truncate(storageResolution)
	if truncated.Before(t) {
		return truncated.Add(storageResolution)
	}
	return truncated
}

// DeriveState resolves the state an assignment should hold for a requested
// completion flag. Completion always wins; otherwise the due-soon policy picks
// between incomplete and due soon.
func DeriveState(requested models.CompletionState, due *time.Time, now time.Time, policy *DuePolicy) models.CompletionState {
	if requested == models.StateComplete {
		return models.StateComplete
	}
	if policy.IsDueSoon(due, now) {
		return models.StateDueSoon
	}
	return models.StateIncomplete
}

var ordinalSuffixes = [...]string{"th", "st", "nd", "rd"}

// DueLabel renders a due date as "AUG 21st" in loc. Nil dates render empty.
func DueLabel(due *time.Time, loc *time.Location) string {
	if due == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	local := due.In(loc)
	day := local.Day()
	return fmt.Sprintf("%s %d%s", strings.ToUpper(local.Format("Jan")), day, ordinalSuffix(day))
}

func ordinalSuffix(day int) string {
	if mod100 := day % 100; mod100 >= 11 && mod100 <= 13 {
		return "th"
	}
	if last := day % 10; last <= 3 {
		return ordinalSuffixes[last]
	}
	return "th"
}
