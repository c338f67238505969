// Package grading computes the risk grade of an incident from how often
// incidents occur in its department during the month and how severe the
// reported harm is.
package grading

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

// Counter counts incidents of a department whose occurrence time falls in
// [start, end).
type Counter interface {
	CountInWindow(ctx context.Context, departmentID uuid.UUID, start, end time.Time) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, departmentID uuid.UUID, start, end time.Time) (int, error)

func (f CounterFunc) CountInWindow(ctx context.Context, departmentID uuid.UUID, start, end time.Time) (int, error) {
	return f(ctx, departmentID, start, end)
}

// Matrix is indexed [probability-1][severity-1].
var Matrix = [5][5]taxonomy.Grade{
	{taxonomy.GradeBiru, taxonomy.GradeBiru, taxonomy.GradeHijau, taxonomy.GradeKuning, taxonomy.GradeMerah},
	{taxonomy.GradeBiru, taxonomy.GradeBiru, taxonomy.GradeHijau, taxonomy.GradeKuning, taxonomy.GradeMerah},
	{taxonomy.GradeBiru, taxonomy.GradeHijau, taxonomy.GradeKuning, taxonomy.GradeMerah, taxonomy.GradeMerah},
	{taxonomy.GradeHijau, taxonomy.GradeHijau, taxonomy.GradeKuning, taxonomy.GradeMerah, taxonomy.GradeMerah},
	{taxonomy.GradeHijau, taxonomy.GradeHijau, taxonomy.GradeKuning, taxonomy.GradeMerah, taxonomy.GradeMerah},
}

type severityRule struct {
	rank  int
	terms []*regexp.Regexp
}

// Checked in order; the first matching rank wins. "reversible" must start a
// word so that "irreversible" falls through to rank 4.
var severityRules = []severityRule{
	{1, terms(`tidak ada cedera`, `tidak ada cidera`)},
	{2, terms(`ringan`)},
	{3, terms(`\breversible`, `berkurangnya`, `robek`)},
	{4, terms(`irreversible`, `luas`, `berat`, `cacat`, `lumpuh`, `kehilangan`)},
	{5, terms(`kematian`)},
}

// MonthWindow returns the first instant of t's calendar month and the
// first instant of the following month, in t's location.
func MonthWindow(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// UTCMonths returns the UTC calendar months, formatted YYYY-MM, that
// contain any instant in [from, to]. A month window in a local zone spans at
// most two of them; they name the locks that order counting against writes.
func UTCMonths(from, to time.Time) []string {
	from, to = from.UTC(), to.UTC()

	var months []string
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format("2006-01"))
	}
	return months
}

// ProbabilityRank maps a monthly incident count to a probability rank.
// The table is not monotonic in its low range: one incident ranks 3.
func ProbabilityRank(frequency int) int {
	switch {
	case frequency <= 0:
		return 1
	case frequency == 1:
		return 3
	case frequency <= 3:
		return 4
	default:
		return 5
	}
}

// SeverityRank maps free-form harm text to a severity rank in [1, 5].
func SeverityRank(harm string) (int, bool) {
	text := strings.ToLower(strings.TrimSpace(harm))
	if text == "" {
		return 0, false
	}

	for _, rule := range severityRules {
		for _, re := range rule.terms {
			if re.MatchString(text) {
				return rule.rank, true
			}
		}
	}

	return 0, false
}

// Lookup returns the matrix grade for a probability and severity rank.
func Lookup(probability, severity int) (taxonomy.Grade, bool) {
	if probability < 1 || probability > 5 || severity < 1 || severity > 5 {
		return "", false
	}
	return Matrix[probability-1][severity-1], true
}

// Grade computes the risk grade of an incident. It returns false without
// error when any input needed for the grade is missing. The count returned
// by counter is used as the frequency as is.
func Grade(
	ctx context.Context,
	counter Counter,
	departmentID *uuid.UUID,
	occurredAt *time.Time,
	harm *string,
) (taxonomy.Grade, bool, error) {
	if departmentID == nil || occurredAt == nil || harm == nil {
		return "", false, nil
	}

	severity, ok := SeverityRank(*harm)
	if !ok {
		return "", false, nil
	}

	start, end := MonthWindow(*occurredAt)
	count, err := counter.CountInWindow(ctx, *departmentID, start, end)
	if err != nil {
		return "", false, fmt.Errorf("count incidents for department %s: %w", *departmentID, err)
	}

	grade, ok := Lookup(ProbabilityRank(count), severity)
	return grade, ok, nil
}

func terms(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
