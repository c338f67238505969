// Package taxonomy defines the fixed vocabularies of the incident reporting
// domain: lifecycle statuses, incident categories, risk grades, patient
// safety goal codes (SKP), medication dispensing codes (MDP), and roles.
//
// Parse functions are total: they never panic and report unrecognized
// input through their boolean result.
package taxonomy

import "strings"

// Status is the lifecycle status of an incident.
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusPJReviewed   Status = "PJ_REVIEWED"
	StatusMutuReviewed Status = "MUTU_REVIEWED"
	StatusClosed       Status = "CLOSED"
)

// Statuses lists every declared status. PJ_REVIEWED and MUTU_REVIEWED are
// reserved and have no transitions.
var Statuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusPJReviewed,
	StatusMutuReviewed,
	StatusClosed,
}

// ParseStatus resolves s case-insensitively.
func ParseStatus(s string) (Status, bool) {
	return parse(Statuses, strings.ToUpper(strings.TrimSpace(s)))
}

// Category is the incident category.
type Category string

const (
	CategoryKTD      Category = "KTD"
	CategoryKTC      Category = "KTC"
	CategoryKNC      Category = "KNC"
	CategoryKPCS     Category = "KPCS"
	CategorySentinel Category = "SENTINEL"
)

// Categories lists every incident category.
var Categories = []Category{
	CategoryKTD,
	CategoryKTC,
	CategoryKNC,
	CategoryKPCS,
	CategorySentinel,
}

// ParseCategory resolves s case-insensitively.
func ParseCategory(s string) (Category, bool) {
	return parse(Categories, strings.ToUpper(strings.TrimSpace(s)))
}

// CategoryFromLabel maps a classifier label such as
// "KTD - Kejadian Tidak Diharapkan" to its category by prefix.
// The KPC label prefix maps to KPCS.
func CategoryFromLabel(label string) (Category, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(label, "SENTINEL"):
		return CategorySentinel, true
	case strings.HasPrefix(label, "KTD"):
		return CategoryKTD, true
	case strings.HasPrefix(label, "KTC"):
		return CategoryKTC, true
	case strings.HasPrefix(label, "KNC"):
		return CategoryKNC, true
	case strings.HasPrefix(label, "KPC"):
		return CategoryKPCS, true
	}
	return "", false
}

// Grade is the risk grade band, ordered from lowest to highest risk.
type Grade string

const (
	GradeBiru   Grade = "BIRU"
	GradeHijau  Grade = "HIJAU"
	GradeKuning Grade = "KUNING"
	GradeMerah  Grade = "MERAH"
)

// Grades lists every risk grade from lowest to highest.
var Grades = []Grade{
	GradeBiru,
	GradeHijau,
	GradeKuning,
	GradeMerah,
}

// ParseGrade resolves s case-insensitively.
func ParseGrade(s string) (Grade, bool) {
	return parse(Grades, strings.ToUpper(strings.TrimSpace(s)))
}

func parse[T ~string](set []T, s string) (T, bool) {
	for _, v := range set {
		if string(v) == s {
			return v, true
		}
	}
	var zero T
	return zero, false
}
