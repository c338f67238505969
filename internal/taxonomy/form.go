package taxonomy

import (
	"slices"
	"strings"
)

// AgeGroup buckets a patient age in years.
type AgeGroup string

const (
	AgeBayi   AgeGroup = "bayi"
	AgeBalita AgeGroup = "balita"
	AgeAnak   AgeGroup = "anak"
	AgeRemaja AgeGroup = "remaja"
	AgeDewasa AgeGroup = "dewasa"
	AgeLansia AgeGroup = "lansia"
)

// AgeGroups lists every age group from youngest to oldest.
var AgeGroups = []AgeGroup{AgeBayi, AgeBalita, AgeAnak, AgeRemaja, AgeDewasa, AgeLansia}

// ParseAgeGroup resolves s case-insensitively.
func ParseAgeGroup(s string) (AgeGroup, bool) {
	return parse(AgeGroups, strings.ToLower(strings.TrimSpace(s)))
}

// AgeGroupOf derives the age group for an age in whole years.
func AgeGroupOf(age int) AgeGroup {
	switch {
	case age < 1:
		return AgeBayi
	case age <= 4:
		return AgeBalita
	case age <= 10:
		return AgeAnak
	case age <= 18:
		return AgeRemaja
	case age <= 59:
		return AgeDewasa
	default:
		return AgeLansia
	}
}

// Form field vocabularies accepted on incident reports.
var (
	Genders          = []string{"l", "p"}
	PayerTypes       = []string{"umum", "bpjs-mandiri", "sktm"}
	ReporterTypes    = []string{"dokter", "perawat", "petugas", "pasien", "keluarga", "pengunjung", "lain"}
	IncidentSubjects = []string{"pasien", "lain"}
	PatientContexts  = []string{"rawat-inap", "ugd", "rawat-jalan", "lain"}
	ResponderRoles   = []string{"tim", "dokter", "perawat", "petugas-lainnya"}
	IncidentPlaces   = []string{
		"penyakit-dalam", "anak", "bedah", "obsgyn", "tht", "mata", "saraf",
		"anestesi", "kulit-kelamin", "jantung", "paru", "jiwa", "lain",
	}
)

// Allowed reports whether v is nil or one of set.
func Allowed(set []string, v *string) bool {
	return v == nil || slices.Contains(set, *v)
}
