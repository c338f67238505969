package classify

import (
	"regexp"
	"strings"
)

// Abbreviations maps clinical shorthand found in incident narratives to
// its expansion. Matching is per whitespace-separated word.
var Abbreviations = map[string]string{
	"dx":    "diagnosis",
	"tx":    "terapi",
	"k/u":   "kondisi umum",
	"ku":    "kondisi umum",
	"td":    "tekanan darah",
	"tensi": "tekanan darah",
	"hr":    "nadi",
	"rr":    "respirasi",
	"px":    "pasien",
	"os":    "orang sakit",
	"tth":   "tertawa terbahak",
	"yg":    "yang",
	"dg":    "dengan",
	"dr":    "dokter",
	"tn":    "tuan",
	"ny":    "nyonya",
	"an":    "anak",
}

var (
	anonTag     = regexp.MustCompile(`<\s*[a-zA-Z0-9]+\s*>`)
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`([.,!?])`)
)

// Preprocess normalizes a narrative the way the encoder saw it in training:
// lowercase, anonymization tags removed, abbreviations expanded, and
// punctuation split into separate tokens.
func Preprocess(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "<.>", ".")
	text = anonTag.ReplaceAllString(text, " ")

	words := strings.Fields(text)
	for i, w := range words {
		if exp, ok := Abbreviations[w]; ok {
			words[i] = exp
		}
	}
	text = strings.Join(words, " ")

	text = punctuation.ReplaceAllString(text, " $1 ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
