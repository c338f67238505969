package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
)

// SKPCode is a patient safety goal (Sasaran Keselamatan Pasien) code.
type SKPCode string

// MDPCode is a medication dispensing process code.
type MDPCode string

const (
	skpCount = 6
	mdpCount = 17
)

var (
	digitRun   = regexp.MustCompile(`\d+`)
	tokenSplit = regexp.MustCompile(`[:\s]+`)
)

// SKPCodes lists skp1 through skp6.
var SKPCodes = enumerate[SKPCode]("skp", skpCount)

// MDPCodes lists mdp1 through mdp17.
var MDPCodes = enumerate[MDPCode]("mdp", mdpCount)

// ParseSKP normalizes a raw predictor label and resolves it to an SKP code.
// "3", "SKP 3", "skp3: Identifikasi" and "SKP-3" all resolve to skp3.
func ParseSKP(raw string) (SKPCode, bool) {
	return parse(SKPCodes, normalizeCode(raw, "skp"))
}

// ParseMDP normalizes a raw predictor label and resolves it to an MDP code.
func ParseMDP(raw string) (MDPCode, bool) {
	return parse(MDPCodes, normalizeCode(raw, "mdp"))
}

func normalizeCode(raw, prefix string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if d := digitRun.FindString(s); d != "" {
		return prefix + strings.TrimLeft(d, "0")
	}

	for _, tok := range tokenSplit.Split(s, -1) {
		if strings.HasPrefix(tok, prefix) {
			return tok
		}
	}

	return strings.ReplaceAll(s, " ", "")
}

func enumerate[T ~string](prefix string, n int) []T {
	out := make([]T, n)
	for i := range n {
		out[i] = T(fmt.Sprintf("%s%d", prefix, i+1))
	}
	return out
}
