package classify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

const maxWordRunes = 100

// WordPieceTokenizer is a BERT-style tokenizer over a vocab.txt file:
// whitespace and punctuation splitting followed by greedy longest-match
// subword lookup.
type WordPieceTokenizer struct {
	vocab     map[string]int64
	lowerCase bool
	clsID     int64
	sepID     int64
	padID     int64
	unkID     int64
}

// LoadWordPieceTokenizer reads a vocabulary with one token per line.
func LoadWordPieceTokenizer(path string, lowerCase bool) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	return ReadWordPieceTokenizer(f, lowerCase)
}

// ReadWordPieceTokenizer builds a tokenizer from a vocabulary stream.
func ReadWordPieceTokenizer(r io.Reader, lowerCase bool) (*WordPieceTokenizer, error) {
	vocab := make(map[string]int64)
	sc := bufio.NewScanner(r)

	var idx int64
	for sc.Scan() {
		token := strings.TrimRight(sc.Text(), "\r")
		if token != "" {
			vocab[token] = idx
		}
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	t := &WordPieceTokenizer{vocab: vocab, lowerCase: lowerCase}
	for _, special := range []struct {
		token string
		id    *int64
	}{
		{"[CLS]", &t.clsID},
		{"[SEP]", &t.sepID},
		{"[PAD]", &t.padID},
		{"[UNK]", &t.unkID},
	} {
		id, ok := vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("vocab missing %s", special.token)
		}
		*special.id = id
	}

	return t, nil
}

// Encode returns token ids and the attention mask, both exactly seqLen long.
// Sequences longer than seqLen are truncated before the final [SEP].
func (t *WordPieceTokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	ids := make([]int64, seqLen)
	mask := make([]int64, seqLen)
	if seqLen < 2 {
		return ids, mask
	}

	tokens := []int64{t.clsID}
	for _, word := range t.split(text) {
		tokens = append(tokens, t.wordPiece(word)...)
		if len(tokens) >= seqLen-1 {
			tokens = tokens[:seqLen-1]
			break
		}
	}
	tokens = append(tokens, t.sepID)

	for i := range ids {
		if i < len(tokens) {
			ids[i] = tokens[i]
			mask[i] = 1
		} else {
			ids[i] = t.padID
		}
	}

	return ids, mask
}

func (t *WordPieceTokenizer) split(text string) []string {
	if t.lowerCase {
		text = strings.ToLower(text)
	}

	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return words
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []int64{t.unkID}
	}

	var pieces []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		var id int64
		found := false

		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if v, ok := t.vocab[sub]; ok {
				id, found = v, true
				break
			}
			end--
		}

		if !found {
			return []int64{t.unkID}
		}

		pieces = append(pieces, id)
		start = end
	}

	return pieces
}
