package classify

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	metaspace = "▁"

	// unknownPenalty keeps an unknown token below every vocab piece.
	unknownPenalty = 10.0
)

// Tokenizer maps text to fixed-length model inputs.
type Tokenizer interface {
	Encode(text string, seqLen int) (ids, mask []int64)
}

// LoadEncoderTokenizer opens the tokenizer assets of an encoder directory
// according to its manifest.
func LoadEncoderTokenizer(dir string, m *EncoderManifest) (Tokenizer, error) {
	if m.Tokenizer == TokenizerWordPiece {
		tok, err := LoadWordPieceTokenizer(filepath.Join(dir, "vocab.txt"), *m.LowerCase)
		if err != nil {
			return nil, err
		}
		return tok, nil
	}

	tok, err := LoadUnigramTokenizer(filepath.Join(dir, "tokenizer.json"), *m.LowerCase)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// UnigramTokenizer is a SentencePiece unigram tokenizer read from a
// Hugging Face tokenizer.json, as shipped with XLM-R based encoders.
// Segmentation picks the highest scoring split of each word.
type UnigramTokenizer struct {
	scores       []float64
	byteTokens   map[byte]int64
	byteFallback bool
	lowerCase    bool
	unkID        int64
	unkScore     float64
	clsID        int64
	sepID        int64
	padID        int64
	root         *pieceNode
}

type pieceNode struct {
	next map[byte]*pieceNode
	id   int64
}

type tokenizerFile struct {
	Model struct {
		Type         string            `json:"type"`
		Vocab        []json.RawMessage `json:"vocab"`
		UnkID        *int64            `json:"unk_id"`
		ByteFallback bool              `json:"byte_fallback"`
	} `json:"model"`
}

// LoadUnigramTokenizer reads a tokenizer.json file.
func LoadUnigramTokenizer(path string, lowerCase bool) (*UnigramTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tokenizer: %w", err)
	}
	defer f.Close()

	return ReadUnigramTokenizer(f, lowerCase)
}

// ReadUnigramTokenizer builds a tokenizer from a tokenizer.json stream.
func ReadUnigramTokenizer(r io.Reader, lowerCase bool) (*UnigramTokenizer, error) {
	var raw tokenizerFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tokenizer: %w", err)
	}
	if !strings.EqualFold(raw.Model.Type, "unigram") {
		return nil, fmt.Errorf("tokenizer model %q is not unigram", raw.Model.Type)
	}
	if len(raw.Model.Vocab) == 0 {
		return nil, fmt.Errorf("tokenizer vocab is empty")
	}

	t := &UnigramTokenizer{
		scores:       make([]float64, len(raw.Model.Vocab)),
		byteTokens:   make(map[byte]int64),
		byteFallback: raw.Model.ByteFallback,
		lowerCase:    lowerCase,
		root:         &pieceNode{id: -1},
	}

	vocab := make(map[string]int64, len(raw.Model.Vocab))
	minScore := math.Inf(1)
	for i, entry := range raw.Model.Vocab {
		var pair []any
		if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("vocab entry %d is not a [piece, score] pair", i)
		}
		piece, ok := pair[0].(string)
		score, ok2 := pair[1].(float64)
		if !ok || !ok2 || piece == "" {
			return nil, fmt.Errorf("vocab entry %d is malformed", i)
		}

		id := int64(i)
		vocab[piece] = id
		t.scores[i] = score
		minScore = min(minScore, score)
		t.insert(piece, id)

		var b byte
		if len(piece) == 6 && strings.HasPrefix(piece, "<0x") {
			if _, err := fmt.Sscanf(piece, "<0x%02X>", &b); err == nil {
				t.byteTokens[b] = id
			}
		}
	}

	t.unkID = -1
	if raw.Model.UnkID != nil {
		t.unkID = *raw.Model.UnkID
	}

	for _, special := range []struct {
		names []string
		id    *int64
	}{
		{[]string{"<s>", "[CLS]"}, &t.clsID},
		{[]string{"</s>", "[SEP]"}, &t.sepID},
		{[]string{"<pad>", "[PAD]"}, &t.padID},
	} {
		id, ok := lookupAny(vocab, special.names)
		if !ok {
			return nil, fmt.Errorf("tokenizer vocab missing %s", special.names[0])
		}
		*special.id = id
	}
	if t.unkID < 0 {
		if id, ok := lookupAny(vocab, []string{"<unk>", "[UNK]"}); ok {
			t.unkID = id
		}
	}
	if t.unkID < 0 || int(t.unkID) >= len(t.scores) {
		return nil, fmt.Errorf("tokenizer has no unknown token")
	}
	t.unkScore = minScore - unknownPenalty

	return t, nil
}

func lookupAny(vocab map[string]int64, names []string) (int64, bool) {
	for _, name := range names {
		if id, ok := vocab[name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (t *UnigramTokenizer) insert(piece string, id int64) {
	node := t.root
	for i := 0; i < len(piece); i++ {
		if node.next == nil {
			node.next = make(map[byte]*pieceNode)
		}
		child, ok := node.next[piece[i]]
		if !ok {
			child = &pieceNode{id: -1}
			node.next[piece[i]] = child
		}
		node = child
	}
	node.id = id
}

// Encode returns token ids and the attention mask, both exactly seqLen long.
// Sequences longer than seqLen are truncated before the closing </s>.
func (t *UnigramTokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	ids := make([]int64, seqLen)
	mask := make([]int64, seqLen)
	if seqLen < 2 {
		return ids, mask
	}

	tokens := []int64{t.clsID}
	for _, word := range t.words(text) {
		tokens = append(tokens, t.segment(word)...)
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

// words applies NFKC normalization and splits on whitespace, prefixing
// each word with the metaspace marker.
func (t *UnigramTokenizer) words(text string) []string {
	text = norm.NFKC.String(text)
	if t.lowerCase {
		text = strings.ToLower(text)
	}

	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = metaspace + f
	}
	return fields
}

// segment runs a Viterbi pass over the bytes of word. Positions no vocab
// piece starts from consume one rune as a byte fallback or unknown token;
// adjacent unknowns collapse into one.
func (t *UnigramTokenizer) segment(word string) []int64 {
	n := len(word)
	best := make([]float64, n+1)
	from := make([]int, n+1)
	piece := make([][]int64, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(-1)
	}

	relax := func(start, end int, score float64, ids []int64) {
		if score > best[end] {
			best[end] = score
			from[end] = start
			piece[end] = ids
		}
	}

	for i := 0; i < n; i++ {
		if math.IsInf(best[i], -1) {
			continue
		}

		matched := false
		node := t.root
		for j := i; j < n && node != nil; j++ {
			node = node.next[word[j]]
			if node != nil && node.id >= 0 {
				matched = true
				relax(i, j+1, best[i]+t.scores[node.id], []int64{node.id})
			}
		}
		if matched {
			continue
		}

		_, size := utf8.DecodeRuneInString(word[i:])
		if t.byteFallback {
			if ids, score, ok := t.fallbackBytes(word[i : i+size]); ok {
				relax(i, i+size, best[i]+score, ids)
				continue
			}
		}
		relax(i, i+size, best[i]+t.unkScore, []int64{t.unkID})
	}

	var out []int64
	for pos := n; pos > 0; pos = from[pos] {
		ids := piece[pos]
		if len(out) > 0 && ids[0] == t.unkID && out[len(out)-1] == t.unkID {
			continue
		}
		out = append(out, reversed(ids)...)
	}
	return reversed(out)
}

func (t *UnigramTokenizer) fallbackBytes(s string) ([]int64, float64, bool) {
	ids := make([]int64, 0, len(s))
	var score float64
	for i := 0; i < len(s); i++ {
		id, ok := t.byteTokens[s[i]]
		if !ok {
			return nil, 0, false
		}
		ids = append(ids, id)
		score += t.scores[id]
	}
	return ids, score, true
}

func reversed(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
