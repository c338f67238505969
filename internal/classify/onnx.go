package classify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXRuntime loads models through the onnxruntime shared library. The
// library is located and initialized once, on the first model load.
type ONNXRuntime struct {
	library string
	baseDir string

	once sync.Once
	err  error
}

// NewONNXRuntime creates a runtime using library when set, otherwise
// ONNXRUNTIME_SHARED_LIBRARY_PATH or a probe of the usual install
// locations, starting with baseDir.
func NewONNXRuntime(library, baseDir string) *ONNXRuntime {
	return &ONNXRuntime{library: library, baseDir: baseDir}
}

func (r *ONNXRuntime) init() error {
	r.once.Do(func() {
		lib := r.library
		if lib == "" {
			lib = resolveSharedLibraryPath(r.baseDir)
		}
		if lib == "" {
			r.err = errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
			return
		}

		ort.SetSharedLibraryPath(lib)
		if !ort.IsInitialized() {
			if err := ort.InitializeEnvironment(); err != nil {
				r.err = fmt.Errorf("initialize onnxruntime: %w", err)
			}
		}
	})
	return r.err
}

// Shutdown tears down the onnxruntime environment.
func (r *ONNXRuntime) Shutdown() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// LoadArtifact is an ArtifactLoader for an ONNX scoring model described
// by its manifest.
func (r *ONNXRuntime) LoadArtifact(path string) (*Artifact, error) {
	if err := r.init(); err != nil {
		return nil, err
	}

	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}

	scorer, err := newONNXScorer(path, m)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Scorer:  scorer,
		Targets: m.Targets,
		Version: m.Version,
	}, nil
}

// EncoderLoader returns a loader for the exported encoder in dir.
func (r *ONNXRuntime) EncoderLoader(dir string, seqLen int) EncoderLoader {
	return func() (Encoder, error) {
		if err := r.init(); err != nil {
			return nil, err
		}
		return newONNXEncoder(dir, seqLen)
	}
}

type onnxScorer struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	outputs []*ort.Tensor[float32]
	dim     int

	mu sync.Mutex
}

func newONNXScorer(path string, m *Manifest) (_ *onnxScorer, err error) {
	s := &onnxScorer{dim: m.EmbeddingDim}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.EmbeddingDim)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}

	names := make([]string, len(m.Targets))
	values := make([]ort.Value, len(m.Targets))
	for i, t := range m.Targets {
		out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(t.Labels))))
		if err != nil {
			return nil, fmt.Errorf("allocate %s tensor: %w", t.Output, err)
		}
		s.outputs = append(s.outputs, out)
		names[i] = t.Output
		values[i] = out
	}

	s.session, err = ort.NewAdvancedSession(
		path,
		[]string{m.Input},
		names,
		[]ort.Value{s.input},
		values,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return s, nil
}

func (s *onnxScorer) Score(embedding []float32) ([][]float32, error) {
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("embedding has %d dimensions, model expects %d", len(embedding), s.dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.input.GetData(), embedding)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	scores := make([][]float32, len(s.outputs))
	for i, out := range s.outputs {
		scores[i] = append([]float32(nil), out.GetData()...)
	}
	return scores, nil
}

func (s *onnxScorer) Close() error {
	var errs []error
	if s.session != nil {
		errs = append(errs, s.session.Destroy())
	}
	if s.input != nil {
		errs = append(errs, s.input.Destroy())
	}
	for _, out := range s.outputs {
		errs = append(errs, out.Destroy())
	}
	return errors.Join(errs...)
}

type onnxEncoder struct {
	tokenizer Tokenizer
	session   *ort.AdvancedSession
	seqLen    int
	hidden    int

	inputIDs   *ort.Tensor[int64]
	mask       *ort.Tensor[int64]
	tokenTypes *ort.Tensor[int64]
	output     *ort.Tensor[float32]

	mu sync.Mutex
}

func newONNXEncoder(dir string, seqLen int) (_ *onnxEncoder, err error) {
	m, err := LoadEncoderManifest(dir)
	if err != nil {
		return nil, err
	}

	modelPath := filepath.Join(dir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("encoder model missing at %s: %w", modelPath, err)
	}

	tok, err := LoadEncoderTokenizer(dir, m)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	e := &onnxEncoder{tokenizer: tok, seqLen: seqLen, hidden: m.HiddenSize}
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	shape := ort.NewShape(1, int64(seqLen))
	if e.inputIDs, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	if e.mask, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}

	names := []string{"input_ids", "attention_mask"}
	inputs := []ort.Value{e.inputIDs, e.mask}
	if m.TokenTypeIDs {
		if e.tokenTypes, err = ort.NewEmptyTensor[int64](shape); err != nil {
			return nil, fmt.Errorf("allocate token_type_ids tensor: %w", err)
		}
		names = append(names, "token_type_ids")
		inputs = append(inputs, e.tokenTypes)
	}

	if e.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(m.HiddenSize))); err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		names,
		[]string{m.Output},
		inputs,
		[]ort.Value{e.output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return e, nil
}

func (e *onnxEncoder) Encode(text string) ([]float32, error) {
	ids, mask := e.tokenizer.Encode(text, e.seqLen)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.inputIDs.GetData(), ids)
	copy(e.mask.GetData(), mask)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	return meanPool(e.output.GetData(), mask, e.hidden), nil
}

func (e *onnxEncoder) Close() error {
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
	}
	for _, t := range []*ort.Tensor[int64]{e.inputIDs, e.mask, e.tokenTypes} {
		if t != nil {
			errs = append(errs, t.Destroy())
		}
	}
	if e.output != nil {
		errs = append(errs, e.output.Destroy())
	}
	return errors.Join(errs...)
}

// meanPool averages the token vectors of hidden, a row-major
// [len(mask), dim] matrix, over the positions where mask is set.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	pooled := make([]float32, dim)

	var n float32
	for i, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[i*dim : (i+1)*dim]
		for j, v := range row {
			pooled[j] += v
		}
		n++
	}

	if n > 0 {
		for j := range pooled {
			pooled[j] /= n
		}
	}
	return pooled
}

func resolveSharedLibraryPath(baseDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dll",
	}

	var dirs []string
	if baseDir != "" {
		dirs = append(dirs, baseDir, filepath.Join(baseDir, "lib"))
	}
	dirs = append(dirs, ".", "/opt/homebrew/lib", "/usr/local/lib", "/usr/lib")

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
