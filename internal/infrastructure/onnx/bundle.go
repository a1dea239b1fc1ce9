package onnx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

const modelFileName = "model.onnx"

// BundleConfig locates a model bundle: model.onnx, vocab.txt (or tokenizer/vocab.txt)
// and an optional label_map.json or config.json.
type BundleConfig struct {
	Dir               string
	SharedLibraryPath string
	MaxTokens         int
}

var runtimeMu sync.Mutex

// Load reads the bundle and opens an inference session. Every failure wraps
// service.ErrInitialization. The returned Closer releases the session.
func Load(cfg BundleConfig, logger *slog.Logger) (*service.ModelHandle, io.Closer, error) {
	h, c, err := load(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", service.ErrInitialization, err)
	}
	return h, c, nil
}

func load(cfg BundleConfig, logger *slog.Logger) (*service.ModelHandle, io.Closer, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, nil, fmt.Errorf("model directory is empty")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = service.DefaultMaxTokens
	}

	modelPath := filepath.Join(cfg.Dir, modelFileName)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	vocabPath, err := resolveVocabPath(cfg.Dir)
	if err != nil {
		return nil, nil, err
	}

	order, err := loadLabelOrder(cfg.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load labels: %w", err)
	}

	if err := initRuntime(resolveSharedLibraryPath(cfg.SharedLibraryPath, cfg.Dir)); err != nil {
		return nil, nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("inspect model: %w", err)
	}

	inputNames, useTokenType, staticLen, err := selectInputs(inputs)
	if err != nil {
		return nil, nil, err
	}
	if len(outputs) == 0 {
		return nil, nil, fmt.Errorf("model declares no outputs")
	}
	outputName := outputs[0].Name
	if dims := outputs[0].Dimensions; len(dims) == 2 && dims[1] > 0 && dims[1] != valueobject.LabelCount {
		return nil, nil, fmt.Errorf("model output %s has %d classes, expected %d", outputName, dims[1], valueobject.LabelCount)
	}

	var tokOpts []TokenizerOption
	if staticLen > 0 {
		maxTokens = sequenceBudget(maxTokens, staticLen, logger)
		tokOpts = append(tokOpts, WithPadToMax())
	}

	tokenizer, err := LoadWordPieceTokenizer(vocabPath, tokOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load tokenizer: %w", err)
	}

	sess, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create onnx session: %w", err)
	}

	classifier := &Session{
		session:      sess,
		useTokenType: useTokenType,
		numClasses:   valueobject.LabelCount,
		order:        order,
	}

	handle, err := service.NewModelHandle(tokenizer, classifier, filepath.Base(filepath.Clean(cfg.Dir)), maxTokens)
	if err != nil {
		classifier.Close() //nolint:errcheck
		return nil, nil, err
	}

	logger.Info("model bundle loaded",
		slog.String("model", modelPath),
		slog.String("output", outputName),
		slog.Int("vocab_size", tokenizer.VocabSize()),
		slog.Int("max_tokens", maxTokens),
		slog.Bool("token_type_ids", useTokenType),
	)

	return handle, classifier, nil
}

// sequenceBudget returns the token budget for a model whose sequence dimension is
// fixed at staticLen. Every encoding is padded to the budget, so it must equal
// staticLen whatever MAX_TOKENS says.
func sequenceBudget(configured, staticLen int, logger *slog.Logger) int {
	if configured != staticLen {
		logger.Warn("model has a fixed sequence length, overriding max tokens",
			slog.Int("configured", configured),
			slog.Int("model", staticLen),
		)
	}
	return staticLen
}

// selectInputs checks that the model takes input_ids and attention_mask and reports
// whether it also wants token_type_ids and whether its sequence dimension is fixed.
func selectInputs(inputs []ort.InputOutputInfo) ([]string, bool, int, error) {
	var hasIDs, hasMask, hasTokenType bool
	staticLen := 0
	for _, in := range inputs {
		switch in.Name {
		case inputIDsName:
			hasIDs = true
			if len(in.Dimensions) == 2 && in.Dimensions[1] > 0 {
				staticLen = int(in.Dimensions[1])
			}
		case attentionMaskName:
			hasMask = true
		case tokenTypeIDsName:
			hasTokenType = true
		default:
			return nil, false, 0, fmt.Errorf("unsupported model input %q", in.Name)
		}
	}
	if !hasIDs || !hasMask {
		return nil, false, 0, fmt.Errorf("model must take %s and %s", inputIDsName, attentionMaskName)
	}

	names := []string{inputIDsName, attentionMaskName}
	if hasTokenType {
		names = append(names, tokenTypeIDsName)
	}
	return names, hasTokenType, staticLen, nil
}

func resolveVocabPath(dir string) (string, error) {
	for _, p := range []string{
		filepath.Join(dir, "vocab.txt"),
		filepath.Join(dir, "tokenizer", "vocab.txt"),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("tokenizer vocab.txt not found under %s", dir)
}

func initRuntime(libPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		return fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// resolveSharedLibraryPath returns the configured library path, or probes the bundle
// directory and common install locations.
func resolveSharedLibraryPath(configured, bundleDir string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}

	names := []string{
		"libonnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

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
