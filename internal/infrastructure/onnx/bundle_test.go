package onnx

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_InitializationFailures(t *testing.T) {
	t.Run("empty directory setting", func(t *testing.T) {
		_, _, err := Load(BundleConfig{}, testLogger())
		assert.ErrorIs(t, err, service.ErrInitialization)
	})

	t.Run("missing model file", func(t *testing.T) {
		_, _, err := Load(BundleConfig{Dir: t.TempDir()}, testLogger())
		assert.ErrorIs(t, err, service.ErrInitialization)
		assert.Contains(t, err.Error(), "model file missing")
	})

	t.Run("missing vocab", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "model.onnx"), "not really a model")

		_, _, err := Load(BundleConfig{Dir: dir}, testLogger())
		assert.ErrorIs(t, err, service.ErrInitialization)
		assert.Contains(t, err.Error(), "vocab.txt")
	})

	t.Run("label map with unknown class", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "model.onnx"), "not really a model")
		writeFile(t, filepath.Join(dir, "tokenizer", "vocab.txt"), "[PAD]\n[UNK]\n[CLS]\n[SEP]\n")
		writeFile(t, filepath.Join(dir, "label_map.json"), `["ham","spam","eggs"]`)

		_, _, err := Load(BundleConfig{Dir: dir}, testLogger())
		assert.ErrorIs(t, err, service.ErrInitialization)
		assert.Contains(t, err.Error(), "load labels")
	})
}

func TestLoadLabelOrder(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		expected [valueobject.LabelCount]int
		wantErr  bool
	}{
		{
			name:     "no metadata is positional",
			expected: [3]int{0, 1, 2},
		},
		{
			name:     "array label map",
			files:    map[string]string{"label_map.json": `["LOW","MEDIUM","HIGH"]`},
			expected: [3]int{0, 1, 2},
		},
		{
			name:     "indexed label map is reordered",
			files:    map[string]string{"label_map.json": `{"0":"fraud","1":"legit","2":"suspicious"}`},
			expected: [3]int{1, 2, 0},
		},
		{
			name:     "hugging face id2label",
			files:    map[string]string{"config.json": `{"id2label":{"0":"spam","1":"ham","2":"suspicious"}}`},
			expected: [3]int{1, 2, 0},
		},
		{
			name:     "generic LABEL_n names are positional",
			files:    map[string]string{"config.json": `{"id2label":{"0":"LABEL_0","1":"LABEL_1","2":"LABEL_2"}}`},
			expected: [3]int{0, 1, 2},
		},
		{
			name:     "label map wins over config.json",
			files:    map[string]string{"label_map.json": `["HIGH","MEDIUM","LOW"]`, "config.json": `{"id2label":{"0":"LOW","1":"MEDIUM","2":"HIGH"}}`},
			expected: [3]int{2, 1, 0},
		},
		{
			name:    "two classes",
			files:   map[string]string{"label_map.json": `["ham","spam"]`},
			wantErr: true,
		},
		{
			name:    "duplicate severity",
			files:   map[string]string{"label_map.json": `["spam","fraud","ham"]`},
			wantErr: true,
		},
		{
			name:    "malformed json",
			files:   map[string]string{"label_map.json": `{`},
			wantErr: true,
		},
		{
			name:    "index out of range",
			files:   map[string]string{"label_map.json": `{"0":"LOW","1":"MEDIUM","5":"HIGH"}`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(dir, name), content)
			}

			order, err := loadLabelOrder(dir)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, order)
		})
	}
}

func TestResolveSharedLibraryPath(t *testing.T) {
	assert.Equal(t, "/custom/libonnxruntime.so", resolveSharedLibraryPath(" /custom/libonnxruntime.so ", t.TempDir()))

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib", "libonnxruntime.so"), "")
	assert.Equal(t, filepath.Join(dir, "lib", "libonnxruntime.so"), resolveSharedLibraryPath("", dir))
}

// TestLoad_RealBundle runs only when a model bundle and runtime are available, e.g.
// SCAMSHIELD_TEST_MODEL_DIR=./models/distilbert-scam ONNXRUNTIME_SHARED_LIBRARY_PATH=...
func TestLoad_RealBundle(t *testing.T) {
	dir := os.Getenv("SCAMSHIELD_TEST_MODEL_DIR")
	if dir == "" {
		t.Skip("SCAMSHIELD_TEST_MODEL_DIR not set")
	}

	handle, closer, err := Load(BundleConfig{
		Dir:               dir,
		SharedLibraryPath: os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"),
		MaxTokens:         512,
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() }) //nolint:errcheck

	scorer := service.NewModelScorer(testLogger())
	require.NoError(t, scorer.Initialize(handle))

	for _, text := range []string{"", "Your account has been suspended. Verify immediately."} {
		first, err := scorer.Score(context.Background(), text)
		require.NoError(t, err)
		require.NoError(t, first.Distribution().Validate())
		assert.Equal(t, first.Distribution().Probability(valueobject.RiskLabelHigh), first.RiskScore())

		second, err := scorer.Score(context.Background(), text)
		require.NoError(t, err)
		assert.True(t, first.Distribution().Equal(second.Distribution()))
	}
}

func TestSelectInputs(t *testing.T) {
	tests := []struct {
		name         string
		inputs       []ort.InputOutputInfo
		wantNames    []string
		wantType     bool
		wantStatic   int
		wantErrMatch string
	}{
		{
			name: "dynamic sequence",
			inputs: []ort.InputOutputInfo{
				{Name: "input_ids", Dimensions: ort.NewShape(-1, -1)},
				{Name: "attention_mask", Dimensions: ort.NewShape(-1, -1)},
			},
			wantNames: []string{"input_ids", "attention_mask"},
		},
		{
			name: "fixed sequence with token types",
			inputs: []ort.InputOutputInfo{
				{Name: "attention_mask", Dimensions: ort.NewShape(1, 512)},
				{Name: "token_type_ids", Dimensions: ort.NewShape(1, 512)},
				{Name: "input_ids", Dimensions: ort.NewShape(1, 512)},
			},
			wantNames:  []string{"input_ids", "attention_mask", "token_type_ids"},
			wantType:   true,
			wantStatic: 512,
		},
		{
			name:         "missing attention mask",
			inputs:       []ort.InputOutputInfo{{Name: "input_ids", Dimensions: ort.NewShape(1, 128)}},
			wantErrMatch: "attention_mask",
		},
		{
			name: "unknown input",
			inputs: []ort.InputOutputInfo{
				{Name: "input_ids"}, {Name: "attention_mask"}, {Name: "pixel_values"},
			},
			wantErrMatch: "pixel_values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, tokenType, static, err := selectInputs(tt.inputs)
			if tt.wantErrMatch != "" {
				assert.ErrorContains(t, err, tt.wantErrMatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantType, tokenType)
			assert.Equal(t, tt.wantStatic, static)
		})
	}
}

func TestSequenceBudget_FollowsFixedModelLength(t *testing.T) {
	_, _, static, err := selectInputs([]ort.InputOutputInfo{
		{Name: "input_ids", Dimensions: ort.NewShape(1, 16)},
		{Name: "attention_mask", Dimensions: ort.NewShape(1, 16)},
	})
	require.NoError(t, err)

	tok := newTestTokenizer(t, WithPadToMax())
	for _, configured := range []int{4, 16, 512} {
		budget := sequenceBudget(configured, static, testLogger())
		assert.Equal(t, 16, budget, "configured %d", configured)

		enc, err := tok.Encode("your account is suspended, verify now!", budget)
		require.NoError(t, err)
		assert.Equal(t, static, enc.Len(), "configured %d", configured)
	}
}
