package onnx

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/bibbank/scamshield/internal/domain/port"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

const (
	inputIDsName      = "input_ids"
	attentionMaskName = "attention_mask"
	tokenTypeIDsName  = "token_type_ids"
)

// Session implements port.SequenceClassifier on an ONNX Runtime session. Tensors are
// allocated per call, so concurrent Logits calls share nothing but the read-only session.
type Session struct {
	session      *ort.DynamicAdvancedSession
	useTokenType bool
	numClasses   int
	// order[severity] is the logit index holding that risk label.
	order [valueobject.LabelCount]int
}

// Logits runs one forward pass and returns logits ordered [LOW, MEDIUM, HIGH].
func (s *Session) Logits(ctx context.Context, enc port.Encoding) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if enc.Len() == 0 || len(enc.AttentionMask) != enc.Len() {
		return nil, fmt.Errorf("malformed encoding: %d ids, %d mask", enc.Len(), len(enc.AttentionMask))
	}

	shape := ort.NewShape(1, int64(enc.Len()))

	ids, err := ort.NewTensor(shape, enc.InputIDs)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	defer ids.Destroy() //nolint:errcheck

	mask, err := ort.NewTensor(shape, enc.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	defer mask.Destroy() //nolint:errcheck

	inputs := []ort.Value{ids, mask}
	if s.useTokenType {
		segments, err := ort.NewTensor(shape, make([]int64, enc.Len()))
		if err != nil {
			return nil, fmt.Errorf("allocate token_type_ids tensor: %w", err)
		}
		defer segments.Destroy() //nolint:errcheck
		inputs = append(inputs, segments)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(s.numClasses)))
	if err != nil {
		return nil, fmt.Errorf("allocate logits tensor: %w", err)
	}
	defer output.Destroy() //nolint:errcheck

	if err := s.session.Run(inputs, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := output.GetData()
	if len(raw) != s.numClasses {
		return nil, fmt.Errorf("model returned %d logits, expected %d", len(raw), s.numClasses)
	}

	logits := make([]float32, valueobject.LabelCount)
	for severity, idx := range s.order {
		logits[severity] = raw[idx]
	}
	return logits, nil
}

// Close releases the underlying session.
func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	return s.session.Destroy()
}
