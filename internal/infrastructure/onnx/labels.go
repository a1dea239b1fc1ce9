package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// positionalOrder assumes logits are already ordered [LOW, MEDIUM, HIGH].
var positionalOrder = [valueobject.LabelCount]int{0, 1, 2}

// loadLabelOrder works out which logit index carries which risk label. It reads
// label_map.json, then the id2label block of a Hugging Face config.json, and otherwise
// assumes positional order.
func loadLabelOrder(dir string) ([valueobject.LabelCount]int, error) {
	data, err := os.ReadFile(filepath.Join(dir, "label_map.json"))
	if err == nil {
		names, err := parseLabelMap(data)
		if err != nil {
			return [valueobject.LabelCount]int{}, fmt.Errorf("parse label_map.json: %w", err)
		}
		return labelOrder(names)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return [valueobject.LabelCount]int{}, fmt.Errorf("read label_map.json: %w", err)
	}

	data, err = os.ReadFile(filepath.Join(dir, "config.json"))
	if err == nil {
		var hf struct {
			ID2Label map[string]string `json:"id2label"`
		}
		if err := json.Unmarshal(data, &hf); err != nil {
			return [valueobject.LabelCount]int{}, fmt.Errorf("parse config.json: %w", err)
		}
		if len(hf.ID2Label) > 0 {
			names, err := indexedNames(hf.ID2Label)
			if err != nil {
				return [valueobject.LabelCount]int{}, fmt.Errorf("config.json id2label: %w", err)
			}
			return labelOrder(names)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return [valueobject.LabelCount]int{}, fmt.Errorf("read config.json: %w", err)
	}

	return positionalOrder, nil
}

// parseLabelMap accepts either ["LOW","MEDIUM","HIGH"] or {"0":"LOW","1":"MEDIUM",...}.
func parseLabelMap(data []byte) ([]string, error) {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return indexedNames(m)
}

func indexedNames(m map[string]string) ([]string, error) {
	out := make([]string, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid label index %q: %w", k, err)
		}
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = v
	}
	return out, nil
}

// labelOrder maps class names onto severities. Generic LABEL_n names are taken as
// positional.
func labelOrder(names []string) ([valueobject.LabelCount]int, error) {
	var order [valueobject.LabelCount]int
	if len(names) != valueobject.LabelCount {
		return order, fmt.Errorf("model must have %d classes, label map has %d", valueobject.LabelCount, len(names))
	}

	generic := true
	for _, n := range names {
		if !strings.HasPrefix(strings.ToUpper(n), "LABEL_") {
			generic = false
			break
		}
	}
	if generic {
		return positionalOrder, nil
	}

	seen := [valueobject.LabelCount]bool{}
	for i, n := range names {
		label, err := valueobject.RiskLabelFromModelName(n)
		if err != nil {
			return order, err
		}
		sev := label.Severity()
		if seen[sev] {
			return order, fmt.Errorf("label map assigns %s twice", label)
		}
		seen[sev] = true
		order[sev] = i
	}
	return order, nil
}
