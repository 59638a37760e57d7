package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Result is what the classifier reports for one image.  Habitat and
// ConsumptionSafety are looked up by the script from its species table and
// may be empty for low-confidence matches.
type Result struct {
	PredictedClass    string  `json:"predicted_class"`
	Probability       float64 `json:"probability"`
	FishName          string  `json:"fish_name"`
	Habitat           string  `json:"habitat"`
	ConsumptionSafety string  `json:"consumption_safety"`
}

// Predictor classifies a fish image on disk.
type Predictor interface {
	Predict(ctx context.Context, imagePath string, confThreshold float64) (Result, error)
}

// ScriptPredictor runs the bundled Python classifier as a subprocess and
// decodes its JSON stdout.  The model and its weights stay opaque to this
// service.
type ScriptPredictor struct {
	Python string // python interpreter, e.g. "python3"
	Script string // path to the classifier script
}

func NewScriptPredictor(python, script string) *ScriptPredictor {
	if python == "" {
		python = "python3"
	}
	return &ScriptPredictor{Python: python, Script: script}
}

func (p *ScriptPredictor) Predict(ctx context.Context, imagePath string, confThreshold float64) (Result, error) {
	cmd := exec.CommandContext(ctx, p.Python, p.Script,
		"--image", imagePath,
		"--threshold", strconv.FormatFloat(confThreshold, 'f', -1, 64))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if s := stderr.String(); s != "" {
			return Result{}, fmt.Errorf("classifier: %v: %s", err, s)
		}
		return Result{}, fmt.Errorf("classifier: %w", err)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return Result{}, fmt.Errorf("classifier: decode output: %w", err)
	}
	return res, nil
}
