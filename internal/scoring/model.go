// Package scoring loads the pretrained satisfaction model artifact and
// scores engineered feature vectors. The artifact is an opaque export
// produced by the training pipeline: standardization parameters, logistic
// coefficients and the class labels, serialized as JSON.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Artifact is the on-disk model export.
type Artifact struct {
	// Features lists the model inputs in training order. Inputs missing
	// from a sample are imputed with the training mean.
	Features     []string           `json:"features"`
	Means        map[string]float64 `json:"means"`
	Stds         map[string]float64 `json:"stds"`
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
	// Classes is [negative, positive], e.g.
	// ["neutral or dissatisfied", "satisfied"].
	Classes [2]string `json:"classes"`
}

// Model scores feature vectors against a loaded artifact.
type Model struct {
	art Artifact
}

// Load reads and validates a model artifact from disk.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var art Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(art.Features) == 0 {
		return nil, fmt.Errorf("model artifact %s lists no features", path)
	}
	if art.Classes[0] == "" || art.Classes[1] == "" {
		return nil, fmt.Errorf("model artifact %s has incomplete class labels", path)
	}
	return &Model{art: art}, nil
}

// NewModel wraps an in-memory artifact (used by tests).
func NewModel(art Artifact) *Model { return &Model{art: art} }

// Classes returns the [negative, positive] labels.
func (m *Model) Classes() [2]string { return m.art.Classes }

// Predict returns the predicted class label and the positive-class
// probability for one feature vector.
func (m *Model) Predict(features map[string]float64) (string, float64) {
	z := m.art.Intercept
	for _, name := range m.art.Features {
		x, ok := features[name]
		if !ok {
			x = m.art.Means[name]
		}
		std := m.art.Stds[name]
		if std == 0 {
			std = 1
		}
		z += m.art.Coefficients[name] * (x - m.art.Means[name]) / std
	}
	p := 1 / (1 + math.Exp(-z))
	if p >= 0.5 {
		return m.art.Classes[1], p
	}
	return m.art.Classes[0], p
}
