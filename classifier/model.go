package classifier

import (
	"fmt"

	"github.com/viant/knn/codec"
	"github.com/viant/knn/distance"
)

// ModelName identifies serialized KNN models.
const ModelName = "KNN"

// Model is the serialized form of a trained classifier. Index holds the
// index binary form and is base64-encoded in JSON. Classes is a set; its
// order carries no meaning. Labels are stored as JSON, so Model fails for
// labels that do not decode back to an equal value.
type Model[L comparable] struct {
	Name              string `json:"name"`
	Index             []byte `json:"index"`
	K                 int    `json:"k"`
	Classes           []L    `json:"classes"`
	UsesDefaultMetric bool   `json:"usesDefaultMetric"`
}

// Validate checks the model against the metric it is about to be restored
// with. A nil metric stands for distance.Default().
func (m *Model[L]) Validate(metric *distance.Metric) error {
	if m == nil {
		return &ValidationError{Field: "model", Reason: "is nil"}
	}
	if m.Name != ModelName {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("expected %q, got %q", ModelName, m.Name)}
	}
	isDefault := distance.IsDefault(metric)
	if !m.UsesDefaultMetric && isDefault {
		return &ValidationError{Field: "usesDefaultMetric", Reason: "model was trained with a custom distance; supply the same metric to load it"}
	}
	if m.UsesDefaultMetric && !isDefault {
		return &ValidationError{Field: "usesDefaultMetric", Reason: fmt.Sprintf("model was trained with the default distance, got %q", metric.Name())}
	}
	if m.K < 1 {
		return &ValidationError{Field: "k", Reason: fmt.Sprintf("must be positive, got %d", m.K)}
	}
	if len(m.Classes) == 0 {
		return &ValidationError{Field: "classes", Reason: "is empty"}
	}
	if len(m.Index) == 0 {
		return &ValidationError{Field: "index", Reason: "is empty"}
	}
	return nil
}

// Model returns the serialized form of the trained classifier.
func (c *Classifier[L]) Model() (*Model[L], error) {
	s := c.state
	if s == nil {
		return nil, ErrNotFitted
	}
	data, err := s.index.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &Model[L]{
		Name:              ModelName,
		Index:             data,
		K:                 s.k,
		Classes:           append([]L(nil), s.classes...),
		UsesDefaultMetric: s.usesDefaultMetric,
	}, nil
}

// MarshalJSON encodes Model with codec.Default.
func (c *Classifier[L]) MarshalJSON() ([]byte, error) {
	m, err := c.Model()
	if err != nil {
		return nil, err
	}
	return codec.Default.Marshal(m)
}

// Restore replaces the classifier state with the model, rebuilding its
// index with metric. The model is validated before the index is touched.
func (c *Classifier[L]) Restore(m *Model[L], metric *distance.Metric) error {
	if err := m.Validate(metric); err != nil {
		return err
	}
	if metric == nil {
		metric = distance.Default()
	}
	idx, err := c.newIndex()
	if err != nil {
		return err
	}
	if err := idx.Restore(m.Index, metric); err != nil {
		return err
	}
	c.state = &state[L]{
		index:             idx,
		k:                 m.K,
		classes:           uniqueLabels(m.Classes),
		metric:            metric,
		usesDefaultMetric: m.UsesDefaultMetric,
	}
	return nil
}

// Load creates a classifier from a serialized model. metric must be the
// metric the model was trained with; nil means distance.Default().
func Load[L comparable](m *Model[L], metric *distance.Metric, opts ...Option) (*Classifier[L], error) {
	c := New[L](opts...)
	if err := c.Restore(m, metric); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadJSON decodes a model with codec.Default and loads it.
func LoadJSON[L comparable](data []byte, metric *distance.Metric, opts ...Option) (*Classifier[L], error) {
	m := &Model[L]{}
	if err := codec.Default.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("knn: decode model: %w", err)
	}
	return Load[L](m, metric, opts...)
}
