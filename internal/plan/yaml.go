package plan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Conveyor/internal/domain"
)

// planSpec — YAML-представление плана.
type planSpec struct {
	Topic    string     `yaml:"topic"`
	Strategy string     `yaml:"strategy"`
	Steps    []stepSpec `yaml:"steps"`
}

// stepSpec — YAML-представление шага. Длительность задаётся строкой
// в формате time.ParseDuration ("30s", "2m").
type stepSpec struct {
	ID                string         `yaml:"id"`
	Kind              string         `yaml:"kind"`
	Description       string         `yaml:"description"`
	Parameters        map[string]any `yaml:"parameters"`
	Dependencies      []string       `yaml:"dependencies"`
	Priority          int            `yaml:"priority"`
	EstimatedDuration string         `yaml:"estimated_duration"`
	MaxRetries        int            `yaml:"max_retries"`
}

// LoadFile читает план из YAML-файла и валидирует его.
func LoadFile(path string) (*domain.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML-описание плана и валидирует его.
func Parse(data []byte) (*domain.Plan, error) {
	var spec planSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse plan yaml: %w", err)
	}

	b := NewBuilder(spec.Topic)
	if spec.Strategy != "" {
		b.WithStrategy(domain.Strategy(spec.Strategy))
	}

	for _, ss := range spec.Steps {
		var estimated time.Duration
		if ss.EstimatedDuration != "" {
			d, err := time.ParseDuration(ss.EstimatedDuration)
			if err != nil {
				return nil, fmt.Errorf("step %q: parse estimated_duration: %w", ss.ID, err)
			}
			estimated = d
		}

		b.AddStep(&domain.Step{
			ID:                ss.ID,
			Kind:              domain.StepKind(ss.Kind),
			Description:       ss.Description,
			Parameters:        ss.Parameters,
			Dependencies:      ss.Dependencies,
			Priority:          ss.Priority,
			EstimatedDuration: estimated,
			MaxRetries:        ss.MaxRetries,
		})
	}

	return b.Build()
}
