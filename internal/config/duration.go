package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration — time.Duration с YAML-разбором из строки ("300s", "5m")
// или целого числа секунд.
type Duration time.Duration

// Std возвращает значение как time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML реализует yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value %q", value.Value)
}

// MarshalYAML реализует yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
