package config

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Profile holds reusable defaults for a run, e.g.
//
//	column: message
//	delay:
//	  min: 0.1
//	  max: 0.3
//	onMissing: skip
type Profile struct {
	Column string `yaml:"column"`
	Delay  struct {
		Min *float64 `yaml:"min"`
		Max *float64 `yaml:"max"`
	} `yaml:"delay"`
	OnMissing string  `yaml:"onMissing"`
	Seed      *uint64 `yaml:"seed"`
	LogLevel  string  `yaml:"logLevel"`
}

type ProfileLoader struct {
	reader io.Reader
}

func NewProfileLoader(reader io.Reader) *ProfileLoader {
	return &ProfileLoader{
		reader: reader,
	}
}

// Load decodes the profile. An empty document yields an empty profile;
// unknown keys are rejected.
func (pl *ProfileLoader) Load() (*Profile, error) {
	decoder := yaml.NewDecoder(pl.reader)
	decoder.KnownFields(true)

	var profile Profile
	if err := decoder.Decode(&profile); err != nil {
		if errors.Is(err, io.EOF) {
			return &profile, nil
		}
		return nil, fmt.Errorf("parse profile YAML: %w", err)
	}
	return &profile, nil
}

// defaults flattens the profile into config keys, leaving out unset values.
func (p *Profile) defaults() map[string]any {
	d := make(map[string]any)
	if p.Column != "" {
		d[KeyColumn] = p.Column
	}
	if p.Delay.Min != nil {
		d[KeyMin] = *p.Delay.Min
	}
	if p.Delay.Max != nil {
		d[KeyMax] = *p.Delay.Max
	}
	if p.OnMissing != "" {
		d[KeyOnMissing] = p.OnMissing
	}
	if p.Seed != nil {
		d[KeySeed] = *p.Seed
	}
	if p.LogLevel != "" {
		d[KeyLogLevel] = p.LogLevel
	}
	return d
}
