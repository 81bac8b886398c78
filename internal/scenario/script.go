package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/areaelements/internal/areaelement"
)

// Script is a scripted sequence of battle events.
type Script struct {
	Map    int32   `yaml:"map"`
	Actors []Actor `yaml:"actors"`
	Steps  []Step  `yaml:"steps"`
}

// Actor declares a battler and the traits it carries.
type Actor struct {
	Name   string   `yaml:"name"`
	Traits []string `yaml:"traits"`
}

// Step is one scripted event. Exactly one field must be set.
type Step struct {
	BattleStart bool    `yaml:"battle_start"`
	BattleEnd   bool    `yaml:"battle_end"`
	ChangeMap   *int32  `yaml:"change_map"`
	Use         *Use    `yaml:"use"`
	Command     string  `yaml:"command"`
	Expect      *Expect `yaml:"expect"`
}

// Use resolves an action.
type Use struct {
	Actor          string `yaml:"actor"`
	Action         string `yaml:"action"`
	ExpectDamage   *int   `yaml:"expect_damage"`
	ExpectRejected bool   `yaml:"expect_rejected"`
}

// Expect asserts the ledger contents. A nil list is not checked.
type Expect struct {
	Transient []areaelement.Token `yaml:"transient"`
	Stable    []areaelement.Token `yaml:"stable"`
}

// Kind names the event a step performs.
func (s Step) Kind() string {
	switch {
	case s.BattleStart:
		return "battle_start"
	case s.BattleEnd:
		return "battle_end"
	case s.ChangeMap != nil:
		return "change_map"
	case s.Use != nil:
		return "use"
	case s.Command != "":
		return "command"
	case s.Expect != nil:
		return "expect"
	default:
		return ""
	}
}

func (s Step) validate() error {
	n := 0
	for _, set := range []bool{s.BattleStart, s.BattleEnd, s.ChangeMap != nil, s.Use != nil, s.Command != "", s.Expect != nil} {
		if set {
			n++
		}
	}
	switch n {
	case 0:
		return errors.New("empty step")
	case 1:
	default:
		return errors.New("step sets more than one event")
	}
	if s.Use != nil && (s.Use.Actor == "" || s.Use.Action == "") {
		return errors.New("use needs actor and action")
	}
	return nil
}

// Parse decodes a YAML script. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}

	names := make(map[string]bool, len(s.Actors))
	for _, a := range s.Actors {
		if a.Name == "" {
			return nil, errors.New("actor with empty name")
		}
		if names[a.Name] {
			return nil, fmt.Errorf("actor %s: duplicate name", a.Name)
		}
		names[a.Name] = true
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &s, nil
}

// ParseFile reads and decodes a script file.
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return Parse(data)
}
