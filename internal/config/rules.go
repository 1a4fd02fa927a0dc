package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"gopkg.in/yaml.v3"
)

// rulesFile is the SCORING_RULES_FILE layout:
//
//	rule_sets:
//	  - system: espn
//	    weights:
//	      FG: 2
//	      FGA: -1
type rulesFile struct {
	RuleSets []ruleSetEntry `yaml:"rule_sets" validate:"required,min=1,dive"`
}

type ruleSetEntry struct {
	System  string             `yaml:"system" validate:"required,max=64"`
	Weights map[string]float64 `yaml:"weights" validate:"required,min=1"`
}

// LoadRuleSets returns the built-in rule sets when path is empty.
func LoadRuleSets(path string) ([]scoring.RuleSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return scoring.DefaultRuleSets(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring rules %s: %w", path, err)
	}
	return ParseRuleSets(raw)
}

func ParseRuleSets(raw []byte) ([]scoring.RuleSet, error) {
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode scoring rules: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validate scoring rules: %w", err)
	}

	out := make([]scoring.RuleSet, 0, len(file.RuleSets))
	for _, entry := range file.RuleSets {
		set := scoring.RuleSet{
			System:  strings.TrimSpace(entry.System),
			Weights: make(map[gamelog.StatName]float64, len(entry.Weights)),
		}
		for name, weight := range entry.Weights {
			set.Weights[gamelog.StatName(strings.ToUpper(strings.TrimSpace(name)))] = weight
		}
		out = append(out, set)
	}

	if err := scoring.ValidateRuleSets(out); err != nil {
		return nil, fmt.Errorf("validate scoring rules: %w", err)
	}
	return out, nil
}
