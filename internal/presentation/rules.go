package presentation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/failure-insights/internal/models"
)

// RuleClassifier tags rows using an ordered rule pack; the first matching rule wins.
type RuleClassifier struct {
	rules    []Rule
	fallback Classifier
	logger   *slog.Logger
}

// Rule represents a single styling rule.
type Rule struct {
	ID    string          `yaml:"id"`
	Match RuleMatch       `yaml:"match"`
	Style models.StyleTag `yaml:"style"`
}

// RuleMatch defines optional attributes for rule matching. All set attributes must match.
type RuleMatch struct {
	Tree                string   `yaml:"tree"`
	Platform            string   `yaml:"platform"`
	BuildType           string   `yaml:"build_type"`
	TestSuiteContains   []string `yaml:"test_suite_contains"`
	MachineNameContains []string `yaml:"machine_name_contains"`
	MissingJob          bool     `yaml:"missing_job"`
}

// RuleConfigFile is the YAML root structure.
type RuleConfigFile struct {
	Rules []Rule `yaml:"rules"`
}

// NewRuleClassifier loads rules from path. If path is empty or the file does not exist,
// it returns nil and callers fall back to MissingJob.
func NewRuleClassifier(path string, logger *slog.Logger) (*RuleClassifier, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ParseRules(data, logger)
}

// ParseRules builds a RuleClassifier from YAML.
func ParseRules(data []byte, logger *slog.Logger) (*RuleClassifier, error) {
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, rule := range cfg.Rules {
		if rule.Style == "" {
			cfg.Rules[i].Style = models.StyleFlagged
			continue
		}
		if !rule.Style.Valid() {
			return nil, fmt.Errorf("rule %q: unknown style %q", rule.ID, rule.Style)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("loaded presentation rules", slog.Int("rules", len(cfg.Rules)))
	return &RuleClassifier{rules: cfg.Rules, fallback: ClassifierFunc(normal), logger: logger}, nil
}

// Classify implements Classifier.
func (c *RuleClassifier) Classify(record models.FailureRecord) models.StyleTag {
	if c == nil {
		return MissingJob(record)
	}
	for _, rule := range c.rules {
		if rule.Match.matches(record) {
			return rule.Style
		}
	}
	return c.fallback.Classify(record)
}

// Len returns the number of loaded rules.
func (c *RuleClassifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}

func normal(models.FailureRecord) models.StyleTag { return models.StyleNormal }

func (m RuleMatch) matches(record models.FailureRecord) bool {
	if m.Tree != "" && !strings.EqualFold(m.Tree, record.Tree) {
		return false
	}
	if m.Platform != "" && !strings.EqualFold(m.Platform, record.Platform) {
		return false
	}
	if m.BuildType != "" && !strings.EqualFold(m.BuildType, record.BuildType) {
		return false
	}
	if len(m.TestSuiteContains) > 0 && !containsAny(record.TestSuite, m.TestSuiteContains) {
		return false
	}
	if len(m.MachineNameContains) > 0 && !containsAny(record.MachineName, m.MachineNameContains) {
		return false
	}
	if m.MissingJob && strings.TrimSpace(record.JobID) != "" {
		return false
	}
	return true
}

func containsAny(value string, keywords []string) bool {
	value = strings.ToLower(value)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(value, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
