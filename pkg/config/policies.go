package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/promptwall/promptwall/pkg/policy"
)

// LoadPolicyFile reads an ordered list of policy definitions from a YAML
// file. Validation happens when the definitions are handed to the policy
// engine; this only parses.
func LoadPolicyFile(path string) ([]policy.Definition, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading policy file %s: %w", path, err)
	}

	var defs []policy.Definition
	if err := v.UnmarshalKey("policies", &defs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy file %s: %w", path, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("policy file %s defines no policies", path)
	}
	return defs, nil
}
