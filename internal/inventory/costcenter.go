package inventory

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CostCenterMap resolves cost-center codes to display names. It is static
// configuration injected into the aggregator, not logic the aggregator owns.
type CostCenterMap map[string]string

// Resolve returns the display name for a code, or the trimmed code itself
// when the mapping has no entry for it.
func (m CostCenterMap) Resolve(code string) string {
	code = strings.TrimSpace(code)
	if name, ok := m[code]; ok {
		return name
	}
	return code
}

// LoadCostCenters reads the code-to-name table from a YAML file of the form:
//
//	"1000": Assembly
//	"2000": Maintenance
func LoadCostCenters(path string) (CostCenterMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCostCenters: read %s: %w", path, err)
	}

	var m CostCenterMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("LoadCostCenters: parse %s: %w", path, err)
	}
	if m == nil {
		m = CostCenterMap{}
	}

	return m, nil
}
