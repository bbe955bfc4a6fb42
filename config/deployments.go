package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deployment names an applet to deploy at startup.
type Deployment struct {
	ID     string `yaml:"id"`
	Applet string `yaml:"applet"`
	Sender string `yaml:"sender"`
	Args   any    `yaml:"args"`
}

// ArgsJSON encodes the constructor arguments. Absent args encode as nil.
func (d Deployment) ArgsJSON() ([]byte, error) {
	if d.Args == nil {
		return nil, nil
	}
	return json.Marshal(d.Args)
}

type manifest struct {
	Deployments []Deployment `yaml:"deployments"`
}

// LoadDeployments reads the YAML deployment manifest at path.
func LoadDeployments(path string) ([]Deployment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(m.Deployments))
	for i := range m.Deployments {
		d := &m.Deployments[i]
		d.ID = strings.TrimSpace(d.ID)
		d.Applet = strings.TrimSpace(d.Applet)
		if d.ID == "" || d.Applet == "" {
			return nil, fmt.Errorf("config: deployment %d needs id and applet", i)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("config: deployment id %q listed twice", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return m.Deployments, nil
}
