package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const manifestFile = "manifest.yaml"

// manifest records which OS build the symbol store was last provisioned for.
type manifest struct {
	OSBuild   string          `yaml:"os_build"`
	FetchedAt time.Time       `yaml:"fetched_at"`
	Symbols   []manifestEntry `yaml:"symbols"`
}

type manifestEntry struct {
	Module string `yaml:"module"`
	PDB    string `yaml:"pdb"`
	Key    string `yaml:"key"`
}

// readManifest returns nil without error when no manifest exists.
func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading symbol manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing symbol manifest: %w", err)
	}
	return &m, nil
}

func writeManifest(dir string, m *manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling symbol manifest: %w", err)
	}
	tmp := filepath.Join(dir, manifestFile+".tmp")
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("writing symbol manifest: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, manifestFile))
}
