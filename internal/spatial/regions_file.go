package spatial

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// regionEntry is one entry of a regions file:
//
//	- name: Chicago
//	  lat: [41.4986, 42.0232]
//	  lng: [-88.1586, -87.3573]
type regionEntry struct {
	Name string     `yaml:"name"`
	Lat  [2]float64 `yaml:"lat"`
	Lng  [2]float64 `yaml:"lng"`
}

// ReadRegions decodes a YAML list of named latitude/longitude ranges
func ReadRegions(r io.Reader) ([]Region, error) {
	var entries []regionEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}

	regions := make([]Region, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, s := range entries {
		switch {
		case s.Name == "":
			return nil, fmt.Errorf("region %d: missing name", i)
		case s.Name == OtherRegion:
			return nil, fmt.Errorf("region %d: %q is reserved", i, OtherRegion)
		case seen[s.Name]:
			return nil, fmt.Errorf("region %d: duplicate name %q", i, s.Name)
		case s.Lat[0] > s.Lat[1] || s.Lng[0] > s.Lng[1]:
			return nil, fmt.Errorf("region %s: bounds must be [min, max]", s.Name)
		}
		seen[s.Name] = true
		regions = append(regions, NewRegion(s.Name, s.Lat[0], s.Lat[1], s.Lng[0], s.Lng[1]))
	}
	return regions, nil
}

// LoadRegions reads a regions file, or returns DefaultRegions when path is
// empty
func LoadRegions(path string) ([]Region, error) {
	if path == "" {
		return DefaultRegions, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open regions file: %w", err)
	}
	defer f.Close()
	return ReadRegions(f)
}
