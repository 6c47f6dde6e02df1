package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/travel_plan.yaml
var catalogFS embed.FS

const defaultCatalog = "catalog/travel_plan.yaml"

// LoadCatalogFromFile reads a YAML task catalogue from disk.
func LoadCatalogFromFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	cat, err := decodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return cat, nil
}

// LoadCatalog parses a catalogue from the provided reader.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	cat, err := decodeCatalog(r)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return cat, nil
}

// LoadDefaultCatalog returns the travel planning catalogue compiled into the binary.
func LoadDefaultCatalog() (*Catalog, error) {
	data, err := catalogFS.ReadFile(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return LoadCatalog(bytes.NewReader(data))
}

func decodeCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}
