package templates

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	ometrics "github.com/Kocoro-lab/travelian/internal/metrics"
)

// LoadDefault compiles the embedded catalogue against the given personas.
func LoadDefault(source PersonaSource, logger *zap.Logger) (*Plan, error) {
	cat, err := LoadDefaultCatalog()
	if err != nil {
		return nil, err
	}
	return Load(cat, source, logger)
}

// LoadFile compiles a catalogue read from disk.
func LoadFile(path string, source PersonaSource, logger *zap.Logger) (*Plan, error) {
	cat, err := LoadCatalogFromFile(path)
	if err != nil {
		return nil, err
	}
	return Load(cat, source, logger)
}

// Load compiles cat, recording validation issues as metrics and log lines.
func Load(cat *Catalog, source PersonaSource, logger *zap.Logger) (*Plan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	plan, err := Compile(cat, source)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				ometrics.CatalogValidationIssues.WithLabelValues(issue.Code).Inc()
			}
			logger.Error("Task catalog failed validation",
				zap.String("catalog", cat.Name),
				zap.Strings("issues", verr.Messages()),
			)
		}
		return nil, fmt.Errorf("compile catalog %s: %w", cat.Name, err)
	}
	logger.Info("Task catalog loaded",
		zap.String("catalog", plan.Name),
		zap.String("version", plan.Version),
		zap.Strings("order", plan.Order),
		zap.String("synthesis", plan.Synthesis),
	)
	return plan, nil
}
