// Package status provides refresh status tracking and persistence for collection providers.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for provider status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the status of the named provider
	SaveStatus(ctx context.Context, providerName string, status *TickStatus) error

	// LoadStatus loads the status of the named provider.
	// Returns an empty TickStatus if none was saved yet (first run)
	LoadStatus(ctx context.Context, providerName string) (*TickStatus, error)
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence
// basePath is the base directory where per-provider status files will be stored
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus writes the status as JSON into a provider-specific directory.
// The file is replaced atomically so readers never observe a partial write.
func (f *fileStatusPersistence) SaveStatus(_ context.Context, providerName string, status *TickStatus) error {
	if err := validateName(providerName); err != nil {
		return err
	}

	providerDir := filepath.Join(f.basePath, providerName)
	if err := os.MkdirAll(providerDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for provider '%s': %w", providerName, err)
	}

	filePath := filepath.Join(providerDir, StatusFileName)

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for provider '%s': %w", providerName, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for provider '%s': %w", providerName, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for provider '%s': %w", providerName, err)
	}

	return nil
}

// LoadStatus loads the status of a provider from its JSON file
func (f *fileStatusPersistence) LoadStatus(_ context.Context, providerName string) (*TickStatus, error) {
	if err := validateName(providerName); err != nil {
		return nil, err
	}

	filePath := filepath.Join(f.basePath, providerName, StatusFileName)

	// #nosec G304 -- filePath is built from the configured data dir and a validated provider name
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &TickStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for provider '%s': %w", providerName, err)
	}

	var status TickStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for provider '%s': %w", providerName, err)
	}

	return &status, nil
}

func validateName(providerName string) error {
	if providerName == "" || !filepath.IsLocal(providerName) || filepath.Base(providerName) != providerName {
		return fmt.Errorf("invalid provider name '%s'", providerName)
	}
	return nil
}
