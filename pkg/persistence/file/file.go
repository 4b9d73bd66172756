// Package file provides file-based persistence for development, tests and
// single-tenant deployments.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

// Persistence implements persistence.Persistence on a directory tree, one
// JSON document per record.
type Persistence struct {
	root string
	mu   sync.RWMutex

	flowRepo        *FlowRepository
	executionRepo   *ExecutionRepository
	logRepo         *ExecutionLogRepository
	leadRepo        *LeadRepository
	serviceRepo     *ServiceRepository
	appointmentRepo *AppointmentRepository
	settingsRepo    *OwnerSettingsRepository
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.flowRepo = &FlowRepository{p: p}
	p.executionRepo = &ExecutionRepository{p: p}
	p.logRepo = &ExecutionLogRepository{p: p}
	p.leadRepo = &LeadRepository{p: p}
	p.serviceRepo = &ServiceRepository{p: p}
	p.appointmentRepo = &AppointmentRepository{p: p}
	p.settingsRepo = &OwnerSettingsRepository{p: p}

	return p
}

func (p *Persistence) FlowRepository() persistence.FlowRepository           { return p.flowRepo }
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository { return p.executionRepo }
func (p *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return p.logRepo
}
func (p *Persistence) LeadRepository() persistence.LeadRepository       { return p.leadRepo }
func (p *Persistence) ServiceRepository() persistence.ServiceRepository { return p.serviceRepo }
func (p *Persistence) AppointmentRepository() persistence.AppointmentRepository {
	return p.appointmentRepo
}
func (p *Persistence) OwnerSettingsRepository() persistence.OwnerSettingsRepository {
	return p.settingsRepo
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// validateID rejects identifiers that are unsafe as file names.
func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

func (p *Persistence) writeDoc(dir, id string, v any) error {
	if err := validateID(id); err != nil {
		return err
	}

	fullDir := filepath.Join(p.root, dir)

	err := os.MkdirAll(fullDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", dir, id, err)
	}

	err = os.WriteFile(filepath.Join(fullDir, id+".json"), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", dir, id, err)
	}

	return nil
}

func (p *Persistence) readDoc(dir, id string, v any) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	data, err := os.ReadFile(filepath.Join(p.root, dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s/%s: %w", dir, id, err)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal %s/%s: %w", dir, id, err)
	}

	return true, nil
}

// readAll decodes every document in a directory in file name order.
func readAll[T any](p *Persistence, dir string) ([]*T, error) {
	fullDir := filepath.Join(p.root, dir)

	entries, err := os.ReadDir(fullDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s directory: %w", dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	docs := make([]*T, 0, len(names))

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(fullDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s/%s: %w", dir, name, err)
		}

		doc := new(T)

		err = json.Unmarshal(data, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", dir, name, err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
