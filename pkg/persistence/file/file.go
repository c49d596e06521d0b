// Package file provides file-based persistence. Each record is one JSON
// document under the root directory, grouped by kind. Suited to local
// development and tests, not concurrent multi-process use.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docket-io/docket/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file persistence rooted at the directory. A
// "file://" prefix is tolerated so connection strings work unchanged.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{"cases", "tasks", "rules", "templates", "audit"} {
		if err := os.MkdirAll(filepath.Join(cleanRoot, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func (fp *Persistence) CaseRepository() persistence.CaseRepository {
	return &caseRepository{fp: fp}
}

func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return &taskRepository{fp: fp}
}

func (fp *Persistence) RuleRepository() persistence.RuleRepository {
	return &ruleRepository{fp: fp}
}

func (fp *Persistence) TemplateRepository() persistence.TemplateRepository {
	return &templateRepository{fp: fp}
}

func (fp *Persistence) AuditRepository() persistence.AuditRepository {
	return &auditRepository{fp: fp}
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) write(kind, id string, v any) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	path := filepath.Join(fp.root, kind, id+".json")

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	return nil
}

func (fp *Persistence) read(kind, id string, v any) (bool, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	path := filepath.Join(fp.root, kind, id+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return true, nil
}

func (fp *Persistence) remove(kind, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.Remove(filepath.Join(fp.root, kind, id+".json"))
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// ids lists the record ids stored under a kind.
func (fp *Persistence) ids(kind string) ([]string, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(fp.root, kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	out := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		out = append(out, strings.TrimSuffix(name, ".json"))
	}

	return out, nil
}
