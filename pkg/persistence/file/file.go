// Package file provides file-based persistence for workflows, one JSON
// document per workflow.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/persistence"
)

// Persistence implements persistence.Persistence using the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file store rooted at root. A file:// prefix is
// accepted.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.TrimPrefix(root, "file://")}
}

func (fp *Persistence) dir() string {
	return filepath.Join(fp.root, "workflows")
}

func (fp *Persistence) path(id string) string {
	return filepath.Join(fp.dir(), id+".json")
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); err != nil {
		return fmt.Errorf("file persistence root unavailable: %w", err)
	}

	return nil
}

func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(fp.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := fp.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	persistence.SortByCreation(workflows)

	return workflows, nil
}

func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.read(id)
}

func (fp *Persistence) read(id string) (*models.Workflow, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	body, err := os.ReadFile(fp.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// SaveWorkflow writes the workflow through a temporary file so readers never
// see a partial document.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := persistence.CheckWorkflow("SaveWorkflow", workflow); err != nil {
		return err
	}

	if strings.ContainsAny(workflow.ID, `/\`) {
		return &persistence.WorkflowError{Op: "SaveWorkflow", WorkflowID: workflow.ID, Err: persistence.ErrInvalidWorkflow, Message: "id contains a path separator"}
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.MkdirAll(fp.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	tmp := fp.path(workflow.ID) + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	err = os.Rename(tmp, fp.path(workflow.ID))
	if err != nil {
		return fmt.Errorf("failed to replace workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes a workflow by its ID.
func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.Remove(fp.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
