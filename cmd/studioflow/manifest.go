package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/scheduler"
	"gopkg.in/yaml.v3"
)

var errEmptyManifest = errors.New("manifest has no items")

// Manifest lists the productions of one batch run.
type Manifest struct {
	Items []models.ProductionConfig `yaml:"items"`
}

// ScheduleFile lists cron jobs.
type ScheduleFile struct {
	Jobs []scheduler.Job `yaml:"jobs"`
}

func loadManifest(path string) (*Manifest, error) {
	var manifest Manifest
	if err := readYAML(path, &manifest); err != nil {
		return nil, err
	}

	if len(manifest.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", errEmptyManifest, path)
	}

	return &manifest, nil
}

func loadWorkflowConfig(path string) (models.WorkflowConfig, error) {
	var cfg models.WorkflowConfig
	err := readYAML(path, &cfg)

	return cfg, err
}

func loadJobs(path string) ([]scheduler.Job, error) {
	var file ScheduleFile
	if err := readYAML(path, &file); err != nil {
		return nil, err
	}

	return file.Jobs, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
