// Package template renders configurable strings such as export paths.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"
)

// DefaultExportPattern places exports under the output directory, named by draft.
const DefaultExportPattern = "{{ .OutputDir }}/{{ .DraftID }}.{{ .Ext }}"

// ExampleExportPattern is the pattern shown in the CLI help.
const ExampleExportPattern = "{{ .OutputDir }}/{{ slug .Title }}-{{ .ContainerID }}.{{ .Ext }}"

// ExportData is what an export path pattern can reference. ContainerID and
// DraftID both hold the draft that is exported.
type ExportData struct {
	OutputDir   string
	DraftID     string
	ContainerID string
	Title     string
	Kind      string
	Style     string
	Ext       string
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"date": func() string {
			return time.Now().UTC().Format("2006-01-02")
		},
		"slug":  Slug,
		"env":   os.Getenv,
		"lower": strings.ToLower,
	}
}

// Render executes templateStr against data.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.New("studioflow").Funcs(funcs()).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// ExportPath renders an export path. An empty pattern uses DefaultExportPattern.
func ExportPath(pattern string, data ExportData) (string, error) {
	if pattern == "" {
		pattern = DefaultExportPattern
	}

	if data.Ext == "" {
		data.Ext = "mp4"
	}

	if data.ContainerID == "" {
		data.ContainerID = data.DraftID
	}

	path, err := Render(pattern, data)
	if err != nil {
		return "", err
	}

	if path == "" {
		return "", fmt.Errorf("export pattern '%s' rendered an empty path", pattern)
	}

	return filepath.Clean(path), nil
}

// ValidateExportPattern renders pattern once against sample data so a
// broken pattern is reported before any artifact is produced.
func ValidateExportPattern(pattern string) error {
	_, err := ExportPath(pattern, ExportData{
		OutputDir: "output",
		DraftID:   "draft_000001_00000000",
		Title:     "Sample",
		Kind:      "video",
		Style:     "promo",
		Ext:       "mp4",
	})
	if err != nil {
		return fmt.Errorf("invalid export pattern: %w", err)
	}

	return nil
}

// Slug lowercases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	var b strings.Builder

	dash := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)

			dash = false

			continue
		}

		if b.Len() > 0 && !dash {
			b.WriteByte('-')

			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
