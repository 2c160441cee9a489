package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

const csvFieldCount = 7

var csvHeader = []string{"Label", "Runnable", "Started", "Ended", "Result", "Reason", "Cause"}

// JSONRun represents a run in JSON format.
type JSONRun struct {
	// Started is the time when the task was dispatched.
	Started time.Time `json:"Started" jsonschema:"required"`
	// Ended is the time when the task left the live set.
	Ended time.Time `json:"Ended" jsonschema:"required"`
	// Reason is the reason for the run result, if any.
	Reason *string `json:"Reason,omitempty" jsonschema:"enum=run error,enum=lost by backend,enum=run aborted"`
	// Cause is the label of the task whose failure aborted the run, if any.
	Cause *string `json:"Cause,omitempty"`
	// Label is the label of the task.
	Label string `json:"Label" jsonschema:"required"`
	// Runnable is the runnable reference of the task.
	Runnable string `json:"Runnable,omitempty"`
	// Result is the result of the run.
	Result string `json:"Result" jsonschema:"required,enum=succeeded,enum=failed,enum=lost,enum=cancelled"`
}

// JSONRuns is a slice of JSONRun entries with helper methods.
type JSONRuns []JSONRun

// ParseJSONRuns parses a JSON report from a byte slice.
func ParseJSONRuns(data []byte) (JSONRuns, error) {
	var runs JSONRuns
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, errors.Errorf("failed to parse JSON report: %w", err)
	}

	return runs, nil
}

// FindByLabel searches for a run by label, returning nil if not found.
func (runs JSONRuns) FindByLabel(label string) *JSONRun {
	for i := range runs {
		if runs[i].Label == label {
			return &runs[i]
		}
	}

	return nil
}

// Labels returns the labels of all runs.
func (runs JSONRuns) Labels() []string {
	labels := make([]string, len(runs))
	for i := range runs {
		labels[i] = runs[i].Label
	}

	return labels
}

// CSVRun represents a run parsed from CSV format.
type CSVRun struct {
	Label    string
	Runnable string
	Started  string
	Ended    string
	Result   string
	Reason   string
	Cause    string
}

// CSVRuns is a slice of CSVRun entries.
type CSVRuns []CSVRun

// ParseCSVRuns parses a CSV report from a byte slice. The first row is expected to be a header row and is skipped.
func ParseCSVRuns(data []byte) (CSVRuns, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, errors.Errorf("failed to parse CSV report: %w", err)
	}

	if len(records) < 1 {
		return CSVRuns{}, nil
	}

	runs := make(CSVRuns, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) < csvFieldCount {
			return nil, errors.Errorf("invalid CSV record at row %d: expected %d fields, got %d", i+2, csvFieldCount, len(record))
		}

		runs = append(runs, CSVRun{
			Label:    record[0],
			Runnable: record[1],
			Started:  record[2],
			Ended:    record[3],
			Result:   record[4],
			Reason:   record[5],
			Cause:    record[6],
		})
	}

	return runs, nil
}

// SchemaValidationError represents a schema validation error with details.
type SchemaValidationError struct {
	Errors []string
}

func (err *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed with %d error(s): %v", len(err.Errors), err.Errors)
}

// ValidateJSONReport validates a JSON report against the schema.
func ValidateJSONReport(data []byte) error {
	schemaBytes, err := json.Marshal(generateReportSchema())
	if err != nil {
		return errors.Errorf("failed to generate schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.Errorf("failed to validate report: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, validationErr := range result.Errors() {
			errs[i] = validationErr.String()
		}

		return &SchemaValidationError{Errors: errs}
	}

	return nil
}

// WriteToFile writes the report to path in the configured format. The file is replaced atomically.
func (r *Report) WriteToFile(path string) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".taskgrunt-report-*")
	if err != nil {
		return errors.New(err)
	}
	defer os.Remove(tmpFile.Name()) //nolint:errcheck

	r.mu.Lock()
	r.SortRuns()
	r.mu.Unlock()

	switch r.format {
	case FormatCSV:
		err = r.WriteCSV(tmpFile)
	case FormatJSON:
		err = r.WriteJSON(tmpFile)
	default:
		err = errors.Errorf("unsupported format: %s", r.format)
	}

	if err != nil {
		tmpFile.Close() //nolint:errcheck
		return errors.Errorf("failed to write report: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return errors.Errorf("failed to close report file: %w", err)
	}

	return errors.New(os.Rename(tmpFile.Name(), path))
}

// WriteCSV writes the report to a writer in CSV format.
func (r *Report) WriteCSV(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(csvHeader); err != nil {
		return err
	}

	for _, run := range r.Runs {
		run.mu.RLock()

		record := []string{
			run.Label,
			run.Runnable,
			run.Started.Format(time.RFC3339),
			formatTime(run.Ended),
			string(run.Result),
			"",
			"",
		}

		if run.Reason != nil {
			record[5] = string(*run.Reason)
		}

		if run.Cause != nil {
			record[6] = string(*run.Cause)
		}

		run.mu.RUnlock()

		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()

	return csvWriter.Error()
}

// WriteJSON writes the report to a writer in JSON format.
func (r *Report) WriteJSON(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]JSONRun, 0, len(r.Runs))

	for _, run := range r.Runs {
		run.mu.RLock()

		jsonRun := JSONRun{
			Label:    run.Label,
			Runnable: run.Runnable,
			Started:  run.Started,
			Ended:    run.Ended,
			Result:   string(run.Result),
		}

		if run.Reason != nil {
			reason := string(*run.Reason)
			jsonRun.Reason = &reason
		}

		if run.Cause != nil {
			cause := string(*run.Cause)
			jsonRun.Cause = &cause
		}

		run.mu.RUnlock()

		runs = append(runs, jsonRun)
	}

	jsonBytes, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(jsonBytes, '\n'))

	return err
}

// WriteSchema writes a JSON schema for the report to a writer.
func WriteSchema(w io.Writer) error {
	jsonBytes, err := json.MarshalIndent(generateReportSchema(), "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(jsonBytes, '\n'))

	return err
}

func generateReportSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	schema := reflector.Reflect(&JSONRun{})
	schema.Description = "Schema for a taskgrunt run report entry"
	schema.Title = "Taskgrunt Run Report Schema"

	return &jsonschema.Schema{
		Type:        "array",
		Title:       "Taskgrunt Run Report Schema",
		Description: "Array of taskgrunt task runs",
		Items:       schema,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}
