package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// SchemaError lists the schema violations of a rejected document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("content does not match schema: %s", strings.Join(e.Violations, "; "))
}

// Load reads a Resume from a JSON file.
func Load(path string) (resume Resume, err error) {
	var fileData []byte
	fileData, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read content file: %s", path)
		return resume, err
	}

	resume, err = Decode(fileData)
	if err != nil {
		err = errors.Wrapf(err, "invalid content file: %s", path)
		return resume, err
	}

	return resume, err
}

// Decode validates raw JSON against the schema and unmarshals it.
func Decode(raw []byte) (resume Resume, err error) {
	err = ValidateJSON(raw)
	if err != nil {
		return resume, err
	}

	err = json.Unmarshal(raw, &resume)
	if err != nil {
		err = errors.Wrap(err, "failed to parse content JSON")
		return resume, err
	}

	err = resume.Validate()
	return resume, err
}

// ValidateJSON checks raw JSON against the embedded Resume schema.
func ValidateJSON(raw []byte) (err error) {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(raw)

	var result *gojsonschema.Result
	result, err = gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		err = errors.Wrap(err, "failed to validate content JSON")
		return err
	}

	if result.Valid() {
		return err
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	err = &SchemaError{Violations: violations}
	return err
}

// Validate checks the fields renderers cannot do without.
func (r Resume) Validate() (err error) {
	if strings.TrimSpace(r.Name) == "" {
		err = errors.New("resume name is required")
		return err
	}

	for i, exp := range r.Experience {
		if strings.TrimSpace(exp.Organization) == "" && strings.TrimSpace(exp.Title) == "" {
			err = errors.Errorf("experience at index %d has neither organization nor title", i)
			return err
		}
	}

	for i, skill := range r.Skills {
		if strings.TrimSpace(skill.Skill) == "" {
			err = errors.Errorf("skill at index %d is empty", i)
			return err
		}
	}

	return err
}
