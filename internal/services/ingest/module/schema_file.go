package module

import (
	"bytes"
	"fmt"
	"os"

	perr "apiloader/internal/platform/errors"
	"apiloader/internal/services/ingest/domain"

	"gopkg.in/yaml.v3"
)

// LoadTableDef reads a YAML table definition. Unknown keys are rejected so typos surface early
func LoadTableDef(path string) (domain.TableDef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.TableDef{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "read schema file %s", path)
	}
	return ParseTableDef(b)
}

// ParseTableDef decodes and checks a YAML table definition
func ParseTableDef(b []byte) (domain.TableDef, error) {
	var def domain.TableDef
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return domain.TableDef{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode schema file")
	}
	if err := def.Check(); err != nil {
		return domain.TableDef{}, fmt.Errorf("schema file: %w", err)
	}
	return def, nil
}
