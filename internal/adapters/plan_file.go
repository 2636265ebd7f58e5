package adapters

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

// PlanFileAdapter writes resolved plans as YAML. An empty path or "-" writes
// to Stdout.
type PlanFileAdapter struct {
	Stdout io.Writer
}

func NewPlanFileAdapter(stdout io.Writer) PlanFileAdapter {
	return PlanFileAdapter{Stdout: stdout}
}

func (a PlanFileAdapter) Write(path string, plan types.PlanFile) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal plan").
			WithCause(err)
	}
	if strings.TrimSpace(path) == "" || path == "-" {
		out := a.Stdout
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(data); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write plan").
				WithCause(err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create plan directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write plan").
			WithCause(err)
	}
	return nil
}

var _ ports.PlanWriterPort = PlanFileAdapter{}
