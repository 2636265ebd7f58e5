package ports

import "scoop-go/internal/types"

type PlanWriterPort interface {
	Write(path string, plan types.PlanFile) error
}
