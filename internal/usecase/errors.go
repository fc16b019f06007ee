package usecase

import (
	"fmt"

	"FinTrain/internal/domain/models"
)

// SkipError reports that a unit had too little data to train. It is an
// expected outcome, not a failure.
type SkipError struct {
	Status models.Status
	Detail string
}

func (e *SkipError) Error() string {
	if e.Detail == "" {
		return string(e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Detail)
}

func skip(status models.Status, format string, a ...interface{}) *SkipError {
	return &SkipError{Status: status, Detail: fmt.Sprintf(format, a...)}
}
