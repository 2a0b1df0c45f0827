package services

import (
	"errors"
	"fmt"
	"strings"

	"mediapulse/pkg/contracts/domain"
)

// Dashboard service errors
var (
	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrUploadTooLarge  = errors.New("upload exceeds the size limit")
	ErrEmptyUpload     = errors.New("upload is empty")

	// View errors
	ErrViewNotFound = errors.New("view not found")
	ErrViewSkipped  = errors.New("view skipped: required fields are missing")
)

// SkippedViewError names the fields a skipped view needs. It matches
// ErrViewSkipped.
type SkippedViewError struct {
	Kind    domain.ViewKind
	Missing []string
}

func (e *SkippedViewError) Error() string {
	return fmt.Sprintf("%v: %s needs %s", ErrViewSkipped, e.Kind, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrViewSkipped) true
func (e *SkippedViewError) Is(target error) bool {
	return target == ErrViewSkipped
}
