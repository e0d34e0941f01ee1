package poem

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTemplate marks template shape errors. They are reported
	// before any store access.
	ErrMalformedTemplate = errors.New("malformed template")
	ErrTemplateNotFound  = errors.New("template not found")
	// ErrCorpusNotFound is returned by stores asked to sample an unknown
	// corpus.
	ErrCorpusNotFound = errors.New("corpus not found")
)

type TemplateError struct {
	Line   int
	Reason string
}

func (e *TemplateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed template: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed template: %s", e.Reason)
}

func (e *TemplateError) Unwrap() error {
	return ErrMalformedTemplate
}
