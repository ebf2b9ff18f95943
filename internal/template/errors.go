package template

import (
	"github.com/John-Robertt/free-servers/internal/model"
)

type TemplateError struct {
	AppError model.AppError
	Cause    error
}

func (e *TemplateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.AppError.Format(e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

func renderError(message string, cause error) error {
	return &TemplateError{
		AppError: model.AppError{
			Code:    "RENDER_FAILED",
			Message: message,
			Stage:   model.StageRender,
		},
		Cause: cause,
	}
}

func writeError(path string, message string, cause error) error {
	return &TemplateError{
		AppError: model.AppError{
			Code:    "WRITE_FAILED",
			Message: message,
			Stage:   model.StageWrite,
			Snippet: path,
		},
		Cause: cause,
	}
}
