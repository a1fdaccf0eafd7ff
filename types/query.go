package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Validater interface {
	Validate() map[string]string
}

// ChatRequest is the body of POST /chat. Message is a pointer so that an
// absent field fails validation while an empty string is still accepted.
type ChatRequest struct {
	Message *string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type UploadResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *ChatRequest) Validate() map[string]string {
	return ValidateStruct(params)
}

// ValidateStruct runs the struct tags of v and returns field -> reason,
// or nil when v is valid.
func ValidateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return out
}
