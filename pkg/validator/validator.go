package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func Init() {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
}

// Struct validates v against its `validate` tags.
func Struct(v interface{}) error {
	Init()
	return validate.Struct(v)
}
