package http

import "github.com/go-playground/validator/v10"

// validate checks request payload struct tags; shared across handlers.
var validate = validator.New(validator.WithRequiredStructEnabled())
