package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/peanutgraphic/servicepoint/internal/address"
	dErrors "github.com/peanutgraphic/servicepoint/pkg/domain-errors"
)

var validate = validator.New()

// ValidateRequest is the HTTP request body for POST /address/validate.
type ValidateRequest struct {
	Street  string `json:"street" validate:"required,max=100"`
	Street2 string `json:"street2" validate:"max=100"`
	City    string `json:"city" validate:"required,max=60"`
	State   string `json:"state" validate:"required,len=2,alpha"`
	Zip     string `json:"zip" validate:"required,min=5,max=10"`
}

// Validate normalizes and checks the request fields.
func (r *ValidateRequest) Validate() error {
	r.Street = strings.TrimSpace(r.Street)
	r.Street2 = strings.TrimSpace(r.Street2)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Zip = strings.TrimSpace(r.Zip)

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return dErrors.New(dErrors.CodeValidation, fieldMessage(verrs[0]))
		}
		return dErrors.New(dErrors.CodeValidation, "invalid request")
	}
	return nil
}

// ToAddress converts the request to the domain address type.
func (r *ValidateRequest) ToAddress() address.Address {
	return address.Address{
		Street:  r.Street,
		Street2: r.Street2,
		City:    r.City,
		State:   r.State,
		Zip:     r.Zip,
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len", "alpha":
		return field + " must be a two-letter state code"
	case "min", "max":
		return field + " has an invalid length"
	default:
		return field + " is invalid"
	}
}
