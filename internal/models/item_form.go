package models

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ItemForm binds submitted name/description values and validates them
// before they are applied to an Item.
type ItemForm struct {
	Name        string `form:"name" validate:"required,max=255"`
	Description string `form:"description" validate:"max=5000"`

	// Errors maps a field name to a human readable message. It is populated
	// by IsValid.
	Errors map[string]string `form:"-" validate:"-"`

	validated bool
}

// NewItemForm builds a form from a field name to value mapping.
// Unknown keys are ignored.
func NewItemForm(data map[string]string) *ItemForm {
	return &ItemForm{
		Name:        strings.TrimSpace(data["name"]),
		Description: strings.TrimSpace(data["description"]),
	}
}

// ItemFormFromValues builds a form from decoded POST values.
func ItemFormFromValues(values url.Values) *ItemForm {
	return NewItemForm(map[string]string{
		"name":        values.Get("name"),
		"description": values.Get("description"),
	})
}

// ItemFormFromItem pre-fills a form with an existing item's values.
func ItemFormFromItem(it Item) *ItemForm {
	return &ItemForm{Name: it.Name, Description: it.Description}
}

// IsValid runs validation once and reports whether the form can be applied.
func (f *ItemForm) IsValid() bool {
	if !f.validated {
		f.Errors = validateForm(f)
		f.validated = true
	}
	return len(f.Errors) == 0
}

// Apply copies the cleaned values onto it. Callers must check IsValid first.
func (f *ItemForm) Apply(it *Item) {
	it.Name = f.Name
	it.Description = f.Description
}

func validateForm(f *ItemForm) map[string]string {
	errs := map[string]string{}
	err := getValidator().Struct(f)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["__all__"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			errs[field] = "This field is required."
		case "max":
			errs[field] = "Ensure this value has at most " + fe.Param() + " characters."
		default:
			errs[field] = "Field validation for '" + fe.Field() + "' failed on the '" + fe.Tag() + "' tag"
		}
	}
	return errs
}
