package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/SAP-F-2025/answer-scoring-service/internal/errors"
	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
)

var accessCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,16}-[0-9A-F]{4}$`)

// Validator wraps the struct validator with the service's custom rules
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance with custom rules registered
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags and returns the raw validator error
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures into
// apperrors.ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Engine exposes the underlying validator, e.g. for gin's binding
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("section_code", validateSectionCode)
	validate.RegisterValidation("access_code", validateAccessCode)
	validate.RegisterValidation("test_status", validateTestStatus)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateSectionCode(fl validator.FieldLevel) bool {
	return grading.SectionCode(fl.Field().String()).Valid()
}

func validateAccessCode(fl validator.FieldLevel) bool {
	return accessCodePattern.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
}

func validateTestStatus(fl validator.FieldLevel) bool {
	return models.TestStatus(fl.Field().String()).Valid()
}
