package validator

import (
	"net/url"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,61}[a-z0-9]$`)

// isBucketName checks that a string is usable as both a GCS and an S3 bucket name.
func isBucketName(fl validator.FieldLevel) bool {
	return bucketNameRegex.MatchString(fl.Field().String())
}

// isHTTPURL checks that a string is an absolute http or https URL.
func isHTTPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// RegisterCustomValidators registers custom validation functions with the validator.
func RegisterCustomValidators(validate *validator.Validate) error {
	if err := validate.RegisterValidation("bucketname", isBucketName); err != nil {
		return err
	}
	return validate.RegisterValidation("httpurl", isHTTPURL)
}
