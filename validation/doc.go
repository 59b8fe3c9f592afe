// Package validation validates request payloads and reports failures as
// INVALID_INPUT AppErrors.
//
// # Struct Tag Validation
//
//	type presignRequest struct {
//	    URLs []string `json:"urls" validate:"required,min=1,max=20,dive,required"`
//	}
//	err := validation.Validate(req)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("url", req.URL).HTTPURL("url", req.URL)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
