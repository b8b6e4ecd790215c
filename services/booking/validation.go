package booking

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"shipbook/config"
	"shipbook/models"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

// newValidator mirrors gin's binding validator so that the issues reported
// here name the same JSON fields a client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest returns every problem with the shape of req. An empty
// result means the request is well formed; schedule and ownership are
// checked later against configuration and the store.
func ValidateRequest(req models.CreateBookingRequest) []models.ValidationIssue {
	issues := structIssues(req)
	issues = append(issues, packageIssues(req.Packages)...)
	if req.RecipientID == "" && req.Recipient != nil {
		if strings.TrimSpace(req.Recipient.FullName) == "" &&
			strings.TrimSpace(req.Recipient.FirstName+req.Recipient.LastName) == "" {
			issues = append(issues, models.ValidationIssue{
				Field:   "recipient.fullName",
				Message: "recipient name is required",
			})
		}
	}
	return issues
}

// ValidateQuoteRequest checks a price preview request.
func ValidateQuoteRequest(req models.QuoteRequest) []models.ValidationIssue {
	return append(structIssues(req), packageIssues(req.Packages)...)
}

func structIssues(s any) []models.ValidationIssue {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []models.ValidationIssue{{Field: "", Message: err.Error()}}
	}

	issues := make([]models.ValidationIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, models.ValidationIssue{
			Field:   fieldPath(fe.Namespace()),
			Message: issueMessage(fe),
		})
	}
	return issues
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// packageIssues enforces that each package carries a measurement or is
// explicitly flagged as unknown.
func packageIssues(pkgs []models.PackageInput) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for i, p := range pkgs {
		if p.Weight == nil && !p.WeightUnknown {
			issues = append(issues, models.ValidationIssue{
				Field:   fmt.Sprintf("packages[%d].weight", i),
				Message: "weight is required unless weightUnknown is set",
			})
		}
		if p.Dimensions == nil && !p.DimensionsUnknown {
			issues = append(issues, models.ValidationIssue{
				Field:   fmt.Sprintf("packages[%d].dimensions", i),
				Message: "dimensions are required unless dimensionsUnknown is set",
			})
		}
	}
	return issues
}

// validateSchedule rejects dates that are not strictly after today (UTC)
// and the destination's blackout weekdays and dates.
func validateSchedule(date string, dest config.Destination, now time.Time) error {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return newError(ErrInvalidSchedule, "scheduled date %q is not a valid date", date)
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !day.After(today) {
		return newError(ErrInvalidSchedule, "scheduled date %s must be after %s", date, today.Format(dateLayout))
	}
	for _, wd := range dest.BlackoutWeekdays {
		if strings.EqualFold(wd, day.Weekday().String()) {
			return newError(ErrInvalidSchedule, "%s does not ship on %ss", dest.Code, day.Weekday())
		}
	}
	for _, d := range dest.BlackoutDates {
		if d == date {
			return newError(ErrInvalidSchedule, "%s does not ship on %s", dest.Code, date)
		}
	}
	return nil
}
