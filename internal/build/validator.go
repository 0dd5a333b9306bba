package build

import (
	"strings"

	serrors "github.com/conneroisu/splice/internal/errors"
	"github.com/conneroisu/splice/internal/resolver"
)

// ValidationOptions names the structural markers checked in assembled output.
// An empty marker disables its check.
type ValidationOptions struct {
	Doctype   string `json:"doctype"`
	RootOpen  string `json:"root_open"`
	RootClose string `json:"root_close"`
}

// DefaultValidationOptions returns the markers of an HTML document.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		Doctype:   "<!DOCTYPE html>",
		RootOpen:  "<html",
		RootClose: "</html>",
	}
}

// OutputValidator performs structural sanity checks on assembled output.
type OutputValidator struct {
	options ValidationOptions
}

// NewOutputValidator creates a new output validator.
func NewOutputValidator(options ValidationOptions) *OutputValidator {
	return &OutputValidator{options: options}
}

// Validate returns one warning per violation found in text. It never fails.
func (v *OutputValidator) Validate(text string) []serrors.ValidationWarning {
	collector := serrors.NewWarningCollector()
	lower := strings.ToLower(text)

	if d := v.options.Doctype; d != "" && !strings.Contains(lower, strings.ToLower(d)) {
		collector.Add(serrors.ValidationWarning{
			Kind:    serrors.WarningMissingDoctype,
			Message: "document marker " + d + " not found",
			Offset:  -1,
		})
	}

	v.checkRoot(lower, collector)

	for _, m := range resolver.Markers(text) {
		collector.Add(serrors.ValidationWarning{
			Kind:    serrors.WarningLeftoverDirective,
			Message: "unexpanded directive " + text[m.Start:m.End],
			Offset:  m.Start,
		})
	}

	return collector.Warnings()
}

func (v *OutputValidator) checkRoot(lower string, collector *serrors.WarningCollector) {
	open := strings.ToLower(v.options.RootOpen)
	closing := strings.ToLower(v.options.RootClose)
	if open == "" || closing == "" {
		return
	}

	opens := strings.Count(lower, open)
	closes := strings.Count(lower, closing)

	if opens == 0 {
		collector.Add(serrors.ValidationWarning{
			Kind:    serrors.WarningMissingRootOpen,
			Message: "root open marker " + v.options.RootOpen + " not found",
			Offset:  -1,
		})
	}
	if closes == 0 {
		collector.Add(serrors.ValidationWarning{
			Kind:    serrors.WarningMissingRootClose,
			Message: "root close marker " + v.options.RootClose + " not found",
			Offset:  -1,
		})
	}
	if opens == 0 || closes == 0 {
		return
	}

	switch {
	case opens != closes:
		collector.Add(serrors.ValidationWarning{
			Kind:    serrors.WarningUnbalancedRoot,
			Message: "root open and close markers do not match up",
			Offset:  -1,
		})
	case strings.Index(lower, closing) < strings.Index(lower, open):
		collector.Add(serrors.ValidationWarning{
			Kind:    serrors.WarningUnbalancedRoot,
			Message: "root close marker appears before the open marker",
			Offset:  strings.Index(lower, closing),
		})
	}
}
