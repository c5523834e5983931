// Package validate checks user-supplied field values before they reach the
// store. Limits mirror the column sizes in the schema; every failure is an
// apperr validation error so the transport maps it to 400.
package validate

import (
	"strings"

	"github.com/blueprintlab/studio/internal/apperr"
)

const (
	// MaxProjectName bounds project names.
	MaxProjectName = 128
	// MaxProjectDescription bounds project descriptions.
	MaxProjectDescription = 400
	// MaxNodeName bounds node names.
	MaxNodeName = 255
	// MaxTerm bounds dictionary terms.
	MaxTerm = 255
)

// ProjectName checks a project name: required, at most MaxProjectName
// characters.
func ProjectName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("project name is required")
	}
	if len([]rune(name)) > MaxProjectName {
		return apperr.Validation("project name exceeds %d characters", MaxProjectName)
	}
	return nil
}

// ProjectDescription checks an optional project description length.
func ProjectDescription(desc string) error {
	if len([]rune(desc)) > MaxProjectDescription {
		return apperr.Validation("project description exceeds %d characters", MaxProjectDescription)
	}
	return nil
}

// NodeName checks a node name: required, at most MaxNodeName characters.
func NodeName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("node name is required")
	}
	if len([]rune(name)) > MaxNodeName {
		return apperr.Validation("node name exceeds %d characters", MaxNodeName)
	}
	return nil
}

// Term checks a dictionary term: required, at most MaxTerm characters.
func Term(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return apperr.Validation("term is required")
	}
	if len([]rune(term)) > MaxTerm {
		return apperr.Validation("term exceeds %d characters", MaxTerm)
	}
	return nil
}

// Definition checks a dictionary definition: required, no length cap.
func Definition(def string) error {
	if strings.TrimSpace(def) == "" {
		return apperr.Validation("definition is required")
	}
	return nil
}
