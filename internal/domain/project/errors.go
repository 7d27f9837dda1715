package project

import "errors"

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrDuplicateCode      = errors.New("project code already in use")
	ErrWbsItemNotFound    = errors.New("wbs item not found")
	ErrAssignmentNotFound = errors.New("project assignment not found")
	ErrInvalidLineType    = errors.New("line mapping type must be primary or secondary")
	ErrMissingFields      = errors.New("project code and name are required")
	ErrInvalidDateOrder   = errors.New("project end date precedes start date")
)
