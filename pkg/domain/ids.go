package domain

import (
	"strconv"
	"strings"

	dErrors "giyus/pkg/domain-errors"
)

// LeadID identifies a lead (candidate) record.
type LeadID int64

// ChangeRequestID identifies a pending single-field change request.
type ChangeRequestID int64

// maxIDLength bounds decimal input before parsing; int64 has at most 19 digits.
const maxIDLength = 19

// ParseLeadID parses a positive decimal lead id from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, not a positive
// integer, or longer than an int64 can hold.
func ParseLeadID(s string) (LeadID, error) {
	v, err := parsePositiveID(s, "lead id")
	if err != nil {
		return 0, err
	}
	return LeadID(v), nil
}

// ParseChangeRequestID parses a positive decimal change request id.
func ParseChangeRequestID(s string) (ChangeRequestID, error) {
	v, err := parsePositiveID(s, "change request id")
	if err != nil {
		return 0, err
	}
	return ChangeRequestID(v), nil
}

func parsePositiveID(s, name string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" is too long")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name)
	}
	return v, nil
}

func (id LeadID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id ChangeRequestID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
