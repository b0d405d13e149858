package handler

import (
	"strings"

	"namecheck/internal/ownercheck/models"
	dErrors "namecheck/pkg/domain-errors"
)

// CheckRequest is the HTTP request body for POST /check_bank_name.
type CheckRequest struct {
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
}

// Validate implements httputil.Validatable.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.AccountNumber) > 32 || len(r.BankName) > 64 || len(r.AccountName) > 256 {
		return dErrors.New(dErrors.CodeValidation, "request field too long")
	}

	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
	r.BankName = strings.TrimSpace(r.BankName)
	r.AccountName = strings.TrimSpace(r.AccountName)
	if r.AccountNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "account_number is required")
	}
	if r.BankName == "" {
		return dErrors.New(dErrors.CodeValidation, "bank_name is required")
	}
	if r.AccountName == "" {
		return dErrors.New(dErrors.CodeValidation, "account_name is required")
	}
	return nil
}

func (r *CheckRequest) toLookup() models.LookupRequest {
	return models.LookupRequest{
		AccountNumber: r.AccountNumber,
		BankHint:      r.BankName,
		ClaimedName:   r.AccountName,
	}
}
