package handler

import "namecheck/internal/ownercheck/models"

// CheckResponse is the HTTP response for POST /check_bank_name.
type CheckResponse struct {
	Result   bool   `json:"result"`
	TrueName string `json:"true_name,omitempty"`
	Bank     string `json:"bank,omitempty"`
	Message  string `json:"message,omitempty"`
}

// FromVerdict converts a verdict to its response body. A failure verdict is
// answered with its bare message as a JSON string.
func FromVerdict(v models.Verdict) any {
	if v.Failure != "" {
		return v.Failure
	}
	resp := CheckResponse{Result: v.Matched, Message: v.Message}
	if v.Matched || v.TrueName != "" {
		resp.Bank = v.SourceBank
	}
	if !v.Matched {
		resp.TrueName = v.TrueName
	}
	return resp
}
