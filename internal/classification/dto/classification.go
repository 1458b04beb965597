package dto

import "inboxpilot-backend/internal/classification/domain"

// CorrectRequest is the body for a versioned label update
type CorrectRequest struct {
	ExpectedVersion int               `json:"expected_version" binding:"required"`
	Updates         map[string]string `json:"updates" binding:"required"`
	Reason          string            `json:"reason"`
}

// ListResponse is one page of classifications
type ListResponse struct {
	Data       []*domain.Classification `json:"data"`
	TotalCount int64                    `json:"total_count"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
}
