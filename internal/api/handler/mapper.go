package handler

import "github.com/deadwick/feedback-service/internal/core/domain"

func toIdentityResponse(i domain.Identity) identityResponse {
	return identityResponse{
		ID:          i.ID,
		Email:       i.Email,
		Role:        string(domain.ParseRole(string(i.Role))),
		DisplayName: i.DisplayName,
		IsAdmin:     i.IsAdmin(),
	}
}

func toFeedbackResponse(r domain.FeedbackRecord) feedbackResponse {
	return feedbackResponse{
		ID:          r.ID,
		AuthorID:    r.AuthorID,
		DisplayName: domain.ResolveDisplayName(r.DisplayName),
		Message:     r.Message,
		Rating:      domain.NormalizeRating(r.Rating),
		ImageURL:    r.ImageRef,
		CreatedAt:   r.CreatedAt,
	}
}

func toFeedbackList(records []domain.FeedbackRecord) feedbackListResponse {
	items := make([]feedbackResponse, 0, len(records))
	for _, r := range records {
		items = append(items, toFeedbackResponse(r))
	}
	return feedbackListResponse{Items: items, Count: len(items)}
}
