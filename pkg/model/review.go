package model

import "time"

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

var ModerationStatuses = []ModerationStatus{ModerationPending, ModerationApproved, ModerationRejected}

type ReviewResponse struct {
	Author     string    `json:"author" bson:"author"`
	AuthorType string    `json:"author_type" bson:"author_type"`
	Message    string    `json:"message" bson:"message"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type Review struct {
	ID               string           `json:"id,omitempty" bson:"_id,omitempty"`
	TourID           string           `json:"tour_id" bson:"tour_id"`
	UserID           string           `json:"user_id" bson:"user_id"`
	BookingID        string           `json:"booking_id" bson:"booking_id"`
	Rating           int              `json:"rating" bson:"rating"`
	Title            string           `json:"title" bson:"title"`
	Comment          string           `json:"comment" bson:"comment"`
	Highlights       []string         `json:"highlights,omitempty" bson:"highlights,omitempty"`
	Improvements     []string         `json:"improvements,omitempty" bson:"improvements,omitempty"`
	WouldRecommend   bool             `json:"would_recommend" bson:"would_recommend"`
	HelpfulVotes     int              `json:"helpful_votes" bson:"helpful_votes"`
	ReportedCount    int              `json:"reported_count" bson:"reported_count"`
	ModerationStatus ModerationStatus `json:"moderation_status" bson:"moderation_status"`
	IsVisible        bool             `json:"is_visible" bson:"is_visible"`
	Responses        []ReviewResponse `json:"responses,omitempty" bson:"responses,omitempty"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
}

type ReviewRequest struct {
	TourID         string   `json:"tour_id" validate:"required,mongodb"`
	BookingID      string   `json:"booking_id" validate:"required,mongodb"`
	Rating         int      `json:"rating" validate:"required,min=1,max=5"`
	Title          string   `json:"title" validate:"required,min=3,max=100"`
	Comment        string   `json:"comment" validate:"required,min=10,max=2000"`
	Highlights     []string `json:"highlights,omitempty" validate:"omitempty,max=10,dive,min=2,max=100"`
	Improvements   []string `json:"improvements,omitempty" validate:"omitempty,max=10,dive,min=2,max=100"`
	WouldRecommend bool     `json:"would_recommend"`
}

type ReviewUpdate struct {
	Rating         *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title          *string   `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Comment        *string   `json:"comment,omitempty" validate:"omitempty,min=10,max=2000"`
	Highlights     *[]string `json:"highlights,omitempty" validate:"omitempty,max=10,dive,min=2,max=100"`
	Improvements   *[]string `json:"improvements,omitempty" validate:"omitempty,max=10,dive,min=2,max=100"`
	WouldRecommend *bool     `json:"would_recommend,omitempty"`
}

func (u *ReviewUpdate) IsEmpty() bool {
	return u.Rating == nil && u.Title == nil && u.Comment == nil &&
		u.Highlights == nil && u.Improvements == nil && u.WouldRecommend == nil
}

type ModerationRequest struct {
	Status ModerationStatus `json:"status" validate:"required,oneof=approved rejected pending"`
}

type ResponseRequest struct {
	Message string `json:"message" validate:"required,min=2,max=1000"`
}

// PubliclyVisible reports whether anonymous readers may see the review.
func (r *Review) PubliclyVisible() bool {
	return r.IsVisible && r.ModerationStatus == ModerationApproved
}
