package model

import "time"

// MaxCommentLength bounds comment_text, in characters.
const MaxCommentLength = 500

// ShowComment is a chat message posted during a show.
type ShowComment struct {
	ID          uint64    `json:"id"`
	ShowID      uint64    `json:"show_id"`
	UserID      uint64    `json:"user_id"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
	FullName    string    `json:"full_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}
