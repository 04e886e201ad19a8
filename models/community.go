package models

// Forum is a discussion board. Creator references the external user ID
// carried by the gateway headers.
type Forum struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	Title         string `gorm:"uniqueIndex;not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	CreatorUserID string `gorm:"index;not null" json:"creator_user_id"`
	Active        bool   `gorm:"index" json:"active"`

	Timestamps
}

// Comment supports one level of nesting through ParentCommentID.
type Comment struct {
	ID              string  `gorm:"primaryKey;type:uuid" json:"id"`
	ForumID         string  `gorm:"index;not null" json:"forum_id"`
	AuthorUserID    string  `gorm:"index;not null" json:"author_user_id"`
	Body            string  `gorm:"type:text;not null" json:"body"`
	ParentCommentID *string `gorm:"index" json:"parent_comment_id,omitempty"`

	Forum   *Forum    `gorm:"foreignKey:ForumID" json:"-"`
	Replies []Comment `gorm:"foreignKey:ParentCommentID" json:"replies,omitempty"`

	Timestamps
}

// CommentLike: one like per (comment, user).
type CommentLike struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	CommentID      string `gorm:"index:idx_comment_like_comment_user,unique;not null" json:"comment_id"`
	ExternalUserID string `gorm:"index:idx_comment_like_comment_user,unique;not null" json:"external_user_id"`

	Timestamps
}
