package models

// SignCategory groups glossary entries ("greetings", "family", ...).
type SignCategory struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Active      bool   `gorm:"index" json:"active"`

	Timestamps
}

// Sign is one glossary entry: a word or phrase together with how it is
// signed (description text, video URL, etc.).
type Sign struct {
	ID         string  `gorm:"primaryKey;type:uuid" json:"id"`
	Title      string  `gorm:"index;not null" json:"title"`
	Content    string  `gorm:"type:text" json:"content"`
	CategoryID *string `gorm:"index" json:"category_id,omitempty"`
	Active     bool    `gorm:"index" json:"active"`

	Category *SignCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Timestamps
}
