package models

import "time"

// Article is a published piece of writing. Slug is globally unique and is
// regenerated whenever the title changes.
type Article struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Body        string `gorm:"type:text;not null" json:"body"`
	AuthorID    uint   `gorm:"not null;index" json:"authorId"`
	Author      User   `gorm:"foreignKey:AuthorID" json:"author"`
	// Tags is loaded from article_tags in insertion order; not a GORM association.
	Tags      []Tag     `gorm:"-" json:"tags"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TagNames flattens the tag set to names, preserving order.
func (a *Article) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}
