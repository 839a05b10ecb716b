package models

import "time"

// Tag is a shared label. Name is the natural key; tags are never updated.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ArticleTag joins an article to a tag. Position keeps the order in which the
// author listed the tags.
type ArticleTag struct {
	ArticleID uint     `gorm:"primaryKey;autoIncrement:false"`
	TagID     uint     `gorm:"primaryKey;autoIncrement:false;index"`
	Position  int      `gorm:"not null;default:0"`
	Article   *Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	Tag       *Tag     `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (ArticleTag) TableName() string {
	return "article_tags"
}

// TagCount is a tag name together with the number of articles using it.
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
