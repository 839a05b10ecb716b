package models

import "time"

// Favorite records that a user likes an article.
// The (UserID, ArticleID) pair is the identity; there is never more than one row per pair.
type Favorite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"articleId"`
	Article   *Article  `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
