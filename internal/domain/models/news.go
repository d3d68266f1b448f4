// internal/domain/models/news.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// News scopes. An item is attached to exactly one level of the hierarchy.
const (
	NewsScopeParish      = "parish"
	NewsScopeDiocese     = "diocese"
	NewsScopeArchdiocese = "archdiocese"
)

// NewsCategories is the allow-list for the category field.
var NewsCategories = []string{
	"Annonce", "Événement", "Célébration", "Formation",
	"Pastorale", "Jeunesse", "Caritative", "Autre",
}

// ValidNewsCategory reports whether c is an allowed category.
func ValidNewsCategory(c string) bool {
	for _, cat := range NewsCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// News is announcement content shown in the mobile app once published.
// Unlike donation types and prayer times it has no two-phase approval:
// Published is a direct toggle, and flipping it from false to true
// dispatches one notification to the owning parish's subscribers.
type News struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Scope         string              `bson:"scope" json:"scope"`
	ParishID      *primitive.ObjectID `bson:"parish_id,omitempty" json:"parishId,omitempty"`
	DioceseID     string              `bson:"diocese_id,omitempty" json:"dioceseId,omitempty"`
	ArchdioceseID string              `bson:"archdiocese_id,omitempty" json:"archdioceseId,omitempty"`

	Title      string `bson:"title" json:"title"`
	TitleCI    string `bson:"title_ci" json:"-"`
	Content    string `bson:"content" json:"content"` // sanitized HTML
	Excerpt    string `bson:"excerpt" json:"excerpt"`
	Category   string `bson:"category" json:"category"`
	Published  bool   `bson:"published" json:"published"`
	Image      string `bson:"image,omitempty" json:"image,omitempty"`
	Author     string `bson:"author,omitempty" json:"author,omitempty"`
	ShowAuthor bool   `bson:"show_author" json:"showAuthor"`

	CreatedBy     primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedByRole string             `bson:"created_by_role" json:"createdByRole"`

	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
}
