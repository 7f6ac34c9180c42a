// Package domain defines the persistence models for the library catalog:
// books, authors, and tags. These types are mapped with GORM and form the
// core data layer of the catalog application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Author is a book writer. The email is kept for contact purposes but is
// never exposed through the public API representation.
type Author struct {
	ID        uint      `json:"id"    gorm:"primaryKey"`
	Name      string    `json:"name"  gorm:"type:varchar(50);not null;index"`
	Email     string    `json:"email" gorm:"type:varchar(254)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Author.
func (Author) TableName() string { return "authors" }

// Tag is a free-form label attached to books. Names are unique.
type Tag struct {
	ID        uint      `json:"id"   gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Book is the primary catalog resource.
//
// Fields:
//   - AuthorID / Author: many-to-one writer reference, required.
//   - Tags: many-to-many label set via the book_tags join table.
//   - Price: exact decimal(6,2); the service layer rejects negative values.
//   - OwnerID: identifier of the external identity that created the book.
//     Nullable because owners live in a separate identity system and a book
//     may outlive its owner. Used for visibility and mutation authorization.
//   - IsHighlighted: a highlighted book can never be deleted.
//   - CoverImage: media-relative path of the uploaded cover, empty when none.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Book struct {
	ID            uint            `json:"id"             gorm:"primaryKey"`
	Title         string          `json:"title"          gorm:"type:varchar(100);not null"`
	AuthorID      uint            `json:"author_id"      gorm:"not null;index"`
	Author        Author          `json:"author"         gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Tags          []Tag           `json:"tags"           gorm:"many2many:book_tags"`
	Price         decimal.Decimal `json:"price"          gorm:"type:decimal(6,2);not null"`
	PublishedDate time.Time       `json:"published_date" gorm:"type:date;not null"`
	IsHighlighted bool            `json:"is_highlighted" gorm:"not null;default:false"`
	OwnerID       *string         `json:"owner"          gorm:"type:varchar(64);index"`
	CoverImage    string          `json:"-"              gorm:"type:varchar(255)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Book.
func (Book) TableName() string { return "books" }
