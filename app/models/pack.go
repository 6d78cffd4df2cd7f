package models

import "time"

// Pack is a purchasable bundle of extraction volume at a fixed price.
// Catalog rows are reference data reseeded by the seedpacks command.
type Pack struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PackID           string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"pack_id"`
	Name             string    `gorm:"type:varchar(100);not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	NbDownloads      int       `gorm:"not null" json:"nb_downloads"`
	PriceEURCents    int64     `gorm:"not null" json:"price_eur_cents"`
	PriceMGA         int64     `gorm:"not null" json:"price_mga"`
	StripePriceIDEUR string    `gorm:"type:varchar(100)" json:"-"`
	StripePriceIDMGA string    `gorm:"type:varchar(100)" json:"-"`
	IsPopular        bool      `gorm:"default:false" json:"is_popular"`
	SortOrder        int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DefaultPacks is the static catalog written by the reseed operation.
// Running a reseed twice leaves exactly these rows.
func DefaultPacks() []Pack {
	return []Pack{
		{PackID: "pack-decouverte", Name: "Pack Découverte", Description: "Essai unique pour découvrir le service", NbDownloads: 50, PriceEURCents: 500, PriceMGA: 25000, SortOrder: 1},
		{PackID: "pack-essentiel", Name: "Pack Essentiel", Description: "Pour des extractions ponctuelles", NbDownloads: 200, PriceEURCents: 1500, PriceMGA: 75000, SortOrder: 2},
		{PackID: "pack-pro", Name: "Pack Pro", Description: "Volume confortable pour un usage régulier", NbDownloads: 1000, PriceEURCents: 4900, PriceMGA: 245000, IsPopular: true, SortOrder: 3},
		{PackID: "pack-business", Name: "Pack Business", Description: "Gros volumes et analyses IA", NbDownloads: 5000, PriceEURCents: 14900, PriceMGA: 745000, SortOrder: 4},
	}
}
