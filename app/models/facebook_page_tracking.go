package models

import "time"

// FacebookPageTracking keeps incremental re-scrape bookkeeping per
// (user, page). LastPostID/LastPostDate mark the newest post already seen so
// follow-up scrapes only bill new posts.
type FacebookPageTracking struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index:ux_fb_tracking_user_page,unique,priority:1" json:"user_id"`
	PageURL      string     `gorm:"type:varchar(500);not null;index:ux_fb_tracking_user_page,unique,priority:2" json:"page_url"`
	PageName     string     `gorm:"type:varchar(255)" json:"page_name"`
	LastPostID   string     `gorm:"type:varchar(100)" json:"last_post_id,omitempty"`
	LastPostDate *time.Time `gorm:"type:timestamp;default:null" json:"last_post_date,omitempty"`
	TotalScraped int        `gorm:"not null;default:0" json:"total_scraped"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Posts []ScrapedPost `gorm:"foreignKey:TrackingID;constraint:OnDelete:CASCADE" json:"-"`
}

// ScrapedPost is the dedup record for one Facebook post already delivered to
// a tracking. Unique on (tracking_id, post_id).
type ScrapedPost struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TrackingID uint       `gorm:"not null;index:ux_scraped_posts_tracking_post,unique,priority:1" json:"tracking_id"`
	PostID     string     `gorm:"type:varchar(100);not null;index:ux_scraped_posts_tracking_post,unique,priority:2" json:"post_id"`
	PostDate   *time.Time `gorm:"type:timestamp;default:null" json:"post_date,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
