package model

import "time"

// Profile is a user's public link page, stored in Postgres. The identity
// provider's opaque user id (ClerkID) is the join key; Handle is the
// user-chosen public URL segment and is unique when set.
type Profile struct {
	ClerkID   string    `db:"clerk_id" gorm:"primaryKey;size:64" json:"clerk_id"`
	Handle    *string   `db:"handle" gorm:"column:handle;uniqueIndex;size:64" json:"handle,omitempty"`
	Name      string    `db:"name" gorm:"size:128" json:"name"`
	Bio       string    `db:"bio" gorm:"type:text" json:"bio"`
	AvatarURL string    `db:"avatar_url" gorm:"type:text" json:"avatar_url"`
	Email     string    `db:"email" gorm:"size:255" json:"email"`
	Phone     string    `db:"phone" gorm:"size:32" json:"phone"`
	Views     *int64    `db:"views" gorm:"default:0" json:"views"`
	Rank      string    `db:"rank" gorm:"size:255;default:'მომხმარებელი'" json:"rank"`
	AccessKey string    `db:"access_key" gorm:"size:4" json:"-"`
	Links     LinkSlots `gorm:"embedded" json:"links"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName keeps the table name the dashboard and migrations expect.
func (Profile) TableName() string { return "users" }

// ViewCount returns the counter with NULL treated as zero.
func (p *Profile) ViewCount() int64 {
	if p.Views == nil {
		return 0
	}
	return *p.Views
}

// LinkSlots is the fixed set of named platform fields a profile can fill
// in. Each holds either a bare platform handle or a full URL; empty means
// unset. Slots are grouped the way the page renders them.
type LinkSlots struct {
	// Social
	Instagram string `gorm:"size:255" json:"instagram,omitempty"`
	Facebook  string `gorm:"size:255" json:"facebook,omitempty"`
	Snapchat  string `gorm:"size:255" json:"snapchat,omitempty"`
	YouTube   string `gorm:"column:youtube;size:255" json:"youtube,omitempty"`
	Twitter   string `gorm:"size:255" json:"twitter,omitempty"`
	Threads   string `gorm:"size:255" json:"threads,omitempty"`
	Reddit    string `gorm:"size:255" json:"reddit,omitempty"`

	// Professional / competitive programming
	LinkedIn      string `gorm:"column:linkedin;size:255" json:"linkedin,omitempty"`
	GitHub        string `gorm:"column:github;size:255" json:"github,omitempty"`
	StackOverflow string `gorm:"column:stackoverflow;size:255" json:"stackoverflow,omitempty"`
	LeetCode      string `gorm:"column:leetcode;size:255" json:"leetcode,omitempty"`
	Codeforces    string `gorm:"size:255" json:"codeforces,omitempty"`
	HackerRank    string `gorm:"column:hackerrank;size:255" json:"hackerrank,omitempty"`
	CodeChef      string `gorm:"column:codechef;size:255" json:"codechef,omitempty"`
	GeeksForGeeks string `gorm:"column:geeksforgeeks;size:255" json:"geeksforgeeks,omitempty"`

	// Creative / streaming
	Twitch     string `gorm:"size:255" json:"twitch,omitempty"`
	SoundCloud string `gorm:"column:soundcloud;size:255" json:"soundcloud,omitempty"`
	Spotify    string `gorm:"size:255" json:"spotify,omitempty"`
	AppleMusic string `gorm:"column:apple_music;size:255" json:"apple_music,omitempty"`

	// Messaging (gated by the access key when one is set)
	Discord  string `gorm:"size:255" json:"discord,omitempty"`
	Telegram string `gorm:"size:255" json:"telegram,omitempty"`
	WhatsApp string `gorm:"column:whatsapp;size:255" json:"whatsapp,omitempty"`
	Skype    string `gorm:"size:255" json:"skype,omitempty"`

	// Storefront / support
	Amazon       string `gorm:"size:255" json:"amazon,omitempty"`
	Shopify      string `gorm:"size:255" json:"shopify,omitempty"`
	KoFi         string `gorm:"column:ko_fi;size:255" json:"ko_fi,omitempty"`
	BuyMeACoffee string `gorm:"column:buy_me_a_coffee;size:255" json:"buy_me_a_coffee,omitempty"`
	Patreon      string `gorm:"size:255" json:"patreon,omitempty"`

	// Misc
	Website string `gorm:"size:255" json:"website,omitempty"`
	Blog    string `gorm:"size:255" json:"blog,omitempty"`
}

// LeaderboardEntry is the projection returned by the top-N query.
type LeaderboardEntry struct {
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Views     int64  `json:"views"`
	Rank      string `json:"rank"`
}
