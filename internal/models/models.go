package models

import "time"

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Profile struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	DisplayName *string   `db:"display_name"`
	Bio         *string   `db:"bio"`
	AvatarURL   *string   `db:"avatar_url"`
	Location    *string   `db:"location"`
	Website     *string   `db:"website"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
)

type Post struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	Content    string     `db:"content"`
	Visibility Visibility `db:"visibility"`
	PostedAt   time.Time  `db:"posted_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

type EngagementKind string

const (
	EngagementLike    EngagementKind = "like"
	EngagementComment EngagementKind = "comment"
	EngagementShare   EngagementKind = "share"
	EngagementView    EngagementKind = "view"
)

// Engagement.UserID is nil once the acting user is deleted.
type Engagement struct {
	ID        string         `db:"id"`
	PostID    string         `db:"post_id"`
	UserID    *string        `db:"user_id"`
	Type      EngagementKind `db:"type"`
	Metadata  []byte         `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}

type AnalyticsDaily struct {
	ID             string    `db:"id"`
	Date           time.Time `db:"date"`
	UserID         string    `db:"user_id"`
	PostsCount     int       `db:"posts_count"`
	LikesCount     int       `db:"likes_count"`
	CommentsCount  int       `db:"comments_count"`
	SharesCount    int       `db:"shares_count"`
	ViewsCount     int       `db:"views_count"`
	FollowersCount int       `db:"followers_count"`
	FollowingCount int       `db:"following_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type AdminFlag struct {
	ID          string    `db:"id"`
	Key         string    `db:"key"`
	Value       bool      `db:"value"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type SchemaMigration struct {
	Version   *string   `db:"version"`
	Name      *string   `db:"name"`
	AppliedAt time.Time `db:"applied_at"`
}
