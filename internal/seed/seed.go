// Package seed holds the example rows inserted after the schema is created.
//
// Users, profiles, analytics rows and admin flags are guarded by their unique
// keys, so executing the statements again leaves them unchanged (the flag is
// upserted). Posts and engagements carry no conflict guard and are inserted
// again on every execution.
package seed

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"socialdash-initdb/internal/migrations"
	"socialdash-initdb/internal/models"
	"socialdash-initdb/internal/passwords"
)

const (
	// MigrationName records the seed in the migration ledger.
	MigrationName = "V4__seed_data"

	AliceEmail = "alice@example.com"
	BobEmail   = "bob@example.com"

	FlagNewAnalytics = "enable_new_analytics"

	// AnalyticsDays is how many trailing days of analytics Alice gets.
	AnalyticsDays = 7
)

type User struct {
	Email    string
	Password string
	Profile  Profile
}

type Profile struct {
	DisplayName string
	Bio         string
	AvatarURL   string
	Location    string
	Website     string
}

type Post struct {
	AuthorEmail string
	Content     string
	Visibility  models.Visibility
	HoursAgo    int
}

type Engagement struct {
	PostAuthor string
	// ActorEmail is empty for anonymous engagements.
	ActorEmail string
	Kind       models.EngagementKind
	Metadata   map[string]interface{}
}

var Users = []User{
	{
		Email:    AliceEmail,
		Password: "password123",
		Profile: Profile{
			DisplayName: "Alice Johnson",
			Bio:         "Social media enthusiast and content creator",
			AvatarURL:   "https://example.com/avatars/alice.png",
			Location:    "San Francisco, CA",
			Website:     "https://alice.example.com",
		},
	},
	{
		Email:    BobEmail,
		Password: "password123",
		Profile: Profile{
			DisplayName: "Bob Smith",
			Bio:         "Tech blogger and analytics nerd",
			AvatarURL:   "https://example.com/avatars/bob.png",
			Location:    "New York, NY",
			Website:     "https://bob.example.com",
		},
	},
}

var Posts = []Post{
	{AuthorEmail: AliceEmail, Content: "Excited to share my latest project with everyone!", Visibility: models.VisibilityPublic, HoursAgo: 26},
	{AuthorEmail: BobEmail, Content: "Five dashboards every creator should be watching.", Visibility: models.VisibilityPublic, HoursAgo: 5},
}

var Engagements = []Engagement{
	{PostAuthor: AliceEmail, ActorEmail: BobEmail, Kind: models.EngagementLike, Metadata: map[string]interface{}{"source": "feed"}},
	{PostAuthor: AliceEmail, ActorEmail: BobEmail, Kind: models.EngagementComment, Metadata: map[string]interface{}{"text": "Congrats, looks great!"}},
	{PostAuthor: AliceEmail, ActorEmail: BobEmail, Kind: models.EngagementShare, Metadata: map[string]interface{}{"channel": "timeline"}},
	{PostAuthor: AliceEmail, Kind: models.EngagementView, Metadata: map[string]interface{}{"source": "search", "duration_ms": 5400}},
}

var AdminFlags = []models.AdminFlag{
	{Key: FlagNewAnalytics, Value: true, Description: strPtr("Enable the new analytics dashboard")},
}

// userNamespace derives stable seed user ids, so the same seed account has
// the same id in every database.
var userNamespace = uuid.MustParse("6f1c2a7e-3d4b-4c1e-9a57-5b0e8d2f4c10")

// UserID returns the id a seed user is inserted with.
func UserID(email string) string {
	return uuid.NewSHA1(userNamespace, []byte(email)).String()
}

// Statements builds the parameterized seed statements. Password hashes and
// post ids are generated on every call; engagements reference the posts
// inserted by the same call.
func Statements() ([]migrations.Step, error) {
	steps := []migrations.Step{}
	for _, user := range Users {
		hash, err := passwords.Hash(user.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", user.Email, err)
		}
		steps = append(steps, migrations.Step{
			SQL: `INSERT INTO users (id, email, password_hash, is_active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (email) DO NOTHING`,
			Args: []interface{}{UserID(user.Email), user.Email, hash},
		})
	}
	for _, user := range Users {
		p := user.Profile
		steps = append(steps, migrations.Step{
			SQL: `INSERT INTO profiles (user_id, display_name, bio, avatar_url, location, website)
SELECT u.id, $2, $3, $4, $5, $6 FROM users u WHERE u.email = $1
ON CONFLICT (user_id) DO NOTHING`,
			Args: []interface{}{user.Email, p.DisplayName, p.Bio, p.AvatarURL, p.Location, p.Website},
		})
	}
	postIDs := map[string]string{}
	for _, post := range Posts {
		id := uuid.NewString()
		if _, ok := postIDs[post.AuthorEmail]; !ok {
			postIDs[post.AuthorEmail] = id
		}
		steps = append(steps, migrations.Step{
			SQL: `INSERT INTO posts (id, user_id, content, visibility, posted_at)
SELECT $1, u.id, $3, $4, now() - make_interval(hours => $5) FROM users u WHERE u.email = $2`,
			Args: []interface{}{id, post.AuthorEmail, post.Content, string(post.Visibility), post.HoursAgo},
		})
	}
	for _, engagement := range Engagements {
		postID, ok := postIDs[engagement.PostAuthor]
		if !ok {
			return nil, fmt.Errorf("%s engagement: no seed post by %s", engagement.Kind, engagement.PostAuthor)
		}
		metadata, err := json.Marshal(engagement.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode %s metadata: %w", engagement.Kind, err)
		}
		steps = append(steps, migrations.Step{
			SQL: `INSERT INTO engagements (post_id, user_id, type, metadata)
VALUES ($1, (SELECT a.id FROM users a WHERE a.email = $2), $3, $4::jsonb)`,
			Args: []interface{}{postID, nullIfEmpty(engagement.ActorEmail), string(engagement.Kind), string(metadata)},
		})
	}
	for day := 0; day < AnalyticsDays; day++ {
		steps = append(steps, migrations.Step{
			SQL: `INSERT INTO analytics_daily (date, user_id, posts_count, likes_count, comments_count,
  shares_count, views_count, followers_count, following_count)
SELECT current_date - $2::int, u.id, $3, $4, $5, $6, $7, $8, $9 FROM users u WHERE u.email = $1
ON CONFLICT (date, user_id) DO NOTHING`,
			Args: append([]interface{}{AliceEmail, day}, dailyCounts(day)...),
		})
	}
	for _, flag := range AdminFlags {
		steps = append(steps, adminFlagStep(flag.Key, flag.Value, deref(flag.Description)))
	}
	return steps, nil
}

// Migration wraps the seed statements as a ledger migration.
func Migration() (migrations.Migration, error) {
	steps, err := Statements()
	if err != nil {
		return migrations.Migration{}, err
	}
	return migrations.Migration{Name: MigrationName, Steps: steps}, nil
}

// Reseed executes the seed statements again in one transaction, outside the
// ledger. Unguarded posts and engagements are duplicated.
func Reseed(ctx context.Context, db *sqlx.DB) error {
	steps, err := Statements()
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := migrations.Exec(ctx, tx, "seed", steps); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SetAdminFlag upserts a flag by key; the last write wins.
func SetAdminFlag(ctx context.Context, exec migrations.Execer, key string, value bool, description string) error {
	step := adminFlagStep(key, value, description)
	_, err := exec.ExecContext(ctx, step.SQL, step.Args...)
	return err
}

func adminFlagStep(key string, value bool, description string) migrations.Step {
	return migrations.Step{
		SQL: `INSERT INTO admin_flags (key, value, description)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, description = EXCLUDED.description, updated_at = now()`,
		Args: []interface{}{key, value, nullIfEmpty(description)},
	}
}

// dailyCounts returns posts, likes, comments, shares, views, followers and
// following for the day that lies daysAgo days back.
func dailyCounts(daysAgo int) []interface{} {
	return []interface{}{
		1 + daysAgo%3,
		12 + 3*daysAgo,
		3 + daysAgo,
		daysAgo % 4,
		150 + 25*daysAgo,
		120 - daysAgo,
		45,
	}
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func strPtr(value string) *string {
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
