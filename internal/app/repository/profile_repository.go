package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/rank"
	"gorm.io/gorm"
)

var (
	// ErrProfileNotFound signals that no profile exists for the given
	// identity key or handle. Callers usually treat this as "not created
	// yet" rather than a failure.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDuplicateHandle signals that the chosen handle is already taken.
	ErrDuplicateHandle = errors.New("handle already taken")
	// ErrStorageUnavailable wraps connectivity-level failures. Nothing
	// retries in place; the next trigger self-corrects.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

const uniqueViolation = "23505"

// ProfileRepository defines the data access contract for user profiles.
type ProfileRepository interface {
	GetByIdentity(ctx context.Context, clerkID string) (*model.Profile, error)
	GetByHandle(ctx context.Context, handle string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	CreateFields(ctx context.Context, fields map[string]interface{}) error
	Update(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error)
	IncrementViews(ctx context.Context, handle string) (int64, error)
	TopByViews(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	ListBoosted(ctx context.Context) ([]model.Profile, error)
	UpdateRank(ctx context.Context, handle, rankField string) error
	ListHandles(ctx context.Context) ([]string, error)
}

type profileRepository struct {
	db   *gorm.DB
	pool *pgxpool.Pool
}

// NewProfileRepository returns a ProfileRepository backed by GORM for row
// CRUD and the pgx pool for the atomic counter and leaderboard queries.
func NewProfileRepository(db *gorm.DB, pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{db: db, pool: pool}
}

func (r *profileRepository) GetByIdentity(ctx context.Context, clerkID string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByHandle(ctx context.Context, handle string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return mapDuplicate(err)
	}
	return nil
}

// CreateFields inserts a new row from a column map. Columns not present
// take their database defaults, notably the member rank tag.
func (r *profileRepository) CreateFields(ctx context.Context, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Create(fields).Error; err != nil {
		return mapDuplicate(err)
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, clerkID string, fields map[string]interface{}) (*model.Profile, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("clerk_id = ?", clerkID).
		Updates(fields)

	if result.Error != nil {
		return nil, mapDuplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}

	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// IncrementViews bumps the counter in a single UPDATE so concurrent
// viewers never lose increments to a read-modify-write race.
func (r *profileRepository) IncrementViews(ctx context.Context, handle string) (int64, error) {
	var views int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET views = COALESCE(views, 0) + 1 WHERE handle = $1 RETURNING views`,
		handle,
	).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProfileNotFound
		}
		return 0, fmt.Errorf("%w: increment views: %v", ErrStorageUnavailable, err)
	}
	return views, nil
}

// TopByViews returns the leaderboard snapshot. Rows missing a handle or a
// view count never rank. Tie order is whatever Postgres returns.
func (r *profileRepository) TopByViews(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = 3
	}

	rows, err := r.pool.Query(ctx,
		`SELECT handle, COALESCE(name, ''), COALESCE(avatar_url, ''), views, COALESCE(rank, '')
		   FROM users
		  WHERE handle IS NOT NULL AND views IS NOT NULL
		  ORDER BY views DESC
		  LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: top by views: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Handle, &e.Name, &e.AvatarURL, &e.Views, &e.Rank); err != nil {
			return nil, fmt.Errorf("%w: scan leaderboard row: %v", ErrStorageUnavailable, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read leaderboard rows: %v", ErrStorageUnavailable, err)
	}
	return entries, nil
}

func (r *profileRepository) ListBoosted(ctx context.Context) ([]model.Profile, error) {
	var boosted []model.Profile
	if err := r.db.WithContext(ctx).
		Where("rank LIKE ?", "%"+rank.BoosterTag+"%").
		Find(&boosted).Error; err != nil {
		return nil, fmt.Errorf("%w: list boosted: %v", ErrStorageUnavailable, err)
	}
	return boosted, nil
}

func (r *profileRepository) UpdateRank(ctx context.Context, handle, rankField string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("handle = ?", handle).
		Update("rank", rankField)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) ListHandles(ctx context.Context) ([]string, error) {
	var handles []string
	if err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("handle IS NOT NULL").
		Pluck("handle", &handles).Error; err != nil {
		return nil, err
	}
	return handles, nil
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateHandle
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateHandle
	}
	return err
}
