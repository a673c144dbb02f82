package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"llm-insurance/internal/domain"
)

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedAccountRepository agrega una cache read-through en Redis sobre otro AccountRepository.
// Solo GetByUserID se sirve desde cache, y solo si version e is_deleted coinciden con el store;
// una invalidacion fallida o una copia vieja re-guardada nunca se sirven.
// Las cuentas borradas no se cachean.
type CachedAccountRepository struct {
	next    AccountRepository
	client  redisKVClient
	ttl     time.Duration
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewCachedAccountRepository(next AccountRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) AccountRepository {
	if client == nil {
		return next
	}
	return newCachedAccountRepository(next, client, ttl, logger)
}

func newCachedAccountRepository(next AccountRepository, client redisKVClient, ttl time.Duration, logger *zap.Logger) *CachedAccountRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAccountRepository{
		next:    next,
		client:  client,
		ttl:     ttl,
		prefix:  "auth:account:",
		timeout: 500 * time.Millisecond,
		logger:  logger,
	}
}

type cachedAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	PasswordHash  string    `json:"password_hash"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PhoneNumber   string    `json:"phone_number"`
	BirthDate     time.Time `json:"birth_date"`
	Gender        string    `json:"gender"`
	IsMarried     bool      `json:"is_married"`
	Job           string    `json:"job"`
	Diseases      []string  `json:"diseases"`
	Subscriptions []string  `json:"subscriptions"`
	CreatedAt     time.Time `json:"created_at"`
	ModifiedAt    time.Time `json:"modified_at"`
	IsLoggedIn    bool      `json:"is_logged_in"`
	IsDeleted     bool      `json:"is_deleted"`
	Version       int64     `json:"version"`
}

func toCached(a domain.Account) cachedAccount {
	return cachedAccount{
		ID:            a.ID,
		UserID:        a.UserID,
		PasswordHash:  a.PasswordHash,
		Email:         a.Email,
		Name:          a.Name,
		PhoneNumber:   a.PhoneNumber,
		BirthDate:     a.BirthDate,
		Gender:        string(a.Gender),
		IsMarried:     a.IsMarried,
		Job:           a.Job,
		Diseases:      a.Diseases,
		Subscriptions: a.Subscriptions,
		CreatedAt:     a.CreatedAt,
		ModifiedAt:    a.ModifiedAt,
		IsLoggedIn:    a.IsLoggedIn,
		IsDeleted:     a.IsDeleted,
		Version:       a.Version,
	}
}

func (c cachedAccount) account() domain.Account {
	return domain.Account{
		ID:            c.ID,
		UserID:        c.UserID,
		PasswordHash:  c.PasswordHash,
		Email:         c.Email,
		Name:          c.Name,
		PhoneNumber:   c.PhoneNumber,
		BirthDate:     c.BirthDate,
		Gender:        domain.Gender(c.Gender),
		IsMarried:     c.IsMarried,
		Job:           c.Job,
		Diseases:      domain.CloneTags(c.Diseases),
		Subscriptions: domain.CloneTags(c.Subscriptions),
		CreatedAt:     c.CreatedAt,
		ModifiedAt:    c.ModifiedAt,
		IsLoggedIn:    c.IsLoggedIn,
		IsDeleted:     c.IsDeleted,
		Version:       c.Version,
	}
}

func (r *CachedAccountRepository) key(userID string) string {
	return r.prefix + strings.TrimSpace(userID)
}

func (r *CachedAccountRepository) Create(ctx context.Context, account domain.Account) error {
	if err := r.next.Create(ctx, account); err != nil {
		return err
	}
	r.invalidate(account.UserID)
	return nil
}

func (r *CachedAccountRepository) GetByUserID(ctx context.Context, userID string) (domain.Account, error) {
	if strings.TrimSpace(userID) == "" {
		return r.next.GetByUserID(ctx, userID)
	}
	if cached, ok := r.lookup(userID); ok {
		state, err := r.next.StateByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				r.invalidate(userID)
			}
			return domain.Account{}, err
		}
		if state.Version == cached.Version && state.IsDeleted == cached.IsDeleted {
			return cached, nil
		}
		r.invalidate(userID)
	}

	account, err := r.next.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Account{}, err
	}
	if account.Active() {
		r.store(account)
	}
	return account, nil
}

func (r *CachedAccountRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	return r.next.ExistsByUserID(ctx, userID)
}

func (r *CachedAccountRepository) StateByUserID(ctx context.Context, userID string) (domain.AccountState, error) {
	return r.next.StateByUserID(ctx, userID)
}

func (r *CachedAccountRepository) Update(ctx context.Context, account domain.Account) error {
	if err := r.next.Update(ctx, account); err != nil {
		return err
	}
	r.invalidate(account.UserID)
	return nil
}

func (r *CachedAccountRepository) SoftDelete(ctx context.Context, account domain.Account) error {
	if err := r.next.SoftDelete(ctx, account); err != nil {
		return err
	}
	r.invalidate(account.UserID)
	return nil
}

func (r *CachedAccountRepository) lookup(userID string) (domain.Account, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("account cache get failed", zap.Error(err))
		}
		return domain.Account{}, false
	}
	var cached cachedAccount
	if err := json.Unmarshal(raw, &cached); err != nil {
		r.logger.Warn("account cache decode failed", zap.Error(err))
		r.invalidate(userID)
		return domain.Account{}, false
	}
	return cached.account(), true
}

func (r *CachedAccountRepository) store(account domain.Account) {
	payload, err := json.Marshal(toCached(account))
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(account.UserID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("account cache set failed", zap.Error(err))
	}
}

func (r *CachedAccountRepository) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		r.logger.Warn("account cache invalidate failed", zap.Error(err))
	}
}
