package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

const (
	usersKey            = "shopy:users"
	userIDsKey          = "shopy:user_ids"
	preferencesKey      = "shopy:preferences"
	ordersKeyPrefix     = "shopy:orders:"
	productsKeyPrefix   = "shopy:products:"
	productIDsKeyPrefix = "shopy:product_ids:"
	sessionKeyPrefix    = "shopy:session:"
	idempotencyKeyTTL   = 24 * time.Hour
)

// KEYS[1] users hash, KEYS[2] id index; ARGV mobile, id, record
var createAccountScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[3]) == 0 then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[2], ARGV[1])
return 1
`)

// KEYS[1] products hash, KEYS[2] id list; ARGV id, record
var createProductScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

var updateProductScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

var deleteProductScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('LREM', KEYS[2], 0, ARGV[1])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) CreateAccount(ctx context.Context, creds domain.Credentials) error {
	record, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	result, err := createAccountScript.Run(ctx, r.client,
		[]string{usersKey, userIDsKey}, creds.Mobile, creds.ID, record).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return port.ErrAlreadyExists
	}
	return nil
}

func (r *RedisAdapter) FindByMobile(ctx context.Context, mobile string) (*domain.Credentials, error) {
	data, err := r.client.HGet(ctx, usersKey, mobile).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &creds, nil
}

func (r *RedisAdapter) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	mobile, err := r.client.HGet(ctx, userIDsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	creds, err := r.FindByMobile(ctx, mobile)
	if err != nil || creds == nil {
		return nil, err
	}
	return &creds.Account, nil
}

func (r *RedisAdapter) UpdateAccount(ctx context.Context, account domain.Account) error {
	mobile, err := r.client.HGet(ctx, userIDsKey, account.ID).Result()
	if errors.Is(err, redis.Nil) {
		return port.ErrNotFound
	}
	if err != nil {
		return err
	}

	creds, err := r.FindByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	if creds == nil {
		return port.ErrNotFound
	}

	creds.Account = account
	record, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	return r.client.HSet(ctx, usersKey, mobile, record).Err()
}

func (r *RedisAdapter) AppendOrder(ctx context.Context, order domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	return r.client.LPush(ctx, ordersKeyPrefix+order.AccountID, data).Err()
}

func (r *RedisAdapter) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	items, err := r.client.LRange(ctx, ordersKeyPrefix+accountID, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		var o domain.Order
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *RedisAdapter) CreateProduct(ctx context.Context, product domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	result, err := createProductScript.Run(ctx, r.client, r.productKeys(product.VendorID), product.ID, data).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return port.ErrAlreadyExists
	}
	return nil
}

func (r *RedisAdapter) UpdateProduct(ctx context.Context, product domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	result, err := updateProductScript.Run(ctx, r.client, r.productKeys(product.VendorID), product.ID, data).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *RedisAdapter) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	result, err := deleteProductScript.Run(ctx, r.client, r.productKeys(vendorID), productID).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *RedisAdapter) GetProduct(ctx context.Context, vendorID, productID string) (*domain.Product, error) {
	data, err := r.client.HGet(ctx, productsKeyPrefix+vendorID, productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &p, nil
}

func (r *RedisAdapter) ListProducts(ctx context.Context, vendorID string) ([]domain.Product, error) {
	ids, err := r.client.LRange(ctx, productIDsKeyPrefix+vendorID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	values, err := r.client.HMGet(ctx, productsKeyPrefix+vendorID, ids...).Result()
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p domain.Product
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *RedisAdapter) GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error) {
	data, err := r.client.HGet(ctx, preferencesKey, accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p domain.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &p, nil
}

func (r *RedisAdapter) SavePreferences(ctx context.Context, accountID string, prefs domain.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return r.client.HSet(ctx, preferencesKey, accountID, data).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) SaveSession(ctx context.Context, token string, account domain.Account, ttl time.Duration) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+token, data, ttl).Err()
}

func (r *RedisAdapter) LoadSession(ctx context.Context, token string) (*domain.Account, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &account, nil
}

func (r *RedisAdapter) DeleteSession(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKeyPrefix+token).Err()
}

func (r *RedisAdapter) productKeys(vendorID string) []string {
	return []string{productsKeyPrefix + vendorID, productIDsKeyPrefix + vendorID}
}
