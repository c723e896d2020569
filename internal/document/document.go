package document

import (
	"context"
	"errors"
	"fmt"

	"bookmirror/internal/config"
	"bookmirror/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Store держит денормализованное зеркало в Redis: по документу на сущность,
// журнал и предсказания под отдельными ключами. Внешних ключей нет;
// существование всегда решает реляционное хранилище.
type Store struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func hotelKey(id int64) string       { return fmt.Sprintf("hotel:%d", id) }
func guestKey(id int64) string       { return fmt.Sprintf("guest:%d", id) }
func bookingKey(id int64) string     { return fmt.Sprintf("booking:%d", id) }
func bookingLogsKey(id int64) string { return fmt.Sprintf("booking_logs:%d", id) }
func predictionSetKey(id int64) string {
	return fmt.Sprintf("predictions:%d", id)
}

const bookingIndexKey = "bookings"

// versionField normalizes the nullable model version into a key segment.
func versionField(modelVersion *string) string {
	if modelVersion == nil || *modelVersion == "" {
		return "unversioned"
	}
	return *modelVersion
}

func predictionKey(bookingID int64, modelVersion *string) string {
	return fmt.Sprintf("prediction:%d:%s", bookingID, versionField(modelVersion))
}

// wrapErr classifies Redis failures: redis.Nil is absence, everything
// else (timeouts, refused connections) is transient and retry-eligible.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	return domain.Transientf("%s", op+": "+err.Error())
}

// Ping проверяет соединение с Redis.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
