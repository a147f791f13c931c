package testutil

import (
	"context"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
)

type RedisContainerInfo struct {
	Addr    string
	Cleanup func()
}

func StartRedisContainer() (*RedisContainerInfo, error) {
	port, cleanup, err := startContainer("redis", &dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7",
	}, "6379/tcp", func(port string) error {
		rdb := redis.NewClient(&redis.Options{Addr: "localhost:" + port})
		defer func() { _ = rdb.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		return nil, err
	}

	return &RedisContainerInfo{Addr: "localhost:" + port, Cleanup: cleanup}, nil
}
