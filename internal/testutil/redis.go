package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates are tried in order when REDIS_ADDR is unset: the compose
// service name used in CI, a plain local Redis, then the test-profile port.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

// redisLockKey reserves a logical DB in DB 0 so FlushDB on the reserved DB
// cannot wipe the reservation itself.
const redisLockKey = "intellect:testutil:db_lock:%d"

// SetupTestRedis returns a client on a freshly flushed logical DB that no other
// concurrently running package holds. It skips when Redis is unreachable.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := findRedis(t)
	if !ok {
		if envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") {
			t.Fatal("redis not available for testing")
		}
		t.Skip("redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	t.Cleanup(func() { closeQuietly(t, "redis client", client) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis test db at %s: %v", addr, err)
	}
	return client
}

func findRedis(t TestingTB) (string, bool) {
	t.Helper()

	candidates := redisCandidates
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		if pingRedis(addr) == nil {
			return addr, true
		}
	}
	t.Logf("redis not reachable at any of %v", candidates)
	return "", false
}

func pingRedis(addr string) error {
	c := redis.NewClient(&redis.Options{Addr: addr})
	defer c.Close() //nolint:errcheck // ping client

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Ping(ctx).Err()
}

// reserveRedisDB honours TEST_REDIS_DB, otherwise claims the first free DB in
// 1..15 with a SET NX lock that is released on cleanup. Falls back to DB 1.
func reserveRedisDB(t TestingTB, addr string) int {
	t.Helper()

	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())

	for n := 1; n <= 15; n++ {
		key := fmt.Sprintf(redisLockKey, n)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, key, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}

		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := meta.Del(ctx, key).Err(); err != nil {
				t.Logf("release redis db lock %s: %v", key, err)
			}
			closeQuietly(t, "redis meta client", meta)
		})
		return n
	}

	closeQuietly(t, "redis meta client", meta)
	t.Logf("no free redis test db at %s, using DB 1", addr)
	return 1
}
