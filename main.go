package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"efficio-api/api"
	"efficio-api/notify"
	"efficio-api/storage"
	"efficio-api/stream"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	cfg := storage.Config{
		ConnStr:            os.Getenv("STORAGE_CONNECTION_STRING"),
		TasksTable:         os.Getenv("TASKS_TABLE"),
		GroupsTable:        os.Getenv("GROUPS_TABLE"),
		MembersTable:       os.Getenv("MEMBERS_TABLE"),
		ActivitiesTable:    os.Getenv("ACTIVITIES_TABLE"),
		NotificationsTable: os.Getenv("NOTIFICATIONS_TABLE"),
		TimeEntriesTable:   os.Getenv("TIME_ENTRIES_TABLE"),
		UsersTable:         os.Getenv("USERS_TABLE"),
		DigestQueue:        os.Getenv("DIGEST_QUEUE"),
	}
	if cfg.ConnStr == "" || cfg.TasksTable == "" || cfg.GroupsTable == "" || cfg.MembersTable == "" ||
		cfg.ActivitiesTable == "" || cfg.NotificationsTable == "" || cfg.TimeEntriesTable == "" || cfg.UsersTable == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	if err := store.EnsureTables(context.Background()); err != nil {
		log.Fatalf("ensure tables: %v", err)
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)

	cacheTTL := time.Minute
	if v := os.Getenv("TASKS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid TASKS_CACHE_TTL: %v", err)
		}
		cacheTTL = d
	}
	cached := storage.NewCache(store, rc, cacheTTL)

	dedupTTL := 24 * time.Hour
	if v := os.Getenv("DEDUPER_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid DEDUPER_TTL: %v", err)
		}
		dedupTTL = d
	}
	deduper := storage.NewRedisDeduper(rc, dedupTTL)

	var auth *api.Auth
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		auth = api.NewAuth(nil, "", "")
	} else {
		jwtAudience := os.Getenv("AUTH0_AUDIENCE")
		domain := os.Getenv("AUTH0_DOMAIN")
		if jwtAudience == "" || domain == "" {
			log.Fatal("missing Auth0 config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, jwtAudience, "https://"+domain+"/")
	}

	logger := log.New()
	registry := stream.NewRegistry(logger)
	var digests notify.DigestQueue
	if cfg.DigestQueue != "" {
		digests = cached
	}
	emitter := notify.NewEmitter(cached, registry, digests, logger)

	heartbeat := 15 * time.Second
	if v := os.Getenv("STREAM_HEARTBEAT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid STREAM_HEARTBEAT: %v", err)
		}
		heartbeat = d
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, cached, auth, deduper, emitter, registry, logger, api.Options{
		Heartbeat:      heartbeat,
		DebugEndpoints: os.Getenv("DEBUG_ENDPOINTS") == "1",
	})

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
