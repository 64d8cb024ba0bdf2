package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/easy-qr-codes/internal/admin"
	"github.com/serroba/easy-qr-codes/internal/handlers"
	"github.com/serroba/easy-qr-codes/internal/health"
	"github.com/serroba/easy-qr-codes/internal/messaging"
	"github.com/serroba/easy-qr-codes/internal/middleware"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"github.com/serroba/easy-qr-codes/internal/render"
	"github.com/serroba/easy-qr-codes/internal/store"
	"go.uber.org/zap"
)

const (
	adminPath        = "/admin"
	adminRealm       = "QR codes admin"
	renderGroup      = "qrcode-render"
	versionLength    = 12
	connectTimeout   = 5 * time.Second
	inProcessBuffer  = 64
	serviceName      = "Easy QR Codes"
	serviceVersion   = "1.0.0"
	rootPageResponse = "Easy QR Codes\n"
)

// RedisConn owns the shared Redis client and closes it on shutdown.
type RedisConn struct {
	Client *redis.Client
}

func (c *RedisConn) Shutdown() error {
	return c.Client.Close()
}

// LoggerPackage provides the zap logger selected by --log-format.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis connection. It is only dialled when a component needs it.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}

		return &RedisConn{Client: client}, nil
	})
}

// PostgresPackage provides a migrated connection pool.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*pgxpool.Pool, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}

		if err = store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		return pool, nil
	})
}

// RepositoryPackage provides the record store selected by --store.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (qrcode.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StorePostgres:
			pool, err := do.Invoke[*pgxpool.Pool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool), nil
		case StoreRedis:
			conn, err := do.Invoke[*RedisConn](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisStore(conn.Client), nil
		default:
			return store.NewMemoryStore(), nil
		}
	})
}

// RenderPackage provides the QR encoder and the file-backed image store.
func RenderPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (qrcode.Renderer, error) {
		return render.NewQRRenderer(), nil
	})

	do.Provide(i, func(i *do.Injector) (qrcode.ImageStore, error) {
		opts := do.MustInvoke[*Options](i)

		newVersion, err := nanoid.Standard(versionLength)
		if err != nil {
			return nil, err
		}

		return render.NewFileStore(opts.ImageDir, opts.ImagePrefix(), newVersion), nil
	})
}

// MessagingPackage provides the render queue transport selected by --render-queue:
// an in-process go channel or a Redis stream.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.RenderQueue == QueueRedis {
			conn, err := do.Invoke[*RedisConn](i)
			if err != nil {
				return nil, err
			}

			publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
				Client:     conn.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			}, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("create redis stream publisher: %w", err)
			}

			return messaging.NewPublisherGroup(publisher), nil
		}

		return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: inProcessBuffer,
		}, messaging.NewZapLogger(logger)), nil
	})

	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.RenderQueue == QueueRedis {
			conn, err := do.Invoke[*RedisConn](i)
			if err != nil {
				return nil, err
			}

			subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        conn.Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: renderGroup,
			}, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("create redis stream subscriber: %w", err)
			}

			return subscriber, nil
		}

		return do.MustInvoke[*gochannel.GoChannel](i), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[qrcode.RenderRequestedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[qrcode.RenderRequestedEvent](
			group.Publisher(),
			qrcode.TopicRenderRequested,
		), nil
	})
}

// ServicePackage provides the record service.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*qrcode.Service, error) {
		opts := do.MustInvoke[*Options](i)

		return qrcode.NewService(
			do.MustInvoke[qrcode.Repository](i),
			do.MustInvoke[qrcode.Renderer](i),
			do.MustInvoke[qrcode.ImageStore](i),
			opts.Fallback(),
			do.MustInvoke[messaging.Publish[qrcode.RenderRequestedEvent]](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// WorkerPackage provides the consumer group running the render retry worker.
func WorkerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		subscriber := do.MustInvoke[message.Subscriber](i)
		publish := do.MustInvoke[messaging.Publish[qrcode.RenderRequestedEvent]](i)
		svc := do.MustInvoke[*qrcode.Service](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			qrcode.TopicRenderRequested,
			qrcode.NewRenderHandler(svc, publish, logger),
			logger,
		))

		return group, nil
	})
}

// HealthPackage provides the health handler covering the configured dependencies.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)

		checks := map[string]health.Checker{
			"images": health.NewDirChecker(opts.ImageDir),
		}

		switch opts.Store {
		case StorePostgres:
			checks["postgres"] = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
		case StoreRedis:
			checks["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisConn](i).Client)
		}

		if opts.RenderQueue == QueueRedis {
			checks["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisConn](i).Client)
		}

		return health.NewHandler(checks), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)

		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)
		router.Use(chimiddleware.Timeout(time.Duration(opts.RequestTimeout) * time.Second))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		svc := do.MustInvoke[*qrcode.Service](i)

		api := humachi.New(router, huma.DefaultConfig(serviceName, serviceVersion))
		api.UseMiddleware(middleware.RequestLogger(logger))

		var auth handlers.Middleware

		var adminAuth []func(http.Handler) http.Handler

		if opts.AdminPassword != "" {
			auth = middleware.BasicAuth(api, adminRealm, opts.AdminUser, opts.AdminPassword)
			adminAuth = append(adminAuth, chimiddleware.BasicAuth(adminRealm, map[string]string{
				opts.AdminUser: opts.AdminPassword,
			}))
		}

		handlers.RegisterRoutes(
			api,
			opts.MountSegment(),
			handlers.NewRedirectHandler(do.MustInvoke[qrcode.Repository](i), opts.Fallback(), logger),
			handlers.NewRecordHandler(svc, opts.BaseLinkURL(), logger),
			auth,
		)
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		admin.NewHandler(svc, adminPath, opts.BaseLinkURL(), opts.Fallback(), logger).
			RegisterRoutes(router, adminAuth...)

		imageRoute := opts.ImageRoute()
		router.Handle(imageRoute+"/*", http.StripPrefix(imageRoute, http.FileServer(http.Dir(opts.ImageDir))))

		router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(rootPageResponse))
		})

		return api, nil
	})
}
