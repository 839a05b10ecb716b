package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ArticlesCreated counts successfully created articles.
	ArticlesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_articles_created_total",
		Help: "Total number of articles created",
	})

	// ArticlesDeleted counts deleted articles.
	ArticlesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_articles_deleted_total",
		Help: "Total number of articles deleted",
	})

	// SlugCollisions counts slugs that needed a random suffix.
	SlugCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_slug_collisions_total",
		Help: "Total number of generated slugs that collided with an existing article",
	})

	// CommentEvents counts comment creations and deletions.
	CommentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_comment_events_total",
		Help: "Comment lifecycle events by action",
	}, []string{"action"})

	// AssociationEvents counts favorite and follow toggles.
	AssociationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_association_events_total",
		Help: "Favorite and follow toggles by kind and action",
	}, []string{"kind", "action"})

	// TagCreateRaces counts concurrent tag inserts absorbed by the registry.
	TagCreateRaces = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_tag_create_races_total",
		Help: "Tag creations that lost a race and fell back to lookup",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conduit_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const queryStartKey = "conduit:query_start"

// RegisterGormMetrics hooks DatabaseQueryLatency into db's callback chains.
func RegisterGormMetrics(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []func() error{
		func() error {
			return cb.Create().Before("gorm:create").Register("metrics:before_create", markQueryStart)
		},
		func() error {
			return cb.Create().After("gorm:create").Register("metrics:after_create", observeQuery("create"))
		},
		func() error { return cb.Query().Before("gorm:query").Register("metrics:before_query", markQueryStart) },
		func() error {
			return cb.Query().After("gorm:query").Register("metrics:after_query", observeQuery("query"))
		},
		func() error {
			return cb.Update().Before("gorm:update").Register("metrics:before_update", markQueryStart)
		},
		func() error {
			return cb.Update().After("gorm:update").Register("metrics:after_update", observeQuery("update"))
		},
		func() error {
			return cb.Delete().Before("gorm:delete").Register("metrics:before_delete", markQueryStart)
		},
		func() error {
			return cb.Delete().After("gorm:delete").Register("metrics:after_delete", observeQuery("delete"))
		},
		func() error { return cb.Row().Before("gorm:row").Register("metrics:before_row", markQueryStart) },
		func() error { return cb.Row().After("gorm:row").Register("metrics:after_row", observeQuery("row")) },
		func() error { return cb.Raw().Before("gorm:raw").Register("metrics:before_raw", markQueryStart) },
		func() error { return cb.Raw().After("gorm:raw").Register("metrics:after_raw", observeQuery("raw")) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "conduit_redis_errors_total",
	Help: "Total number of Redis command errors by command",
}, []string{"command"})
