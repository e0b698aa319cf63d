package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/logging"
)

const publishTimeout = 5 * time.Second

// publish sends a domain event. A broker outage never fails the request.
func publish(ctx context.Context, pub events.Publisher, event events.Event) {
	if pub == nil {
		return
	}
	key := event.CourseID
	if key == "" {
		key = event.UserID
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(pctx, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", event.Type, "error", err)
	}
}
