// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/infrastructure/messaging"
	"github.com/groupware-project/scheduling-reply-service/internal/infrastructure/store"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
	"github.com/groupware-project/scheduling-reply-service/pkg/constants"
)

const (
	natsConnectTimeout = 10 * time.Second
	natsDrainTimeout   = 25 * time.Second
)

// setupNATS establishes the NATS connection. The connection signals the done
// channel when it closes so the process shuts down with it.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	// Released by the ClosedHandler once the connection has fully drained.
	gracefulCloseWG.Add(1)

	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Timeout(natsConnectTimeout),
		nats.DrainTimeout(natsDrainTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.ErrorContext(ctx, "NATS async error", logging.ErrKey, err)
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed", "last_error", conn.LastError())
			gracefulCloseWG.Done()
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, err
	}

	slog.InfoContext(ctx, "connected to NATS", "url", natsConn.ConnectedUrl())
	return natsConn, nil
}

// repositories holds the storage-backed repositories of the service.
type repositories struct {
	Event    *store.NatsEventRepository
	Attendee *store.NatsAttendeeRepository
	Alarm    *store.NatsAlarmRepository
}

// getKeyValueStores creates the JetStream KV buckets of the service and wires
// the repositories on top of them.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]jetstream.KeyValue, 4)
	for _, name := range []string{
		store.KVStoreNameEvents,
		store.KVStoreNameEventIndices,
		store.KVStoreNameAlarms,
		store.KVStoreNameAlarmTriggers,
	} {
		bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: name})
		if err != nil {
			slog.ErrorContext(ctx, "error creating KV bucket", logging.ErrKey, err, "bucket", name)
			return nil, err
		}
		buckets[name] = bucket
	}

	return &repositories{
		Event: store.NewNatsEventRepository(
			buckets[store.KVStoreNameEvents],
			buckets[store.KVStoreNameEventIndices],
		),
		Attendee: store.NewNatsAttendeeRepository(buckets[store.KVStoreNameEvents]),
		Alarm: store.NewNatsAlarmRepository(
			buckets[store.KVStoreNameAlarms],
			buckets[store.KVStoreNameAlarmTriggers],
		),
	}, nil
}

// createNatsSubscriptions subscribes the handler on both reply subjects with
// the shared queue group.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	subjects := []string{
		constants.SchedulingReplyMessageSubject,
		constants.SchedulingReplyAPISubject,
	}

	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, constants.SchedulingReplyQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, messaging.NewNatsMessage(msg))
		})
		if err != nil {
			slog.ErrorContext(ctx, "error subscribing to NATS subject",
				logging.ErrKey, err, "subject", subject)
			return err
		}
		slog.InfoContext(ctx, "subscribed to NATS subject",
			"subject", subject, "queue", constants.SchedulingReplyQueue)
	}

	return nil
}

// gracefulShutdown drains the NATS connection so in-flight messages finish
// before the process exits. Drain is asynchronous; the ClosedHandler set in
// [setupNATS] releases the wait group once it completes.
func gracefulShutdown(natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")
	cancel()

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
			natsConn.Close()
		}
	}

	gracefulCloseWG.Wait()
	slog.Info("shutdown complete")
}
