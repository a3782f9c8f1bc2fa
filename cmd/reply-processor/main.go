// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

// Package main is the scheduling reply processor: it consumes iTIP REPLY
// messages from NATS, reconciles attendee participation state against the
// event store and publishes one notification per resulting mutation.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/groupware-project/scheduling-reply-service/internal/handlers"
	"github.com/groupware-project/scheduling-reply-service/internal/infrastructure/itip"
	"github.com/groupware-project/scheduling-reply-service/internal/infrastructure/messaging"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
	"github.com/groupware-project/scheduling-reply-service/internal/service"
)

func main() {
	env := parseEnv()
	parseFlags()

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		gracefulShutdown(natsConn, &gracefulCloseWG, cancel)
		return
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{
		MaxAttendeesPerEvent:  env.MaxAttendeesPerEvent,
		MaxExtendedProperties: env.MaxExtendedProperties,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	updatePreparer := service.NewUpdatePreparer()
	quotaChecker := service.NewQuotaChecker(serviceConfig)
	permissionGuard := service.NewWritePermissionGuard()
	reconciliationService := service.NewReconciliationService(
		repos.Event,
		repos.Event,
		repos.Attendee,
		repos.Alarm,
		permissionGuard,
		service.NewAttendeeMatcher(),
		updatePreparer,
		service.NewOccurrenceResolver(
			repos.Event,
			repos.Attendee,
			repos.Alarm,
			service.NewRecurrenceEngine(),
			quotaChecker,
			updatePreparer,
		),
		service.NewPartyCrasherService(
			repos.Event,
			repos.Event,
			repos.Attendee,
			quotaChecker,
			permissionGuard,
		),
	)

	// Initialize handlers
	schedulingHandler := handlers.NewSchedulingHandler(
		reconciliationService,
		itip.NewReplyParser(),
		messageBuilder,
	)
	if !schedulingHandler.HandlerReady() {
		slog.Error("scheduling handler is not ready", logging.PriorityCritical())
		gracefulShutdown(natsConn, &gracefulCloseWG, cancel)
		return
	}

	// Create NATS subscriptions for the service.
	err = createNatsSubscriptions(ctx, schedulingHandler, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		gracefulShutdown(natsConn, &gracefulCloseWG, cancel)
		return
	}

	slog.Info("scheduling reply processor started")

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(natsConn, &gracefulCloseWG, cancel)
}
