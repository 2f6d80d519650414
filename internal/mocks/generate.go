// Package mocks provides mock implementations for testing the community service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockCronRunRepository(ctrl)
//	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(run, nil)
package mocks

// CronRunRepository: Insert, GetByKey, Reopen, Finish, ListRecent
//go:generate mockgen -package=mocks -destination=cron_run_repository_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core CronRunRepository

// SlackEventRepository: InsertIfAbsent, GetByEventID, CountByType
//go:generate mockgen -package=mocks -destination=slack_event_repository_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core SlackEventRepository

//go:generate mockgen -package=mocks -destination=member_repository_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core MemberRepository
//go:generate mockgen -package=mocks -destination=dm_thread_repository_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core DMThreadRepository
//go:generate mockgen -package=mocks -destination=outbound_message_repository_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core OutboundMessageRepository

// SlackMessenger: OpenDM, PostMessage
//go:generate mockgen -package=mocks -destination=slack_messenger_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core SlackMessenger

// MarkerStore: SetIfNotExists, Delete, Health
//go:generate mockgen -package=mocks -destination=marker_store_mock.go github.com/itsAR-VR/Community-Intellect-sub001/internal/core MarkerStore
