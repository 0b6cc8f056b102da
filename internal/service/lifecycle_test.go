package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"proxify/internal/domain"
	"proxify/internal/service"
	mock_service "proxify/internal/service/mocks"
)

func TestLifecycle_AlertCreated_PublishesAndEnqueues(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mock_service.NewMockEventPublisher(ctrl)
	queue := mock_service.NewMockNotificationQueue(ctrl)
	l := service.NewLifecycle(pub, queue, newTestLogger())

	alert := domain.Alert{ID: uuid.New(), Lat: 1, Lng: 2, Payload: domain.Payload{Message: "m"}}

	pub.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.LifecycleEvent) error {
			if ev.Kind != domain.LifecycleCreated || ev.AlertID != alert.ID || ev.Alert == nil {
				t.Errorf("unexpected event: %+v", ev)
			}
			return nil
		})
	queue.EXPECT().
		Enqueue(gomock.Any(), domain.Notification{AlertID: alert.ID, Lat: 1, Lng: 2, Payload: alert.Payload}).
		Return(nil)

	l.AlertCreated(context.Background(), alert)
}

func TestLifecycle_FailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mock_service.NewMockEventPublisher(ctrl)
	queue := mock_service.NewMockNotificationQueue(ctrl)
	l := service.NewLifecycle(pub, queue, newTestLogger())

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)
	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	l.AlertCreated(context.Background(), domain.Alert{ID: uuid.New()})
	l.AlertDeleted(context.Background(), uuid.New())
}

func TestLifecycle_Kinds(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mock_service.NewMockEventPublisher(ctrl)
	l := service.NewLifecycle(pub, nil, newTestLogger())

	var kinds []domain.LifecycleKind
	pub.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.LifecycleEvent) error {
			kinds = append(kinds, ev.Kind)
			return nil
		}).
		Times(5)

	a := domain.Alert{ID: uuid.New()}
	l.AlertCreated(context.Background(), a)
	l.AlertReplaced(context.Background(), a)
	l.AlertReviewed(context.Background(), a)
	l.AlertDeleted(context.Background(), a.ID)
	l.AlertExpired(context.Background(), a)

	want := []domain.LifecycleKind{
		domain.LifecycleCreated,
		domain.LifecycleReplaced,
		domain.LifecycleReviewed,
		domain.LifecycleDeleted,
		domain.LifecycleExpired,
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kind[%d] expected %s got %s", i, want[i], kinds[i])
		}
	}
}

func TestLifecycle_NothingConfigured(t *testing.T) {
	t.Parallel()

	l := service.NewLifecycle(nil, nil, newTestLogger())
	l.AlertCreated(context.Background(), domain.Alert{ID: uuid.New()})
	l.AlertExpired(context.Background(), domain.Alert{ID: uuid.New()})
}

func TestLifecycle_DropsVotesOfRemovedAlerts(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reviews := mock_service.NewMockReviewRepository(ctrl)
	l := service.NewLifecycle(nil, nil, newTestLogger(), service.WithVoteCleanup(reviews))

	deleted, expired := uuid.New(), uuid.New()
	reviews.EXPECT().DeleteReviews(gomock.Any(), deleted).Return(nil)
	reviews.EXPECT().DeleteReviews(gomock.Any(), expired).Return(errors.New("db down"))

	l.AlertDeleted(context.Background(), deleted)
	l.AlertExpired(context.Background(), domain.Alert{ID: expired})
	l.AlertReviewed(context.Background(), domain.Alert{ID: uuid.New()})
}
