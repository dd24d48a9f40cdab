package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/print-order-service/internal/domain"
	"github.com/spec-kit/print-order-service/internal/events"
	apperrors "github.com/spec-kit/print-order-service/pkg/util"
)

func newOrderService(repo *fakeOrderRepo, dispatcher events.Dispatcher) *OrderService {
	return NewOrderService(OrderDependencies{
		OrderRepo:  repo,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
}

func TestSubmitOrderStartsPending(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), []string{"123-a-notes.pdf"})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "user-1", order.OwnerID)
	assert.Equal(t, 3, order.Pages)
	assert.Equal(t, 2, order.Copies)
	assert.Equal(t, []string{"123-a-notes.pdf"}, order.AttachmentRefs)
	assert.NotEmpty(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())
}

func TestSubmitOrderRejectsInvalidDrafts(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	cases := map[string]func(*OrderDraft){
		"zero pages":         func(d *OrderDraft) { d.Pages = 0 },
		"zero copies":        func(d *OrderDraft) { d.Copies = 0 },
		"negative pages":     func(d *OrderDraft) { d.Pages = -2 },
		"missing name":       func(d *OrderDraft) { d.CustomerName = "" },
		"missing phone":      func(d *OrderDraft) { d.PhoneNumber = "   " },
		"unknown print side": func(d *OrderDraft) { d.PrintSide = "Triple-sided" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			draft := validDraft()
			mutate(&draft)
			_, err := svc.SubmitOrder(context.Background(), "user-1", draft, nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "got %v", err)
		})
	}
}

func TestSubmitOrderAllowsEmptyAttachmentsAndMessage(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	draft := validDraft()
	draft.Message = ""
	order, err := svc.SubmitOrder(context.Background(), "user-1", draft, nil)
	require.NoError(t, err)
	assert.Empty(t, order.AttachmentRefs)
	assert.NotNil(t, order.AttachmentRefs)
}

func TestAdvanceStatusWalksFullPipeline(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)

	steps := []domain.OrderStatus{
		domain.OrderStatusPaymentConfirmed,
		domain.OrderStatusPrinting,
		domain.OrderStatusReadyForPickup,
		domain.OrderStatusCompleted,
	}
	for _, next := range steps {
		updated, err := svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, next)
		require.NoError(t, err, "advancing to %q", next)
		assert.Equal(t, next, updated.Status)
	}
}

func TestAdvanceStatusRejectsSkipsNoopsAndRegressions(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)

	// Pending order: only Payment Confirmed is reachable.
	for _, requested := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusPrinting,
		domain.OrderStatusReadyForPickup,
		domain.OrderStatusCompleted,
	} {
		_, err := svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, requested)
		require.Error(t, err, "Pending -> %q must fail", requested)
		assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"), "got %v", err)
	}

	_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)

	// No going back.
	_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, domain.OrderStatusPending)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestAdvanceStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, "Cancelled")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAdvanceStatusForbiddenForCustomers(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)

	// Even a valid transition is rejected when the caller is not an admin.
	_, err = svc.AdvanceStatus(context.Background(), "user-1", domain.RoleCustomer, order.ID, domain.OrderStatusPaymentConfirmed)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"), "got %v", err)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
}

func TestAdvanceStatusUnknownOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	_, err := svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, "order-404", domain.OrderStatusPaymentConfirmed)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestAdvanceStatusConcurrentAdvancesSerializeToOneWinner(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)
	for _, next := range []domain.OrderStatus{domain.OrderStatusPaymentConfirmed, domain.OrderStatusPrinting} {
		_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, next)
		require.NoError(t, err)
	}

	// Two admins race the same Printing -> Ready for Pickup transition.
	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, domain.OrderStatusReadyForPickup)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"), "loser must see a transition conflict, got %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one racer may win")

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReadyForPickup, stored.Status, "no skipped or corrupted state")
}

func TestAdvanceStatusStaleRequestLosesCleanly(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)
	for _, next := range []domain.OrderStatus{domain.OrderStatusPaymentConfirmed, domain.OrderStatusPrinting} {
		_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, next)
		require.NoError(t, err)
	}

	// One admin pushes forward, another replays an already-taken step.
	_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, domain.OrderStatusReadyForPickup)
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), "admin-2", domain.RoleAdmin, order.ID, domain.OrderStatusPaymentConfirmed)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReadyForPickup, stored.Status)
}

func TestListOrdersScopesByRole(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	_, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), "user-2", validDraft(), nil)
	require.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)

	own, err := svc.ListOrders(context.Background(), "user-1", domain.RoleCustomer, 0, 0)
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, order := range own {
		assert.Equal(t, "user-1", order.OwnerID)
	}

	all, err := svc.ListOrders(context.Background(), "admin-1", domain.RoleAdmin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Newest first in both views.
	for i := 1; i < len(all); i++ {
		assert.True(t, !all[i-1].CreatedAt.Before(all[i].CreatedAt))
	}
}

func TestGetOrderHidesForeignOrders(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), "user-1", domain.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrder(context.Background(), "user-2", domain.RoleCustomer, order.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "foreign orders must look absent, got %v", err)

	_, err = svc.GetOrder(context.Background(), "admin-1", domain.RoleAdmin, order.ID)
	assert.NoError(t, err)
}

func TestStatusCountsCoversAllStatuses(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), "user-2", validDraft(), nil)
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)

	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.OrderStatusPending])
	assert.Equal(t, int64(1), counts[domain.OrderStatusPaymentConfirmed])
	assert.Equal(t, int64(0), counts[domain.OrderStatusCompleted])
	assert.Len(t, counts, len(domain.AllStatuses()))
}

func TestStatusChangePublishesEvent(t *testing.T) {
	repo := newFakeOrderRepo()
	dispatcher := events.NewInMemoryDispatcher()
	svc := newOrderService(repo, dispatcher)

	var mu sync.Mutex
	var seen []events.OrderStatusChangedPayload
	dispatcher.Subscribe(events.EventOrderStatusChanged, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.OrderStatusChangedPayload)
		if ok {
			mu.Lock()
			seen = append(seen, payload)
			mu.Unlock()
		}
		return nil
	})

	order, err := svc.SubmitOrder(context.Background(), "user-1", validDraft(), nil)
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(context.Background(), "admin-1", domain.RoleAdmin, order.ID, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, domain.OrderStatusPending, seen[0].OldStatus)
	assert.Equal(t, domain.OrderStatusPaymentConfirmed, seen[0].NewStatus)
	assert.Equal(t, "Asha Verma", seen[0].CustomerName)
}
