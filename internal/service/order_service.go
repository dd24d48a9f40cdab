package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/print-order-service/internal/cache"
	"github.com/spec-kit/print-order-service/internal/domain"
	"github.com/spec-kit/print-order-service/internal/events"
	"github.com/spec-kit/print-order-service/internal/repository"
	apperrors "github.com/spec-kit/print-order-service/pkg/util"
)

// OrderService is the order lifecycle engine: it owns the status graph and
// decides who may move an order along it.
type OrderService struct {
	orders     repository.OrderRepository
	dispatcher events.Dispatcher
	counts     cache.StatusCounts
	validate   *validator.Validate
	logger     *zap.Logger
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	Dispatcher  events.Dispatcher
	CountsCache cache.StatusCounts
	Logger      *zap.Logger
}

// OrderDraft describes order creation payload. Attachment references are
// gathered at creation time only; there is no later attach or edit path.
type OrderDraft struct {
	CustomerName string           `validate:"required"`
	PhoneNumber  string           `validate:"required"`
	Year         string           `validate:"required"`
	Semester     string           `validate:"required"`
	PrintSide    domain.PrintSide `validate:"required,oneof=One-sided Two-sided"`
	Pages        int              `validate:"required,min=1"`
	Copies       int              `validate:"required,min=1"`
	Message      string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:     deps.OrderRepo,
		dispatcher: deps.Dispatcher,
		counts:     deps.CountsCache,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// SubmitOrder validates the draft and persists a new order in Pending state.
func (s *OrderService) SubmitOrder(ctx context.Context, ownerID string, draft OrderDraft, attachmentRefs []string) (*domain.Order, error) {
	draft.CustomerName = strings.TrimSpace(draft.CustomerName)
	draft.PhoneNumber = strings.TrimSpace(draft.PhoneNumber)

	if err := s.validate.Struct(draft); err != nil {
		return nil, apperrors.NewValidationError("invalid order fields", validationDetails(err))
	}

	if attachmentRefs == nil {
		attachmentRefs = []string{}
	}

	order := &domain.Order{
		CustomerName:   draft.CustomerName,
		PhoneNumber:    draft.PhoneNumber,
		Year:           draft.Year,
		Semester:       draft.Semester,
		PrintSide:      draft.PrintSide,
		Pages:          draft.Pages,
		Copies:         draft.Copies,
		Message:        strings.TrimSpace(draft.Message),
		AttachmentRefs: attachmentRefs,
		OwnerID:        ownerID,
		Status:         domain.OrderStatusPending,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.invalidateCounts(ctx)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderCreated,
		OrderID: order.ID,
		Actor:   events.Actor{UserID: ownerID, Role: domain.RoleCustomer},
		Payload: events.OrderCreatedPayload{
			CustomerName:    order.CustomerName,
			Pages:           order.Pages,
			Copies:          order.Copies,
			AttachmentCount: len(order.AttachmentRefs),
		},
	})
	return order, nil
}

// AdvanceStatus moves an order to the immediate successor of its current
// status. Only admins may advance; the write is a compare-and-swap at the
// repository, so two concurrent advances on the same order resolve to
// exactly one winner.
func (s *OrderService) AdvanceStatus(ctx context.Context, actorID string, actorRole domain.Role, orderID string, requested domain.OrderStatus) (*domain.Order, error) {
	if actorRole != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !requested.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": requested})
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": orderID})
		}
		return nil, err
	}

	next, ok := domain.NextStatus(order.Status)
	if !ok || requested != next {
		return nil, apperrors.NewInvalidTransition("status must advance to its immediate successor", map[string]any{
			"current":   order.Status,
			"requested": requested,
		})
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, order.Status, requested)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost the race: someone advanced the order between our read and
		// the conditional write.
		if _, err := s.orders.GetByID(ctx, orderID); err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": orderID})
		}
		return nil, apperrors.NewInvalidTransition("order status changed concurrently", map[string]any{
			"requested": requested,
		})
	}

	oldStatus := order.Status
	order.Status = requested

	s.invalidateCounts(ctx)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderStatusChanged,
		OrderID: order.ID,
		Actor:   events.Actor{UserID: actorID, Role: actorRole},
		Payload: events.OrderStatusChangedPayload{
			CustomerName: order.CustomerName,
			OldStatus:    oldStatus,
			NewStatus:    order.Status,
		},
	})
	return order, nil
}

// ListOrders returns the caller's view of the order book: admins see every
// order, customers only their own. Both views sort createdAt descending.
func (s *OrderService) ListOrders(ctx context.Context, userID string, role domain.Role, limit, offset int) ([]domain.Order, error) {
	filter := repository.OrderFilter{Limit: limit, Offset: offset}
	if role != domain.RoleAdmin {
		filter.OwnerID = &userID
	}
	return s.orders.List(ctx, filter)
}

// GetOrder fetches a single order. An order belonging to another customer
// is reported as absent rather than forbidden.
func (s *OrderService) GetOrder(ctx context.Context, userID string, role domain.Role, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": orderID})
		}
		return nil, err
	}
	if role != domain.RoleAdmin && order.OwnerID != userID {
		return nil, apperrors.NewNotFound("order", map[string]any{"id": orderID})
	}
	return order, nil
}

// StatusCounts returns per-status order totals for the admin dashboard,
// served from cache when warm.
func (s *OrderService) StatusCounts(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	if s.counts != nil {
		if cached, err := s.counts.Get(ctx); err == nil {
			return cached, nil
		} else if err != cache.ErrMiss {
			s.logger.Warn("status counts cache read failed", zap.Error(err))
		}
	}

	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, status := range domain.AllStatuses() {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	if s.counts != nil {
		if err := s.counts.Set(ctx, counts); err != nil {
			s.logger.Warn("status counts cache write failed", zap.Error(err))
		}
	}
	return counts, nil
}

func (s *OrderService) invalidateCounts(ctx context.Context) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx); err != nil {
		s.logger.Warn("status counts cache invalidate failed", zap.Error(err))
	}
}

func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validationDetails(err error) map[string]any {
	details := map[string]any{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return details
}
