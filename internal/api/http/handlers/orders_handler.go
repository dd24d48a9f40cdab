package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/print-order-service/internal/api/dto"
	"github.com/spec-kit/print-order-service/internal/auth"
	"github.com/spec-kit/print-order-service/internal/domain"
	"github.com/spec-kit/print-order-service/internal/service"
	"github.com/spec-kit/print-order-service/internal/storage"
	apperrors "github.com/spec-kit/print-order-service/pkg/util"
)

// OrdersHandler manages order endpoints.
type OrdersHandler struct {
	orders   *service.OrderService
	receiver *storage.Receiver
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService, receiver *storage.Receiver) *OrdersHandler {
	return &OrdersHandler{orders: orderService, receiver: receiver}
}

// Create handles POST /api/orders (multipart: order fields plus files).
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}

	draft := service.OrderDraft{
		CustomerName: formValue(form, "customerName"),
		PhoneNumber:  formValue(form, "phoneNumber"),
		Year:         formValue(form, "year"),
		Semester:     formValue(form, "semester"),
		PrintSide:    domain.PrintSide(formValue(form, "printSide")),
		Message:      formValue(form, "message"),
	}
	draft.Pages, _ = strconv.Atoi(formValue(form, "pages"))
	draft.Copies, _ = strconv.Atoi(formValue(form, "copies"))

	refs, err := h.receiver.Receive(form.File["files"])
	if err != nil {
		return err
	}

	order, err := h.orders.SubmitOrder(c.Context(), principal.User.ID, draft, refs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.orderResponse(order)})
}

// ListAll handles GET /api/orders (admin only, newest first).
func (h *OrdersHandler) ListAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := paging(c)
	orders, err := h.orders.ListOrders(c.Context(), principal.User.ID, principal.Role, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.orderResponses(orders)})
}

// ListOwn handles GET /api/orders/customer.
func (h *OrdersHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := paging(c)
	orders, err := h.orders.ListOrders(c.Context(), principal.User.ID, domain.RoleCustomer, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.orderResponses(orders)})
}

// Get handles GET /api/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	order, err := h.orders.GetOrder(c.Context(), principal.User.ID, principal.Role, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.orderResponse(order)})
}

// UpdateStatus handles PATCH /api/orders/:id/status (admin only).
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	order, err := h.orders.AdvanceStatus(c.Context(), principal.User.ID, principal.Role, c.Params("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.orderResponse(order)})
}

// StatusCounts handles GET /api/orders/stats (admin only).
func (h *OrdersHandler) StatusCounts(c *fiber.Ctx) error {
	counts, err := h.orders.StatusCounts(c.Context())
	if err != nil {
		return err
	}
	out := make(map[string]int64, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	return c.JSON(fiber.Map{"data": dto.StatusCountsResponse{Counts: out}})
}

func (h *OrdersHandler) orderResponse(order *domain.Order) dto.OrderResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(order.AttachmentRefs))
	for _, ref := range order.AttachmentRefs {
		attachments = append(attachments, dto.AttachmentResponse{
			Locator: ref,
			URL:     h.receiver.Resolve(ref),
		})
	}
	return dto.OrderResponse{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		PhoneNumber:  order.PhoneNumber,
		Year:         order.Year,
		Semester:     order.Semester,
		PrintSide:    string(order.PrintSide),
		Pages:        order.Pages,
		Copies:       order.Copies,
		Message:      order.Message,
		Attachments:  attachments,
		OwnerID:      order.OwnerID,
		Status:       string(order.Status),
		CreatedAt:    order.CreatedAt,
	}
}

func (h *OrdersHandler) orderResponses(orders []domain.Order) []dto.OrderResponse {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, h.orderResponse(&orders[i]))
	}
	return items
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func paging(c *fiber.Ctx) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
