package handlers

import (
	"context"
	"encoding/csv"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/civicdesk/helpdesk/internal/api/dto"
	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/service"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// UploadsRoute is where stored ticket images are served from.
const UploadsRoute = "/uploads"

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets    *service.TicketService
	lifecycle  *service.LifecycleService
	assignment *service.AssignmentService
	uploads    config.UploadConfig
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, lifecycle *service.LifecycleService, assignment *service.AssignmentService, uploads config.UploadConfig) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, lifecycle: lifecycle, assignment: assignment, uploads: uploads}
}

// CreateTicket POST /tickets/create. Accepts JSON or a multipart form with an
// optional image file.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Priority:    req.Priority,
		DueDate:     dueDate,
	}
	if req.Image != "" {
		input.Image = &req.Image
	}
	var savedPath string
	if file, ferr := c.FormFile("image"); ferr == nil {
		publicPath, diskPath, err := h.saveImage(c, file)
		if err != nil {
			return err
		}
		input.Image = &publicPath
		savedPath = diskPath
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		if savedPath != "" {
			_ = os.Remove(savedPath)
		}
		return err
	}
	return created(c, "ticket created", dto.NewTicketResponse(ticket))
}

func (h *TicketsHandler) saveImage(c *fiber.Ctx, file *multipart.FileHeader) (publicPath, diskPath string, err error) {
	if h.uploads.MaxBytes > 0 && file.Size > h.uploads.MaxBytes {
		return "", "", apperrors.NewValidationError("image is too large", map[string]any{"max_bytes": h.uploads.MaxBytes})
	}
	if !strings.HasPrefix(file.Header.Get(fiber.HeaderContentType), "image/") {
		return "", "", apperrors.NewValidationError("image must be an image file", nil)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	diskPath = filepath.Join(h.uploads.Dir, name)
	if err := c.SaveFile(file, diskPath); err != nil {
		return "", "", apperrors.NewInternalError(err)
	}
	return path.Join(UploadsRoute, name), diskPath, nil
}

// AssignTicket POST /tickets/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.assignment.ReassignToDepartment(c.UserContext(), actor, req.TicketID, req.Department)
	if err != nil {
		return err
	}
	return ok(c, "ticket assigned", dto.NewTicketResponse(ticket))
}

// UpdateStatus POST /tickets/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.lifecycle.UpdateStatus(c.UserContext(), actor, req.TicketID, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "status updated", dto.NewTicketResponse(ticket))
}

// ReopenTicket POST /tickets/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.ReopenTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.lifecycle.Reopen(c.UserContext(), actor, req.TicketID, req.Reason)
	if err != nil {
		return err
	}
	return ok(c, "ticket reopened", dto.NewTicketResponse(ticket))
}

// AddComment POST /tickets/comment.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.AddCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.lifecycle.AddComment(c.UserContext(), actor, req.TicketID, req.Text)
	if err != nil {
		return err
	}
	return created(c, "comment added", dto.NewCommentResponse(comment))
}

// GetTicket GET /tickets/:ticketId.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return ok(c, "", dto.NewTicketDetailResponse(detail.Ticket, detail.History))
}

// ListSubmitted GET /tickets/my-submitted.
func (h *TicketsHandler) ListSubmitted(c *fiber.Ctx) error {
	return h.listMine(c, h.tickets.ListSubmitted)
}

// ListAssigned GET /tickets/my-assigned.
func (h *TicketsHandler) ListAssigned(c *fiber.Ctx) error {
	return h.listMine(c, h.tickets.ListAssigned)
}

type listFunc func(ctx context.Context, actor *domain.User, opts service.TicketListOptions) ([]domain.Ticket, error)

func (h *TicketsHandler) listMine(c *fiber.Ctx, list listFunc) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		return err
	}
	page, pageSize, limit, offset := pageWindow(c)
	tickets, err := list(c.UserContext(), actor, service.TicketListOptions{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	return ok(c, "", dto.Page[dto.TicketResponse]{Items: dto.NewTicketResponses(tickets), Page: page, PageSize: pageSize})
}

// ListAll GET /tickets/all.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		return err
	}
	categories, err := parseCategories(c.Query("category"))
	if err != nil {
		return err
	}
	priorities, err := parsePriorities(c.Query("priority"))
	if err != nil {
		return err
	}
	page, pageSize, limit, offset := pageWindow(c)
	tickets, err := h.tickets.ListAll(c.UserContext(), actor, service.TicketQuery{
		Statuses:   statuses,
		Categories: categories,
		Priorities: priorities,
		Search:     c.Query("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	return ok(c, "", dto.Page[dto.TicketResponse]{Items: dto.NewTicketResponses(tickets), Page: page, PageSize: pageSize})
}

var exportHeader = []string{
	"Ticket ID", "Title", "Category", "Priority", "Status", "Location",
	"Submitted By", "Assigned To", "Due Date", "Resolved At", "Created At",
}

// Export GET /tickets/export streams a CSV of the tickets visible to the caller.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ExportTickets(c.UserContext(), actor)
	if err != nil {
		return err
	}

	c.Attachment("tickets.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	w := csv.NewWriter(c)
	if err := w.Write(exportHeader); err != nil {
		return apperrors.NewInternalError(err)
	}
	for i := range tickets {
		t := &tickets[i]
		if err := w.Write([]string{
			t.TicketID,
			t.Title,
			string(t.Category),
			string(t.Priority),
			string(t.Status),
			t.Location,
			t.SubmittedBy,
			deref(t.AssignedTo),
			t.DueDate.UTC().Format(time.RFC3339),
			formatOptionalTime(t.ResolvedAt),
			t.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
