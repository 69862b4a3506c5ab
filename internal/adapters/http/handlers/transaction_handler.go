package handlers

import (
	"errors"
	"strconv"

	"tapledger/internal/adapters/http/middleware"
	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/core/domain"
	"tapledger/internal/core/services"
	"tapledger/internal/pkg/pagination"
	"tapledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles transaction endpoints
type TransactionHandler struct {
	txnService *services.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txnService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		txnService: txnService,
	}
}

// currentUser pulls the authenticated user out of the request context
func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(middleware.LocalUser).(*models.User)
	return user, ok
}

// listParams extracts listing parameters from the query string
func listParams(c *fiber.Ctx) *services.ListParams {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", strconv.Itoa(pagination.DefaultPerPage)))
	nfc, _ := strconv.ParseBool(c.Query("filters[nfc]", "false"))

	return &services.ListParams{
		Page:    page,
		PerPage: perPage,
		Filters: services.ListFilters{
			Type:   c.Query("filters[type]"),
			Status: c.Query("filters[status]"),
			NFC:    nfc,
		},
		Search: c.Query("search"),
	}
}

// Index lists transactions
// @Summary List transactions
// @Description Filtered, searched, paginated transaction listing
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Param filters[type] query string false "Exact transaction type"
// @Param filters[status] query string false "Exact status"
// @Param filters[nfc] query bool false "Only records with an NFC tag"
// @Param search query string false "Substring match on amount, type and status"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /transactions [get]
func (h *TransactionHandler) Index(c *fiber.Ctx) error {
	return h.list(c, listParams(c))
}

// NFCIndex lists transactions carrying an NFC tag
// @Summary List NFC transactions
// @Description Same shape as the listing endpoint with the NFC filter forced on
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /transactions/nfc [get]
func (h *TransactionHandler) NFCIndex(c *fiber.Ctx) error {
	params := listParams(c)
	params.Filters.NFC = true
	return h.list(c, params)
}

func (h *TransactionHandler) list(c *fiber.Ctx, params *services.ListParams) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	result, err := h.txnService.List(c.Context(), user, params)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return response.Forbidden(c, "You are not allowed to list transactions")
		}
		return response.InternalServerError(c, "Failed to retrieve transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", result)
}

// Show returns a single transaction
// @Summary Get transaction
// @Description Return one transaction by id
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Show(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	txn, err := h.txnService.Get(c.Context(), user, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not allowed to view this transaction")
		default:
			return response.InternalServerError(c, "Failed to retrieve transaction")
		}
	}

	return response.Success(c, "Transaction retrieved successfully", fiber.Map{
		"transaction": txn,
	})
}

// Store creates a transaction
// @Summary Create transaction
// @Description Create a new transaction owned by the authenticated user
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTransactionInput true "Transaction data"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /transactions [post]
func (h *TransactionHandler) Store(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	var input services.CreateTransactionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	txn, err := h.txnService.Create(c.Context(), user, &input)
	if err != nil {
		var fields *domain.FieldErrors
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not allowed to create transactions")
		case errors.As(err, &fields):
			return response.UnprocessableEntity(c, "Validation failed", fields.Fields)
		default:
			return response.InternalServerError(c, "Failed to create transaction")
		}
	}

	return response.Created(c, "Transaction created successfully", fiber.Map{
		"transaction": txn,
	})
}

// Update applies a partial update to a transaction
// @Summary Update transaction
// @Description Overwrite only the provided fields
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param body body services.UpdateTransactionInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	var input services.UpdateTransactionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	txn, err := h.txnService.Update(c.Context(), user, uint(id), &input)
	if err != nil {
		var fields *domain.FieldErrors
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not allowed to update transactions")
		case errors.As(err, &fields):
			return response.UnprocessableEntity(c, "Validation failed", fields.Fields)
		default:
			return response.InternalServerError(c, "Failed to update transaction")
		}
	}

	return response.Success(c, "Transaction updated successfully", fiber.Map{
		"transaction": txn,
	})
}

// Destroy deletes a transaction
// @Summary Delete transaction
// @Description Delete one transaction by id
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Destroy(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	if err := h.txnService.Delete(c.Context(), user, uint(id)); err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not allowed to delete transactions")
		default:
			return response.InternalServerError(c, "Failed to delete transaction")
		}
	}

	return response.Success(c, "Transaction deleted successfully", nil)
}
