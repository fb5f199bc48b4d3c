package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"bitbucket.org/mmdatafocus/sav_backend/workflow"
	"github.com/gin-gonic/gin"
	validator "github.com/go-playground/validator/v10"
)

// httpStatusFor maps workflow failures onto HTTP statuses. Business-rule
// conflicts are 409 so clients can distinguish "reload and retry" from
// client mistakes.
func httpStatusFor(err error) int {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return http.StatusNotFound
	}
	code, ok := workflow.ErrorCodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case workflow.ErrCodeForbidden:
		return http.StatusForbidden
	case workflow.ErrCodeUnknownPart:
		return http.StatusNotFound
	case workflow.ErrCodeIncompleteReport, workflow.ErrCodeInvalidFinancialInput:
		return http.StatusUnprocessableEntity
	case workflow.ErrCodeTicketLocked:
		return http.StatusLocked
	default:
		// InvalidTransition, PaymentPending, DuplicateConsumption,
		// InsufficientStock, ConcurrentModification
		return http.StatusConflict
	}
}

func respondError(c *gin.Context, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(vErrs)})
		return
	}
	body := gin.H{"error": err.Error()}
	if code, ok := workflow.ErrorCodeOf(err); ok {
		body["code"] = code
	}
	c.JSON(httpStatusFor(err), body)
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func loginHandler() gin.HandlerFunc {
	type loginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func createTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTicket
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		ticket, err := models.CreateTicket(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ticket)
	}
}

func getTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		ticket, err := models.GetTicket(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func listTicketsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.TicketFilter{}
		if v := c.Query("status"); v != "" {
			status, err := models.ParseTicketStatus(v)
			if err != nil {
				respondError(c, err)
				return
			}
			filter.Status = &status
		}
		if v := c.Query("technician_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "technician_id must be an integer"})
				return
			}
			filter.TechnicianId = &id
		}
		if v := c.Query("showroom_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "showroom_id must be an integer"})
				return
			}
			filter.ShowroomId = &id
		}
		if v := c.Query("archived"); v != "" {
			archived := v == "true" || v == "1"
			filter.Archived = &archived
		} else {
			filter.Archived = utils.NewFalse()
		}
		tickets, err := models.ListTickets(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tickets)
	}
}

func editTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var edit models.TicketEdit
		if err := c.ShouldBindJSON(&edit); err != nil {
			respondError(c, err)
			return
		}
		ticket, err := workflow.EditTicket(c.Request.Context(), id, &edit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func startInterventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		ticket, err := workflow.StartIntervention(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func submitReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var report models.InterventionReport
		if err := c.ShouldBindJSON(&report); err != nil {
			respondError(c, err)
			return
		}
		ticket, err := workflow.SubmitInterventionReport(c.Request.Context(), id, &report)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func approveReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var pricing *workflow.FinancialInput
		if c.Request.ContentLength > 0 {
			pricing = &workflow.FinancialInput{}
			if err := c.ShouldBindJSON(pricing); err != nil {
				respondError(c, err)
				return
			}
		}
		ticket, err := workflow.ApproveReport(c.Request.Context(), id, pricing)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func settlePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		ticket, err := workflow.SettlePayment(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func closeTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		ticket, err := workflow.CloseTicket(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func archiveTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		ticket, err := workflow.ArchiveTicket(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

func ticketHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		histories, err := models.ListHistories(c.Request.Context(), "Ticket", id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, histories)
	}
}

func ticketMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		movements, err := models.ListMovementsByTicket(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	}
}

func createPartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPart
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		part, err := models.CreatePart(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, part)
	}
}

func updatePartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewPart
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		part, err := models.UpdatePart(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, part)
	}
}

func getPartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		part, err := models.GetPart(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, part)
	}
}

func listPartsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts, err := models.ListParts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, parts)
	}
}

func lowStockPartsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts, err := models.ListPartsBelowMinStock(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, parts)
	}
}

func adjustStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input workflow.AdjustInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		input.PartId = id
		movement, err := workflow.Adjust(c.Request.Context(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, movement)
	}
}

func partMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		movements, err := models.ListMovementsByPart(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	}
}

// verifyLedgerHandler replays a part's movement ledger and reports whether
// the cached stock matches. Ops tooling; a mismatch means a bug, not data to
// silently repair.
func verifyLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		stored, replayed, err := workflow.VerifyPartLedger(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"part_id":        id,
			"stored_stock":   stored,
			"replayed_stock": replayed,
			"consistent":     stored == replayed,
		})
	}
}

func createShowroomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewShowroom
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		showroom, err := models.CreateShowroom(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, showroom)
	}
}

func listShowroomsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		showrooms, err := models.ListShowrooms(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, showrooms)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin := utils.GetIsAdminFromContext(c.Request.Context())
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		user.Password = ""
		c.JSON(http.StatusCreated, user)
	}
}

func reportWindow(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return from, to, false
		}
		// inclusive end date
		to = t.AddDate(0, 0, 1)
	}
	return from, to, true
}

func reportSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportWindow(c)
		if !ok {
			return
		}
		var showroomId *int
		if v := c.Query("showroom_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "showroom_id must be an integer"})
				return
			}
			showroomId = &id
		}
		summary, err := workflow.ReportSummary(c.Request.Context(), from, to, showroomId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func technicianSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		from, to, ok := reportWindow(c)
		if !ok {
			return
		}
		summary, err := workflow.TechnicianSummary(c.Request.Context(), id, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
