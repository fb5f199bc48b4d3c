package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"bitbucket.org/mmdatafocus/sav_backend/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// End-to-end lifecycle tests against real MySQL + Redis containers.
// Run with: INTEGRATION_TESTS=1 go test ./workflow -run Lifecycle -v

type testActors struct {
	technician context.Context
	manager    context.Context
	agent      context.Context
}

func setupIntegration(t *testing.T) *testActors {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "savpoint_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	seed := context.Background()
	seed = utils.SetUserIdInContext(seed, 1)
	seed = utils.SetUserNameInContext(seed, "Seed")

	showroom, err := models.CreateShowroom(seed, &models.NewShowroom{Name: "Paris Rivoli", City: "Paris"})
	if err != nil {
		t.Fatalf("create showroom: %v", err)
	}

	actors := &testActors{}
	for _, u := range []struct {
		username string
		role     models.UserRole
		dst      *context.Context
	}{
		{"tech1", models.UserRoleTechnician, &actors.technician},
		{"manager1", models.UserRoleManager, &actors.manager},
		{"agent1", models.UserRoleAgent, &actors.agent},
	} {
		user, err := models.CreateUser(seed, &models.NewUser{
			Username:   u.username,
			Name:       u.username,
			Password:   "test-password",
			IsActive:   utils.NewTrue(),
			Role:       u.role,
			ShowroomId: showroom.ID,
		})
		if err != nil {
			t.Fatalf("create user %s: %v", u.username, err)
		}
		ctx := context.Background()
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetRoleInContext(ctx, string(user.Role))
		ctx = utils.SetShowroomIdInContext(ctx, showroom.ID)
		*u.dst = ctx
	}
	return actors
}

func seedPart(t *testing.T, managerCtx context.Context, sku string, stock int) *models.Part {
	t.Helper()
	part, err := models.CreatePart(managerCtx, &models.NewPart{
		Sku:       sku,
		Name:      "Part " + sku,
		UnitPrice: decimal.RequireFromString("40"),
		UnitCost:  decimal.RequireFromString("22"),
		MinStock:  2,
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if stock > 0 {
		_, err = workflow.Adjust(managerCtx, workflow.AdjustInput{
			PartId:    part.ID,
			Quantity:  stock,
			Direction: models.MovementDirectionIn,
			Reason:    "Initial receiving",
		})
		if err != nil {
			t.Fatalf("receive stock: %v", err)
		}
	}
	return part
}

func seedTicket(t *testing.T, agentCtx context.Context) *models.Ticket {
	t.Helper()
	showroomId, _ := utils.GetShowroomIdFromContext(agentCtx)
	ticket, err := models.CreateTicket(agentCtx, &models.NewTicket{
		CustomerName: "Mme Durand",
		Category:     "Climatisation",
		Priority:     models.TicketPriorityNormal,
		Description:  "Unit not cooling",
		ShowroomId:   showroomId,
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func reportUsing(part *models.Part, qty int) *models.InterventionReport {
	id := part.ID
	return &models.InterventionReport{
		EquipmentStatus:    models.EquipmentStatusRepaired,
		DetailedDiagnostic: "clogged condenser",
		RepairProcedure:    "cleaned and replaced filter",
		PartsUsed: []models.UsedPart{
			{PartId: &id, Name: part.Name, Quantity: qty, UnitPrice: part.UnitPrice},
		},
	}
}

func TestLifecycle_NominalRepairCycle(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-001", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 3)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	after, err := models.GetPart(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if after.CurrentStock != 7 {
		t.Fatalf("stock = %d, want 7", after.CurrentStock)
	}
	movements, err := models.ListMovementsByTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 || movements[0].Quantity != 3 || movements[0].Direction != models.MovementDirectionOut {
		t.Fatalf("unexpected movements: %+v", movements)
	}

	approved, err := workflow.ApproveReport(actors.manager, ticket.ID, &workflow.FinancialInput{
		LaborTotal: decimal.RequireFromString("60"),
		LaborCost:  decimal.RequireFromString("30"),
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.TicketStatusResolved {
		t.Fatalf("status = %s, want Resolved", approved.Status)
	}
	if approved.Financials == nil {
		t.Fatal("financials not stamped on approval")
	}
	// 3 * 40 parts + 60 labor = 180
	if !approved.Financials.GrandTotal.Equal(decimal.RequireFromString("180")) {
		t.Fatalf("grand total = %s, want 180", approved.Financials.GrandTotal)
	}

	if _, err := workflow.SettlePayment(actors.manager, ticket.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}
	closed, err := workflow.CloseTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != models.TicketStatusClosed {
		t.Fatalf("status = %s, want Closed", closed.Status)
	}

	stored, replayed, err := workflow.VerifyPartLedger(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("verify ledger: %v", err)
	}
	if stored != replayed {
		t.Fatalf("ledger inconsistent: stored=%d replayed=%d", stored, replayed)
	}
}

func TestLifecycle_IdenticalResubmissionConsumesOnce(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-002", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 2)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// Same content again (double click, network retry).
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 2)); err != nil {
		t.Fatalf("resubmit must succeed as a no-op: %v", err)
	}

	after, err := models.GetPart(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if after.CurrentStock != 8 {
		t.Fatalf("stock = %d, want 8 (consumed once)", after.CurrentStock)
	}
	movements, err := models.ListMovementsByTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
}

func TestLifecycle_CorrectedResubmissionConsumesNewBatch(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-003", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 2)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// Changed content hashes to a new key and its lines consume in full;
	// corrections therefore list only the additional parts.
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 3)); err != nil {
		t.Fatalf("corrected submit: %v", err)
	}

	after, err := models.GetPart(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if after.CurrentStock != 5 {
		t.Fatalf("stock = %d, want 5 (2 then 3)", after.CurrentStock)
	}
}

func TestLifecycle_ConcurrentSubmissionLoserFails(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-010", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Hold an uncommitted version bump on the ticket row. The submission below
	// reads the old version, then blocks on the row lock at its version swap;
	// once the bump commits the swap matches zero rows and the whole
	// transaction, consumption included, rolls back.
	blocker := config.GetDB().Begin()
	if blocker.Error != nil {
		t.Fatalf("begin blocker tx: %v", blocker.Error)
	}
	defer blocker.Rollback()
	if err := blocker.Model(&models.Ticket{}).Where("id = ?", ticket.ID).
		Update("version", gorm.Expr("version + 1")).Error; err != nil {
		t.Fatalf("bump version: %v", err)
	}
	go func() {
		time.Sleep(2 * time.Second)
		blocker.Commit()
	}()

	_, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 3))
	if !workflow.IsErrorCode(err, workflow.ErrCodeConcurrentModification) {
		t.Fatalf("err = %v, want ConcurrentModification", err)
	}

	after, err := models.GetPart(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if after.CurrentStock != 10 {
		t.Fatalf("stock = %d, want 10 untouched", after.CurrentStock)
	}
	movements, err := models.ListMovementsByTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("movements = %d, want none", len(movements))
	}
	reloaded, err := models.GetTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if reloaded.Status != models.TicketStatusInProgress {
		t.Fatalf("status = %s, want InProgress", reloaded.Status)
	}
}

func TestLifecycle_FailedSubmissionCanBeRetried(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-011", 2)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 5))
	if !workflow.IsErrorCode(err, workflow.ErrCodeInsufficientStock) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}

	// The failed key must not poison the hash: after restocking, the same
	// report content applies cleanly.
	if _, err := workflow.Adjust(actors.manager, workflow.AdjustInput{
		PartId: part.ID, Quantity: 5, Direction: models.MovementDirectionIn, Reason: "Restock",
	}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 5)); err != nil {
		t.Fatalf("retry after restock: %v", err)
	}

	after, err := models.GetPart(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if after.CurrentStock != 2 {
		t.Fatalf("stock = %d, want 2 (2+5-5)", after.CurrentStock)
	}
}

func TestLifecycle_AdjustSurvivesCacheOutage(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-013", 4)

	// Kill redis. The adjustment is committed before cache invalidation runs,
	// so a cache outage must not fail the call.
	out, err := dockerRun("ps", "--filter", "name=sav-test-redis", "--format", "{{.ID}}")
	if err != nil {
		t.Fatalf("list redis containers: %v\n%s", err, out)
	}
	for _, id := range strings.Fields(out) {
		if stopOut, err := dockerRun("stop", id); err != nil {
			t.Fatalf("stop redis container: %v\n%s", err, stopOut)
		}
	}

	movement, err := workflow.Adjust(actors.manager, workflow.AdjustInput{
		PartId: part.ID, Quantity: 3, Direction: models.MovementDirectionIn, Reason: "Receiving",
	})
	if err != nil {
		t.Fatalf("adjust with cache down: %v", err)
	}
	if movement == nil || movement.ID == 0 {
		t.Fatal("adjust did not return the committed movement")
	}

	// Straight from the DB; the cache is gone.
	var reloaded models.Part
	if err := config.GetDB().First(&reloaded, part.ID).Error; err != nil {
		t.Fatalf("reload part: %v", err)
	}
	if reloaded.CurrentStock != 7 {
		t.Fatalf("stock = %d, want 7", reloaded.CurrentStock)
	}
}

func TestLifecycle_ManagerReassignsTechnician(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-012", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	showroomId, _ := utils.GetShowroomIdFromContext(actors.manager)
	seed := utils.SetUserNameInContext(utils.SetUserIdInContext(context.Background(), 1), "Seed")
	tech2, err := models.CreateUser(seed, &models.NewUser{
		Username:   "tech2",
		Name:       "tech2",
		Password:   "test-password",
		IsActive:   utils.NewTrue(),
		Role:       models.UserRoleTechnician,
		ShowroomId: showroomId,
	})
	if err != nil {
		t.Fatalf("create tech2: %v", err)
	}
	tech2Ctx := context.Background()
	tech2Ctx = utils.SetUserIdInContext(tech2Ctx, tech2.ID)
	tech2Ctx = utils.SetUserNameInContext(tech2Ctx, tech2.Name)
	tech2Ctx = utils.SetRoleInContext(tech2Ctx, string(tech2.Role))
	tech2Ctx = utils.SetShowroomIdInContext(tech2Ctx, showroomId)

	// Only managers and admins may reassign.
	if _, err := workflow.EditTicket(actors.agent, ticket.ID, &models.TicketEdit{AssignedTechnicianId: &tech2.ID}); !workflow.IsErrorCode(err, workflow.ErrCodeForbidden) {
		t.Fatalf("agent reassign err = %v, want Forbidden", err)
	}
	if _, err := workflow.EditTicket(actors.manager, ticket.ID, &models.TicketEdit{AssignedTechnicianId: &tech2.ID}); err != nil {
		t.Fatalf("manager reassign: %v", err)
	}

	// Report authorship follows the assignment.
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 1)); !workflow.IsErrorCode(err, workflow.ErrCodeForbidden) {
		t.Fatalf("old technician submit err = %v, want Forbidden", err)
	}
	if _, err := workflow.SubmitInterventionReport(tech2Ctx, ticket.ID, reportUsing(part, 1)); err != nil {
		t.Fatalf("new technician submit: %v", err)
	}
}

func TestLifecycle_InsufficientStockRejectsWholeBatch(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-004", 2)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 5))
	if !workflow.IsErrorCode(err, workflow.ErrCodeInsufficientStock) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}

	// Nothing moved: stock intact, no movements, ticket still InProgress.
	after, err := models.GetPart(actors.manager, part.ID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	if after.CurrentStock != 2 {
		t.Fatalf("stock = %d, want 2 untouched", after.CurrentStock)
	}
	movements, err := models.ListMovementsByTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("movements = %d, want none", len(movements))
	}
	reloaded, err := models.GetTicket(actors.manager, ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if reloaded.Status != models.TicketStatusInProgress {
		t.Fatalf("status = %s, want InProgress", reloaded.Status)
	}
}

func TestLifecycle_RoleGates(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-005", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 1)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A technician cannot approve their own report.
	if _, err := workflow.ApproveReport(actors.technician, ticket.ID, nil); !workflow.IsErrorCode(err, workflow.ErrCodeForbidden) {
		t.Fatalf("technician approve err = %v, want Forbidden", err)
	}
	// An agent cannot adjust stock.
	if _, err := workflow.Adjust(actors.agent, workflow.AdjustInput{
		PartId: part.ID, Quantity: 1, Direction: models.MovementDirectionIn, Reason: "test",
	}); !workflow.IsErrorCode(err, workflow.ErrCodeForbidden) {
		t.Fatalf("agent adjust err = %v, want Forbidden", err)
	}
}

func TestLifecycle_CloseRequiresPayment(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-006", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := workflow.ApproveReport(actors.manager, ticket.ID, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := workflow.CloseTicket(actors.manager, ticket.ID); !workflow.IsErrorCode(err, workflow.ErrCodePaymentPending) {
		t.Fatalf("close err = %v, want PaymentPending", err)
	}

	if _, err := workflow.SettlePayment(actors.manager, ticket.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := workflow.CloseTicket(actors.manager, ticket.ID); err != nil {
		t.Fatalf("close after payment: %v", err)
	}
}

func TestLifecycle_ClosedTicketLockedForEdits(t *testing.T) {
	actors := setupIntegration(t)
	part := seedPart(t, actors.manager, "FLT-007", 10)
	ticket := seedTicket(t, actors.agent)

	if _, err := workflow.StartIntervention(actors.technician, ticket.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := workflow.SubmitInterventionReport(actors.technician, ticket.ID, reportUsing(part, 1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := workflow.ApproveReport(actors.manager, ticket.ID, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := workflow.SettlePayment(actors.manager, ticket.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := workflow.CloseTicket(actors.manager, ticket.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	name := "Mme Durand-Petit"
	_, err := workflow.EditTicket(actors.agent, ticket.ID, &models.TicketEdit{CustomerName: &name})
	if !workflow.IsErrorCode(err, workflow.ErrCodeTicketLocked) {
		t.Fatalf("agent edit err = %v, want TicketLocked", err)
	}
}

// --- docker helpers ---

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("sav-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("sav-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=savpoint_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
