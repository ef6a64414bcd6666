package unit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	taskengine "flow/contexts/task-lifecycle/task-engine"
	"flow/contexts/task-lifecycle/task-engine/adapters/checker"
	"flow/contexts/task-lifecycle/task-engine/adapters/memory"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
	httptransport "flow/contexts/task-lifecycle/task-engine/transport/http"
	"flow/internal/shared/money"
)

func fundedProject(projectID string, amount string, taskType entities.TaskType) ports.ProjectProjection {
	total, _ := money.FromString(amount, "NGN")
	return ports.ProjectProjection{
		ProjectID:    projectID,
		ClientID:     "client-1",
		Title:        "Street survey",
		Status:       "funded",
		TaskType:     taskType,
		TotalAmount:  total,
		EscrowLocked: true,
	}
}

func verifiedWorker(userID string, reputation float64) ports.WorkerProfile {
	return ports.WorkerProfile{
		UserID:          userID,
		Role:            "worker",
		Verified:        true,
		KYCCompleted:    true,
		ReputationScore: reputation,
		Tier:            2,
	}
}

func TestAtomizeSplitsBudgetExactly(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-1", "1000.00", entities.TaskTypeDigital))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-1", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 3})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	if resp.UnitCount != 3 {
		t.Fatalf("expected 3 units, got %d", resp.UnitCount)
	}
	want := []string{"333.34", "333.33", "333.33"}
	for i, task := range resp.Tasks {
		if task.PayAmount != want[i] {
			t.Fatalf("unit %d pay = %s, want %s", i+1, task.PayAmount, want[i])
		}
	}

	project, err := module.Store.GetProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.Status != "active" || project.TotalUnits != 3 {
		t.Fatalf("expected active project with 3 units, got %s/%d", project.Status, project.TotalUnits)
	}
}

func TestAtomizeBlockedWithoutEscrowLock(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	project := fundedProject("proj-unlocked", "500.00", entities.TaskTypeDigital)
	project.EscrowLocked = false
	module.Store.SetProject(project)

	_, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-unlocked", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 5})
	if !errors.Is(err, domainerrors.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
}

func TestAcceptTaskSingleWinner(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-race", "100.00", entities.TaskTypeDigital))
	module.Store.SetWorker(verifiedWorker("worker-a", 4.5))
	module.Store.SetWorker(verifiedWorker("worker-b", 4.5))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-race", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 1})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	taskID := resp.Tasks[0].TaskID

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, workerID := range []string{"worker-a", "worker-b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, id)
			results <- err
		}(workerID)
	}
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domainerrors.ErrAlreadyTaken):
			losses++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d losses", wins, losses)
	}
}

func TestAcceptTaskEnforcesAssignmentCap(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-cap", "600.00", entities.TaskTypeDigital))
	module.Store.SetWorker(verifiedWorker("worker-busy", 4.5))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-cap", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 6})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := module.Handler.AcceptTaskHandler(context.Background(), resp.Tasks[i].TaskID, "worker-busy"); err != nil {
			t.Fatalf("accept %d failed: %v", i+1, err)
		}
	}
	_, err = module.Handler.AcceptTaskHandler(context.Background(), resp.Tasks[5].TaskID, "worker-busy")
	if !errors.Is(err, domainerrors.ErrAssignmentLimit) {
		t.Fatalf("expected assignment limit, got %v", err)
	}
}

func TestSubmitPhysicalTaskRequiresEvidence(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-field", "100.00", entities.TaskTypePhysical))
	module.Store.SetWorker(verifiedWorker("worker-field", 4.5))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-field", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 1})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	taskID := resp.Tasks[0].TaskID
	if _, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, "worker-field"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err = module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-field",
		httptransport.SubmitTaskRequest{Payload: json.RawMessage(`{"answer":"done"}`)})
	if !errors.Is(err, domainerrors.ErrEvidenceMissing) {
		t.Fatalf("expected evidence missing, got %v", err)
	}

	submitted, err := module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-field",
		httptransport.SubmitTaskRequest{
			Payload:  json.RawMessage(`{"answer":"done"}`),
			Photos:   []string{"https://cdn.example/photo-1"},
			Location: &httptransport.GeoPointDTO{Lat: 6.5244, Lng: 3.3792},
		})
	if err != nil {
		t.Fatalf("submit with evidence failed: %v", err)
	}
	if submitted.Status != string(entities.TaskStatusSubmitted) {
		t.Fatalf("expected submitted status, got %s", submitted.Status)
	}
}

func TestPeerConsensusApprovalSettles(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-consensus", "200.00", entities.TaskTypeDigital))
	module.Store.SetWorker(verifiedWorker("worker-doer", 4.5))
	module.Store.SetWorker(verifiedWorker("validator-1", 4.6))
	module.Store.SetWorker(verifiedWorker("validator-2", 4.7))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-consensus", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 2, Strategy: "peer_consensus", RequiredPeers: 2, RequiredApprovals: 1})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	taskID := resp.Tasks[0].TaskID
	if _, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, "worker-doer"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-doer",
		httptransport.SubmitTaskRequest{Payload: json.RawMessage(`{"result":"42"}`)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := module.Verification.VerifyTask(context.Background(), taskID); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	first, err := module.Handler.ValidateTaskHandler(context.Background(), taskID, "validator-1",
		httptransport.ValidateTaskRequest{Approve: true})
	if err != nil {
		t.Fatalf("first verdict failed: %v", err)
	}
	if first.Decision != "none" {
		t.Fatalf("expected no decision after one verdict, got %s", first.Decision)
	}

	second, err := module.Handler.ValidateTaskHandler(context.Background(), taskID, "validator-2",
		httptransport.ValidateTaskRequest{Approve: false})
	if err != nil {
		t.Fatalf("second verdict failed: %v", err)
	}
	if second.Decision != "complete" {
		t.Fatalf("expected completion with 1 of 2 approvals, got %s", second.Decision)
	}

	task, err := module.Store.GetTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != entities.TaskStatusCompleted {
		t.Fatalf("expected completed task, got %s", task.Status)
	}
	balance := module.Store.WalletBalance("worker-doer")
	if balance.StringAmount() != task.PayAmount.StringAmount() {
		t.Fatalf("worker balance %s, want %s", balance.StringAmount(), task.PayAmount.StringAmount())
	}
	if payouts := module.Store.EscrowPayouts(); len(payouts) != 1 {
		t.Fatalf("expected one escrow payout, got %d", len(payouts))
	}
	project, _ := module.Store.GetProject(context.Background(), "proj-consensus")
	if project.CompletedUnits != 1 {
		t.Fatalf("expected one completed unit, got %d", project.CompletedUnits)
	}
}

func TestPeerConsensusRejectionDisputes(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-reject", "100.00", entities.TaskTypeDigital))
	module.Store.SetWorker(verifiedWorker("worker-doer", 4.5))
	module.Store.SetWorker(verifiedWorker("validator-1", 4.6))
	module.Store.SetWorker(verifiedWorker("validator-2", 4.7))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-reject", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 1, Strategy: "peer_consensus", RequiredPeers: 2, RequiredApprovals: 1})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	taskID := resp.Tasks[0].TaskID
	if _, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, "worker-doer"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-doer",
		httptransport.SubmitTaskRequest{Payload: json.RawMessage(`{"result":"bad"}`)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := module.Verification.VerifyTask(context.Background(), taskID); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if _, err := module.Handler.ValidateTaskHandler(context.Background(), taskID, "validator-1",
		httptransport.ValidateTaskRequest{Approve: false}); err != nil {
		t.Fatalf("first verdict failed: %v", err)
	}
	second, err := module.Handler.ValidateTaskHandler(context.Background(), taskID, "validator-2",
		httptransport.ValidateTaskRequest{Approve: false})
	if err != nil {
		t.Fatalf("second verdict failed: %v", err)
	}
	if second.Decision != "dispute" {
		t.Fatalf("expected dispute, got %s", second.Decision)
	}

	task, _ := module.Store.GetTask(context.Background(), taskID)
	if task.Status != entities.TaskStatusDisputed {
		t.Fatalf("expected disputed task, got %s", task.Status)
	}
	if balance := module.Store.WalletBalance("worker-doer"); balance.Amount.IsPositive() {
		t.Fatalf("disputed task must not pay, balance %s", balance.StringAmount())
	}
}

func TestValidationFromUnselectedReviewerIneligible(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-gate", "100.00", entities.TaskTypeDigital))
	module.Store.SetWorker(verifiedWorker("worker-doer", 4.5))
	module.Store.SetWorker(verifiedWorker("validator-1", 4.6))
	module.Store.SetWorker(verifiedWorker("validator-2", 4.7))
	module.Store.SetWorker(verifiedWorker("bystander", 4.1))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-gate", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 1, RequiredPeers: 2, RequiredApprovals: 1})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	taskID := resp.Tasks[0].TaskID
	if _, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, "worker-doer"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-doer",
		httptransport.SubmitTaskRequest{Payload: json.RawMessage(`{"result":"ok"}`)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := module.Verification.VerifyTask(context.Background(), taskID); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	_, err = module.Handler.ValidateTaskHandler(context.Background(), taskID, "bystander",
		httptransport.ValidateTaskRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrIneligible) {
		t.Fatalf("expected ineligible, got %v", err)
	}
}

func TestAIOnlyPassSettlesWithoutPeers(t *testing.T) {
	store := memory.NewStore()
	module := taskengine.NewModule(taskengine.Dependencies{
		Projects:               store,
		Tasks:                  store,
		Validations:            store,
		Workers:                store,
		Settlement:             store,
		Outbox:                 store,
		Clock:                  store,
		IDGen:                  store,
		Checker:                checker.Heuristic{},
		DefaultUnitCount:       10,
		AssignmentCap:          5,
		ValidatorMinReputation: 4.0,
	})
	store.SetProject(fundedProject("proj-ai", "50.00", entities.TaskTypeDigital))
	store.SetWorker(verifiedWorker("worker-ai", 4.5))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-ai", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 1, Strategy: "ai_only"})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	taskID := resp.Tasks[0].TaskID
	if _, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, "worker-ai"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-ai",
		httptransport.SubmitTaskRequest{Payload: json.RawMessage(`{"transcript":"full text of the recording"}`)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := module.Verification.VerifyTask(context.Background(), taskID); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	task, _ := store.GetTask(context.Background(), taskID)
	if task.Status != entities.TaskStatusCompleted {
		t.Fatalf("expected completed task, got %s", task.Status)
	}
	validations, _ := store.ListValidationsByTask(context.Background(), taskID)
	if len(validations) != 0 {
		t.Fatalf("ai_only must not fan out validations, got %d", len(validations))
	}
	if balance := store.WalletBalance("worker-ai"); balance.StringAmount() != "50.00" {
		t.Fatalf("worker balance %s, want 50.00", balance.StringAmount())
	}
}

func TestSettlementReplayAppliesOnce(t *testing.T) {
	store := memory.NewStore()
	store.SetProject(fundedProject("proj-settle", "100.00", entities.TaskTypeDigital))
	pay, _ := money.FromString("100.00", "NGN")
	now := time.Now().UTC()
	task := entities.TaskUnit{
		TaskID:    "task-settle",
		ProjectID: "proj-settle",
		UnitIndex: 1,
		Title:     "unit",
		Type:      entities.TaskTypeDigital,
		PayAmount: pay,
		Status:    entities.TaskStatusVerifying,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateTaskUnits(context.Background(), []entities.TaskUnit{task}); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	record := ports.SettlementRecord{
		TaskID:      task.TaskID,
		ProjectID:   task.ProjectID,
		WorkerID:    "worker-paid",
		Reference:   task.SettlementReference(),
		Amount:      pay,
		CompletedAt: now,
	}
	applied, err := store.SettleTask(context.Background(), record)
	if err != nil || !applied {
		t.Fatalf("first settlement applied=%v err=%v", applied, err)
	}
	applied, err = store.SettleTask(context.Background(), record)
	if err != nil {
		t.Fatalf("replay errored: %v", err)
	}
	if applied {
		t.Fatalf("replay must not apply")
	}
	if balance := store.WalletBalance("worker-paid"); balance.StringAmount() != "100.00" {
		t.Fatalf("replay double-paid, balance %s", balance.StringAmount())
	}
	if payouts := store.EscrowPayouts(); len(payouts) != 1 {
		t.Fatalf("expected one payout record, got %d", len(payouts))
	}
}

func TestTenUnitProjectPaysOneHundredPerUnit(t *testing.T) {
	module := taskengine.NewInMemoryModule(nil)
	module.Store.SetProject(fundedProject("proj-ten", "1000.00", entities.TaskTypeDigital))
	module.Store.SetWorker(verifiedWorker("worker-three", 4.5))
	module.Store.SetWorker(verifiedWorker("validator-1", 4.6))
	module.Store.SetWorker(verifiedWorker("validator-2", 4.7))

	resp, err := module.Handler.AtomizeProjectHandler(context.Background(), "proj-ten", "client-1",
		httptransport.AtomizeProjectRequest{UnitCount: 10, Strategy: "peer_consensus", RequiredPeers: 2, RequiredApprovals: 1})
	if err != nil {
		t.Fatalf("atomize failed: %v", err)
	}
	if len(resp.Tasks) != 10 {
		t.Fatalf("expected 10 units, got %d", len(resp.Tasks))
	}
	for i, task := range resp.Tasks {
		if task.PayAmount != "100.00" {
			t.Fatalf("unit %d pay = %s, want 100.00", i+1, task.PayAmount)
		}
	}

	taskID := resp.Tasks[2].TaskID
	if _, err := module.Handler.AcceptTaskHandler(context.Background(), taskID, "worker-three"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := module.Handler.SubmitTaskHandler(context.Background(), taskID, "worker-three",
		httptransport.SubmitTaskRequest{Payload: json.RawMessage(`{"entries":["row 1","row 2"]}`)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := module.Verification.VerifyTask(context.Background(), taskID); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := module.Handler.ValidateTaskHandler(context.Background(), taskID, "validator-1",
		httptransport.ValidateTaskRequest{Approve: true}); err != nil {
		t.Fatalf("first verdict failed: %v", err)
	}
	final, err := module.Handler.ValidateTaskHandler(context.Background(), taskID, "validator-2",
		httptransport.ValidateTaskRequest{Approve: true})
	if err != nil {
		t.Fatalf("second verdict failed: %v", err)
	}
	if final.Decision != "complete" {
		t.Fatalf("expected completion, got %s", final.Decision)
	}

	task, _ := module.Store.GetTask(context.Background(), taskID)
	if task.Status != entities.TaskStatusCompleted {
		t.Fatalf("expected completed unit, got %s", task.Status)
	}
	if balance := module.Store.WalletBalance("worker-three"); balance.StringAmount() != "100.00" {
		t.Fatalf("worker balance %s, want 100.00", balance.StringAmount())
	}
	payouts := module.Store.EscrowPayouts()
	if len(payouts) != 1 {
		t.Fatalf("expected one escrow payout, got %d", len(payouts))
	}
	if payouts[0].Amount.StringAmount() != "100.00" || payouts[0].Reference != task.SettlementReference() {
		t.Fatalf("payout %s ref %s does not match the settled unit", payouts[0].Amount.StringAmount(), payouts[0].Reference)
	}
	project, _ := module.Store.GetProject(context.Background(), "proj-ten")
	if project.CompletedUnits != 1 {
		t.Fatalf("expected one completed unit on the project, got %d", project.CompletedUnits)
	}
}

func TestDeadlineSweeperEscalatesExpiredUnits(t *testing.T) {
	store := memory.NewStore()
	stale := time.Now().UTC().Add(-72 * time.Hour)
	pay, _ := money.FromString("20.00", "NGN")
	if err := store.CreateTaskUnits(context.Background(), []entities.TaskUnit{{
		TaskID:    "task-stale",
		ProjectID: "proj-stale",
		UnitIndex: 1,
		Title:     "stale unit",
		Type:      entities.TaskTypeDigital,
		PayAmount: pay,
		Strategy:  entities.StrategySpec{Kind: entities.StrategyPeerConsensus, RequiredPeers: 2, RequiredApprovals: 1},
		Status:    entities.TaskStatusVerifying,
		CreatedAt: stale,
		UpdatedAt: stale,
	}}); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	sweeper := taskengine.NewDeadlineSweeper(store, store, nil, store, store, 48*time.Hour, nil)
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	task, err := store.GetTask(context.Background(), "task-stale")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != entities.TaskStatusDisputed {
		t.Fatalf("expected disputed after deadline, got %s", task.Status)
	}
}
