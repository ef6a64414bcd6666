package unit

import (
	"context"
	"errors"
	"testing"

	walletservice "flow/contexts/finance-core/wallet-service"
	walleterrors "flow/contexts/finance-core/wallet-service/domain/errors"
	projectservice "flow/contexts/project-funding/project-service"
	projectmemory "flow/contexts/project-funding/project-service/adapters/memory"
	domainerrors "flow/contexts/project-funding/project-service/domain/errors"
	"flow/contexts/project-funding/project-service/domain/entities"
	projecthttp "flow/contexts/project-funding/project-service/transport/http"
)

// fundingFixture wires a project module against a real wallet escrow so the
// funding handshake exercises both contexts.
type fundingFixture struct {
	projects projectservice.Module
	wallet   walletservice.Module
	store    *projectmemory.Store
}

func newFundingFixture() fundingFixture {
	wallet := walletservice.NewInMemoryModule(nil)
	store := projectmemory.NewStore()
	projects := projectservice.NewModule(projectservice.Dependencies{
		Projects: store,
		Escrow:   wallet.Escrow,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	})
	projects.Store = store
	return fundingFixture{projects: projects, wallet: wallet, store: store}
}

func TestCreateProjectStartsDraft(t *testing.T) {
	module := projectservice.NewInMemoryModule(nil)

	created, err := module.Handler.CreateProjectHandler(context.Background(), "client-1",
		projecthttp.CreateProjectRequest{Title: "Receipt digitization", TaskType: "digital", TotalAmount: "1200.00"})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}
	if created.Status != string(entities.ProjectStatusDraft) {
		t.Fatalf("new project must start as draft, got %s", created.Status)
	}
	if created.EscrowLocked {
		t.Fatalf("draft project must not report locked escrow")
	}
	if created.Currency != "NGN" {
		t.Fatalf("expected default currency NGN, got %s", created.Currency)
	}

	audits, err := module.Handler.ListProjectAuditsHandler(context.Background(), created.ProjectID)
	if err != nil {
		t.Fatalf("list audits failed: %v", err)
	}
	if len(audits.Items) != 1 || audits.Items[0].Action != "project_created" {
		t.Fatalf("expected a single project_created audit, got %+v", audits.Items)
	}
}

func TestCreateProjectRejectsInvalidInput(t *testing.T) {
	module := projectservice.NewInMemoryModule(nil)

	cases := []projecthttp.CreateProjectRequest{
		{Title: "No type", TaskType: "mystery", TotalAmount: "100.00"},
		{Title: "", TaskType: "digital", TotalAmount: "100.00"},
		{Title: "Zero budget", TaskType: "digital", TotalAmount: "0"},
		{Title: "Garbage amount", TaskType: "digital", TotalAmount: "lots"},
	}
	for _, req := range cases {
		if _, err := module.Handler.CreateProjectHandler(context.Background(), "client-1", req); !errors.Is(err, domainerrors.ErrInvalidProjectInput) {
			t.Fatalf("request %+v: expected invalid input, got %v", req, err)
		}
	}
}

func TestFundProjectLocksEscrow(t *testing.T) {
	fx := newFundingFixture()
	seedWalletUser(fx.wallet.Store, "client-rich", "5000.00", true)

	created, err := fx.projects.Handler.CreateProjectHandler(context.Background(), "client-rich",
		projecthttp.CreateProjectRequest{Title: "Field survey", TaskType: "physical", TotalAmount: "3000.00"})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	funded, err := fx.projects.Handler.FundProjectHandler(context.Background(), created.ProjectID, "client-rich")
	if err != nil {
		t.Fatalf("fund project failed: %v", err)
	}
	if funded.Status != string(entities.ProjectStatusFunded) || !funded.EscrowLocked {
		t.Fatalf("expected funded project with locked escrow, got status=%s locked=%v", funded.Status, funded.EscrowLocked)
	}

	balance, _ := fx.wallet.Store.GetBalance(context.Background(), "client-rich")
	if balance.StringAmount() != "2000.00" {
		t.Fatalf("client wallet not debited, balance %s", balance.StringAmount())
	}
	entries, _ := fx.wallet.Store.ListEscrowEntries(context.Background(), created.ProjectID)
	if len(entries) != 1 {
		t.Fatalf("expected one escrow lock entry, got %d", len(entries))
	}

	audits, err := fx.projects.Handler.ListProjectAuditsHandler(context.Background(), created.ProjectID)
	if err != nil {
		t.Fatalf("list audits failed: %v", err)
	}
	var sawFunded bool
	for _, audit := range audits.Items {
		if audit.Action == "project_funded" {
			sawFunded = true
		}
	}
	if !sawFunded {
		t.Fatalf("expected project_funded audit, got %+v", audits.Items)
	}
}

func TestFundProjectTwiceRejected(t *testing.T) {
	fx := newFundingFixture()
	seedWalletUser(fx.wallet.Store, "client-repeat", "2000.00", true)

	created, err := fx.projects.Handler.CreateProjectHandler(context.Background(), "client-repeat",
		projecthttp.CreateProjectRequest{Title: "Transcription", TaskType: "digital", TotalAmount: "800.00"})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}
	if _, err := fx.projects.Handler.FundProjectHandler(context.Background(), created.ProjectID, "client-repeat"); err != nil {
		t.Fatalf("first funding failed: %v", err)
	}

	_, err = fx.projects.Handler.FundProjectHandler(context.Background(), created.ProjectID, "client-repeat")
	if !errors.Is(err, domainerrors.ErrProjectStateInvalid) {
		t.Fatalf("expected state rejection on re-fund, got %v", err)
	}
	balance, _ := fx.wallet.Store.GetBalance(context.Background(), "client-repeat")
	if balance.StringAmount() != "1200.00" {
		t.Fatalf("re-fund must not double-debit, balance %s", balance.StringAmount())
	}
}

func TestFundProjectInsufficientClientFunds(t *testing.T) {
	fx := newFundingFixture()
	seedWalletUser(fx.wallet.Store, "client-broke", "100.00", true)

	created, err := fx.projects.Handler.CreateProjectHandler(context.Background(), "client-broke",
		projecthttp.CreateProjectRequest{Title: "Big job", TaskType: "digital", TotalAmount: "900.00"})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	_, err = fx.projects.Handler.FundProjectHandler(context.Background(), created.ProjectID, "client-broke")
	if !errors.Is(err, walleterrors.ErrInsufficientFunds) {
		t.Fatalf("expected wallet insufficiency to surface, got %v", err)
	}

	current, err := fx.projects.Handler.GetProjectHandler(context.Background(), created.ProjectID)
	if err != nil {
		t.Fatalf("get project failed: %v", err)
	}
	if current.Status != string(entities.ProjectStatusDraft) || current.EscrowLocked {
		t.Fatalf("failed funding must leave the project draft, got status=%s locked=%v", current.Status, current.EscrowLocked)
	}
}

func TestFundProjectRequiresOwningClient(t *testing.T) {
	fx := newFundingFixture()
	seedWalletUser(fx.wallet.Store, "client-owner", "2000.00", true)

	created, err := fx.projects.Handler.CreateProjectHandler(context.Background(), "client-owner",
		projecthttp.CreateProjectRequest{Title: "Labeling", TaskType: "digital", TotalAmount: "500.00"})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	_, err = fx.projects.Handler.FundProjectHandler(context.Background(), created.ProjectID, "client-imposter")
	if !errors.Is(err, domainerrors.ErrProjectNotFound) {
		t.Fatalf("foreign client must not see the project, got %v", err)
	}
}

func TestListClientProjectsScopedToOwner(t *testing.T) {
	module := projectservice.NewInMemoryModule(nil)

	for _, title := range []string{"First", "Second"} {
		if _, err := module.Handler.CreateProjectHandler(context.Background(), "client-a",
			projecthttp.CreateProjectRequest{Title: title, TaskType: "digital", TotalAmount: "100.00"}); err != nil {
			t.Fatalf("create %s failed: %v", title, err)
		}
	}
	if _, err := module.Handler.CreateProjectHandler(context.Background(), "client-b",
		projecthttp.CreateProjectRequest{Title: "Other", TaskType: "digital", TotalAmount: "100.00"}); err != nil {
		t.Fatalf("create for client-b failed: %v", err)
	}

	listed, err := module.Handler.ListClientProjectsHandler(context.Background(), "client-a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed.Items) != 2 {
		t.Fatalf("expected two projects for client-a, got %d", len(listed.Items))
	}
	for _, project := range listed.Items {
		if project.ClientID != "client-a" {
			t.Fatalf("listing leaked project %s owned by %s", project.ProjectID, project.ClientID)
		}
	}
}
