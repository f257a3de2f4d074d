package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

type monitoringEnv struct {
	units   *fakeUnitRepo
	tickets *fakeTicketRepo
	svc     *MonitoringService
}

func newMonitoringEnv(policy PolicyProvider) *monitoringEnv {
	units := newFakeUnitRepo()
	tickets := newFakeTicketRepo(units)
	svc := NewMonitoringService(MonitoringDependencies{
		TicketRepo: tickets,
		Dispatcher: noopDispatcher(),
		Policy:     policy,
	})
	return &monitoringEnv{units: units, tickets: tickets, svc: svc}
}

func (e *monitoringEnv) seedTicket(t *testing.T, requesterID string, status domain.ApprovalStatus, devStatus *domain.DevelopmentStatus) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		RequesterID:       requesterID,
		Title:             "Permintaan fitur",
		Status:            status,
		RequesterOrg:      domain.OrgRaffa,
		DevelopmentStatus: devStatus,
		Priority:          domain.PriorityNormal,
	}
	require.NoError(t, e.tickets.Create(context.Background(), ticket))
	return ticket
}

func devPtr(s domain.DevelopmentStatus) *domain.DevelopmentStatus { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		status         domain.ApprovalStatus
		devStatus      *domain.DevelopmentStatus
		wantInProgress bool
		wantCompleted  bool
	}{
		{"pending belongs to neither", domain.StatusPending, nil, false, false},
		{"approved_b without dev status", domain.StatusApprovedB, nil, true, false},
		{"approved_b testing", domain.StatusApprovedB, devPtr(domain.DevStatusTesting), true, false},
		{"approved_b at release gate", domain.StatusApprovedB, devPtr(domain.DevStatusReadyRelease), false, true},
		{"done", domain.StatusDone, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := domain.Ticket{Status: tt.status, DevelopmentStatus: tt.devStatus}
			buckets := Classify([]domain.Ticket{ticket})
			require.Equal(t, tt.wantInProgress, len(buckets.InProgress) == 1)
			require.Equal(t, tt.wantCompleted, len(buckets.Completed) == 1)
		})
	}
}

func TestListMonitoringScoping(t *testing.T) {
	ctx := context.Background()
	env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))

	mine := env.seedTicket(t, "req-1", domain.StatusApprovedB, nil)
	env.seedTicket(t, "req-2", domain.StatusApprovedB, devPtr(domain.DevStatusReadyRelease))
	env.seedTicket(t, "req-2", domain.StatusDone, devPtr(domain.DevStatusReadyRelease))

	t.Run("requester sees only own tickets", func(t *testing.T) {
		buckets, err := env.svc.ListMonitoring(ctx, testUser("req-1", domain.RoleRequester), 50, 0)
		require.NoError(t, err)
		require.Len(t, buckets.InProgress, 1)
		require.Equal(t, mine.ID, buckets.InProgress[0].ID)
		require.Empty(t, buckets.Completed)
	})

	t.Run("admin sees both buckets", func(t *testing.T) {
		buckets, err := env.svc.ListMonitoring(ctx, testUser("adm", domain.RoleAdmin), 50, 0)
		require.NoError(t, err)
		require.Len(t, buckets.InProgress, 1)
		require.Len(t, buckets.Completed, 2)
	})

	t.Run("manager without category sees nothing", func(t *testing.T) {
		buckets, err := env.svc.ListMonitoring(ctx, testUser("mgr-none", domain.RoleManager), 50, 0)
		require.NoError(t, err)
		require.Empty(t, buckets.InProgress)
		require.Empty(t, buckets.Completed)
	})
}

// Raising the development status to the release gate moves a ticket between
// buckets without any approval-chain transition.
func TestDevelopmentStatusReclassifies(t *testing.T) {
	ctx := context.Background()
	env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
	admin := testUser("adm", domain.RoleAdmin)
	ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, nil)

	_, err := env.svc.SetDevelopmentStatus(ctx, admin, ticket.ID, domain.DevStatusTesting)
	require.NoError(t, err)
	buckets, err := env.svc.ListMonitoring(ctx, admin, 50, 0)
	require.NoError(t, err)
	require.Len(t, buckets.InProgress, 1)
	require.Empty(t, buckets.Completed)

	_, err = env.svc.SetDevelopmentStatus(ctx, admin, ticket.ID, domain.DevStatusReadyRelease)
	require.NoError(t, err)
	buckets, err = env.svc.ListMonitoring(ctx, admin, 50, 0)
	require.NoError(t, err)
	require.Empty(t, buckets.InProgress)
	require.Len(t, buckets.Completed, 1)
}

func TestSetDevelopmentStatusValidation(t *testing.T) {
	ctx := context.Background()
	env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
	ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, nil)
	pending := env.seedTicket(t, "req-1", domain.StatusPending, nil)

	_, err := env.svc.SetDevelopmentStatus(ctx, testUser("mgr", domain.RoleManager), ticket.ID, domain.DevStatusTesting)
	require.Error(t, err)
	require.Equal(t, "FORBIDDEN", domainCode(t, err))

	_, err = env.svc.SetDevelopmentStatus(ctx, testUser("ghost", domain.Role(9)), ticket.ID, domain.DevStatusTesting)
	require.Error(t, err)
	require.Equal(t, "FORBIDDEN", domainCode(t, err))

	_, err = env.svc.SetDevelopmentStatus(ctx, testUser("adm", domain.RoleAdmin), ticket.ID, domain.DevelopmentStatus(9))
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = env.svc.SetDevelopmentStatus(ctx, testUser("adm", domain.RoleAdmin), pending.ID, domain.DevStatusAnalysis)
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestSetPriority(t *testing.T) {
	ctx := context.Background()

	t.Run("jangmed manager may change priority in development", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{LockCompletedPriority: true}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, devPtr(domain.DevStatusInProgress))
		actor := testUser("mgr", domain.RoleManager, withCategory(domain.CategoryJangmed))

		updated, err := env.svc.SetPriority(ctx, actor, ticket.ID, domain.PriorityUrgent)
		require.NoError(t, err)
		require.Equal(t, domain.PriorityUrgent, updated.Priority)
	})

	t.Run("other managers may not", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, nil)
		actor := testUser("mgr", domain.RoleManager, withCategory(domain.CategoryYanmed))

		_, err := env.svc.SetPriority(ctx, actor, ticket.ID, domain.PriorityUrgent)
		require.Error(t, err)
		require.Equal(t, "FORBIDDEN", domainCode(t, err))
	})

	t.Run("unknown priority is rejected", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, nil)

		_, err := env.svc.SetPriority(ctx, testUser("adm", domain.RoleAdmin), ticket.ID, domain.TicketPriority("segera"))
		require.Error(t, err)
		require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})

	t.Run("submission-stage ticket is rejected", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusPending, nil)

		_, err := env.svc.SetPriority(ctx, testUser("adm", domain.RoleAdmin), ticket.ID, domain.PriorityUrgent)
		require.Error(t, err)
		require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})

	t.Run("completed ticket is frozen while the lock is on", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{LockCompletedPriority: true}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, devPtr(domain.DevStatusReadyRelease))

		_, err := env.svc.SetPriority(ctx, testUser("adm", domain.RoleAdmin), ticket.ID, domain.PriorityUrgent)
		require.Error(t, err)
		require.Equal(t, "CONFLICT", domainCode(t, err))
	})

	t.Run("lock off allows changing a completed ticket", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, devPtr(domain.DevStatusReadyRelease))

		updated, err := env.svc.SetPriority(ctx, testUser("adm", domain.RoleAdmin), ticket.ID, domain.PriorityMedium)
		require.NoError(t, err)
		require.Equal(t, domain.PriorityMedium, updated.Priority)
	})
}

func TestSetReleaseInfo(t *testing.T) {
	ctx := context.Background()
	admin := testUser("adm", domain.RoleAdmin)

	t.Run("requires the release gate", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, devPtr(domain.DevStatusTesting))

		_, err := env.svc.SetReleaseInfo(ctx, admin, ticket.ID, domain.ReleaseStatusInUse)
		require.Error(t, err)
		require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})

	t.Run("closes the ticket out", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, devPtr(domain.DevStatusReadyRelease))

		updated, err := env.svc.SetReleaseInfo(ctx, admin, ticket.ID, domain.ReleaseStatusInUse)
		require.NoError(t, err)
		require.Equal(t, domain.StatusDone, updated.Status)
		require.NotNil(t, updated.ReleaseStatus)
		require.Equal(t, domain.ReleaseStatusInUse, *updated.ReleaseStatus)
		require.Equal(t, admin.ID, *updated.ReleaseSetBy)

		stored, err := env.tickets.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusDone, stored.Status)
	})

	t.Run("admin only", func(t *testing.T) {
		env := newMonitoringEnv(staticPolicy(domain.WorkflowPolicy{}))
		ticket := env.seedTicket(t, "req-1", domain.StatusApprovedB, devPtr(domain.DevStatusReadyRelease))

		_, err := env.svc.SetReleaseInfo(ctx, testUser("dir-b", domain.RoleDirectorB), ticket.ID, domain.ReleaseStatusInUse)
		require.Error(t, err)
		require.Equal(t, "FORBIDDEN", domainCode(t, err))
	})
}
