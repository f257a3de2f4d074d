package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dwisantra/simpefov2/internal/config"
	"github.com/Dwisantra/simpefov2/internal/domain"
)

type gitlabEnv struct {
	users   *fakeUserRepo
	tickets *fakeTicketRepo
	svc     *GitlabService
}

func newGitlabEnv(cfg config.GitlabConfig) *gitlabEnv {
	users := newFakeUserRepo()
	units := newFakeUnitRepo()
	tickets := newFakeTicketRepo(units)
	svc := NewGitlabService(cfg, tickets, users, zap.NewNop())
	return &gitlabEnv{users: users, tickets: tickets, svc: svc}
}

func webhookPayload(id, iid int64, action, state string) WebhookIssue {
	var payload WebhookIssue
	payload.ObjectKind = "issue"
	payload.Attributes.ID = id
	payload.Attributes.IID = iid
	payload.Attributes.Title = "Crash saat cetak resume"
	payload.Attributes.State = state
	payload.Attributes.URL = "https://git.example.test/issues/7"
	payload.Attributes.Action = action
	return payload
}

func TestHandleWebhookTokenCheck(t *testing.T) {
	ctx := context.Background()

	env := newGitlabEnv(config.GitlabConfig{WebhookToken: "hook-secret"})
	err := env.svc.HandleWebhook(ctx, "wrong", webhookPayload(1, 7, "open", "opened"))
	require.Error(t, err)
	require.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	// An unset webhook token disables intake entirely rather than accepting
	// everything.
	unconfigured := newGitlabEnv(config.GitlabConfig{})
	err = unconfigured.svc.HandleWebhook(ctx, "", webhookPayload(1, 7, "open", "opened"))
	require.Error(t, err)
	require.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestHandleWebhookUpdatesKnownTicket(t *testing.T) {
	ctx := context.Background()
	env := newGitlabEnv(config.GitlabConfig{WebhookToken: "hook-secret"})

	iid := int64(7)
	ticket := &domain.Ticket{
		RequesterID:  "req-1",
		Title:        "Integrasi BPJS",
		Status:       domain.StatusApprovedB,
		RequesterOrg: domain.OrgRaffa,
		Priority:     domain.PriorityNormal,
		Gitlab:       domain.GitlabLink{IssueIID: &iid},
	}
	require.NoError(t, env.tickets.Create(ctx, ticket))

	err := env.svc.HandleWebhook(ctx, "hook-secret", webhookPayload(100, iid, "close", "closed"))
	require.NoError(t, err)

	stored, err := env.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Gitlab.State)
	require.Equal(t, "closed", *stored.Gitlab.State)
	require.NotNil(t, stored.Gitlab.SyncedAt)
}

func TestHandleWebhookCreatesTicketForOpenedIssue(t *testing.T) {
	ctx := context.Background()
	env := newGitlabEnv(config.GitlabConfig{WebhookToken: "hook-secret"})
	require.NoError(t, env.users.Create(ctx, testUser("admin", domain.RoleAdmin)))

	err := env.svc.HandleWebhook(ctx, "hook-secret", webhookPayload(100, 7, "open", "opened"))
	require.NoError(t, err)

	created, err := env.tickets.GetByGitlabIssue(ctx, 100, 7)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApprovedB, created.Status)
	require.Equal(t, []domain.RequestType{domain.RequestTypeGitlabIssue}, created.RequestTypes)
	require.Equal(t, "Crash saat cetak resume", created.Title)

	owner, err := env.users.GetDefaultGitlabOwner(ctx)
	require.NoError(t, err)
	require.Equal(t, owner.ID, created.RequesterID)
}

func TestHandleWebhookIgnoresUnknownNonOpenEvents(t *testing.T) {
	ctx := context.Background()
	env := newGitlabEnv(config.GitlabConfig{WebhookToken: "hook-secret"})

	err := env.svc.HandleWebhook(ctx, "hook-secret", webhookPayload(100, 7, "close", "closed"))
	require.NoError(t, err)

	_, err = env.tickets.GetByGitlabIssue(ctx, 100, 7)
	require.Error(t, err)
}

func TestCreateIssueForTicket(t *testing.T) {
	ctx := context.Background()

	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 100, "iid": 7, "web_url": issueURL(r), "state": "opened",
		})
	}))
	defer server.Close()

	cfg := config.GitlabConfig{
		BaseURL:   server.URL,
		Token:     "api-token",
		ProjectID: "42",
	}

	t.Run("admin only", func(t *testing.T) {
		env := newGitlabEnv(cfg)
		_, err := env.svc.CreateIssueForTicket(ctx, testUser("mgr", domain.RoleManager), "whatever")
		require.Error(t, err)
		require.Equal(t, "FORBIDDEN", domainCode(t, err))
	})

	t.Run("disabled integration is rejected", func(t *testing.T) {
		env := newGitlabEnv(config.GitlabConfig{})
		_, err := env.svc.CreateIssueForTicket(ctx, testUser("adm", domain.RoleAdmin), "whatever")
		require.Error(t, err)
		require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})

	t.Run("links the created issue", func(t *testing.T) {
		env := newGitlabEnv(cfg)
		ticket := &domain.Ticket{
			RequesterID:  "req-1",
			Title:        "Integrasi BPJS",
			Status:       domain.StatusApprovedB,
			RequesterOrg: domain.OrgRaffa,
			Priority:     domain.PriorityNormal,
		}
		require.NoError(t, env.tickets.Create(ctx, ticket))

		linked, err := env.svc.CreateIssueForTicket(ctx, testUser("adm", domain.RoleAdmin), ticket.ID)
		require.NoError(t, err)
		require.Equal(t, "api-token", gotToken)
		require.NotNil(t, linked.Gitlab.IssueIID)
		require.Equal(t, int64(7), *linked.Gitlab.IssueIID)

		_, err = env.svc.CreateIssueForTicket(ctx, testUser("adm", domain.RoleAdmin), ticket.ID)
		require.Error(t, err)
		require.Equal(t, "CONFLICT", domainCode(t, err))
	})
}

func issueURL(r *http.Request) string {
	return "http://" + r.Host + "/issues/7"
}
