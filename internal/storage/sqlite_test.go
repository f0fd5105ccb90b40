package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAccountLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.AddAccount(ctx, "+79991234567", "session_79991234567.session", "worker-1")
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}

	acc, err := s.Account(ctx, id)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if !acc.Active || acc.Phone != "+79991234567" || acc.Label != "worker-1" {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if acc.CreatedGroups != 0 || acc.FirstActivityAt != nil || acc.LastGroupAt != nil {
		t.Fatalf("fresh account has activity: %+v", acc)
	}

	if _, err := s.AccountByPhone(ctx, "+79991234567"); err != nil {
		t.Fatalf("AccountByPhone: %v", err)
	}
	if _, err := s.AccountByPhone(ctx, "+0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Duplicate phone is rejected by the unique constraint.
	if _, err := s.AddAccount(ctx, "+79991234567", "x.session", ""); err == nil {
		t.Fatal("expected duplicate phone error")
	}

	acc, err = s.ToggleAccount(ctx, id)
	if err != nil {
		t.Fatalf("ToggleAccount: %v", err)
	}
	if acc.Active {
		t.Fatal("expected disabled after toggle")
	}
	if acc.DisabledReason == "" {
		t.Fatal("operator disable should record a reason")
	}
	acc, err = s.ToggleAccount(ctx, id)
	if err != nil {
		t.Fatalf("ToggleAccount: %v", err)
	}
	if !acc.Active || acc.DisabledReason != "" {
		t.Fatalf("re-enable should clear reason: %+v", acc)
	}

	ok, err := s.DeleteAccount(ctx, id)
	if err != nil || !ok {
		t.Fatalf("DeleteAccount: ok=%v err=%v", ok, err)
	}
	ok, err = s.DeleteAccount(ctx, id)
	if err != nil || ok {
		t.Fatalf("double delete: ok=%v err=%v", ok, err)
	}
}

func TestListAccountsOrderAndFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	a, _ := s.AddAccount(ctx, "+1000", "a.session", "")
	b, _ := s.AddAccount(ctx, "+2000", "b.session", "")
	c, _ := s.AddAccount(ctx, "+3000", "c.session", "")
	if err := s.DisableAccount(ctx, b, "Exceeded maximum active days"); err != nil {
		t.Fatalf("DisableAccount: %v", err)
	}

	all, err := s.ListAccounts(ctx, false)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(all) != 3 || all[0].ID != a || all[1].ID != b || all[2].ID != c {
		t.Fatalf("unexpected order: %+v", all)
	}

	active, err := s.ListAccounts(ctx, true)
	if err != nil {
		t.Fatalf("ListAccounts active: %v", err)
	}
	if len(active) != 2 || active[0].ID != a || active[1].ID != c {
		t.Fatalf("unexpected active set: %+v", active)
	}
	disabled, _ := s.Account(ctx, b)
	if disabled.DisabledReason != "Exceeded maximum active days" {
		t.Fatalf("reason = %q", disabled.DisabledReason)
	}
}

func TestGroupCommitSequence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	accID, _ := s.AddAccount(ctx, "+1000", "a.session", "")
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	groupID, err := s.CreateGroup(ctx, accID, "chat-1", "ACC01 • G001 • 2026-08-29", now)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	// Creation is durable before seeding: messages_sent starts at 0 and the
	// account's counter is untouched.
	g, err := s.Group(ctx, groupID)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if g.MessagesSent != 0 || g.ChatID != "chat-1" || !g.CreatedAt.Equal(now) {
		t.Fatalf("unexpected group: %+v", g)
	}
	acc, _ := s.Account(ctx, accID)
	if acc.CreatedGroups != 0 {
		t.Fatalf("CreatedGroups = %d before completion", acc.CreatedGroups)
	}

	if err := s.SetGroupMessages(ctx, groupID, 10); err != nil {
		t.Fatalf("SetGroupMessages: %v", err)
	}
	if err := s.IncrementGroupCount(ctx, accID); err != nil {
		t.Fatalf("IncrementGroupCount: %v", err)
	}
	if err := s.UpdateActivity(ctx, accID, now, now); err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}

	g, _ = s.Group(ctx, groupID)
	if g.MessagesSent != 10 {
		t.Fatalf("MessagesSent = %d", g.MessagesSent)
	}
	acc, _ = s.Account(ctx, accID)
	if acc.CreatedGroups != 1 {
		t.Fatalf("CreatedGroups = %d", acc.CreatedGroups)
	}
	if acc.FirstActivityAt == nil || !acc.FirstActivityAt.Equal(now) {
		t.Fatalf("FirstActivityAt = %v", acc.FirstActivityAt)
	}
}

func TestUpdateActivityKeepsFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	accID, _ := s.AddAccount(ctx, "+1000", "a.session", "")
	first := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	later := first.Add(2 * time.Hour)

	if err := s.UpdateActivity(ctx, accID, first, first); err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}
	if err := s.UpdateActivity(ctx, accID, later, later); err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}

	acc, _ := s.Account(ctx, accID)
	if acc.FirstActivityAt == nil || !acc.FirstActivityAt.Equal(first) {
		t.Fatalf("FirstActivityAt = %v, want unchanged %v", acc.FirstActivityAt, first)
	}
	if acc.LastGroupAt == nil || !acc.LastGroupAt.Equal(later) {
		t.Fatalf("LastGroupAt = %v, want %v", acc.LastGroupAt, later)
	}
}

func TestErrorLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	accID, _ := s.AddAccount(ctx, "+1000", "a.session", "")

	long := strings.Repeat("x", errorTextCap+500)
	if err := s.AppendError(ctx, ErrorRecord{AccountID: &accID, Context: "provisioning", Text: long}); err != nil {
		t.Fatalf("AppendError: %v", err)
	}
	if err := s.AppendError(ctx, ErrorRecord{Context: "scheduler_main_loop", Text: "boom"}); err != nil {
		t.Fatalf("AppendError: %v", err)
	}

	recs, err := s.LatestErrors(ctx, 10)
	if err != nil {
		t.Fatalf("LatestErrors: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	// Newest first.
	if recs[0].Context != "scheduler_main_loop" || recs[0].AccountID != nil {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].AccountID == nil || *recs[1].AccountID != accID {
		t.Fatalf("unexpected account id: %+v", recs[1])
	}
	if len(recs[1].Text) != errorTextCap {
		t.Fatalf("text length = %d, want cap %d", len(recs[1].Text), errorTextCap)
	}
}

func TestGlobalStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	a, _ := s.AddAccount(ctx, "+1000", "a.session", "")
	b, _ := s.AddAccount(ctx, "+2000", "b.session", "")
	_ = s.IncrementGroupCount(ctx, a)
	_ = s.IncrementGroupCount(ctx, a)
	_ = s.IncrementGroupCount(ctx, b)
	_ = s.DisableAccount(ctx, b, "Exceeded Telegram limit for channels/groups")

	st, err := s.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}
	if st.TotalAccounts != 2 || st.ActiveAccounts != 1 || st.TotalGroups != 3 {
		t.Fatalf("stats = %+v", st)
	}
	if len(st.Accounts) != 2 {
		t.Fatalf("accounts = %d", len(st.Accounts))
	}
}
