package adminbot

import (
	"fmt"
	"strings"

	"groupfarm/internal/storage"
)

const helpText = `Commands:
/status — global stats and scheduler state
/accounts — list accounts
/errors — latest error log entries
/on | /off — resume or pause the scheduler
/toggle <id> — enable/disable an account
/delete <id> — delete an account
/proxy <id> host:port [user pass] — set account proxy (/proxy <id> off clears)
/add <phone> <session_file> [label] — register an account`

func formatStatus(st storage.Stats, running bool) string {
	var b strings.Builder
	if running {
		b.WriteString("▶️ Scheduler: running\n")
	} else {
		b.WriteString("⏸ Scheduler: paused\n")
	}
	fmt.Fprintf(&b, "👥 Accounts: %d total, %d active\n", st.TotalAccounts, st.ActiveAccounts)
	fmt.Fprintf(&b, "📦 Groups created: %d", st.TotalGroups)
	return b.String()
}

func formatAccounts(accounts []storage.Account) string {
	if len(accounts) == 0 {
		return "No accounts."
	}
	var b strings.Builder
	for _, acc := range accounts {
		state := "🟢"
		if !acc.Active {
			state = "🔴"
		}
		fmt.Fprintf(&b, "%s #%d %s — %d groups", state, acc.ID, acc.Phone, acc.CreatedGroups)
		if acc.Proxy.Configured() {
			b.WriteString(" 🌐")
		}
		if !acc.Active && acc.DisabledReason != "" {
			fmt.Fprintf(&b, "\n   reason: %s", acc.DisabledReason)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatErrors(recs []storage.ErrorRecord) string {
	if len(recs) == 0 {
		return "No errors logged."
	}
	var b strings.Builder
	for _, rec := range recs {
		fmt.Fprintf(&b, "[%s] %s", rec.CreatedAt.Format("01-02 15:04"), rec.Context)
		if rec.AccountID != nil {
			fmt.Fprintf(&b, " (account %d)", *rec.AccountID)
		}
		text := rec.Text
		if len(text) > 200 {
			text = text[:200] + "…"
		}
		fmt.Fprintf(&b, ": %s\n", text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDigest(st storage.Stats, running bool) string {
	var b strings.Builder
	b.WriteString("📊 Daily digest\n")
	b.WriteString(formatStatus(st, running))
	disabled := 0
	for _, acc := range st.Accounts {
		if !acc.Active {
			disabled++
		}
	}
	if disabled > 0 {
		fmt.Fprintf(&b, "\n🔴 Disabled accounts: %d", disabled)
	}
	return b.String()
}
