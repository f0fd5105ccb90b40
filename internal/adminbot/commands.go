package adminbot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"groupfarm/internal/storage"
)

func (b *Bot) register() {
	b.bot.Use(b.restrict)

	b.bot.Handle("/start", b.cmdHelp)
	b.bot.Handle("/help", b.cmdHelp)
	b.bot.Handle("/status", b.cmdStatus)
	b.bot.Handle("/accounts", b.cmdAccounts)
	b.bot.Handle("/errors", b.cmdErrors)
	b.bot.Handle("/on", b.cmdSchedulerOn)
	b.bot.Handle("/off", b.cmdSchedulerOff)
	b.bot.Handle("/toggle", b.cmdToggle)
	b.bot.Handle("/delete", b.cmdDelete)
	b.bot.Handle("/proxy", b.cmdProxy)
	b.bot.Handle("/add", b.cmdAdd)

	_ = b.bot.SetCommands([]tele.Command{
		{Text: "status", Description: "Global stats and scheduler state"},
		{Text: "accounts", Description: "List accounts"},
		{Text: "errors", Description: "Latest error log entries"},
		{Text: "on", Description: "Resume the scheduler"},
		{Text: "off", Description: "Pause the scheduler"},
		{Text: "toggle", Description: "Toggle an account: /toggle <id>"},
		{Text: "delete", Description: "Delete an account: /delete <id>"},
		{Text: "proxy", Description: "Set proxy: /proxy <id> host:port [user pass]"},
		{Text: "add", Description: "Add account: /add <phone> <session_file> [label]"},
	})
}

func (b *Bot) cmdHelp(c tele.Context) error {
	return c.Send(helpText)
}

func (b *Bot) cmdStatus(c tele.Context) error {
	ctx, cancel := cmdCtx()
	defer cancel()
	stats, err := b.store.GlobalStats(ctx)
	if err != nil {
		return c.Send("stats query failed: " + err.Error())
	}
	return c.Send(formatStatus(stats, b.ctl.IsRunning()))
}

func (b *Bot) cmdAccounts(c tele.Context) error {
	ctx, cancel := cmdCtx()
	defer cancel()
	accounts, err := b.store.ListAccounts(ctx, false)
	if err != nil {
		return c.Send("account query failed: " + err.Error())
	}
	return c.Send(formatAccounts(accounts))
}

func (b *Bot) cmdErrors(c tele.Context) error {
	ctx, cancel := cmdCtx()
	defer cancel()
	recs, err := b.store.LatestErrors(ctx, 10)
	if err != nil {
		return c.Send("error query failed: " + err.Error())
	}
	return c.Send(formatErrors(recs))
}

func (b *Bot) cmdSchedulerOn(c tele.Context) error {
	b.ctl.Resume()
	b.log.Info().Int64("by", c.Sender().ID).Msg("scheduler resumed by operator")
	return c.Send("▶️ Scheduler running")
}

func (b *Bot) cmdSchedulerOff(c tele.Context) error {
	b.ctl.Pause()
	b.log.Info().Int64("by", c.Sender().ID).Msg("scheduler paused by operator")
	return c.Send("⏸ Scheduler paused")
}

func (b *Bot) cmdToggle(c tele.Context) error {
	id, err := argID(c)
	if err != nil {
		return c.Send("usage: /toggle <account_id>")
	}
	ctx, cancel := cmdCtx()
	defer cancel()
	acc, err := b.store.ToggleAccount(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Send("no such account")
	}
	if err != nil {
		return c.Send("toggle failed: " + err.Error())
	}
	if !acc.Active {
		// Torn-down sessions are re-dialed on re-enable.
		b.pool.Drop(acc.ID)
		return c.Send("🔴 Account " + acc.Phone + " disabled")
	}
	return c.Send("🟢 Account " + acc.Phone + " enabled")
}

func (b *Bot) cmdDelete(c tele.Context) error {
	id, err := argID(c)
	if err != nil {
		return c.Send("usage: /delete <account_id>")
	}
	ctx, cancel := cmdCtx()
	defer cancel()
	ok, err := b.store.DeleteAccount(ctx, id)
	if err != nil {
		return c.Send("delete failed: " + err.Error())
	}
	if !ok {
		return c.Send("no such account")
	}
	b.pool.Drop(id)
	return c.Send("🗑 Account deleted")
}

// cmdProxy sets or clears an account proxy:
//
//	/proxy <id> host:port [user pass]
//	/proxy <id> off
func (b *Bot) cmdProxy(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("usage: /proxy <id> host:port [user pass] | /proxy <id> off")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("bad account id")
	}

	var p storage.ProxyConfig
	if !strings.EqualFold(args[1], "off") {
		host, portStr, ok := strings.Cut(args[1], ":")
		if !ok {
			return c.Send("expected host:port")
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return c.Send("bad port")
		}
		p = storage.ProxyConfig{Host: host, Port: port}
		if len(args) >= 4 {
			p.Username, p.Password = args[2], args[3]
		}
	}

	ctx, cancel := cmdCtx()
	defer cancel()
	if err := b.store.UpdateProxy(ctx, id, p); err != nil {
		return c.Send("proxy update failed: " + err.Error())
	}
	// Reconnect with the new proxy on next use.
	b.pool.Drop(id)
	if p.Configured() {
		return c.Send("🌐 Proxy updated")
	}
	return c.Send("🌐 Proxy cleared")
}

func (b *Bot) cmdAdd(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("usage: /add <phone> <session_file> [label]")
	}
	phone, sessionFile := args[0], args[1]
	label := ""
	if len(args) >= 3 {
		label = strings.Join(args[2:], " ")
	}

	ctx, cancel := cmdCtx()
	defer cancel()
	id, err := b.store.AddAccount(ctx, phone, sessionFile, label)
	if err != nil {
		return c.Send("add failed: " + err.Error())
	}
	b.log.Info().Int64("account", id).Str("phone", phone).Msg("account added by operator")
	return c.Send("✅ Account " + phone + " added with id " + strconv.FormatInt(id, 10))
}

func argID(c tele.Context) (int64, error) {
	args := c.Args()
	if len(args) != 1 {
		return 0, errors.New("expected one argument")
	}
	return strconv.ParseInt(args[0], 10, 64)
}

func cmdCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}
