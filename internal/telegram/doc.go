// Package telegram implements the provider boundary over MTProto user
// sessions (gotd/td): a per-account connection cache with dial-on-miss and
// explicit teardown, group creation and message delivery, per-account SOCKS5
// proxies, and service-message forwarding.
//
// Sessions are provisioned out of band as authorized session files; this
// package never performs interactive login.
package telegram
