// Package state stores per-user conversation sessions for Telegram bots.
// A session is a small typed document owned by the bot; this package only
// persists it, keyed by Telegram user id, in memory or in Redis.
package state
