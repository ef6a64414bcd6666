// Package projectservice owns the enterprise project aggregate: creation,
// escrow funding, and the audit trail. Atomization and unit progress are
// driven by the task engine against the same project rows.
package projectservice
