// Package taskengine implements the task-unit lifecycle engine inside the
// task-lifecycle context.
//
// The module owns project atomization, the task-unit state machine
// (accept/submit/verify), peer-consensus tallying, settlement, and dispute
// escalation. It keeps business rules in application/domain layers and
// isolates infrastructure concerns behind ports and adapters.
package taskengine
