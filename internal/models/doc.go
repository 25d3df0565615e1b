// Package models defines the core domain models for the tanabota backend.
//
// # Model groups
//
//   - User, Preference: account and onboarding data
//   - Trigger, Action, Rule, Recipe (+ their templates): the rule catalog.
//     Templates are shared master data; copying a recipe template instantiates
//     per-user Rules with a snapshot of the template's parameter bags.
//   - TanabotaTransaction, TanabotaActionLog: the immutable settlement ledger
//   - PaymentEvent: the ephemeral input to one settlement, never persisted
//
// # Design principles
//
//  1. **Integer yen**: every monetary value is an int64 in yen. There are no
//     fractional amounts anywhere in the system.
//  2. **Snapshots over references**: a ledger log row copies the action's
//     parameter bag at firing time so later rule edits never rewrite history.
//  3. **Avoid circular references**: models hold ID fields instead of
//     pointers for relationships.
package models
