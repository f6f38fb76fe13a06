// Package store provides SQLite-backed storage for the ISMS-P
// compliance core: the requirement catalog, the append-only evidence
// log, keyword search, and the compliance aggregates computed over
// them.
//
// # Schema adaptation
//
// The requirement catalog tolerates multiple physical shapes. On first
// use the store probes for them in fixed priority order:
//
//  1. a canonical isms_requirements table (or caller-provided view)
//  2. an alternate normalized pair (controls + control_sections), over
//     which a read-only compatibility view is synthesized
//  3. nothing usable: catalog operations fail with SCHEMA_MISSING
//
// The probe result is cached per store handle. All provisioning is
// check-then-create; repeated calls never duplicate or replace
// caller-provided objects.
//
// # Invariants
//
//   - evidence rows reference an existing catalog item_code, enforced in
//     the insert transaction (no SQL foreign key — the catalog may be a
//     view)
//   - evidences.updated_at auto-advances on any mutation via a trigger
//     whose WHEN guard prevents self-recursion
//   - the trigram FTS shadow, when maintainable, is updated by triggers
//     inside the same transaction as the catalog write it mirrors
//   - aggregates are recomputed per call, never cached
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000 plus bounded statement-level retry with backoff
//   - foreign_keys=ON
package store
