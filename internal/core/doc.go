// Package core provides the catalog session behind the admin console.
//
// This package ties the catalog pipeline together independent of any
// transport. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// A [Service] owns one in-memory record set and one selection:
//
//   - Refresh and Watch replace the set wholesale from the document store.
//   - Query and Export run the filter/sort engine over the set.
//   - Save, Delete and the bulk operations write to the store first and
//     then apply the outcome to the set. Bulk delete is the exception: it
//     removes locally before the store confirms.
//   - Import parses a CSV or XLSX file, normalizes every row and creates
//     the accepted records concurrently.
//
// # Reconciliation
//
// Local state may diverge from the store after a partial failure. Any bulk
// operation that reports failures triggers a synchronous Refresh, and
// [Service.StartReconcileScheduler] refreshes on an interval.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB006: Store errors (duplicates, missing records, connections)
//   - IMP001-IMP004: Import and validation errors
//   - FILE001-FILE005: File errors (size, format)
//   - BLOB001-BLOB002: Thumbnail upload errors
//   - AUTH001-AUTH002: Authentication and role errors
//
// # Audit Logging
//
// Every import, save, delete, bulk operation and export is recorded in the
// audit_log collection with a severity:
//
//   - Low: Exports
//   - Medium: Single saves
//   - High: Imports, deletes, bulk status changes
//   - Critical: Bulk deletes, user approval changes
package core
