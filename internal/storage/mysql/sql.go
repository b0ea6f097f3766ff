package mysql

const reservationColumns = "id, email, full_name, status, checkin, checkout"

const upsertReservationSQL = `
INSERT INTO reservations
  (id, email, full_name, status, checkin, checkout)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  email      = VALUES(email),
  full_name  = VALUES(full_name),
  status     = VALUES(status),
  checkin    = VALUES(checkin),
  checkout   = VALUES(checkout),
  updated_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const findByIDSQL = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE id = ?
`

const findByIDAndStatusSQL = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE id = ? AND status = ?
`

// Closed-interval intersection: covers checkin in range, checkout in range, and
// a stay that encloses the whole range. Args: status, end, start.
const findOverlapCandidatesSQL = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE status = ?
  AND checkin <= ?
  AND checkout >= ?
ORDER BY checkin, id
`

// Appended to findOverlapCandidatesSQL when the caller is about to write.
const forUpdate = " FOR UPDATE"

// Takes the per-campsite guard row first; InnoDB gap locks on an empty range are
// shared between transactions and would let two writers deadlock instead of queue.
const lockGuardSQL = `SELECT id FROM campsite_guard WHERE id = 1 FOR UPDATE`
