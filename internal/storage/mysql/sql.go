package mysql

// -----------------------------------------------------------------------------
// BOOKING WRITES
// -----------------------------------------------------------------------------

const insertBookingSQL = `
INSERT INTO bookings
  (property_id, check_in_date, check_out_date, guests, client_name, client_phone, status, origin)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const setBookingStatusSQL = `UPDATE bookings SET status = ? WHERE id = ?`

// MySQL reports 0 affected rows both for a missing id and for a no-op update
// to the same status, so idempotent transitions re-check existence.
const bookingExistsSQL = `SELECT 1 FROM bookings WHERE id = ?`

// Import rows live and die with the import batch, not with admin deletes.
const deleteBookingSQL = `DELETE FROM bookings WHERE id = ? AND origin = 'user'`

// Confirm path: lock the target row, then count gating overlaps while
// holding locks on them so a concurrent confirm of an overlapping pending
// booking serializes behind this transaction.
const lockBookingSQL = `
SELECT property_id, check_in_date, check_out_date, status
FROM bookings
WHERE id = ?
FOR UPDATE
`

const countGatingOverlapsSQL = `
SELECT COUNT(*)
FROM bookings
WHERE property_id = ?
  AND id <> ?
  AND status IN ('confirmed','blocked')
  AND check_in_date < ?
  AND check_out_date > ?
FOR UPDATE
`

// Import replace: prior import rows for the affected properties go away in
// the same transaction that inserts the fresh batch.
const deleteImportRangesPrefix = `
DELETE FROM bookings
WHERE origin = 'import' AND property_id IN `

const insertImportRangesPrefix = `
INSERT INTO bookings
  (property_id, check_in_date, check_out_date, status, origin)
VALUES `

// -----------------------------------------------------------------------------
// BOOKING READS
// -----------------------------------------------------------------------------

const getBookingSQL = `
SELECT b.id, b.property_id, b.check_in_date, b.check_out_date, b.guests,
       b.client_name, b.client_phone, b.status, b.origin, b.created_at,
       p.name
FROM bookings b
JOIN properties p ON p.id = b.property_id
WHERE b.id = ?
`

const listGatingIntervalsSQL = `
SELECT check_in_date, check_out_date
FROM bookings
WHERE property_id = ?
  AND status IN ('confirmed','blocked')
  AND check_out_date > ?
ORDER BY check_in_date, id
`

const unavailablePropertyIDsSQL = `
SELECT DISTINCT property_id
FROM bookings
WHERE status IN ('confirmed','blocked')
  AND check_in_date < ?
  AND check_out_date > ?
`

// Inquiry lists never show import-derived rows; those are calendar noise,
// not guest requests.
const listInquiriesBase = `
SELECT b.id, b.property_id, b.check_in_date, b.check_out_date, b.guests,
       b.client_name, b.client_phone, b.status, b.origin, b.created_at,
       p.name
FROM bookings b
JOIN properties p ON p.id = b.property_id
WHERE b.origin <> 'import'
`

const countInquiriesBase = `
SELECT COUNT(*)
FROM bookings b
JOIN properties p ON p.id = b.property_id
WHERE b.origin <> 'import'
`

// -----------------------------------------------------------------------------
// INVENTORY READS
// -----------------------------------------------------------------------------

const getPropertySQL = `
SELECT id, slug, name, category, guests, map_node_id, featured
FROM properties
WHERE id = ?
`

const listPropertiesBase = `
SELECT id, slug, name, category, guests, map_node_id, featured
FROM properties
`

const propertyAmenitiesPrefix = `
SELECT pa.property_id, a.id, a.slug, a.name, a.category
FROM property_amenities pa
JOIN amenities a ON a.id = pa.amenity_id
WHERE pa.property_id IN `

const resolveAmenitiesPrefix = `
SELECT id, slug, name, category
FROM amenities
WHERE slug IN `

const propertyIDsWithAllAmenitiesSuffix = `
GROUP BY property_id
HAVING COUNT(DISTINCT amenity_id) = ?
`

const mapNodesPrefix = `
SELECT map_node_id, id
FROM properties
WHERE map_node_id IN `
