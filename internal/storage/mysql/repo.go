package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chalet_booking/internal/domain"
)

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// placeholders renders "(?,?,...,?)" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return "(NULL)"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- booking writes ----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.PropertyID,
		b.CheckIn,
		b.CheckOut,
		valInt(b.Guests),
		b.ClientName,
		b.ClientPhone,
		string(b.Status),
		string(b.Origin),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateBookingStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, setBookingStatusSQL, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, bookingExistsSQL, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		// Row exists with the requested status already; repeat transitions
		// are fine.
	}
	return nil
}

func (r *Repo) DeleteBooking(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteBookingSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) ConfirmBookingIfAvailable(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		propertyID        int64
		checkIn, checkOut time.Time
		status            string
	)
	err = tx.QueryRowContext(ctx, lockBookingSQL, id).Scan(&propertyID, &checkIn, &checkOut, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if status == string(domain.StatusConfirmed) {
		return tx.Commit() // already confirmed; idempotent
	}

	var overlaps int
	if err := tx.QueryRowContext(ctx, countGatingOverlapsSQL, propertyID, id, checkOut, checkIn).Scan(&overlaps); err != nil {
		return err
	}
	if overlaps > 0 {
		return fmt.Errorf("booking %d: %w", id, domain.ErrConflict)
	}
	if _, err := tx.ExecContext(ctx, setBookingStatusSQL, string(domain.StatusConfirmed), id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) ReplaceImportRanges(ctx context.Context, propertyIDs []int64, batch []domain.ImportRange) error {
	if len(propertyIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	delArgs := make([]any, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		delArgs = append(delArgs, id)
	}
	if _, err := tx.ExecContext(ctx, deleteImportRangesPrefix+placeholders(len(propertyIDs)), delArgs...); err != nil {
		return err
	}

	if len(batch) > 0 {
		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*3)
		for _, ir := range batch {
			values = append(values, "(?,?,?,'blocked','import')")
			args = append(args, ir.PropertyID, ir.Start, ir.End)
		}
		if _, err := tx.ExecContext(ctx, insertImportRangesPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---- booking reads ----

func scanBooking(scan func(dest ...any) error) (domain.Booking, error) {
	var (
		b      domain.Booking
		guests sql.NullInt64
		status string
		origin string
	)
	if err := scan(
		&b.ID,
		&b.PropertyID,
		&b.CheckIn,
		&b.CheckOut,
		&guests,
		&b.ClientName,
		&b.ClientPhone,
		&status,
		&origin,
		&b.CreatedAt,
		&b.PropertyName,
	); err != nil {
		return domain.Booking{}, err
	}
	if guests.Valid {
		g := int(guests.Int64)
		b.Guests = &g
	}
	b.Status = domain.BookingStatus(status)
	b.Origin = domain.BookingOrigin(origin)
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, getBookingSQL, id)
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) ListGatingIntervals(ctx context.Context, propertyID int64, from time.Time) ([]domain.OccupiedRange, error) {
	rows, err := r.db.QueryContext(ctx, listGatingIntervalsSQL, propertyID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OccupiedRange
	for rows.Next() {
		var oc domain.OccupiedRange
		if err := rows.Scan(&oc.Start, &oc.End); err != nil {
			return nil, err
		}
		out = append(out, oc)
	}
	return out, rows.Err()
}

func (r *Repo) UnavailablePropertyIDs(ctx context.Context, start, end time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, unavailablePropertyIDsSQL, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var inquirySortColumns = map[string]string{
	"created_at":  "b.created_at",
	"client_name": "b.client_name",
	"status":      "b.status",
}

func (r *Repo) ListInquiries(ctx context.Context, q domain.InquiriesQuery) (domain.InquiriesPage, error) {
	var (
		where strings.Builder
		args  []any
	)
	if q.Status != nil {
		where.WriteString(" AND b.status = ?")
		args = append(args, string(*q.Status))
	}
	if q.Query != "" {
		where.WriteString(" AND (b.client_name LIKE ? OR b.client_phone LIKE ? OR p.name LIKE ?)")
		needle := "%" + q.Query + "%"
		args = append(args, needle, needle, needle)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countInquiriesBase+where.String(), args...).Scan(&total); err != nil {
		return domain.InquiriesPage{}, err
	}

	sortCol, ok := inquirySortColumns[q.SortBy]
	if !ok {
		sortCol = "b.created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	listSQL := fmt.Sprintf("%s%s ORDER BY %s %s, b.id %s LIMIT ? OFFSET ?",
		listInquiriesBase, where.String(), sortCol, dir, dir)
	args = append(args, limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return domain.InquiriesPage{}, err
	}
	defer rows.Close()

	var items []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return domain.InquiriesPage{}, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return domain.InquiriesPage{}, err
	}
	return domain.InquiriesPage{Items: items, Total: total}, nil
}

// ---- inventory reads ----

func scanProperty(scan func(dest ...any) error) (domain.Property, error) {
	var (
		p       domain.Property
		guests  sql.NullInt64
		mapNode sql.NullString
	)
	if err := scan(&p.ID, &p.Slug, &p.Name, &p.Category, &guests, &mapNode, &p.Featured); err != nil {
		return domain.Property{}, err
	}
	if guests.Valid {
		g := int(guests.Int64)
		p.Guests = &g
	}
	if mapNode.Valid {
		n := mapNode.String
		p.MapNodeID = &n
	}
	return p, nil
}

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	row := r.db.QueryRowContext(ctx, getPropertySQL, id)
	p, err := scanProperty(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Property{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Property{}, err
	}
	if err := r.attachAmenities(ctx, []*domain.Property{&p}); err != nil {
		return domain.Property{}, err
	}
	return p, nil
}

func (r *Repo) ListProperties(ctx context.Context, q domain.PropertiesQuery) ([]domain.Property, error) {
	var (
		conds []string
		args  []any
	)
	if q.MinGuests != nil {
		// NULL capacity never satisfies the comparison; unknown capacity
		// fails an active guest filter.
		conds = append(conds, "guests >= ?")
		args = append(args, *q.MinGuests)
	}
	if q.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, *q.Category)
	}
	if q.Featured != nil {
		conds = append(conds, "featured = ?")
		args = append(args, *q.Featured)
	}
	listSQL := listPropertiesBase
	if len(conds) > 0 {
		listSQL += " WHERE " + strings.Join(conds, " AND ")
	}
	listSQL += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*domain.Property, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachAmenities(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) attachAmenities(ctx context.Context, props []*domain.Property) error {
	if len(props) == 0 {
		return nil
	}
	args := make([]any, 0, len(props))
	byID := make(map[int64]*domain.Property, len(props))
	for _, p := range props {
		args = append(args, p.ID)
		byID[p.ID] = p
	}

	rows, err := r.db.QueryContext(ctx, propertyAmenitiesPrefix+placeholders(len(props))+" ORDER BY a.category, a.name", args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			propID int64
			a      domain.Amenity
		)
		if err := rows.Scan(&propID, &a.ID, &a.Slug, &a.Name, &a.Category); err != nil {
			return err
		}
		if p, ok := byID[propID]; ok {
			p.Amenities = append(p.Amenities, a)
		}
	}
	return rows.Err()
}

func (r *Repo) ResolveAmenities(ctx context.Context, slugs []string) ([]domain.Amenity, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(slugs))
	for _, s := range slugs {
		args = append(args, s)
	}
	rows, err := r.db.QueryContext(ctx, resolveAmenitiesPrefix+placeholders(len(slugs)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Amenity
	for rows.Next() {
		var a domain.Amenity
		if err := rows.Scan(&a.ID, &a.Slug, &a.Name, &a.Category); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) PropertyIDsWithAllAmenities(ctx context.Context, amenityIDs []int64) ([]int64, error) {
	if len(amenityIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(amenityIDs)+1)
	for _, id := range amenityIDs {
		args = append(args, id)
	}
	args = append(args, len(amenityIDs))

	query := "SELECT property_id FROM property_amenities WHERE amenity_id IN " +
		placeholders(len(amenityIDs)) + propertyIDsWithAllAmenitiesSuffix
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) MapNodes(ctx context.Context, nodeIDs []string) (map[string]int64, error) {
	if len(nodeIDs) == 0 {
		return map[string]int64{}, nil
	}
	args := make([]any, 0, len(nodeIDs))
	for _, n := range nodeIDs {
		args = append(args, n)
	}
	rows, err := r.db.QueryContext(ctx, mapNodesPrefix+placeholders(len(nodeIDs)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64, len(nodeIDs))
	for rows.Next() {
		var (
			node string
			id   int64
		)
		if err := rows.Scan(&node, &id); err != nil {
			return nil, err
		}
		out[node] = id
	}
	return out, rows.Err()
}
