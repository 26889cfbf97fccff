package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"car-showroom/internal/domain"
	"car-showroom/internal/money"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

// PrefixSentinel is appended to a search term to form the upper bound of a
// prefix range. It sorts after every character a listing name is expected
// to contain.
const PrefixSentinel = "\uf8ff"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var listingColumns = []string{
	"id", "name", "model", "color", "year", "km", "city", "whatsapp",
	"description", "destaque", "price", "images", "uid", "created",
}

// ListingQuery selects listings. The zero value returns every listing in
// store order.
type ListingQuery struct {
	FeaturedOnly   bool
	NamePrefix     string
	OrderByCreated bool
}

// ListingRepository defines the interface for listing document access
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	Update(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.ListingDocument, error)
	List(ctx context.Context, q ListingQuery) ([]*domain.ListingDocument, error)
}

type listingRepository struct {
	db *sql.DB
}

// NewListingRepository creates a new instance of ListingRepository
func NewListingRepository(db *sql.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create inserts a new listing. The store assigns the identifier and the
// creation timestamp, both written back into listing.
func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	images, err := encodeImages(listing.Images)
	if err != nil {
		return err
	}

	values := writableColumns(listing, images)
	values["uid"] = nullIfEmpty(listing.OwnerUID)

	var id uuid.UUID
	err = psql.Insert("cars").
		SetMap(values).
		Suffix("RETURNING id, created").
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&id, &listing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	listing.ID = id.String()
	return nil
}

// Update overwrites the listing's fields. The creation timestamp and owner
// are left untouched.
func (r *listingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	id, err := uuid.Parse(listing.ID)
	if err != nil {
		return ErrListingNotFound
	}

	images, err := encodeImages(listing.Images)
	if err != nil {
		return err
	}

	result, err := psql.Update("cars").
		SetMap(writableColumns(listing, images)).
		Where(sq.Eq{"id": id.String()}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	return requireOneRow(result)
}

// Delete removes a listing document
func (r *listingRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrListingNotFound
	}

	result, err := psql.Delete("cars").
		Where(sq.Eq{"id": parsed.String()}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	return requireOneRow(result)
}

// FindByID retrieves a listing document by its store-assigned identifier
func (r *listingRepository) FindByID(ctx context.Context, id string) (*domain.ListingDocument, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrListingNotFound
	}

	query, args, err := psql.Select(listingColumns...).
		From("cars").
		Where(sq.Eq{"id": parsed.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing query: %w", err)
	}

	doc, err := scanListing(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}

	return doc, nil
}

// List returns the listings selected by q.
//
// A name prefix is matched as the half-open range [prefix, prefix+sentinel]
// compared byte-wise (COLLATE "C"), so the result only depends on the stored
// upper-cased names and not on the database locale.
func (r *listingRepository) List(ctx context.Context, q ListingQuery) ([]*domain.ListingDocument, error) {
	builder := psql.Select(listingColumns...).From("cars")

	if q.FeaturedOnly {
		builder = builder.Where(sq.Eq{"destaque": string(domain.Featured)})
	}
	if q.NamePrefix != "" {
		builder = builder.
			Where(sq.Expr(`name COLLATE "C" >= ?`, q.NamePrefix)).
			Where(sq.Expr(`name COLLATE "C" <= ?`, q.NamePrefix+PrefixSentinel))
	}
	if q.OrderByCreated {
		builder = builder.OrderBy("created DESC NULLS LAST")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	docs := []*domain.ListingDocument{}
	for rows.Next() {
		doc, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*domain.ListingDocument, error) {
	var (
		id                                   uuid.UUID
		name, model, color, year, km, city   sql.NullString
		whatsapp, description, destaque, uid sql.NullString
		price                                sql.NullInt64
		images                               []byte
		created                              sql.NullTime
	)

	err := row.Scan(
		&id, &name, &model, &color, &year, &km, &city, &whatsapp,
		&description, &destaque, &price, &images, &uid, &created,
	)
	if err != nil {
		return nil, err
	}

	doc := &domain.ListingDocument{
		ID:          id.String(),
		Name:        stringPtr(name),
		Model:       stringPtr(model),
		Color:       stringPtr(color),
		Year:        stringPtr(year),
		Km:          stringPtr(km),
		City:        stringPtr(city),
		WhatsApp:    stringPtr(whatsapp),
		Description: stringPtr(description),
		Featured:    stringPtr(destaque),
		OwnerUID:    stringPtr(uid),
	}
	if price.Valid {
		amount := money.Amount(price.Int64)
		doc.Price = &amount
	}
	if created.Valid {
		t := created.Time
		doc.Created = &t
	}
	if images != nil {
		if err := json.Unmarshal(images, &doc.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %w", err)
		}
	}

	return doc, nil
}

func writableColumns(listing *domain.Listing, images string) map[string]interface{} {
	return map[string]interface{}{
		"name":        listing.Name,
		"model":       listing.Model,
		"color":       listing.Color,
		"year":        listing.Year,
		"km":          listing.Km,
		"city":        listing.City,
		"whatsapp":    listing.WhatsApp,
		"description": listing.Description,
		"destaque":    nullIfEmpty(string(listing.Featured)),
		"price":       int64(listing.Price),
		"images":      sq.Expr("?::jsonb", images),
	}
}

func encodeImages(images []domain.ImageRef) (string, error) {
	if images == nil {
		images = []domain.ImageRef{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(b), nil
}

func requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
