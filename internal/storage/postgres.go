package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentradar/scraper-api/internal/model"
)

// Sink is the downstream persistence target for extracted records. Sink
// failures never retroactively fail a completed job.
type Sink interface {
	SaveProperty(ctx context.Context, jobID string, record *model.PropertyRecord) error
}

const schema = `
CREATE TABLE IF NOT EXISTS properties (
	id BIGSERIAL PRIMARY KEY,
	job_id TEXT NOT NULL,
	source_url TEXT NOT NULL,
	name TEXT,
	address TEXT,
	phone TEXT,
	pms_type TEXT,
	year_built INT,
	year_renovated INT,
	building_type TEXT,
	management_company TEXT,
	property_class TEXT,
	total_units INT,
	occupancy_percent DOUBLE PRECISION,
	avg_rent_per_sqft DOUBLE PRECISION,
	parking_fee_cents BIGINT,
	pet_rent_cents BIGINT,
	application_fee_cents BIGINT,
	admin_fee_cents BIGINT,
	amenities TEXT[],
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source_url, job_id)
);

CREATE TABLE IF NOT EXISTS lease_rates (
	id BIGSERIAL PRIMARY KEY,
	property_id BIGINT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	unit_type TEXT NOT NULL,
	sqft INT,
	price_cents BIGINT NOT NULL,
	lease_term_months INT,
	availability_text TEXT,
	available_date DATE,
	unit_status TEXT
);

CREATE TABLE IF NOT EXISTS concessions (
	id BIGSERIAL PRIMARY KEY,
	property_id BIGINT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	description TEXT NOT NULL,
	value TEXT,
	terms TEXT
);
`

// PostgresSink stores records through a pgx connection pool
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects and applies the schema
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Close() {
	s.pool.Close()
}

// SaveProperty writes one record with its rates and concessions in a single
// transaction.
func (s *PostgresSink) SaveProperty(ctx context.Context, jobID string, record *model.PropertyRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var propertyID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO properties (
			job_id, source_url, name, address, phone, pms_type,
			year_built, year_renovated, building_type, management_company, property_class,
			total_units, occupancy_percent, avg_rent_per_sqft,
			parking_fee_cents, pet_rent_cents, application_fee_cents, admin_fee_cents,
			amenities
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (source_url, job_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			pms_type = EXCLUDED.pms_type,
			scraped_at = now()
		RETURNING id`,
		jobID, record.SourceURL, record.Name, record.Address, record.Phone, string(record.PMSType),
		record.YearBuilt, record.YearRenovated, record.BuildingType, record.ManagementCompany, string(record.PropertyClass),
		record.TotalUnits, record.OccupancyPercent, record.AvgRentPerSqft,
		record.ParkingFeeMonthlyCents, record.PetRentMonthlyCents, record.ApplicationFeeCents, record.AdminFeeCents,
		record.Amenities,
	).Scan(&propertyID)
	if err != nil {
		return fmt.Errorf("failed to upsert property: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lease_rates WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to clear lease rates: %w", err)
	}
	for _, rate := range record.LeaseRates {
		var availableDate interface{}
		if rate.AvailableDate != "" {
			availableDate = rate.AvailableDate
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO lease_rates (
				property_id, unit_type, sqft, price_cents, lease_term_months,
				availability_text, available_date, unit_status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			propertyID, rate.UnitType, rate.Sqft, rate.PriceCents, rate.LeaseTermMonths,
			rate.AvailabilityText, availableDate, string(rate.UnitStatus),
		)
		if err != nil {
			return fmt.Errorf("failed to insert lease rate: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM concessions WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to clear concessions: %w", err)
	}
	for _, concession := range record.Concessions {
		_, err = tx.Exec(ctx, `
			INSERT INTO concessions (property_id, type, description, value, terms)
			VALUES ($1,$2,$3,$4,$5)`,
			propertyID, string(concession.Type), concession.Description, concession.Value, concession.Terms,
		)
		if err != nil {
			return fmt.Errorf("failed to insert concession: %w", err)
		}
	}

	return tx.Commit(ctx)
}
