package db

import (
	"fmt"

	"gorm.io/gorm"
)

// The schema mirrors the hosted backend so the dashboard can run directly
// against a Postgres copy of it.
var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		job_code VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		type VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS vehicle_positions (
		vehicle_id UUID PRIMARY KEY REFERENCES vehicles (id) ON DELETE CASCADE,
		job_id UUID REFERENCES jobs (id) ON DELETE SET NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		speed_kph DOUBLE PRECISION,
		heading DOUBLE PRECISION,
		odometer_km DOUBLE PRECISION,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_positions_job_id ON vehicle_positions (job_id);`,
	`CREATE OR REPLACE VIEW latest_vehicle_positions AS
		SELECT
			v.id AS vehicle_id,
			v.name AS vehicle_name,
			v.type AS vehicle_type,
			p.job_id,
			j.job_code,
			j.name AS job_name,
			j.latitude AS job_latitude,
			j.longitude AS job_longitude,
			p.latitude,
			p.longitude,
			p.speed_kph,
			p.heading,
			p.odometer_km,
			p.recorded_at AS timestamp_utc
		FROM vehicle_positions p
		JOIN vehicles v ON v.id = p.vehicle_id
		LEFT JOIN jobs j ON j.id = p.job_id;`,
	`CREATE OR REPLACE FUNCTION set_updated_at() RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_jobs_updated_at') THEN
			CREATE TRIGGER trg_jobs_updated_at
				BEFORE UPDATE ON jobs
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicle_positions_updated_at') THEN
			CREATE TRIGGER trg_vehicle_positions_updated_at
				BEFORE UPDATE ON vehicle_positions
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	// Drops links to jobs that no longer exist and touches every position so
	// consumers see the recomputation.
	`CREATE OR REPLACE FUNCTION refresh_vehicle_positions() RETURNS VOID AS $$
	BEGIN
		UPDATE vehicle_positions p
		SET job_id = NULL
		WHERE p.job_id IS NOT NULL
			AND NOT EXISTS (SELECT 1 FROM jobs j WHERE j.id = p.job_id);
		UPDATE vehicle_positions SET updated_at = NOW();
	END;
	$$ LANGUAGE plpgsql;`,
}

func Migrate(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
