package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 1,
		Name:    "initial_schema",
		Up:      migrateInitialSchema,
	})
}

func migrateInitialSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL DEFAULT '',
			service_name TEXT NOT NULL,
			service_duration TEXT NOT NULL,
			service_price TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			remote_event_id TEXT,
			reminder_sent_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_appointments_status_date_time
			ON appointments(status, date, time);

		CREATE TABLE IF NOT EXISTS calendar_sync_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			sync_enabled BOOLEAN NOT NULL DEFAULT 0,
			calendar_id TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS notification_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			enabled BOOLEAN NOT NULL DEFAULT 1,
			customer_enabled BOOLEAN NOT NULL DEFAULT 1,
			admin_enabled BOOLEAN NOT NULL DEFAULT 1,
			new_booking BOOLEAN NOT NULL DEFAULT 1,
			appointment_confirmed BOOLEAN NOT NULL DEFAULT 1,
			payment_invoice BOOLEAN NOT NULL DEFAULT 1,
			service_completed BOOLEAN NOT NULL DEFAULT 1,
			appointment_reminder BOOLEAN NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}
