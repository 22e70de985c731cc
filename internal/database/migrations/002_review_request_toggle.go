package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 2,
		Name:    "review_request_toggle",
		Up:      migrateReviewRequestToggle,
	})
}

func migrateReviewRequestToggle(db *sql.DB) error {
	return AddColumnIfNotExists(db, "notification_settings", "review_request", "BOOLEAN NOT NULL DEFAULT 1")
}
