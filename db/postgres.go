package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fieldsafe/loneworker/types"
)

// Postgres is the durable Store behind the reference server. Connection
// settings come from DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres() (*Postgres, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	p := &Postgres{db: db}
	if err = p.createTables(); err != nil {
		return nil, fmt.Errorf("error creating tables: %v", err)
	}
	return p, nil
}

func (p *Postgres) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS checkins (
			id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			site VARCHAR(255) NOT NULL,
			checked_in_at TIMESTAMP WITH TIME ZONE NOT NULL,
			expires TIMESTAMP WITH TIME ZONE NOT NULL,
			canceled_at TIMESTAMP WITH TIME ZONE,
			expired_at TIMESTAMP WITH TIME ZONE,
			emergency_contact TEXT,
			contact_notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL,
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_pair ON checkins(user_id, site)`,
		// One open check-in per (user, site). CheckIn maps violations
		// of this index to ErrActiveExists.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_checkins_open ON checkins(user_id, site)
			WHERE canceled_at IS NULL AND expired_at IS NULL`,
	}
	for _, query := range queries {
		if _, err := p.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// expire closes overdue check-ins, stamping expired_at with the expiry time.
func (p *Postgres) expire(now time.Time) error {
	_, err := p.db.Exec(`
		UPDATE checkins SET expired_at = expires
		WHERE canceled_at IS NULL AND expired_at IS NULL AND expires <= $1
	`, now)
	return err
}

func (p *Postgres) ActiveSessions(now time.Time) ([]types.Session, error) {
	if err := p.expire(now); err != nil {
		return nil, err
	}

	rows, err := p.db.Query(`
		SELECT user_id, site, expires, COALESCE(emergency_contact, '')
		FROM checkins
		WHERE canceled_at IS NULL AND expired_at IS NULL
		ORDER BY checked_in_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []types.Session{}
	for rows.Next() {
		var s types.Session
		if err := rows.Scan(&s.User, &s.Site, &s.Expires, &s.EmergencyContact); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (p *Postgres) CheckIn(user, site string, minutes int, emergencyContact string, now time.Time) error {
	if err := p.expire(now); err != nil {
		return err
	}

	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRow(`
		SELECT id FROM checkins
		WHERE user_id = $1 AND site = $2
		AND canceled_at IS NULL AND expired_at IS NULL
		LIMIT 1
	`, user, site).Scan(&existing)
	if err == nil {
		return ErrActiveExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	var notes string
	if emergencyContact != "" {
		contacts, err := p.Contacts()
		if err != nil {
			return err
		}
		notes = lookupNotes(contacts, emergencyContact)
	}

	_, err = tx.Exec(`
		INSERT INTO checkins (
			id, user_id, site, checked_in_at, expires,
			emergency_contact, contact_notes
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
	`, uuid.NewString(), user, site, now,
		now.Add(time.Duration(minutes)*time.Minute), emergencyContact, notes)
	if err != nil {
		// Two concurrent check-ins can both pass the SELECT above, but
		// only one survives the unique index on open sessions.
		if isUniqueViolation(err) {
			return ErrActiveExists
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrActiveExists
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (p *Postgres) Cancel(user, site string, now time.Time) error {
	if err := p.expire(now); err != nil {
		return err
	}

	res, err := p.db.Exec(`
		UPDATE checkins SET canceled_at = $1
		WHERE user_id = $2 AND site = $3
		AND canceled_at IS NULL AND expired_at IS NULL
	`, now, user, site)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoActiveSession
	}
	return nil
}

func (p *Postgres) History() ([]types.HistoryRecord, error) {
	rows, err := p.db.Query(`
		SELECT user_id, site, checked_in_at, canceled_at, expired_at,
			COALESCE(emergency_contact, ''), COALESCE(contact_notes, '')
		FROM checkins
		ORDER BY checked_in_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []types.HistoryRecord{}
	for rows.Next() {
		var r types.HistoryRecord
		var canceledAt, expiredAt sql.NullTime
		if err := rows.Scan(&r.User, &r.Site, &r.CheckedInAt, &canceledAt,
			&expiredAt, &r.EmergencyContact, &r.ContactNotes); err != nil {
			return nil, err
		}
		if canceledAt.Valid {
			t := canceledAt.Time
			r.CanceledAt = &t
		}
		if expiredAt.Valid {
			t := expiredAt.Time
			r.ExpiredAt = &t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (p *Postgres) Contacts() ([]types.Contact, error) {
	rows, err := p.db.Query(`
		SELECT name, phone, COALESCE(notes, '') FROM contacts ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []types.Contact{}
	for rows.Next() {
		var c types.Contact
		if err := rows.Scan(&c.Name, &c.Phone, &c.Notes); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (p *Postgres) AddContact(contact types.Contact) error {
	_, err := p.db.Exec(`
		INSERT INTO contacts (id, name, phone, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, uuid.NewString(), contact.Name, contact.Phone, contact.Notes)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
