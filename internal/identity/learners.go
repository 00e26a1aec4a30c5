package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Learners guards learner row existence and verifies local credentials.
type Learners struct {
	db *sql.DB
}

func NewLearners(db *sql.DB) *Learners { return &Learners{db: db} }

// Ensure creates a placeholder learner record on first contact so
// foreign-key constraints hold before any progress row is written.
// Safe to call on every request.
func (l *Learners) Ensure(ctx context.Context, id uuid.UUID) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO users (id, username, role, created_at)
		VALUES ($1,$2,'learner',$3)
		ON CONFLICT (id) DO NOTHING`,
		id.String(), "learner-"+id.String(), time.Now().Unix())
	return err
}

var errBadCredentials = errors.New("bad credentials")

// Authenticate checks a username/password pair against the users table.
func (l *Learners) Authenticate(ctx context.Context, username, password string) (uuid.UUID, string, error) {
	var idStr, hash, role string
	err := l.db.QueryRowContext(ctx,
		`SELECT id, password_hash, role FROM users WHERE username=$1`, username,
	).Scan(&idStr, &hash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, "", errBadCredentials
	}
	if err != nil {
		return uuid.Nil, "", err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return uuid.Nil, "", errBadCredentials
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, role, nil
}

// EnsureAdmin seeds the bootstrap admin account. The hash is supplied
// already bcrypt-ed via config.
func (l *Learners) EnsureAdmin(ctx context.Context, username, passHash string) error {
	if username == "" || passHash == "" {
		return nil
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1,$2,$3,'admin',$4)
		ON CONFLICT (username) DO NOTHING`,
		uuid.New().String(), username, passHash, time.Now().Unix())
	return err
}
