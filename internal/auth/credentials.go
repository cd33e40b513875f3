// Package auth checks logins against the users.yaml credentials file.
//
// The file maps an e-mail address to an account:
//
//	alice@ism.be:
//	  name: Alice
//	  password: s3cret
//	bob@ism.be:
//	  password_hash: $2a$10$...
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Session keys holding the logged-in user.
const (
	SessionEmail = "user_email"
	SessionName  = "user_name"
)

type Account struct {
	Name         string `yaml:"name"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// User is who a session belongs to.
type User struct {
	Email string
	Name  string
}

// Store is an immutable set of accounts keyed by normalized e-mail.
type Store struct {
	accounts map[string]Account
}

// NormalizeEmail is the form addresses are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewStore builds a store from accounts keyed by e-mail.
func NewStore(accounts map[string]Account) *Store {
	s := &Store{accounts: make(map[string]Account, len(accounts))}
	for email, acc := range accounts {
		s.accounts[NormalizeEmail(email)] = acc
	}
	return s
}

// Load reads the credentials file at path. A missing file gives an empty
// store. A file that cannot be read or parsed gives an empty store and the
// error, so callers can log it and keep serving.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewStore(nil), nil
	}
	if err != nil {
		return NewStore(nil), fmt.Errorf("read credentials: %w", err)
	}

	var accounts map[string]Account
	if err := yaml.Unmarshal(data, &accounts); err != nil {
		return NewStore(nil), fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return NewStore(accounts), nil
}

func (s *Store) Len() int { return len(s.accounts) }

// Authenticate checks password for email. A plain password is compared
// exactly; password_hash is checked with bcrypt. Empty inputs never match.
func (s *Store) Authenticate(email, password string) (User, bool) {
	key := NormalizeEmail(email)
	if key == "" || password == "" {
		return User{}, false
	}

	acc, ok := s.accounts[key]
	if !ok {
		return User{}, false
	}

	switch {
	case acc.PasswordHash != "":
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
			return User{}, false
		}
	case acc.Password != "":
		if acc.Password != password {
			return User{}, false
		}
	default:
		return User{}, false
	}

	return User{Email: key, Name: acc.Name}, true
}

// HashPassword returns the password_hash value for password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
