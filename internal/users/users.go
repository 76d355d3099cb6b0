// Package users implements the user directory: plain CRUD with photo upload,
// kept apart from the ledger domain.
package users

import (
	"context"
	"regexp"
	"strings"
	"time"

	"caixa/internal/core"
)

// User is a directory entry. Photo holds the stored file name, empty when the
// user has no photo.
type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CPF       string
	Photo     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repo is the persistence port for the directory.
type Repo interface {
	Users(ctx context.Context) ([]User, error)
	User(ctx context.Context, id int64) (User, error)
	AddUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	UserEmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
}

// Stats summarizes the directory.
type Stats struct {
	Total        int
	WithPhoto    int
	WithoutPhoto int
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks the directory invariants and returns every offending field.
func (u User) Validate() error {
	var fields []string
	if strings.TrimSpace(u.Name) == "" {
		fields = append(fields, "name")
	}
	switch {
	case strings.TrimSpace(u.Email) == "":
		fields = append(fields, "email")
	case !emailRe.MatchString(u.Email):
		fields = append(fields, "email")
	}
	if strings.TrimSpace(u.Phone) == "" {
		fields = append(fields, "phone")
	}
	switch {
	case strings.TrimSpace(u.CPF) == "":
		fields = append(fields, "cpf")
	case !ValidCPF(u.CPF):
		fields = append(fields, "cpf")
	}
	if len(fields) > 0 {
		return &core.ValidationError{Fields: fields, Msg: "invalid user data"}
	}
	return nil
}

// ValidCPF checks the Brazilian CPF verification digits.
func ValidCPF(cpf string) bool {
	digits := onlyDigits(cpf)
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	if checkDigit(digits, 9) != int(digits[9]-'0') {
		return false
	}
	return checkDigit(digits, 10) == int(digits[10]-'0')
}

// checkDigit computes the CPF verifier over the first n digits.
func checkDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 || rest == 11 {
		rest = 0
	}
	return rest
}

// FormatCPF renders a CPF as 000.000.000-00; malformed input is returned
// trimmed but otherwise untouched.
func FormatCPF(cpf string) string {
	digits := onlyDigits(cpf)
	if len(digits) != 11 {
		return strings.TrimSpace(cpf)
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
