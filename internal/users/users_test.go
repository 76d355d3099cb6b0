package users

import (
	"testing"

	"caixa/internal/core"
)

func TestValidCPF(t *testing.T) {
	tests := []struct {
		name string
		cpf  string
		want bool
	}{
		{"valid plain", "52998224725", true},
		{"valid formatted", "529.982.247-25", true},
		{"wrong first digit", "52998224735", false},
		{"wrong second digit", "52998224724", false},
		{"all same digits", "11111111111", false},
		{"too short", "5299822472", false},
		{"too long", "529982247250", false},
		{"empty", "", false},
		{"letters", "abcdefghijk", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCPF(tt.cpf); got != tt.want {
				t.Errorf("ValidCPF(%q) = %v, want %v", tt.cpf, got, tt.want)
			}
		})
	}
}

func TestFormatCPF(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"52998224725", "529.982.247-25"},
		{"529.982.247-25", "529.982.247-25"},
		{" 52998224725 ", "529.982.247-25"},
		{"123", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatCPF(tt.in); got != tt.want {
			t.Errorf("FormatCPF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserValidate(t *testing.T) {
	valid := User{Name: "Maria Silva", Email: "maria@example.com", Phone: "11999990000", CPF: "52998224725"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*User)
		field  string
	}{
		{"empty name", func(u *User) { u.Name = "  " }, "name"},
		{"empty email", func(u *User) { u.Email = "" }, "email"},
		{"malformed email", func(u *User) { u.Email = "maria@" }, "email"},
		{"empty phone", func(u *User) { u.Phone = "" }, "phone"},
		{"empty cpf", func(u *User) { u.CPF = "" }, "cpf"},
		{"invalid cpf", func(u *User) { u.CPF = "12345678900" }, "cpf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid
			tt.mutate(&u)
			err := u.Validate()
			if !core.IsValidation(err) {
				t.Fatalf("Validate() = %v, want validation error", err)
			}
			ve := err.(*core.ValidationError)
			found := false
			for _, f := range ve.Fields {
				if f == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Fields = %v, want to contain %q", ve.Fields, tt.field)
			}
		})
	}
}
