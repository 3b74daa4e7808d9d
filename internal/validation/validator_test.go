package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string          `json:"username" validate:"required,username"`
	Password string          `json:"password" validate:"required,password"`
	Target   decimal.Decimal `json:"target" validate:"money=1000"`
	SendTime string          `json:"send_time" validate:"omitempty,hhmm"`
}

func validSignup() signup {
	return signup{
		Username: "anna.meier",
		Password: "correct-horse-battery",
		Target:   decimal.RequireFromString("250.50"),
		SendTime: "07:30",
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(validSignup()))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	in := validSignup()
	in.Username = "a!"
	in.SendTime = "24:00"

	err := Struct(in)
	require.Error(t, err)

	fields, ok := err.(FieldErrors)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "send_time")
	assert.Equal(t, "must be a time in HH:MM format", fields["send_time"])
}

func TestStruct_PasswordMessageNamesTheRule(t *testing.T) {
	in := validSignup()
	in.Password = "short"

	fields := Struct(in).(FieldErrors)
	assert.Equal(t, ErrPasswordTooShort.Error(), fields["password"])
}

func TestStruct_Money(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"0.01", true},
		{"1000", true},
		{"1000.01", false},
		{"0", false},
		{"-5", false},
		{"1.005", false},
	}

	for _, tt := range tests {
		in := validSignup()
		in.Target = decimal.RequireFromString(tt.amount)
		err := Struct(in)
		if tt.valid {
			assert.NoError(t, err, tt.amount)
		} else {
			assert.Error(t, err, tt.amount)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("max_99"))
	assert.NoError(t, ValidateUsername("a.b"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 31)))
	assert.Error(t, ValidateUsername("anna meier"))
	assert.Error(t, ValidateUsername("jürg"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct-horse-battery"))
	assert.ErrorIs(t, ValidatePassword("elevenchars"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	assert.ErrorIs(t, ValidatePassword("MyPassword2026!"), ErrPasswordCommon)
}

func TestValidateAmount(t *testing.T) {
	max := decimal.NewFromInt(10000)
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("4.50"), &max))
	assert.Error(t, ValidateAmount(decimal.RequireFromString("10000.01"), &max))
	assert.Error(t, ValidateAmount(decimal.Zero, nil))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("anna@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("Anna <anna@example.com>"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Equal(t, "anna@example.com", NormalizeEmail("  Anna@Example.COM "))
}
