package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maintenance/core"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		pwd   string
		attrs []string
		want  string
	}{
		{pwd: "Ab1", want: pwdMinLenTag},
		{pwd: "Abc 123", want: pwdNoSpaceTag},
		{pwd: "abcdef1", want: pwdComplexityTag},
		{pwd: "ABCDEF1", want: pwdComplexityTag},
		{pwd: "Abcdefg", want: pwdComplexityTag},
		{pwd: "Jdoe1234", attrs: []string{"jdoe1234@test.cd"}, want: pwdAttrSimTag},
		{pwd: "Maint3nance", attrs: []string{"Jane", "Doe", "jdoe", "jdoe@test.cd"}, want: ""},
		{pwd: "Maint3nance", attrs: []string{"", "maintenance"}, want: pwdAttrSimTag},
	}
	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.pwd, tt.attrs...))
			if tt.want != "" {
				assert.NotEmpty(t, PasswordPolicyError(tt.want))
			}
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	valid := func() NewUser {
		return NewUser{
			Email:           " Jane@Test.CD ",
			FirstName:       " Jane ",
			LastName:        "Doe",
			Username:        "JDoe",
			Password:        "Maint3nance",
			PasswordConfirm: "Maint3nance",
			Role:            RoleTechnician,
		}
	}

	tests := []struct {
		name   string
		modify func(nu *NewUser)
		want   map[string]string // {field: message}
	}{
		{name: "valid", modify: func(*NewUser) {}},
		{name: "bad role", modify: func(nu *NewUser) { nu.Role = "janitor" }, want: map[string]string{"role": "invalid role"}},
		{name: "missing role", modify: func(nu *NewUser) { nu.Role = "" }, want: map[string]string{"role": "this field is required"}},
		{name: "bad username", modify: func(nu *NewUser) { nu.Username = "j-doe" }, want: map[string]string{"username": alphaNumUnderText()}},
		{name: "password mismatch", modify: func(nu *NewUser) { nu.PasswordConfirm = "Maint3nancE" }, want: map[string]string{"password_confirm": "password_confirm must be equal to Password"}},
		{name: "weak password", modify: func(nu *NewUser) { nu.Password = "abc"; nu.PasswordConfirm = "abc" }, want: map[string]string{"password": pwdMinLenText}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.modify(&nu)
			err := nu.Validate(validate)
			if tt.want == nil {
				assert.NoError(t, err)
				assert.Equal(t, "jane@test.cd", nu.Email)
				assert.Equal(t, "Jane", nu.FirstName)
				assert.Equal(t, "jdoe", nu.Username)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			if !assert.True(t, ok, "got %v", err) {
				return
			}
			got := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func alphaNumUnderText() string {
	return "only alphanumeric characters and underscores are allowed"
}

func TestRole_Valid(t *testing.T) {
	for _, r := range AllRoles {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Admin").Valid())
}
