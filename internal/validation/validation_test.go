package validation

import "testing"

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"0612345678",
		"06-12345678",
		"06 1234 5678",
		"0201234567",
		"020-1234567",
		"31612345678",
		"+31612345678",
		"+31 6 1234 5678",
		"0031612345678",
	}
	for _, phone := range valid {
		if !ValidatePhone(phone) {
			t.Errorf("expected %q to be valid", phone)
		}
	}

	invalid := []string{"", "123", "061234567", "06123456789", "1612345678", "+44 20 7946 0958", "06abcdefgh", "3161234567"}
	for _, phone := range invalid {
		if ValidatePhone(phone) {
			t.Errorf("expected %q to be invalid", phone)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{"", "  ", "anna@salon.nl", "a.b+c@mail.example.com"} {
		if !ValidateEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
	for _, email := range []string{"anna", "anna@", "anna@salon", "@salon.nl", "an na@salon.nl"} {
		if ValidateEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidateName(t *testing.T) {
	if ValidateName(" A ") {
		t.Error("single letter should be rejected")
	}
	if !ValidateName("Jo") || !ValidateName("Zoë") {
		t.Error("two characters should pass")
	}
}

func TestE164(t *testing.T) {
	cases := map[string]string{
		"0612345678":      "+31612345678",
		"+31 6 1234 5678": "+31612345678",
		"0031201234567":   "+31201234567",
		"12":              "",
	}
	for in, want := range cases {
		if got := E164(in); got != want {
			t.Errorf("E164(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetailsValidate(t *testing.T) {
	cases := []struct {
		name    string
		details Details
		want    error
	}{
		{"ok", Details{Name: "Anna", Phone: "0612345678"}, nil},
		{"short name", Details{Name: "A", Phone: "0612345678"}, ErrInvalidName},
		{"bad phone", Details{Name: "Anna", Phone: "123"}, ErrInvalidPhone},
		{"bad email", Details{Name: "Anna", Phone: "0612345678", Email: "anna@"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.details.Validate(); got != tc.want {
				t.Fatalf("Validate() = %v, want %v", got, tc.want)
			}
		})
	}
}
