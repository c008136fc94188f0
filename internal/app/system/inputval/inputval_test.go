package inputval

import "testing"

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"  507f1f77bcf86cd799439011  ", true},
		{"", false},
		{"507f1f77bcf86cd79943901", false},
		{"507f1f77bcf86cd79943901g", false},
		{"not-a-valid-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidObjectID(tt.id); got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type input struct {
		Name  string `validate:"required,max=10" label:"Full name"`
		Email string `validate:"required,email" label:"Email address"`
		Score int    `validate:"gte=0,lte=100" label:"Score"`
	}

	tests := []struct {
		name      string
		input     input
		wantFirst string
	}{
		{"valid", input{Name: "Ali", Email: "ali@example.com", Score: 90}, ""},
		{"missing name", input{Email: "ali@example.com"}, "Full name is required."},
		{"name too long", input{Name: "Abdurrahman Yıldırım", Email: "a@b.co"}, "Full name must be at most 10 characters."},
		{"bad email", input{Name: "Ali", Email: "nope"}, "A valid email address is required."},
		{"score too high", input{Name: "Ali", Email: "a@b.co", Score: 101}, "Score must be at most 100."},
		{"score negative", input{Name: "Ali", Email: "a@b.co", Score: -1}, "Score must be at least 0."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if tt.wantFirst == "" {
				if res.HasErrors() {
					t.Fatalf("unexpected errors: %s", res.All())
				}
				return
			}
			if res.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", res.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type planInput struct {
		Plan string `validate:"required,plantype" label:"Plan type"`
	}
	type idInput struct {
		ID string `validate:"required,objectid" label:"Student"`
	}
	type roleInput struct {
		Role string `validate:"required,role" label:"Role"`
	}

	if res := Validate(planInput{Plan: "6_months"}); res.HasErrors() {
		t.Errorf("valid plan rejected: %s", res.All())
	}
	if res := Validate(planInput{Plan: "2_months"}); res.First() != "Plan type must be one of: 3_months, 6_months, 12_months." {
		t.Errorf("invalid plan message = %q", res.First())
	}
	if res := Validate(idInput{ID: "507f1f77bcf86cd799439011"}); res.HasErrors() {
		t.Errorf("valid id rejected: %s", res.All())
	}
	if res := Validate(idInput{ID: "x"}); res.First() != "Student must be a valid ID." {
		t.Errorf("invalid id message = %q", res.First())
	}
	if res := Validate(roleInput{Role: "parent"}); res.HasErrors() {
		t.Errorf("valid role rejected: %s", res.All())
	}
	if res := Validate(roleInput{Role: "coordinator"}); !res.HasErrors() {
		t.Error("expected unknown role to fail")
	}
}

func TestResult_All(t *testing.T) {
	r := &Result{Errors: []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}}
	if r.All() != "Error 1; Error 2" {
		t.Errorf("All() = %q", r.All())
	}
	empty := &Result{}
	if empty.First() != "" || empty.All() != "" {
		t.Error("empty result should render empty strings")
	}
}
