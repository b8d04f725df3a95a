package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type envelope struct {
	ID      string `json:"id" validate:"required"`
	Type    string `json:"type" validate:"required,excludes=:"`
	Channel string `json:"channel" validate:"required"`
}

type timing struct {
	Interval time.Duration `mapstructure:"check_interval" validate:"gt=0,ltfield=Timeout"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(envelope{ID: "e1", Type: "run_created", Channel: "runs:ws"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	err := Validate(envelope{Type: "run_created"})
	if err == nil {
		t.Fatal("expected error")
	}

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if len(fe) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(fe), fe)
	}
	if fe[0].Field != "id" || fe[0].Message != "is required" {
		t.Errorf("unexpected first error: %+v", fe[0])
	}
	if !strings.Contains(err.Error(), "channel: is required") {
		t.Errorf("expected json field names in message, got %q", err.Error())
	}
}

func TestValidate_TagNameFallbacks(t *testing.T) {
	err := Validate(timing{Interval: 10 * time.Second, Timeout: 5 * time.Second})
	if err == nil {
		t.Fatal("expected ltfield failure")
	}
	fe := err.(FieldErrors)
	first, ok := fe.First()
	if !ok {
		t.Fatal("expected a field error")
	}
	if first.Field != "check_interval" {
		t.Errorf("expected mapstructure name, got %q", first.Field)
	}
	if first.Message != "must be less than timeout" {
		t.Errorf("unexpected message %q", first.Message)
	}
}

func TestRegisterRule(t *testing.T) {
	type named struct {
		Name string `json:"name" validate:"lower_only"`
	}
	if err := RegisterRule("lower_only", func(s string) bool { return strings.ToLower(s) == s }); err != nil {
		t.Fatalf("RegisterRule failed: %v", err)
	}

	if err := Validate(named{Name: "runs"}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	err := Validate(named{Name: "Runs"})
	if err == nil {
		t.Fatal("expected custom rule failure")
	}
	if !strings.Contains(err.Error(), "failed lower_only check") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestChecker(t *testing.T) {
	tests := []struct {
		name    string
		build   func(*Checker)
		wantErr string
	}{
		{"all pass", func(c *Checker) {
			c.Required("base_url", "http://x").Min("attempts", 0, 0).OneOf("format", "json", []string{"json", "console"})
		}, ""},
		{"required blank", func(c *Checker) { c.Required("base_url", "  ") }, "base_url: is required"},
		{"min", func(c *Checker) { c.Min("attempts", -1, 0) }, "attempts: must be at least 0"},
		{"one of", func(c *Checker) { c.OneOf("format", "xml", []string{"json"}) }, "format: must be one of: json"},
		{"one of empty skipped", func(c *Checker) { c.OneOf("format", "", []string{"json"}) }, ""},
		{"check", func(c *Checker) { c.Check(false, "interval", "too long") }, "interval: too long"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker()
			tc.build(c)
			err := c.Err()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("expected %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestChecker_Merge(t *testing.T) {
	c := NewChecker().Merge(Validate(envelope{ID: "x", Type: "t"})).Merge(nil).Merge(errors.New("plain"))
	if !c.HasErrors() {
		t.Fatal("expected errors")
	}
	fe := c.Err().(FieldErrors)
	if len(fe) != 2 {
		t.Fatalf("expected 2 errors, got %v", fe)
	}
	if fe[1].Field != "" || fe[1].Message != "plain" {
		t.Errorf("unexpected merged plain error %+v", fe[1])
	}
	if !strings.HasSuffix(c.Err().Error(), "; plain") {
		t.Errorf("unexpected message %q", c.Err().Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"BaseURL":          "base_u_r_l",
		"HeartbeatTimeout": "heartbeat_timeout",
		"id":               "id",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
