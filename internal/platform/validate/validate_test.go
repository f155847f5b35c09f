package validate

import (
	"strings"
	"testing"

	perr "apiloader/internal/platform/errors"
)

type opts struct {
	BaseURL  string `env:"API_BASE_URL" validate:"required,url"`
	Attempts int    `env:"API_MAX_ATTEMPTS" validate:"gte=1,lte=10"`
	Driver   string `yaml:"driver" validate:"oneof=postgres sqlite"`
	Plain    string `validate:"omitempty,min=3"`
}

func TestStruct_OK(t *testing.T) {
	t.Parallel()

	if err := Struct(opts{BaseURL: "https://api.example.com", Attempts: 3, Driver: "sqlite"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_ReportsEveryField(t *testing.T) {
	t.Parallel()

	err := Struct(opts{Attempts: 0, Driver: "mysql", Plain: "ab"})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
	msg := err.Error()
	for _, want := range []string{
		"API_BASE_URL is a required field",
		"API_MAX_ATTEMPTS must be at least 1",
		"driver must be one of [postgres sqlite]",
		"Plain must be at least 3",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %q", want, msg)
		}
	}
	if e, ok := perr.As(err); !ok || e.Field() != "API_BASE_URL" {
		t.Fatalf("expected first field attached, got %+v", e)
	}
}

func TestStruct_InvalidInput(t *testing.T) {
	t.Parallel()

	if err := Struct(42); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument for non-struct, got %v", err)
	}
}

func TestVar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value any
		tag   string
		ok    bool
		msg   string
	}{
		{"in range", int64(5), "gte=1,lte=10", true, ""},
		{"below", int64(0), "gte=1,lte=10", false, "stars must be at least 1"},
		{"above float", 10.5, "gte=1,lte=10", false, "stars must be at most 10"},
		{"enum hit", "open", "oneof=open closed", true, ""},
		{"enum miss", "merged", "oneof=open closed", false, "stars must be one of [open closed]"},
	}
	for _, c := range cases {
		msg, ok := Var("stars", c.value, c.tag)
		if ok != c.ok || msg != c.msg {
			t.Fatalf("%s: Var = (%q, %v), want (%q, %v)", c.name, msg, ok, c.msg, c.ok)
		}
	}
}

func TestMessagesAndFieldNil(t *testing.T) {
	t.Parallel()

	if f, m := FieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil FieldAndMessage = %q %q", f, m)
	}
	if Messages(nil) != nil {
		t.Fatalf("nil Messages should be nil")
	}
	if Get() != Init() {
		t.Fatalf("singleton mismatch")
	}
}
