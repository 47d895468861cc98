package validation

import (
	"testing"
)

func TestGet_ReturnsSameInstance(t *testing.T) {
	if Get() != Get() {
		t.Error("Get() should return the same singleton instance")
	}
}

func TestValidate_RequiredField(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}

	if err := Validate(sample{Name: "Annual fund"}); err != nil {
		t.Errorf("Validate() should pass for valid struct, got error: %v", err)
	}
	if err := Validate(sample{}); err == nil {
		t.Error("Validate() should fail for empty required field")
	}
}

func TestEnumValidators(t *testing.T) {
	type sslmode struct {
		V string `validate:"required,sslmode"`
	}
	type loglevel struct {
		V string `validate:"required,loglevel"`
	}
	type logformat struct {
		V string `validate:"required,logformat"`
	}
	type sessionstore struct {
		V string `validate:"required,sessionstore"`
	}
	type auditaction struct {
		V string `validate:"auditaction"`
	}

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"sslmode disable", sslmode{"disable"}, false},
		{"sslmode verify-full", sslmode{"verify-full"}, false},
		{"sslmode uppercase", sslmode{"DISABLE"}, true},
		{"sslmode typo", sslmode{"disabled"}, true},
		{"loglevel debug", loglevel{"debug"}, false},
		{"loglevel trace", loglevel{"trace"}, true},
		{"logformat text", logformat{"text"}, false},
		{"logformat xml", logformat{"xml"}, true},
		{"sessionstore postgres", sessionstore{"postgres"}, false},
		{"sessionstore redis", sessionstore{"redis"}, false},
		{"sessionstore memory", sessionstore{"memory"}, false},
		{"sessionstore empty", sessionstore{""}, true},
		{"sessionstore sqlite", sessionstore{"sqlite"}, true},
		{"auditaction empty is optional", auditaction{""}, false},
		{"auditaction upper", auditaction{"UPDATE"}, false},
		{"auditaction lower", auditaction{"delete"}, false},
		{"auditaction upsert", auditaction{"UPSERT"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%+v) error=%v, wantErr=%v", tt.value, err, tt.wantErr)
			}
		})
	}
}
