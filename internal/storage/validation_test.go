package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{name: "valid string", str: "test", paramName: "param"},
		{name: "empty string", str: "", paramName: "id", wantErr: true},
		{name: "whitespace only", str: " \t\n", paramName: "id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error = %v, should name %q", err, tt.paramName)
			}
		})
	}
}

func TestStorageNilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // nil contexts are the point of the test
	checks := map[string]error{
		"SaveRun":   store.SaveRun(nil, makeTestRun("x", time.Now())),
		"DeleteRun": store.DeleteRun(nil, "x"),
	}
	//nolint:staticcheck
	_, checks["GetRun"] = store.GetRun(nil, "x")
	//nolint:staticcheck
	_, checks["ListRuns"] = store.ListRuns(nil, 0)
	//nolint:staticcheck
	_, checks["SchemaVersion"] = store.SchemaVersion(nil)

	for name, err := range checks {
		if err == nil || !strings.Contains(err.Error(), "context cannot be nil") {
			t.Errorf("%s should fail with nil context, got: %v", name, err)
		}
	}
}
