package app

import (
	"reflect"
	"testing"
)

func TestLoadConfigReadsCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, https://ops.example.com")
	cfg := LoadConfig()
	want := []string{"https://admin.example.com", "https://ops.example.com"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("cors origins: want=%v got=%v", want, cfg.CORSOrigins)
	}
}

func TestLoadConfigCORSDefaultsEmpty(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "")
	cfg := LoadConfig()
	if cfg.CORSOrigins != nil {
		t.Fatalf("unset cors origins must stay nil, got=%v", cfg.CORSOrigins)
	}
}
