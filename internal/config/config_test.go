package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FREQ_TEST_INT", "-100123456789")
	t.Setenv("FREQ_TEST_BAD_INT", "abc")
	t.Setenv("FREQ_TEST_BOOL", "true")
	t.Setenv("FREQ_TEST_LEVEL", "debug")

	if got := getEnvAsInt("FREQ_TEST_INT", 0); got != -100123456789 {
		t.Fatalf("expected chat id, got %d", got)
	}
	if got := getEnvAsInt("FREQ_TEST_BAD_INT", -2); got != -2 {
		t.Fatalf("expected default, got %d", got)
	}
	if !getEnvAsBool("FREQ_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	if getEnvAsBool("FREQ_TEST_MISSING", false) {
		t.Fatal("expected default false")
	}
	if got := getEnvAsLevel("FREQ_TEST_LEVEL", logrus.InfoLevel); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", got)
	}
	if got := getEnv("FREQ_TEST_MISSING", "frequencia.db"); got != "frequencia.db" {
		t.Fatalf("expected default, got %q", got)
	}
}
