package tutor

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadProfileCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.UserID == "" {
		t.Error("default profile should have a user id")
	}
	if profile.DisplayName != "Student" || profile.TargetLanguage != "Spanish" {
		t.Errorf("default profile = %+v", profile)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("profile file should be created: %v", err)
	}

	// A second load returns the same identity.
	again, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if again.UserID != profile.UserID {
		t.Errorf("user id changed across loads: %q vs %q", again.UserID, profile.UserID)
	}
}

func TestLoadProfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	want := UserProfile{
		UserID:         "maria",
		DisplayName:    "Maria",
		TargetLanguage: "French",
		CreatedAt:      time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := SaveProfile(path, want); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got.UserID != want.UserID || got.DisplayName != want.DisplayName || got.TargetLanguage != want.TargetLanguage {
		t.Errorf("profile = %+v, want %+v", got, want)
	}
}

func TestLoadProfileFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("user_id: maria\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.DisplayName != "Student" || profile.TargetLanguage != "Spanish" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestLoadProfileRejectsEmptyUserID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("display_name: Maria\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected error for empty user_id")
	}
}
