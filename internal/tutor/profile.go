package tutor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when no profile file exists yet.
func DefaultProfile() UserProfile {
	return UserProfile{
		UserID:         uuid.New().String()[:8],
		DisplayName:    "Student",
		TargetLanguage: "Spanish",
		CreatedAt:      time.Now(),
	}
}

// LoadProfile reads the profile file, creating a default one on first
// run.
func LoadProfile(path string) (UserProfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		profile := DefaultProfile()
		if err := SaveProfile(path, profile); err != nil {
			return UserProfile{}, err
		}
		return profile, nil
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile UserProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return UserProfile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if strings.TrimSpace(profile.UserID) == "" {
		return UserProfile{}, fmt.Errorf("profile %s has empty user_id", path)
	}
	if profile.DisplayName == "" {
		profile.DisplayName = "Student"
	}
	if profile.TargetLanguage == "" {
		profile.TargetLanguage = "Spanish"
	}
	return profile, nil
}

// SaveProfile writes the profile file, creating parent directories as
// needed.
func SaveProfile(path string, profile UserProfile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
