package buildinfo

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	if got := UserAgent(); got != "cratedeps/v1.2.3 (https://github.com/matzehuels/cratedeps)" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), Commit) || !strings.Contains(String(), Date) {
		t.Error("build info should include commit and date")
	}
}
