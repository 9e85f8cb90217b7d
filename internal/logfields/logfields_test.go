package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b123", BuildID("b123")},
		{"Stage", KeyStage, "run_sphinx", Stage("run_sphinx")},
		{"Project", KeyProject, "artyz7", Project("artyz7")},
		{"Tag", KeyTag, "v8.0.0", Tag("v8.0.0")},
		{"Version", KeyVersion, "8.0.0", Version("8.0.0")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "release_notes.rst", File("release_notes.rst")},
		{"Name", KeyName, "n", Name("n")},
		{"URL", KeyURL, "https://example", URL("https://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error should produce empty value, got %q", got)
	}
}
