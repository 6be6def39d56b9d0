package deployments

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

func TestTranscript(t *testing.T) {
	running := types.Deployment{Name: "a", Status: types.StatusRunning, Framework: types.FrameworkSKLearn, ModelURI: "s3://models/a"}
	failed := types.Deployment{Name: "b", Status: types.StatusFailed, Framework: types.FrameworkPyTorch, ModelURI: "s3://models/b", Error: "OOMKilled"}

	t.Run("running", func(t *testing.T) {
		lines := Transcript(running)
		if len(lines) != 8 {
			t.Fatalf("expected 8 lines, got %d", len(lines))
		}
		if !strings.Contains(lines[0], "Starting model server for sklearn") {
			t.Errorf("unexpected first line %q", lines[0])
		}
		if !strings.Contains(lines[1], "s3://models/a") {
			t.Errorf("expected model uri in second line, got %q", lines[1])
		}
		other := running
		other.Name = "other"
		if !reflect.DeepEqual(Transcript(other), lines) {
			t.Error("expected transcript to depend only on status and model fields")
		}
	})

	t.Run("failed", func(t *testing.T) {
		lines := Transcript(failed)
		last := lines[len(lines)-1]
		if !strings.Contains(last, "OOMKilled") {
			t.Errorf("expected last line to echo the error, got %q", last)
		}
		if !strings.Contains(last, "ERROR") {
			t.Errorf("expected a failure line, got %q", last)
		}
	})

	t.Run("other statuses", func(t *testing.T) {
		for _, st := range []types.DeploymentStatus{types.StatusCreating, types.StatusUnknown, ""} {
			d := types.Deployment{Status: st}
			if got := Transcript(d); len(got) != 1 || got[0] != NoLogsMessage {
				t.Errorf("status %q: expected no-logs message, got %v", st, got)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		if !reflect.DeepEqual(Transcript(failed), Transcript(failed)) {
			t.Error("expected identical transcripts for identical input")
		}
	})
}
