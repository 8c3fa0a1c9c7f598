package cli

import (
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteSizes(t *testing.T) {
	sizes, _ := completeBreakerSizes(nil, nil, "")
	if sizes[0] != "15" || !slices.Contains(sizes, "225") {
		t.Errorf("breaker sizes = %v", sizes)
	}
	kva, _ := completeKVASizes(nil, nil, "")
	if !slices.Contains(kva, "112.5") || !slices.Contains(kva, "75") {
		t.Errorf("kva sizes = %v", kva)
	}
	systems, _ := completeSystems(nil, nil, "")
	if want := []string{"120/208", "120/240", "277/480"}; !reflect.DeepEqual(systems, want) {
		t.Errorf("systems = %v, want %v", systems, want)
	}
}

func TestCompleteFromSurvey(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "plant.json")
	mustRun(t, c, "new", path, "--voltage", "277/480", "--amps", "800")
	mustRun(t, c, "panel", "add", path, "--parent", "MDP", "--name", "Sub")
	mustRun(t, c, "panel", "transformer", path, "Sub", "--kva", "75", "--secondary", "120/208")

	tests := []struct {
		name string
		fn   func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)
		args []string
		want []string
	}{
		{"secondary under 480", completeSecondary, []string{path, "Sub"}, []string{"120/208", "120/240"}},
		{"secondary without panel", completeSecondary, []string{path}, []string{"120/208", "120/240", "277/480"}},
		{"voltage on MDP", completeBreakerVoltage, []string{path, "MDP"}, []string{"277", "480"}},
		{"voltage on stepped-down panel", completeBreakerVoltage, []string{path, "Sub"}, []string{"120", "208"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dir := tt.fn(nil, tt.args, "")
			if dir == cobra.ShellCompDirectiveError {
				t.Fatalf("completion failed")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
