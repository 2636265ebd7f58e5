package adapters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"scoop-go/internal/types"
)

func samplePlan() types.PlanFile {
	return types.PlanFile{
		Architecture: types.Architecture64Bit,
		Entries: []types.PlanFileEntry{
			{Name: "lib", Bucket: "main", Version: "1.0", URLs: []string{"https://example.invalid/lib.zip"}},
			{Name: "tool", Bucket: "extras", Version: "2.3.1", DependsOn: []string{"main/lib"}},
		},
	}
}

func TestPlanFileWritesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans", "plan.yaml")
	require.NoError(t, NewPlanFileAdapter(nil).Write(path, samplePlan()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.PlanFile
	require.NoError(t, yaml.Unmarshal(data, &got))
	if diff := cmp.Diff(samplePlan(), got); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
	assert.NotContains(t, string(data), "depends_on: []")
}

func TestPlanFileWritesStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlanFileAdapter(&buf).Write("-", samplePlan()))
	assert.Contains(t, buf.String(), "architecture: 64bit")
	assert.Contains(t, buf.String(), "name: tool")
	assert.Contains(t, buf.String(), "main/lib")
}
