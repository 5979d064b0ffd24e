package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmem/cortex/internal/graph"
)

func TestDelta_RemoteAhead(t *testing.T) {
	local := testReplica(t, "agent-1")
	remote := local.Rebind("agent-2")
	remote.SetSummary("a sharper summary", t0.Add(time.Minute))
	remote.AddTag("deploy")

	out, err := execute(t, "--format", "json", "delta",
		writeReplicaFile(t, local), writeReplicaFile(t, remote))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, local.ID, data["record_id"])
	assert.Equal(t, "agent-1", data["local_agent"])
	assert.Equal(t, "agent-2", data["remote_agent"])
	assert.Equal(t, false, data["up_to_date"])

	fields, ok := data["fields"].([]any)
	require.True(t, ok)
	assert.Contains(t, fields, "summary")
	assert.Contains(t, fields, "tags")
}

func TestDelta_UpToDate(t *testing.T) {
	local := testReplica(t, "agent-1")
	remote := local.Rebind("agent-2")

	out, err := execute(t, "delta", writeReplicaFile(t, local), writeReplicaFile(t, remote))
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestDelta_LocalAheadOfRemote(t *testing.T) {
	local := testReplica(t, "agent-1")
	remote := local.Rebind("agent-2")
	local.AddTag("deploy")

	out, err := execute(t, "delta", writeReplicaFile(t, local), writeReplicaFile(t, remote))
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestDelta_GraphInputRejected(t *testing.T) {
	local := testReplica(t, "agent-1")
	g := graph.New("agent-1")
	require.NoError(t, g.AddEdge("rec-a", "rec-b", graph.RelationCauses, 0.5))

	_, err := execute(t, "delta", writeReplicaFile(t, local), writeGraphFile(t, g))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "record replicas only")
}

func TestDelta_WrongArgCount(t *testing.T) {
	local := testReplica(t, "agent-1")
	_, err := execute(t, "delta", writeReplicaFile(t, local))
	require.Error(t, err)
}
