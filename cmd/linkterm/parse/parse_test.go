package parse

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

func run(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&errOut)
	Cmd.SetArgs(args)
	err = Cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParsePrintsCanonicalFormAndFrame(t *testing.T) {
	stdout, _, err := run("SetTarget([1", "2", "3])")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "SetTarget([1, 2, 3])", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "CBOR: "))

	frame, err := hex.DecodeString(strings.TrimPrefix(lines[1], "CBOR: "))
	require.NoError(t, err)
	msg, err := ltmsg.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, ltmsg.SetTarget{XYZ: [3]float32{1, 2, 3}}, msg)
}

func TestParseReportsOffset(t *testing.T) {
	_, stderr, err := run("SetArm(5)")
	require.Error(t, err)
	assert.Contains(t, stderr, "SetArm(5)\n       ^\n")
	assert.Contains(t, stderr, "type error at 7")
}
