package ltlink

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
	"github.com/txn2/linkterm/pkg/ltevents"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.log")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"-", "*ltlink.StreamSource"},
		{"stdin", "*ltlink.StreamSource"},
		{"serial:///dev/ttyACM0?baud=921600", "*ltlink.StreamSource"},
		{"tcp://127.0.0.1:7001", "*ltlink.StreamSource"},
		{"file:///tmp/x.log", "*ltlink.StreamSource"},
		{"ws://127.0.0.1:8080/logs", "*ltlink.WSSource"},
		{"nats://127.0.0.1:4222/drone.logs", "*ltlink.NATSSource"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			src, err := ParseSource(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typeName(src))
		})
	}

	for _, bad := range []string{"serial:///dev/tty?baud=fast", "serial://", "tcp://", "file://", "nats://host", "gopher://x", "::"} {
		_, err := ParseSource(bad)
		assert.Error(t, err, bad)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *StreamSource:
		return "*ltlink.StreamSource"
	case *WSSource:
		return "*ltlink.WSSource"
	case *NATSSource:
		return "*ltlink.NATSSource"
	case *FrameSink:
		return "*ltlink.FrameSink"
	case *NATSSink:
		return "*ltlink.NATSSink"
	case LogSink:
		return "ltlink.LogSink"
	}
	return "unknown"
}

func TestNATSTarget(t *testing.T) {
	src, err := ParseSource("nats://10.0.0.2:4222/relay.logs")
	require.NoError(t, err)
	ns := src.(*NATSSource)
	assert.Equal(t, "nats://10.0.0.2:4222", ns.Server)
	assert.Equal(t, "relay.logs", ns.Subject)
}

func TestStreamSourceFile(t *testing.T) {
	path := writeFile(t, "0.1[INFO] one\r\ntwo\nthree")
	src, err := ParseSource("file://" + path)
	require.NoError(t, err)

	var got []string
	err = src.Lines(context.Background(), func(s string) { got = append(got, s) })
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"0.1[INFO] one", "two", "three"}, got)
	assert.True(t, isFinite(src))
}

func TestStreamSourceOpenError(t *testing.T) {
	src, err := ParseSource("file:///does/not/exist")
	require.NoError(t, err)
	err = src.Lines(context.Background(), func(string) {})
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestStreamSourceCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := &StreamSource{
		Name: "pipe",
		Open: func(context.Context) (io.ReadCloser, error) { return pr, nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- src.Lines(ctx, func(s string) { lines <- s })
	}()

	_, err := pw.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello", <-lines)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Lines did not return after cancel")
	}
}

func TestReaderStopsAtEndOfFile(t *testing.T) {
	path := writeFile(t, "a\nb\nc\n")
	src, err := ParseSource("file://" + path)
	require.NoError(t, err)

	bus := ltevents.NewBus(100)
	var mu sync.Mutex
	var types []ltevents.EventType
	bus.SubscribeAll(func(e ltevents.Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})
	bus.Start()

	ch := ltlog.NewChannel(ltlog.Relay, 10)
	r := NewReader(src, ch, bus)
	err = r.Serve(context.Background())
	bus.Stop()

	assert.ErrorIs(t, err, suture.ErrDoNotRestart)
	assert.Equal(t, 3, ch.Len())
	assert.Equal(t, "c", ch.Snapshot()[2].Text)
	assert.Contains(t, r.String(), "relay")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, types)
	assert.Equal(t, ltevents.ReaderStarted, types[0])
	assert.Equal(t, ltevents.ReaderStopped, types[len(types)-1])
}

type failingSource struct{ err error }

func (f failingSource) Lines(context.Context, func(string)) error { return f.err }
func (f failingSource) String() string                            { return "failing" }

func TestReaderReportsFailure(t *testing.T) {
	ch := ltlog.NewChannel(ltlog.Drone, 10)

	err := NewReader(failingSource{err: errors.New("device gone")}, ch, nil).Serve(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, suture.ErrDoNotRestart)
	assert.Contains(t, err.Error(), "device gone")

	// end of stream on a live link is a failure too
	err = NewReader(failingSource{err: io.EOF}, ch, nil).Serve(context.Background())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSupervisorRunsReaders(t *testing.T) {
	path := writeFile(t, "x\ny\n")
	src, err := ParseSource("file://" + path)
	require.NoError(t, err)

	ch := ltlog.NewChannel(ltlog.Drone, 10)
	sup := NewSupervisor()
	sup.Add(NewReader(src, ch, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.ServeBackground(ctx)

	assert.Eventually(t, func() bool { return ch.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScanLinesTruncatesOverlongLine(t *testing.T) {
	long := strings.Repeat("x", maxLineLength+6*1024)
	var got []string
	err := scanLines(strings.NewReader("first\nsecond\r\n"+long+"\nafter\n"), func(s string) {
		got = append(got, s)
	})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "first", got[0])
	assert.Equal(t, "second", got[1])
	assert.Equal(t, long[:maxLineLength], got[2])
	assert.Equal(t, "after", got[3])
}

func TestScanLinesCutKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("a", maxLineLength-1) + "é tail"
	var got []string
	require.NoError(t, scanLines(strings.NewReader(long), func(s string) { got = append(got, s) }))
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("a", maxLineLength-1), got[0])
}

func TestSupervisedFileWithOverlongLineReadsOnce(t *testing.T) {
	path := writeFile(t, "first\nsecond\n"+strings.Repeat("x", 70*1024)+"\nafter\n")
	src, err := ParseSource("file://" + path)
	require.NoError(t, err)

	ch := ltlog.NewChannel(ltlog.Drone, 100)
	sup := NewSupervisor()
	sup.Add(NewReader(src, ch, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.ServeBackground(ctx)

	require.Eventually(t, func() bool { return ch.Len() >= 4 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	lines := ch.Snapshot()
	require.Len(t, lines, 4)
	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, "second", lines[1].Text)
	assert.Len(t, lines[2].Text, maxLineLength)
	assert.Equal(t, "after", lines[3].Text)
}

func TestParseSink(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"log", "ltlink.LogSink"},
		{"", "ltlink.LogSink"},
		{"tcp://127.0.0.1:7002", "*ltlink.FrameSink"},
		{"serial:///dev/ttyACM1", "*ltlink.FrameSink"},
		{"file:///tmp/frames.bin", "*ltlink.FrameSink"},
		{"nats://127.0.0.1:4222/drone.cmd?responses=drone.res", "*ltlink.NATSSink"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sink, err := ParseSink(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typeName(sink))
		})
	}

	ns, err := ParseSink("nats://127.0.0.1:4222/drone.cmd?responses=drone.res", nil)
	require.NoError(t, err)
	assert.Equal(t, "drone.res", ns.(*NATSSink).ResponseSubject)

	fs, err := ParseSink("tcp://127.0.0.1:7002?responses=false", nil)
	require.NoError(t, err)
	assert.False(t, fs.(*FrameSink).ReadResponses)

	for _, bad := range []string{"tcp://", "udp://x:1", "tcp://h:1?responses=maybe"} {
		_, err := ParseSink(bad, nil)
		assert.Error(t, err, bad)
	}
}

func TestFileSinkWritesDecodableFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.bin")
	sink, err := ParseSink("file://"+path, nil)
	require.NoError(t, err)

	msgs := []ltmsg.Message{
		ltmsg.Ping{},
		ltmsg.SetArm{Armed: true},
		ltmsg.SetTarget{XYZ: [3]float32{1, 2, 3}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, m := range msgs {
		require.NoError(t, sink.Send(ctx, m))
	}
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := ltmsg.NewDecoder(f)
	for _, want := range msgs {
		got, err := dec.DecodeMessage()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = dec.DecodeMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTCPSinkRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan ltmsg.Message, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		msg, err := ltmsg.NewDecoder(conn).DecodeMessage()
		if err != nil {
			return
		}
		received <- msg
		frame, _ := ltmsg.EncodeResponse(ltmsg.Response{Kind: ltmsg.ResponsePong})
		_, _ = conn.Write(frame)
		// hold the connection until the test closes the sink
		_, _ = io.Copy(io.Discard, conn)
	}()

	responses := make(chan ltmsg.Response, 1)
	sink, err := ParseSink("tcp://"+ln.Addr().String(), func(r ltmsg.Response) { responses <- r })
	require.NoError(t, err)
	defer sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sink.Send(ctx, ltmsg.Ping{}))

	select {
	case m := <-received:
		assert.Equal(t, ltmsg.Ping{}, m)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the frame")
	}
	select {
	case r := <-responses:
		assert.Equal(t, "Pong", r.String())
	case <-time.After(2 * time.Second):
		t.Fatal("no response decoded")
	}
}

func TestFrameSinkDialError(t *testing.T) {
	sink := &FrameSink{
		Name: "broken",
		Dial: func(context.Context) (io.ReadWriteCloser, error) { return nil, errors.New("no device") },
	}
	err := sink.Send(context.Background(), ltmsg.Ping{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no device"))
	assert.NoError(t, sink.Close())
}

func TestSerialSourceMissingDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyACM9")
	src, err := ParseSource("serial://" + path + "?baud=921600")
	require.NoError(t, err)

	err = src.Lines(context.Background(), func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "921600 baud")
	assert.NotErrorIs(t, err, io.EOF)
}

func TestLogSink(t *testing.T) {
	var s LogSink
	assert.NoError(t, s.Send(context.Background(), ltmsg.SetThrust{Value: 0.5}))
	assert.NoError(t, s.Close())
}
