package shellpipe_test

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/shellexec/shellpipe"
)

func TestReadAllReturnsEverythingWritten(t *testing.T) {
	r, w := shellpipe.New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = w.Write([]byte("hello "))
		_, _ = w.Write([]byte("world"))
		require.NoError(t, w.Close())
	}()

	out, err := r.ReadAll()
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
}

func TestSecondWriteBlocksOnceHighWaterMarkIsExceeded(t *testing.T) {
	r, w := shellpipe.NewSize(8)

	// The first write is let through even though it exceeds the high-water
	// mark (the check happens before the append, not after); the second
	// write must block until the reader drains the buffer.
	_, err := w.Write(make([]byte, 64))
	require.NoError(t, err)

	unblocked := make(chan struct{})
	go func() {
		_, _ = w.Write([]byte("more"))
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("second write returned before the buffer drained below the high-water mark")
	default:
	}

	buf := make([]byte, 64)
	_, err = r.Read(buf)
	require.NoError(t, err)

	<-unblocked
}

func TestPipeToStreamsAllBytes(t *testing.T) {
	r, w := shellpipe.New()
	go func() {
		_, _ = w.Write([]byte("streamed"))
		_ = w.Close()
	}()

	var dst countingWriter
	n, err := r.PipeTo(&dst)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "streamed", dst.data)
}

func TestMultipleWriterClonesKeepReaderOpenUntilAllClosed(t *testing.T) {
	r, w := shellpipe.New()
	w2, err := w.TryClone()
	require.NoError(t, err)

	_, _ = w.Write([]byte("a"))
	require.NoError(t, w.Close())

	// Reader must still be open: w2 hasn't closed yet.
	readDone := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		_, _ = r.Read(buf)
		close(readDone)
	}()
	<-readDone

	require.NoError(t, w2.Close())
	_, err = r.ReadAll()
	assert.NoError(t, err)
}

func TestOSFilePromotionDeliversPendingAndSubsequentBytes(t *testing.T) {
	r, w := shellpipe.New()
	_, _ = w.Write([]byte("before-promotion "))

	f, err := r.OSFile()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte("after-promotion"))
		_ = w.Close()
	}()

	out, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "before-promotion after-promotion", string(out))
}

type countingWriter struct {
	data string
}

func (c *countingWriter) Write(b []byte) (int, error) {
	c.data += string(b)
	return len(b), nil
}
