package emitter

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/log-payload/internal/config"
	"github.com/GabrielNunesIT/log-payload/internal/testutil"
)

func TestSpoolEmitter_Start(t *testing.T) {
	cfg := config.SpoolConfig{
		Path: "/tmp/test.spool",
	}

	t.Run("success", func(t *testing.T) {
		mockWriter := testutil.NewWriteCloser(t)
		factory := func(c config.SpoolConfig) (io.WriteCloser, error) {
			return mockWriter, nil
		}

		e := NewSpoolEmitter(cfg, WithWriterFactory(factory))
		err := e.Start(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "spool", e.Name())
	})

	t.Run("factory error", func(t *testing.T) {
		factory := func(c config.SpoolConfig) (io.WriteCloser, error) {
			return nil, errors.New("factory error")
		}

		e := NewSpoolEmitter(cfg, WithWriterFactory(factory))
		err := e.Start(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "factory error")
	})
}

func TestSpoolEmitter_Emit(t *testing.T) {
	cfg := config.SpoolConfig{}
	payload := []byte{0x78, 0x9c, 0x01, 0x02, 0x03}

	t.Run("success", func(t *testing.T) {
		mockWriter := testutil.NewWriteCloser(t)
		factory := func(c config.SpoolConfig) (io.WriteCloser, error) {
			return mockWriter, nil
		}

		want := base64.StdEncoding.EncodeToString(payload) + "\n"
		mockWriter.On("Write", mock.MatchedBy(func(p []byte) bool {
			return string(p) == want
		})).Return(len(want), nil)

		e := NewSpoolEmitter(cfg, WithWriterFactory(factory))
		_ = e.Start(context.Background())

		err := e.Emit(context.Background(), payload)
		assert.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("write error", func(t *testing.T) {
		mockWriter := testutil.NewWriteCloser(t)
		factory := func(c config.SpoolConfig) (io.WriteCloser, error) {
			return mockWriter, nil
		}

		mockWriter.On("Write", mock.Anything).Return(0, errors.New("disk full"))

		e := NewSpoolEmitter(cfg, WithWriterFactory(factory))
		_ = e.Start(context.Background())

		err := e.Emit(context.Background(), payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("not started", func(t *testing.T) {
		e := NewSpoolEmitter(cfg)
		err := e.Emit(context.Background(), payload)
		assert.Error(t, err)
	})
}

func TestSpoolEmitter_Stop(t *testing.T) {
	mockWriter := testutil.NewWriteCloser(t)
	factory := func(c config.SpoolConfig) (io.WriteCloser, error) {
		return mockWriter, nil
	}

	mockWriter.On("Close").Return(nil).Once()

	e := NewSpoolEmitter(config.SpoolConfig{}, WithWriterFactory(factory))
	_ = e.Start(context.Background())

	err := e.Stop(context.Background())
	assert.NoError(t, err)

	// Second stop is a no-op
	assert.NoError(t, e.Stop(context.Background()))
	mockWriter.AssertExpectations(t)
}

func TestSpoolEmitter_Lumberjack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool", "payloads.log")
	e := NewSpoolEmitter(config.SpoolConfig{Path: path, MaxSizeMB: 1})

	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Emit(context.Background(), []byte("first")))
	require.NoError(t, e.Emit(context.Background(), []byte("second")))
	require.NoError(t, e.Stop(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		data, err := base64.StdEncoding.DecodeString(scanner.Text())
		require.NoError(t, err)
		got = append(got, string(data))
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"first", "second"}, got)
}
