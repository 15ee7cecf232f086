package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/ingenuity-dl/internal/config"
	"github.com/handiism/ingenuity-dl/internal/model"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, image.NewGray(image.Rect(0, 0, 8, 8))))

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/img.png":
			_, _ = w.Write(pngData.Bytes())
		case r.URL.Query().Get("num") == "1":
			fmt.Fprintf(w, `{"num_images": 1, "images": [{"sol": 54, "image_files": {"full_res": "%s/img.png"}}]}`, srv.URL)
		case r.URL.Query().Get("sol") == "54":
			fmt.Fprintf(w, `{"num_images": 2, "images": [{"image_files": {"full_res": "%[1]s/img.png"}}, {"image_files": {"full_res": "%[1]s/img.png"}}]}`, srv.URL)
		default:
			fmt.Fprint(w, `{"num_images": null}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, feedURL string) string {
	t.Helper()
	settings := config.DefaultSettings()
	settings.FeedURL = feedURL
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, settings.Save(path))
	return path
}

func TestRun_Success(t *testing.T) {
	srv := feedServer(t)
	output := filepath.Join(t.TempDir(), "flight.gif")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config", writeConfig(t, srv.URL+"/rss/api/"),
		"-o", output,
		"--fps", "5",
	}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, output)
	assert.Contains(t, stdout.String(), "[1/4]")
	assert.Contains(t, stdout.String(), "[4/4]")
	assert.Empty(t, stderr.String())
}

func TestRun_SolNotFound(t *testing.T) {
	srv := feedServer(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config", writeConfig(t, srv.URL+"/rss/api/"),
		"-d", "9999",
		"-o", filepath.Join(t.TempDir(), "x.gif"),
	}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: ")
	assert.Contains(t, stderr.String(), "no data from sol 9999")
	assert.Contains(t, stderr.String(), model.FlightsReference)
}

func TestRun_BadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative sol", []string{"--sol", "-5"}, "invalid sol"},
		{"zero fps", []string{"--fps", "0"}, "fps"},
		{"bad log level", []string{"--loglevel", "chatty"}, "invalid log level"},
		{"bad log format", []string{"--logformat", "xml"}, "invalid log format"},
		{"positional args", []string{"54"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestRun_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--config", writeConfig(t, srv.URL)}, &stdout, &stderr)
	assert.Equal(t, exitInterrupted, code)
}

func TestLoadSettings_Overrides(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-o", "a/b.gif", "--fps", "7", "-s", "--concurrency", "9", "--timeout", "15s"}))

	opts := &options{}
	opts.output, _ = cmd.Flags().GetString("output")
	opts.fps, _ = cmd.Flags().GetInt("fps")
	opts.save, _ = cmd.Flags().GetBool("save")
	opts.concurrency, _ = cmd.Flags().GetInt("concurrency")
	opts.sol = int(model.LatestSol)

	settings, err := loadSettings(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "a/b.gif", settings.OutputPath)
	assert.Equal(t, 7, settings.FPS)
	assert.True(t, settings.SaveImages)
	assert.Equal(t, 9, settings.MaxConcurrentDownloads)
	assert.Equal(t, 15*time.Second, settings.RequestTimeout.Duration)
}

func TestLoadSettings_Defaults(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	settings, err := loadSettings(cmd, &options{sol: int(model.LatestSol)})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), settings)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &model.SolNotFoundError{Sol: 12}, "no data from sol 12"},
		{"remote", fmt.Errorf("%w: dial tcp", model.ErrRemoteUnavailable), "could not reach"},
		{"malformed", fmt.Errorf("%w: images[3]", model.ErrMalformedResponse), "unexpected response"},
		{"download", &model.DownloadError{Index: 4, URL: "https://x/4.jpg", Err: errors.New("EOF")}, "image 4 could not be downloaded"},
		{"decode", &model.FrameDecodeError{Index: 2, Err: errors.New("bad huffman")}, "image 2 is not a readable image"},
		{"empty", fmt.Errorf("sol 3: %w", model.ErrNoFrames), "nothing to animate"},
		{"other", errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, describe(tt.err), tt.want)
		})
	}
}

func TestMain(m *testing.M) {
	// keep test runs from writing output.gif into the package directory
	dir, err := os.MkdirTemp("", "ingenuity-dl-test")
	if err != nil {
		panic(err)
	}
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
