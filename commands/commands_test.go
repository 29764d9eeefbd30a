package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"static-deploy/activation"
	"static-deploy/config"
	"static-deploy/history"
	"static-deploy/logger"
	"static-deploy/models"
	"static-deploy/repository"
	"static-deploy/retention"
	"static-deploy/transport"
	"static-deploy/uploader"
)

const remoteDir = "/srv/site"

type stubMetadata struct {
	next int
}

func (s *stubMetadata) Generate(ctx context.Context, revision string) (models.RevisionMetadata, error) {
	s.next++
	if revision == "" {
		revision = fmt.Sprintf("v%d", s.next)
	}
	return models.RevisionMetadata{
		Revision: revision,
		Commit:   "abc123",
		Author:   "Jane <j@x.com>",
		Date:     fmt.Sprintf("2024-01-%02dT10:00:00Z", s.next),
		Message:  "fix",
	}, nil
}

type stubAssets struct{ files []models.AssetFile }

func (s stubAssets) Discover() ([]models.AssetFile, error) { return s.files, nil }

func newTestApp(t *testing.T, mem *transport.Mem) *App {
	t.Helper()
	log := logger.New("error", "text")
	repo := repository.New(mem, remoteDir)

	journal, err := history.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	return &App{
		Cfg:       &config.Config{RemoteDir: remoteDir, RemoteRoot: remoteDir, ManifestSize: 10},
		Log:       log,
		Transport: mem,
		Repo:      repo,
		Engine:    activation.NewEngine(mem, repo, remoteDir, log),
		Uploader:  uploader.New(mem, remoteDir, remoteDir, &stubMetadata{}, stubAssets{}, log),
		Cleaner:   retention.NewCleaner(mem, remoteDir, log),
		History:   journal,
	}
}

func TestUploadThenActivateFlow(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)
	ctx := context.Background()

	entry := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(entry, []byte("<html>new</html>"), 0644))

	upload, _ := Get("upload")
	require.NoError(t, upload.Run(ctx, app, []string{"-entry", entry}))

	assert.Equal(t, []byte("<html>new</html>"), mem.Files[remoteDir+"/v1/index.html"])
	assert.Contains(t, mem.Files, remoteDir+"/v1/metadata.json")

	activate, _ := Get("activate")
	require.NoError(t, activate.Run(ctx, app, []string{"v1"}))
	assert.Equal(t, remoteDir+"/v1/index.html", mem.Links[remoteDir+"/index.html"])

	events, err := app.History.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "activate", events[0].Action)
	assert.Equal(t, "success", events[0].Status)
	assert.Equal(t, "upload", events[1].Action)
}

func TestActivateUnknownRevisionCommand(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)

	activate, _ := Get("activate")
	err := activate.Run(context.Background(), app, []string{"v9"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not deployed")
}

func TestListPrunesBeyondManifestSize(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)
	ctx := context.Background()

	// Twelve revisions; r01 is the oldest.
	for i := 1; i <= 12; i++ {
		rev := fmt.Sprintf("r%02d", i)
		meta := fmt.Sprintf(
			`{"revision":%q,"commit":"abc123","author":"Jane <j@x.com>","date":"2024-01-%02dT10:00:00Z","message":"fix"}`,
			rev, i)
		mem.AddRevision(remoteDir, rev, meta)
	}

	list, _ := Get("list")
	require.NoError(t, list.Run(ctx, app, nil))

	// The two oldest are gone; the ten newest remain fetchable.
	records, err := app.Repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 10)
	assert.False(t, repository.Exists("r01", records))
	assert.False(t, repository.Exists("r02", records))
	assert.True(t, repository.Exists("r03", records))
	assert.True(t, repository.Exists("r12", records))
}

func TestListKeepsActiveRevisionWhenPruning(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		rev := fmt.Sprintf("r%02d", i)
		meta := fmt.Sprintf(
			`{"revision":%q,"commit":"abc123","author":"Jane <j@x.com>","date":"2024-01-%02dT10:00:00Z","message":"fix"}`,
			rev, i)
		mem.AddRevision(remoteDir, rev, meta)
	}
	// The oldest revision was rolled back to and is live.
	mem.Links[remoteDir+"/index.html"] = remoteDir + "/r01/index.html"

	list, _ := Get("list")
	require.NoError(t, list.Run(ctx, app, nil))

	records, err := app.Repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.True(t, repository.Exists("r01", records), "active revision survives pruning")
	assert.False(t, repository.Exists("r02", records))
}

func TestAssetsThenListUnderDefaultConfig(t *testing.T) {
	// By default the assets tree shares the revision directory; uploading
	// assets must not break subsequent listing or activation.
	mem := transport.NewMem()
	app := newTestApp(t, mem)
	ctx := context.Background()

	mem.AddRevision(remoteDir, "v1", `{"revision":"v1","commit":"c","author":"a","date":"2024-01-05T10:00:00Z","message":"m"}`)

	dir := t.TempDir()
	var files []models.AssetFile
	for _, name := range []string{"app.css", "js/app.js"} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		files = append(files, models.AssetFile{Path: name, Source: p})
	}
	app.Uploader = uploader.New(mem, remoteDir, remoteDir, &stubMetadata{}, stubAssets{files: files},
		logger.New("error", "text"))

	assetsCmd, _ := Get("assets")
	require.NoError(t, assetsCmd.Run(ctx, app, nil))
	assert.Contains(t, mem.Files, remoteDir+"/assets/app.css")

	list, _ := Get("list")
	require.NoError(t, list.Run(ctx, app, nil))

	activate, _ := Get("activate")
	require.NoError(t, activate.Run(ctx, app, []string{"v1"}))

	records, err := app.Repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "v1", records[0].Meta.Revision)
}

func TestListSkipsPruningWhenPointerUnreadable(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		rev := fmt.Sprintf("r%02d", i)
		meta := fmt.Sprintf(
			`{"revision":%q,"commit":"abc123","author":"Jane <j@x.com>","date":"2024-01-%02dT10:00:00Z","message":"fix"}`,
			rev, i)
		mem.AddRevision(remoteDir, rev, meta)
	}
	mem.Links[remoteDir+"/index.html"] = remoteDir + "/r01/index.html"
	mem.Fail["readlink "+remoteDir+"/index.html"] = fmt.Errorf("connection reset")

	list, _ := Get("list")
	require.NoError(t, list.Run(ctx, app, nil))

	// With the pointer state unknown, nothing may be pruned; the live
	// revision could be any of them.
	records, err := app.Repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 12)
}

func TestAssetsCommandReportsFailures(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)

	dir := t.TempDir()
	var files []models.AssetFile
	for _, name := range []string{"a.css", "b.js"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		files = append(files, models.AssetFile{Path: name, Source: p})
	}
	app.Uploader = uploader.New(mem, remoteDir, remoteDir, &stubMetadata{}, stubAssets{files: files},
		logger.New("error", "text"))
	mem.Fail["write "+remoteDir+"/assets/a.css"] = fmt.Errorf("connection reset")

	cmd, _ := Get("assets")
	err := cmd.Run(context.Background(), app, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, mem.Files, remoteDir+"/assets/b.js", "remaining assets still uploaded")
}

func TestActivateRunsPostActivateHook(t *testing.T) {
	mem := transport.NewMem()
	app := newTestApp(t, mem)
	app.Cfg.PostActivate = "systemctl reload nginx"
	mem.AddRevision(remoteDir, "v1", `{"revision":"v1","commit":"c","author":"a","date":"2024-01-05T10:00:00Z","message":"m"}`)

	activate, _ := Get("activate")
	require.NoError(t, activate.Run(context.Background(), app, []string{"v1"}))

	assert.Contains(t, mem.Ops, "exec systemctl reload nginx")
}

func TestRegistryListsAllCommands(t *testing.T) {
	assert.Equal(t, []string{"activate", "assets", "history", "list", "upload"}, List())
}
