package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/runlog"
	"git.home.luguber.info/inful/sitepress/internal/testcms"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

type cliEnv struct {
	dir        string
	configPath string
	outputDir  string
	stateDB    string
	cms        *testcms.TestCMS
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "sitepress.yaml"),
		outputDir:  filepath.Join(dir, "dist"),
		stateDB:    filepath.Join(dir, "runs.db"),
		cms:        testcms.New(t),
	}

	web := testcms.Term(1, "Web", "web", "category")
	golang := testcms.Term(5, "Go", "go", "post_tag")
	rust := testcms.Term(9, "Rust", "rust", "technology")
	env.cms.SetCategories(web)
	env.cms.SetTags(golang)
	env.cms.AddPosts(
		testcms.Post(1, "hello-world", "2024-01-10T09:00:00", "2024-01-12T09:00:00", []wordpress.Term{web}, []wordpress.Term{golang}),
		testcms.Post(2, "second-post", "2024-02-10T09:00:00", "2024-02-10T09:00:00", []wordpress.Term{web}, nil),
	)
	env.cms.AddProjects(
		testcms.Project(10, "shop", "2024-01-01T00:00:00", true, []wordpress.Term{web}, []wordpress.Term{rust}),
		testcms.Project(11, "blog", "2024-03-01T00:00:00", false, []wordpress.Term{web}, nil),
	)

	cfg := fmt.Sprintf(`version: "1"
site:
  url: https://example.com
wordpress:
  api_url: %s
  timeout: 2s
sitemap:
  output_dir: %s
  legacy_dir: %s
daemon:
  state_db: %s
`, env.cms.APIURL(), env.outputDir, filepath.Join(dir, "public"), env.stateDB)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("sitepress"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(append([]string{"--config", e.configPath}, args...))
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, cli)
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	env := &cliEnv{configPath: filepath.Join(dir, "sitepress.yaml")}

	out, err := env.run(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, "initialized successfully")
	require.FileExists(t, env.configPath)

	_, err = env.run(t, "init")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = env.run(t, "init", "--force")
	require.NoError(t, err)
}

func TestSitemapCommand(t *testing.T) {
	env := newCLIEnv(t)
	textfile := filepath.Join(env.dir, "sitepress.prom")

	out, err := env.run(t, "sitemap", "--record", "--metrics-textfile", textfile)
	require.NoError(t, err)
	require.Contains(t, out, "12 routes (ok, reason none)")

	data, err := os.ReadFile(filepath.Join(env.outputDir, "sitemap.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<loc>https://example.com/blog/hello-world</loc>")
	require.Contains(t, string(data), "<loc>https://example.com/blog/tag/go</loc>")

	robots, err := os.ReadFile(filepath.Join(env.outputDir, "robots.txt"))
	require.NoError(t, err)
	require.Contains(t, string(robots), "Sitemap: https://example.com/sitemap.xml")

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(metrics), `sitepress_sitemap_runs_total{outcome="ok",reason="none"} 1`)

	store, err := runlog.NewSQLiteStore(env.stateDB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 12, runs[0].Routes)
}

func TestSitemapCommandFallback(t *testing.T) {
	env := newCLIEnv(t)
	env.cms.Close()

	out, err := env.run(t, "sitemap")
	require.NoError(t, err)
	require.Contains(t, out, "8 routes (fallback, reason api_unavailable)")

	_, err = env.run(t, "sitemap", "--fail-on-fallback")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryAPIUnavailable))
}

func TestSitemapCommandOverrides(t *testing.T) {
	env := newCLIEnv(t)
	other := filepath.Join(env.dir, "other")

	_, err := env.run(t, "sitemap", "--output", other, "--site-url", "https://www.example.org")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(other, "sitemap.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<loc>https://www.example.org/</loc>")
}

func TestPostsCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "posts")
	require.NoError(t, err)
	require.Contains(t, out, "Page 1 of 1 (2 posts, idle)")
	require.Contains(t, out, "second-post")

	out, err = env.run(t, "posts", "--tag", "5", "--json")
	require.NoError(t, err)
	var view struct {
		Items []struct {
			Slug string `json:"slug"`
		} `json:"items"`
		Mode string `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, "filtered", view.Mode)
	require.Len(t, view.Items, 1)
	require.Equal(t, "hello-world", view.Items[0].Slug)
}

func TestPostCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "post", "hello-world")
	require.NoError(t, err)
	require.Contains(t, out, "hello-world\n2024-01-10 · 1 min read")
	require.Contains(t, out, "Categories: Web")
	require.Contains(t, out, "Tags: Go")
	require.Contains(t, out, "related: second-post")

	out, err = env.run(t, "post", "missing")
	require.NoError(t, err)
	require.Contains(t, out, `Post "missing" not found`)
}

func TestProjectsCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "projects")
	require.NoError(t, err)
	require.Contains(t, out, "Page 1 of 1 (2 projects)")

	out, err = env.run(t, "projects", "--featured", "true", "--json")
	require.NoError(t, err)
	var page struct {
		Items []struct {
			Slug string `json:"slug"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Equal(t, 1, page.Total)
	require.Equal(t, "shop", page.Items[0].Slug)
}

func TestFacetsCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "facets", "posts", "--json")
	require.NoError(t, err)
	var groups []facetGroup
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 2)
	require.Equal(t, "categories", groups[0].Name)
	require.Equal(t, 2, groups[0].Facets[0].Count)
	require.Equal(t, "tags", groups[1].Name)
	require.Equal(t, 1, groups[1].Facets[0].Count)

	out, err = env.run(t, "facets", "projects")
	require.NoError(t, err)
	require.Contains(t, out, "technologies:")
	require.Contains(t, out, "Rust")
}

func TestCommandsSurfaceUpstreamFailures(t *testing.T) {
	env := newCLIEnv(t)
	env.cms.Fail("*", 503)

	_, err := env.run(t, "posts")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryAPIUnavailable))
	require.Equal(t, 8, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
