package processor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "golang.org/x/image/webp"

	"imagevariants/config"
	"imagevariants/database"
	"imagevariants/imageprocessor"
	"imagevariants/logging"
	"imagevariants/types"
)

func captureConsole(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	logging.SetOutput(&out, &errOut)
	t.Cleanup(func() { logging.SetOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.SourceDir = dir
	cfg.ManifestPath = ""
	return &cfg
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func dimsOf(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func TestRun_SingleLargeSource(t *testing.T) {
	out, _ := captureConsole(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "hero.jpg")
	writeJPEG(t, src, 2000, 1000)

	stats, err := Run(testConfig(dir), imageprocessor.NewNativeCodec(nil))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sources != 1 || stats.Generated != 8 {
		t.Errorf("stats = %+v", stats)
	}

	want := map[string][2]int{
		"thumbnail": {300, 150},
		"small":     {640, 320},
		"medium":    {1024, 512},
		"large":     {1920, 960},
	}
	for size, wh := range want {
		for _, ext := range []string{".webp", ".jpg"} {
			w, h := dimsOf(t, filepath.Join(dir, "hero-"+size+ext))
			if w != wh[0] || h != wh[1] {
				t.Errorf("%s%s = %dx%d, want %dx%d", size, ext, w, h, wh[0], wh[1])
			}
		}
	}

	console := out.String()
	for _, line := range []string{
		"Found 1 source images",
		"Processing: " + src,
		"  Source dimensions: 2000x1000",
		"  ✓ Generated thumbnail WebP (300px)",
		"  ✓ Generated large JPEG (1920px)",
		"  Total: 8 files generated",
		"✓ Processing complete: 8 files generated from 1 source images",
	} {
		if !strings.Contains(console, line) {
			t.Errorf("console missing %q:\n%s", line, console)
		}
	}
}

func TestRun_NeverUpscales(t *testing.T) {
	out, _ := captureConsole(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "small.png"), 400, 300)

	if _, err := Run(testConfig(dir), imageprocessor.NewNativeCodec(nil)); err != nil {
		t.Fatal(err)
	}

	if w, h := dimsOf(t, filepath.Join(dir, "small-thumbnail.jpg")); w != 300 || h != 225 {
		t.Errorf("thumbnail = %dx%d, want 300x225", w, h)
	}
	for _, size := range []string{"small", "medium", "large"} {
		for _, ext := range []string{".webp", ".jpg"} {
			if w, h := dimsOf(t, filepath.Join(dir, "small-"+size+ext)); w != 400 || h != 300 {
				t.Errorf("%s%s = %dx%d, want 400x300", size, ext, w, h)
			}
		}
	}
	if !strings.Contains(out.String(), "  ✓ Generated large WebP (400px)") {
		t.Errorf("console should report the clamped width:\n%s", out.String())
	}
}

func TestRun_RerunIgnoresDerivatives(t *testing.T) {
	captureConsole(t)
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "post.jpg"), 800, 400)
	cfg := testConfig(dir)

	for i := 0; i < 2; i++ {
		stats, err := Run(cfg, imageprocessor.NewNativeCodec(nil))
		if err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		if stats.Sources != 1 || stats.Generated != 8 {
			t.Errorf("run %d: stats = %+v", i+1, stats)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 9 {
		t.Errorf("directory has %d entries, want 9", len(entries))
	}
}

func TestRun_CorruptSourceStopsRun(t *testing.T) {
	_, errOut := captureConsole(t)
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "a.jpg"), 320, 200)
	bad := filepath.Join(dir, "b.jpg")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeJPEG(t, filepath.Join(dir, "c.jpg"), 320, 200)

	stats, err := Run(testConfig(dir), imageprocessor.NewNativeCodec(nil))
	if err == nil {
		t.Fatal("expected error")
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Path != bad {
		t.Fatalf("err = %v, want SourceError for %s", err, bad)
	}
	if !errors.Is(err, imageprocessor.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
	if stats.Processed != 1 || stats.Generated != 8 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := os.Stat(filepath.Join(dir, "a-large.webp")); err != nil {
		t.Errorf("earlier source outputs should remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c-thumbnail.webp")); !os.IsNotExist(err) {
		t.Errorf("later source should not be processed, stat err = %v", err)
	}
	if errOut.Len() != 0 {
		t.Errorf("Run should leave error reporting to the caller, got %q", errOut.String())
	}
}

func TestRun_EmptyTree(t *testing.T) {
	out, _ := captureConsole(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "2024"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(dir)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "manifest.db")

	stats, err := Run(cfg, imageprocessor.NewNativeCodec(nil))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sources != 0 || stats.Generated != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if !strings.Contains(out.String(), "No images to process") {
		t.Errorf("console = %q", out.String())
	}
	if _, err := os.Stat(cfg.ManifestPath); !os.IsNotExist(err) {
		t.Errorf("manifest should not be created for an empty run, stat err = %v", err)
	}
}

func TestRun_MissingRoot(t *testing.T) {
	captureConsole(t)
	_, err := Run(testConfig(filepath.Join(t.TempDir(), "nope")), imageprocessor.NewNativeCodec(nil))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_RecordsManifest(t *testing.T) {
	captureConsole(t)
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "a.jpg"), 700, 350)
	writePNG(t, filepath.Join(dir, "b.png"), 200, 100)
	cfg := testConfig(dir)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "manifest.db")

	if _, err := Run(cfg, imageprocessor.NewNativeCodec(nil)); err != nil {
		t.Fatal(err)
	}

	db, err := database.InitDatabase(cfg.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stats, err := database.GetRunStats(db, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Status != database.StatusCompleted || stats.Sources != 2 || stats.Derivatives != 16 || stats.DistinctSrcs != 2 {
		t.Errorf("run stats = %+v", stats)
	}

	rows, err := database.QueryDerivatives(db, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.Path == filepath.Join(dir, "b-large.jpg") && (r.Width != 200 || r.Height != 100) {
			t.Errorf("b-large.jpg recorded as %dx%d", r.Width, r.Height)
		}
		if r.Bytes <= 0 {
			t.Errorf("%s recorded with %d bytes", r.Path, r.Bytes)
		}
	}
}

func TestRun_FailedRunIsMarked(t *testing.T) {
	captureConsole(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.png"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(dir)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "manifest.db")

	if _, err := Run(cfg, imageprocessor.NewNativeCodec(nil)); err == nil {
		t.Fatal("expected error")
	}

	db, err := database.InitDatabase(cfg.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stats, err := database.GetRunStats(db, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Status != database.StatusFailed {
		t.Errorf("status = %q, want %q", stats.Status, database.StatusFailed)
	}
}

// fakeCodec records the order in which variants are requested.
type fakeCodec struct {
	dims    types.Dimensions
	writes  []string
	failOn  string
	opened  int
	probed  int
	closed  int
	openErr error
}

func (c *fakeCodec) Name() string { return "fake" }
func (c *fakeCodec) Available() error { return nil }

func (c *fakeCodec) Probe(path string) (types.Dimensions, error) {
	c.probed++
	return c.dims, nil
}

func (c *fakeCodec) Open(path string) (imageprocessor.Source, error) {
	c.opened++
	if c.openErr != nil {
		return nil, c.openErr
	}
	return &fakeSource{codec: c}, nil
}

type fakeSource struct {
	codec *fakeCodec
}

func (s *fakeSource) Dimensions() types.Dimensions { return s.codec.dims }

func (s *fakeSource) WriteVariant(dst string, width int, format types.FormatProfile) (types.Dimensions, error) {
	if filepath.Base(dst) == s.codec.failOn {
		return types.Dimensions{}, imageprocessor.ErrEncode
	}
	s.codec.writes = append(s.codec.writes, filepath.Base(dst))
	if err := os.WriteFile(dst, []byte("x"), 0o644); err != nil {
		return types.Dimensions{}, err
	}
	return types.Dimensions{Width: width, Height: 1}, nil
}

func (s *fakeSource) Close() error {
	s.codec.closed++
	return nil
}

type recorderFunc func(types.DerivativeInfo) error

func (f recorderFunc) RecordDerivative(info types.DerivativeInfo) error { return f(info) }

func TestGenerate_WriteOrder(t *testing.T) {
	captureConsole(t)
	dir := t.TempDir()
	codec := &fakeCodec{dims: types.Dimensions{Width: 4000, Height: 3000}}
	cfg := testConfig(dir)

	n, err := NewGenerator(codec, cfg).Generate(filepath.Join(dir, "post.jpeg"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Errorf("generated %d, want 8", n)
	}
	want := []string{
		"post-thumbnail.webp", "post-thumbnail.jpg",
		"post-small.webp", "post-small.jpg",
		"post-medium.webp", "post-medium.jpg",
		"post-large.webp", "post-large.jpg",
	}
	if strings.Join(codec.writes, ",") != strings.Join(want, ",") {
		t.Errorf("writes = %v, want %v", codec.writes, want)
	}
	if codec.probed != 1 || codec.opened != 1 || codec.closed != 1 {
		t.Errorf("probe/open/close = %d/%d/%d", codec.probed, codec.opened, codec.closed)
	}
}

func TestGenerate_StopsAtFirstWriteError(t *testing.T) {
	captureConsole(t)
	dir := t.TempDir()
	codec := &fakeCodec{dims: types.Dimensions{Width: 4000, Height: 3000}, failOn: "post-small.webp"}
	src := filepath.Join(dir, "post.jpg")

	n, err := NewGenerator(codec, testConfig(dir)).Generate(src)
	if n != 0 || err == nil {
		t.Fatalf("got %d, %v", n, err)
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Path != src || !errors.Is(err, imageprocessor.ErrEncode) {
		t.Errorf("err = %v", err)
	}
	if len(codec.writes) != 2 {
		t.Errorf("writes = %v", codec.writes)
	}
	if codec.closed != 1 {
		t.Error("source not closed after failure")
	}
}

func TestGenerate_OpenError(t *testing.T) {
	captureConsole(t)
	codec := &fakeCodec{dims: types.Dimensions{Width: 10, Height: 10}, openErr: imageprocessor.ErrDecode}
	_, err := NewGenerator(codec, testConfig(t.TempDir())).Generate("x.png")
	if !errors.Is(err, imageprocessor.ErrDecode) {
		t.Errorf("err = %v", err)
	}
}

func TestGenerate_InvalidDimensions(t *testing.T) {
	captureConsole(t)
	codec := &fakeCodec{dims: types.Dimensions{Width: 0, Height: 10}}
	_, err := NewGenerator(codec, testConfig(t.TempDir())).Generate("x.png")
	if err == nil || codec.opened != 0 {
		t.Errorf("err = %v, opened = %d", err, codec.opened)
	}
}

func TestGenerate_RecorderErrorFailsSource(t *testing.T) {
	captureConsole(t)
	dir := t.TempDir()
	codec := &fakeCodec{dims: types.Dimensions{Width: 100, Height: 100}}
	gen := NewGenerator(codec, testConfig(dir))

	var recorded []types.DerivativeInfo
	gen.SetRecorder(recorderFunc(func(info types.DerivativeInfo) error {
		recorded = append(recorded, info)
		if len(recorded) == 3 {
			return errors.New("disk full")
		}
		return nil
	}))

	if _, err := gen.Generate(filepath.Join(dir, "p.jpg")); err == nil {
		t.Fatal("expected error")
	}
	if len(recorded) != 3 {
		t.Errorf("recorded %d derivatives", len(recorded))
	}
	if recorded[0].Size != "thumbnail" || recorded[0].Format != "webp" || recorded[0].Bytes != 1 {
		t.Errorf("first record = %+v", recorded[0])
	}
}
