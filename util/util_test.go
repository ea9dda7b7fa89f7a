package util

import (
	"testing"

	"github.com/mediaroll/mediaroll/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.mp4"), ShouldEqual, "file_name_.mp4")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("clip__one.mp4"), ShouldEqual, "clip_one.mp4")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-clip-name-"), ShouldEqual, "clip-name")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "endpoint", "endpoints"), ShouldEqual, "1 endpoint")
		So(Quantify(12, "endpoint", "endpoints"), ShouldEqual, "12 endpoints")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("catalog"), ShouldEqual, "Catalog")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestTruncate(t *testing.T) {
	Convey("Truncate", t, func() {
		So(Truncate("https://api.example/video.php", 10), ShouldEqual, "https://a…")
		So(Truncate("short", 10), ShouldEqual, "short")
		So(Truncate("视频视频视频", 3), ShouldEqual, "视频…")
		So(Truncate("anything", 0), ShouldEqual, "anything")
	})
}

func TestTerminalWidth(t *testing.T) {
	Convey("TerminalWidth is always positive", t, func() {
		So(TerminalWidth(80), ShouldBeGreaterThan, 0)
	})
}

func TestDelete(t *testing.T) {
	filesystem.SetMemMapFs()

	Convey("Given a directory with files", t, func() {
		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/tmp/util/dir", 0o755))
		lo.Must0(fs.WriteFile("/tmp/util/dir/a", []byte("a"), 0o644))
		lo.Must0(fs.WriteFile("/tmp/util/file", []byte("b"), 0o644))

		Convey("Delete removes the whole tree", func() {
			So(Delete("/tmp/util/dir"), ShouldBeNil)
			So(lo.Must(fs.Exists("/tmp/util/dir")), ShouldBeFalse)
		})

		Convey("Delete removes single files", func() {
			So(Delete("/tmp/util/file"), ShouldBeNil)
			So(lo.Must(fs.Exists("/tmp/util/file")), ShouldBeFalse)
		})

		Convey("Delete reports missing paths", func() {
			So(Delete("/tmp/util/missing"), ShouldNotBeNil)
		})
	})
}
